package db

import (
	"context"
	"database/sql"
)

const listEstimateLineItems = `-- name: ListEstimateLineItems :many
SELECT id, estimate_id, position, category, description, quantity, cost_per_unit, total_cost,
       scheduled_start_date, scheduled_end_date, duration_days, dependencies, is_milestone,
       schedule_notes, updated_at
FROM estimate_line_items
WHERE estimate_id = ?
ORDER BY position, id
`

func (q *Queries) ListEstimateLineItems(ctx context.Context, estimateID string) ([]LineItem, error) {
	return q.listLineItems(ctx, listEstimateLineItems, estimateID)
}

const listChangeOrderLineItems = `-- name: ListChangeOrderLineItems :many
SELECT id, change_order_id, position, category, description, quantity, cost_per_unit, total_cost,
       scheduled_start_date, scheduled_end_date, duration_days, dependencies, is_milestone,
       schedule_notes, updated_at
FROM change_order_line_items
WHERE change_order_id = ?
ORDER BY position, id
`

func (q *Queries) ListChangeOrderLineItems(ctx context.Context, changeOrderID string) ([]LineItem, error) {
	return q.listLineItems(ctx, listChangeOrderLineItems, changeOrderID)
}

func (q *Queries) listLineItems(ctx context.Context, query, parentID string) ([]LineItem, error) {
	rows, err := q.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LineItem
	for rows.Next() {
		var i LineItem
		if err := rows.Scan(
			&i.ID,
			&i.ParentID,
			&i.Position,
			&i.Category,
			&i.Description,
			&i.Quantity,
			&i.CostPerUnit,
			&i.TotalCost,
			&i.ScheduledStartDate,
			&i.ScheduledEndDate,
			&i.DurationDays,
			&i.Dependencies,
			&i.IsMilestone,
			&i.ScheduleNotes,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const insertEstimateLineItem = `-- name: InsertEstimateLineItem :exec
INSERT INTO estimate_line_items (
    id, estimate_id, position, category, description, quantity, cost_per_unit, total_cost,
    scheduled_start_date, scheduled_end_date, duration_days, dependencies, is_milestone,
    schedule_notes, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertEstimateLineItem(ctx context.Context, arg LineItem) error {
	return q.insertLineItem(ctx, insertEstimateLineItem, arg)
}

const insertChangeOrderLineItem = `-- name: InsertChangeOrderLineItem :exec
INSERT INTO change_order_line_items (
    id, change_order_id, position, category, description, quantity, cost_per_unit, total_cost,
    scheduled_start_date, scheduled_end_date, duration_days, dependencies, is_milestone,
    schedule_notes, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) InsertChangeOrderLineItem(ctx context.Context, arg LineItem) error {
	return q.insertLineItem(ctx, insertChangeOrderLineItem, arg)
}

func (q *Queries) insertLineItem(ctx context.Context, query string, arg LineItem) error {
	_, err := q.db.ExecContext(ctx, query,
		arg.ID,
		arg.ParentID,
		arg.Position,
		arg.Category,
		arg.Description,
		arg.Quantity,
		arg.CostPerUnit,
		arg.TotalCost,
		arg.ScheduledStartDate,
		arg.ScheduledEndDate,
		arg.DurationDays,
		arg.Dependencies,
		arg.IsMilestone,
		arg.ScheduleNotes,
		arg.UpdatedAt,
	)
	return err
}

const updateEstimateLineItemSchedule = `-- name: UpdateEstimateLineItemSchedule :execrows
UPDATE estimate_line_items SET
    scheduled_start_date = ?,
    scheduled_end_date = ?,
    duration_days = ?,
    dependencies = ?,
    is_milestone = ?,
    schedule_notes = ?,
    updated_at = ?
WHERE id = ?
`

// UpdateLineItemScheduleParams carries the scheduling columns written back
// after an edit. Pricing columns are never touched.
type UpdateLineItemScheduleParams struct {
	ScheduledStartDate sql.NullString
	ScheduledEndDate   sql.NullString
	DurationDays       sql.NullInt64
	Dependencies       sql.NullString
	IsMilestone        bool
	ScheduleNotes      sql.NullString
	UpdatedAt          int64
	ID                 string
}

func (q *Queries) UpdateEstimateLineItemSchedule(ctx context.Context, arg UpdateLineItemScheduleParams) (int64, error) {
	return q.updateLineItemSchedule(ctx, updateEstimateLineItemSchedule, arg)
}

const updateChangeOrderLineItemSchedule = `-- name: UpdateChangeOrderLineItemSchedule :execrows
UPDATE change_order_line_items SET
    scheduled_start_date = ?,
    scheduled_end_date = ?,
    duration_days = ?,
    dependencies = ?,
    is_milestone = ?,
    schedule_notes = ?,
    updated_at = ?
WHERE id = ?
`

func (q *Queries) UpdateChangeOrderLineItemSchedule(ctx context.Context, arg UpdateLineItemScheduleParams) (int64, error) {
	return q.updateLineItemSchedule(ctx, updateChangeOrderLineItemSchedule, arg)
}

func (q *Queries) updateLineItemSchedule(ctx context.Context, query string, arg UpdateLineItemScheduleParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, query,
		arg.ScheduledStartDate,
		arg.ScheduledEndDate,
		arg.DurationDays,
		arg.Dependencies,
		arg.IsMilestone,
		arg.ScheduleNotes,
		arg.UpdatedAt,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
