package db

import (
	"context"
	"database/sql"
)

const deleteProject = `-- name: DeleteProject :execrows
DELETE FROM projects WHERE id = ?
`

// DeleteProject removes a project and, through cascading keys, its
// estimates, change orders, line items and expense correlations.
func (q *Queries) DeleteProject(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteProject, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const getProject = `-- name: GetProject :one
SELECT id, name, start_date, end_date, created_at, updated_at FROM projects WHERE id = ?
`

func (q *Queries) GetProject(ctx context.Context, id string) (Project, error) {
	row := q.db.QueryRowContext(ctx, getProject, id)
	var i Project
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.StartDate,
		&i.EndDate,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listProjects = `-- name: ListProjects :many
SELECT id, name, start_date, end_date, created_at, updated_at FROM projects ORDER BY name, id
`

func (q *Queries) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := q.db.QueryContext(ctx, listProjects)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var i Project
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.StartDate,
			&i.EndDate,
			&i.CreatedAt,
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

const insertProject = `-- name: InsertProject :exec
INSERT INTO projects (id, name, start_date, end_date, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertProjectParams struct {
	ID        string
	Name      string
	StartDate sql.NullString
	EndDate   sql.NullString
	CreatedAt int64
	UpdatedAt int64
}

func (q *Queries) InsertProject(ctx context.Context, arg InsertProjectParams) error {
	_, err := q.db.ExecContext(ctx, insertProject,
		arg.ID,
		arg.Name,
		arg.StartDate,
		arg.EndDate,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getLatestApprovedEstimate = `-- name: GetLatestApprovedEstimate :one
SELECT id, project_id, status, approved_at, created_at FROM estimates
WHERE project_id = ? AND status = 'approved'
ORDER BY approved_at DESC, created_at DESC
LIMIT 1
`

func (q *Queries) GetLatestApprovedEstimate(ctx context.Context, projectID string) (Estimate, error) {
	row := q.db.QueryRowContext(ctx, getLatestApprovedEstimate, projectID)
	var i Estimate
	err := row.Scan(
		&i.ID,
		&i.ProjectID,
		&i.Status,
		&i.ApprovedAt,
		&i.CreatedAt,
	)
	return i, err
}

const insertEstimate = `-- name: InsertEstimate :exec
INSERT INTO estimates (id, project_id, status, approved_at, created_at)
VALUES (?, ?, ?, ?, ?)
`

type InsertEstimateParams struct {
	ID         string
	ProjectID  string
	Status     string
	ApprovedAt sql.NullInt64
	CreatedAt  int64
}

func (q *Queries) InsertEstimate(ctx context.Context, arg InsertEstimateParams) error {
	_, err := q.db.ExecContext(ctx, insertEstimate,
		arg.ID,
		arg.ProjectID,
		arg.Status,
		arg.ApprovedAt,
		arg.CreatedAt,
	)
	return err
}

const listApprovedChangeOrders = `-- name: ListApprovedChangeOrders :many
SELECT id, project_id, co_number, status, approved_at, created_at FROM change_orders
WHERE project_id = ? AND status = 'approved'
ORDER BY approved_at, co_number
`

func (q *Queries) ListApprovedChangeOrders(ctx context.Context, projectID string) ([]ChangeOrder, error) {
	rows, err := q.db.QueryContext(ctx, listApprovedChangeOrders, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ChangeOrder
	for rows.Next() {
		var i ChangeOrder
		if err := rows.Scan(
			&i.ID,
			&i.ProjectID,
			&i.CoNumber,
			&i.Status,
			&i.ApprovedAt,
			&i.CreatedAt,
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

const insertChangeOrder = `-- name: InsertChangeOrder :exec
INSERT INTO change_orders (id, project_id, co_number, status, approved_at, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertChangeOrderParams struct {
	ID         string
	ProjectID  string
	CoNumber   string
	Status     string
	ApprovedAt sql.NullInt64
	CreatedAt  int64
}

func (q *Queries) InsertChangeOrder(ctx context.Context, arg InsertChangeOrderParams) error {
	_, err := q.db.ExecContext(ctx, insertChangeOrder,
		arg.ID,
		arg.ProjectID,
		arg.CoNumber,
		arg.Status,
		arg.ApprovedAt,
		arg.CreatedAt,
	)
	return err
}

const listExpenseCorrelations = `-- name: ListExpenseCorrelations :many
SELECT id, project_id, line_item_id, amount, description, created_at FROM expense_correlations
WHERE project_id = ?
ORDER BY created_at, id
`

func (q *Queries) ListExpenseCorrelations(ctx context.Context, projectID string) ([]ExpenseCorrelation, error) {
	rows, err := q.db.QueryContext(ctx, listExpenseCorrelations, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ExpenseCorrelation
	for rows.Next() {
		var i ExpenseCorrelation
		if err := rows.Scan(
			&i.ID,
			&i.ProjectID,
			&i.LineItemID,
			&i.Amount,
			&i.Description,
			&i.CreatedAt,
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

const insertExpenseCorrelation = `-- name: InsertExpenseCorrelation :exec
INSERT INTO expense_correlations (id, project_id, line_item_id, amount, description, created_at)
VALUES (?, ?, ?, ?, ?, ?)
`

type InsertExpenseCorrelationParams struct {
	ID          string
	ProjectID   string
	LineItemID  string
	Amount      float64
	Description string
	CreatedAt   int64
}

func (q *Queries) InsertExpenseCorrelation(ctx context.Context, arg InsertExpenseCorrelationParams) error {
	_, err := q.db.ExecContext(ctx, insertExpenseCorrelation,
		arg.ID,
		arg.ProjectID,
		arg.LineItemID,
		arg.Amount,
		arg.Description,
		arg.CreatedAt,
	)
	return err
}
