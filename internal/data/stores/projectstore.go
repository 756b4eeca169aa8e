package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/colonyops/buildsched/internal/data/db"
	"github.com/colonyops/buildsched/pkg/randid"
)

const statusApproved = "approved"

const (
	busyRetries = 3
	busyBackoff = 25 * time.Millisecond
)

// ProjectStore reads approved line items for scheduling and writes the
// scheduling columns back. Pricing columns belong to estimating and are
// only ever written by Import.
type ProjectStore struct {
	db  *db.DB
	now func() time.Time
}

var (
	_ schedule.Source    = (*ProjectStore)(nil)
	_ schedule.Persister = (*ProjectStore)(nil)
)

// NewProjectStore creates a new SQLite-backed project store.
func NewProjectStore(db *db.DB) *ProjectStore {
	return &ProjectStore{db: db, now: time.Now}
}

// ListProjects returns every project ordered by name.
func (s *ProjectStore) ListProjects(ctx context.Context) ([]schedule.Project, error) {
	rows, err := s.db.Queries().ListProjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := make([]schedule.Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, rowToProject(row))
	}
	return projects, nil
}

// GetProject returns one project. Returns ErrProjectNotFound if missing.
func (s *ProjectStore) GetProject(ctx context.Context, id string) (schedule.Project, error) {
	row, err := s.db.Queries().GetProject(ctx, id)
	if IsNotFoundError(err) {
		return schedule.Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if err != nil {
		return schedule.Project{}, fmt.Errorf("get project %s: %w", id, err)
	}
	return rowToProject(row), nil
}

// DeleteProject removes a project and everything imported with it.
func (s *ProjectStore) DeleteProject(ctx context.Context, id string) error {
	n, err := s.db.Queries().DeleteProject(ctx, id)
	if err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return nil
}

// LoadDataset reads the line items of the most recently approved estimate,
// the line items of every approved change order, and the correlated expenses,
// all from one read transaction.
func (s *ProjectStore) LoadDataset(ctx context.Context, projectID string) (schedule.Dataset, error) {
	var ds schedule.Dataset

	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		project, err := q.GetProject(ctx, projectID)
		if IsNotFoundError(err) {
			return fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		ds.Project = rowToProject(project)

		estimate, err := q.GetLatestApprovedEstimate(ctx, projectID)
		switch {
		case IsNotFoundError(err):
			// no approved estimate yet; change orders may still exist
		case err != nil:
			return fmt.Errorf("get approved estimate: %w", err)
		default:
			rows, err := q.ListEstimateLineItems(ctx, estimate.ID)
			if err != nil {
				return fmt.Errorf("list estimate line items: %w", err)
			}
			for _, row := range rows {
				ds.LineItems = append(ds.LineItems, rowToLineItem(row, schedule.SourceEstimateLine, ""))
			}
		}

		orders, err := q.ListApprovedChangeOrders(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list change orders: %w", err)
		}
		for _, co := range orders {
			rows, err := q.ListChangeOrderLineItems(ctx, co.ID)
			if err != nil {
				return fmt.Errorf("list change order %s line items: %w", co.CoNumber, err)
			}
			for _, row := range rows {
				ds.LineItems = append(ds.LineItems, rowToLineItem(row, schedule.SourceChangeOrderLine, co.CoNumber))
			}
		}

		expenses, err := q.ListExpenseCorrelations(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list expense correlations: %w", err)
		}
		ds.Entries = make([]schedule.CostEntry, 0, len(expenses))
		for _, e := range expenses {
			ds.Entries = append(ds.Entries, schedule.CostEntry{
				ID:          e.ID,
				LineItemID:  e.LineItemID,
				Amount:      e.Amount,
				Description: e.Description,
			})
		}
		return nil
	})
	if err != nil {
		return schedule.Dataset{}, fmt.Errorf("load dataset %s: %w", projectID, err)
	}

	return ds, nil
}

// SaveSchedule writes the scheduling columns of one line item, routed to the
// table its source kind names.
func (s *ProjectStore) SaveSchedule(ctx context.Context, u schedule.TaskUpdate) error {
	deps, err := encodeDependencies(u.Dependencies)
	if err != nil {
		return fmt.Errorf("save schedule %s: %w", u.TaskID, err)
	}

	params := db.UpdateLineItemScheduleParams{
		ScheduledStartDate: sql.NullString{String: schedule.FormatDate(u.Start), Valid: !u.Start.IsZero()},
		ScheduledEndDate:   sql.NullString{String: schedule.FormatDate(u.End), Valid: !u.End.IsZero()},
		DurationDays:       sql.NullInt64{Int64: int64(u.DurationDays), Valid: u.DurationDays > 0},
		Dependencies:       deps,
		IsMilestone:        u.IsMilestone,
		ScheduleNotes:      sql.NullString{String: u.ScheduleNotes, Valid: u.ScheduleNotes != ""},
		UpdatedAt:          s.now().UnixNano(),
		ID:                 u.TaskID,
	}

	update := s.db.Queries().UpdateEstimateLineItemSchedule
	switch u.Source {
	case schedule.SourceEstimateLine:
	case schedule.SourceChangeOrderLine:
		update = s.db.Queries().UpdateChangeOrderLineItemSchedule
	default:
		return fmt.Errorf("save schedule %s: unknown source %q", u.TaskID, u.Source)
	}

	var n int64
	for attempt := 0; ; attempt++ {
		n, err = update(ctx, params)
		if err == nil || !IsBusyError(err) || attempt >= busyRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("save schedule %s: %w", u.TaskID, ctx.Err())
		case <-time.After(time.Duration(attempt+1) * busyBackoff):
		}
	}
	if err != nil {
		return fmt.Errorf("save schedule %s: %w", u.TaskID, err)
	}
	if n == 0 {
		return fmt.Errorf("save schedule %s: %w", u.TaskID, schedule.ErrTaskNotFound)
	}

	return nil
}

// Import replaces the project named by f with the fixture's contents and
// returns its id. Missing ids are generated.
func (s *ProjectStore) Import(ctx context.Context, f Fixture) (string, error) {
	if f.Project.Name == "" {
		return "", errors.New("import: project name is required")
	}
	f = assignFixtureIDs(f)
	index := indexFixtureLines(f)
	now := s.now().UnixNano()

	err := s.db.WithTx(ctx, func(q *db.Queries) error {
		if _, err := q.DeleteProject(ctx, f.Project.ID); err != nil {
			return fmt.Errorf("replace project: %w", err)
		}

		start, err := optionalDate(f.Project.StartDate)
		if err != nil {
			return fmt.Errorf("project start_date: %w", err)
		}
		end, err := optionalDate(f.Project.EndDate)
		if err != nil {
			return fmt.Errorf("project end_date: %w", err)
		}
		if err := q.InsertProject(ctx, db.InsertProjectParams{
			ID:        f.Project.ID,
			Name:      f.Project.Name,
			StartDate: start,
			EndDate:   end,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("insert project: %w", err)
		}

		for _, est := range f.Estimates {
			approvedAt, err := optionalTimestamp(est.ApprovedAt)
			if err != nil {
				return fmt.Errorf("estimate %s approved_at: %w", est.ID, err)
			}
			if err := q.InsertEstimate(ctx, db.InsertEstimateParams{
				ID:         est.ID,
				ProjectID:  f.Project.ID,
				Status:     est.Status,
				ApprovedAt: approvedAt,
				CreatedAt:  now,
			}); err != nil {
				return fmt.Errorf("insert estimate %s: %w", est.ID, err)
			}
			for i, li := range est.LineItems {
				row, err := fixtureLineRow(li, est.ID, i, index, now)
				if err != nil {
					return err
				}
				if err := q.InsertEstimateLineItem(ctx, row); err != nil {
					return fmt.Errorf("insert line item %s: %w", li.ID, err)
				}
			}
		}

		for _, co := range f.ChangeOrders {
			approvedAt, err := optionalTimestamp(co.ApprovedAt)
			if err != nil {
				return fmt.Errorf("change order %s approved_at: %w", co.Number, err)
			}
			if err := q.InsertChangeOrder(ctx, db.InsertChangeOrderParams{
				ID:         co.ID,
				ProjectID:  f.Project.ID,
				CoNumber:   co.Number,
				Status:     co.Status,
				ApprovedAt: approvedAt,
				CreatedAt:  now,
			}); err != nil {
				return fmt.Errorf("insert change order %s: %w", co.Number, err)
			}
			for i, li := range co.LineItems {
				row, err := fixtureLineRow(li, co.ID, i, index, now)
				if err != nil {
					return err
				}
				if err := q.InsertChangeOrderLineItem(ctx, row); err != nil {
					return fmt.Errorf("insert line item %s: %w", li.ID, err)
				}
			}
		}

		for _, e := range f.Expenses {
			if err := q.InsertExpenseCorrelation(ctx, db.InsertExpenseCorrelationParams{
				ID:          e.ID,
				ProjectID:   f.Project.ID,
				LineItemID:  e.LineItem,
				Amount:      e.Amount,
				Description: e.Description,
				CreatedAt:   now,
			}); err != nil {
				return fmt.Errorf("insert expense %s: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		if IsUniqueConstraintError(err) {
			return "", fmt.Errorf("import %s: duplicate id in fixture: %w", f.Project.ID, err)
		}
		return "", fmt.Errorf("import %s: %w", f.Project.ID, err)
	}

	return f.Project.ID, nil
}

type fixtureLine struct {
	name string
	kind schedule.SourceKind
}

func assignFixtureIDs(f Fixture) Fixture {
	if f.Project.ID == "" {
		f.Project.ID = randid.Prefixed("p", 8)
	}

	f.Estimates = append([]FixtureEstimate(nil), f.Estimates...)
	for i := range f.Estimates {
		est := &f.Estimates[i]
		if est.ID == "" {
			est.ID = randid.Prefixed("est", 8)
		}
		if est.Status == "" {
			est.Status = statusApproved
		}
		est.LineItems = assignLineIDs(est.LineItems)
	}

	f.ChangeOrders = append([]FixtureChangeOrder(nil), f.ChangeOrders...)
	for i := range f.ChangeOrders {
		co := &f.ChangeOrders[i]
		if co.ID == "" {
			co.ID = randid.Prefixed("co", 8)
		}
		if co.Number == "" {
			co.Number = fmt.Sprintf("CO-%03d", i+1)
		}
		if co.Status == "" {
			co.Status = statusApproved
		}
		co.LineItems = assignLineIDs(co.LineItems)
	}

	f.Expenses = append([]FixtureExpense(nil), f.Expenses...)
	for i := range f.Expenses {
		if f.Expenses[i].ID == "" {
			f.Expenses[i].ID = randid.Prefixed("exp", 8)
		}
	}
	return f
}

func assignLineIDs(items []FixtureLineItem) []FixtureLineItem {
	items = append([]FixtureLineItem(nil), items...)
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = randid.Prefixed("li", 8)
		}
	}
	return items
}

func indexFixtureLines(f Fixture) map[string]fixtureLine {
	index := make(map[string]fixtureLine)
	for _, est := range f.Estimates {
		for _, li := range est.LineItems {
			index[li.ID] = fixtureLine{name: li.Description, kind: schedule.SourceEstimateLine}
		}
	}
	for _, co := range f.ChangeOrders {
		for _, li := range co.LineItems {
			index[li.ID] = fixtureLine{name: co.Number + ": " + li.Description, kind: schedule.SourceChangeOrderLine}
		}
	}
	return index
}

func fixtureLineRow(li FixtureLineItem, parentID string, position int, index map[string]fixtureLine, now int64) (db.LineItem, error) {
	start, err := optionalDate(li.ScheduledStart)
	if err != nil {
		return db.LineItem{}, fmt.Errorf("line item %s scheduled_start: %w", li.ID, err)
	}
	end, err := optionalDate(li.ScheduledEnd)
	if err != nil {
		return db.LineItem{}, fmt.Errorf("line item %s scheduled_end: %w", li.ID, err)
	}

	deps := make([]schedule.Dependency, 0, len(li.DependsOn))
	for _, id := range li.DependsOn {
		d := schedule.Dependency{TaskID: id, Relation: schedule.RelationFinishToStart}
		if ref, ok := index[id]; ok {
			d.TaskName, d.TaskType = ref.name, ref.kind
		}
		deps = append(deps, d)
	}
	encodedDeps, err := encodeDependencies(deps)
	if err != nil {
		return db.LineItem{}, fmt.Errorf("line item %s: %w", li.ID, err)
	}

	doc := schedule.SubDocument{Completed: li.Completed, Notes: li.Notes}
	for _, p := range li.Phases {
		ps, err := schedule.ParseDate(p.Start)
		if err != nil {
			return db.LineItem{}, fmt.Errorf("line item %s phase start: %w", li.ID, err)
		}
		pe, err := schedule.ParseDate(p.End)
		if err != nil {
			return db.LineItem{}, fmt.Errorf("line item %s phase end: %w", li.ID, err)
		}
		doc.Phases = append(doc.Phases, schedule.Phase{
			Start:       ps,
			End:         pe,
			Description: p.Description,
			Completed:   p.Completed,
		})
	}
	notes, err := schedule.EncodeSubDocument(doc)
	if err != nil {
		return db.LineItem{}, fmt.Errorf("line item %s: %w", li.ID, err)
	}

	return db.LineItem{
		ID:                 li.ID,
		ParentID:           parentID,
		Position:           int64(position),
		Category:           li.Category,
		Description:        li.Description,
		Quantity:           li.Quantity,
		CostPerUnit:        li.CostPerUnit,
		TotalCost:          li.total(),
		ScheduledStartDate: start,
		ScheduledEndDate:   end,
		DurationDays:       sql.NullInt64{Int64: int64(li.DurationDays), Valid: li.DurationDays > 0},
		Dependencies:       encodedDeps,
		IsMilestone:        li.IsMilestone,
		ScheduleNotes:      sql.NullString{String: notes, Valid: notes != ""},
		UpdatedAt:          now,
	}, nil
}

func encodeDependencies(deps []schedule.Dependency) (sql.NullString, error) {
	if len(deps) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(deps)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode dependencies: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func decodeDependencies(lineItemID string, raw sql.NullString) []schedule.Dependency {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	var deps []schedule.Dependency
	if err := json.Unmarshal([]byte(raw.String), &deps); err != nil {
		log.Debug().Err(err).Str("line_item_id", lineItemID).Msg("ignoring malformed dependencies")
		return nil
	}
	return deps
}

func optionalDate(s string) (sql.NullString, error) {
	if s == "" {
		return sql.NullString{}, nil
	}
	t, err := schedule.ParseDate(s)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: schedule.FormatDate(t), Valid: true}, nil
}

func optionalTimestamp(s string) (sql.NullInt64, error) {
	if s == "" {
		return sql.NullInt64{}, nil
	}
	t, err := schedule.ParseDate(s)
	if err != nil {
		return sql.NullInt64{}, err
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}, nil
}

func parseStoredDate(lineItemID, column string, raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t, err := schedule.ParseDate(raw.String)
	if err != nil {
		log.Debug().Err(err).Str("line_item_id", lineItemID).Str("column", column).Msg("ignoring malformed date")
		return nil
	}
	return &t
}

func rowToProject(row db.Project) schedule.Project {
	return schedule.Project{
		ID:        row.ID,
		Name:      row.Name,
		StartDate: parseStoredDate(row.ID, "start_date", row.StartDate),
		EndDate:   parseStoredDate(row.ID, "end_date", row.EndDate),
	}
}

func rowToLineItem(row db.LineItem, kind schedule.SourceKind, coNumber string) schedule.LineItem {
	li := schedule.LineItem{
		ID:                row.ID,
		Source:            kind,
		ChangeOrderNumber: coNumber,
		Category:          row.Category,
		Description:       row.Description,
		Quantity:          row.Quantity,
		CostPerUnit:       row.CostPerUnit,
		TotalCost:         row.TotalCost,
		ScheduledStart:    parseStoredDate(row.ID, "scheduled_start_date", row.ScheduledStartDate),
		ScheduledEnd:      parseStoredDate(row.ID, "scheduled_end_date", row.ScheduledEndDate),
		Dependencies:      decodeDependencies(row.ID, row.Dependencies),
		IsMilestone:       row.IsMilestone,
		ScheduleNotes:     row.ScheduleNotes.String,
	}
	if row.DurationDays.Valid {
		li.DurationDays = int(row.DurationDays.Int64)
	}
	return li
}
