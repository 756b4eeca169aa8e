package schedule

import (
	"context"
	"fmt"
	"time"
)

// Project is the slice of project data the scheduler reads.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// LineItem is a priced line of an approved estimate or change order,
// carrying the scheduling columns persisted on it.
type LineItem struct {
	ID                string
	Source            SourceKind
	ChangeOrderNumber string
	Category          string
	Description       string
	Quantity          float64
	CostPerUnit       float64
	TotalCost         float64
	ScheduledStart    *time.Time
	ScheduledEnd      *time.Time
	DurationDays      int // 0 when unset
	Dependencies      []Dependency
	IsMilestone       bool
	ScheduleNotes     string
}

// CostEntry is a ledger record correlated to a line item.
type CostEntry struct {
	ID          string  `json:"id"`
	LineItemID  string  `json:"line_item_id"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description,omitempty"`
}

// Dataset is everything the read path needs for one project: line items of
// the most recently approved estimate and of every approved change order,
// plus correlated cost entries.
type Dataset struct {
	Project   Project
	LineItems []LineItem
	Entries   []CostEntry
}

// Source is the authoritative read path.
type Source interface {
	LoadDataset(ctx context.Context, projectID string) (Dataset, error)
}

// TaskUpdate is the write payload for one task, keyed by line item id and
// routed by Source to the owning collection.
type TaskUpdate struct {
	TaskID        string
	Source        SourceKind
	Start         time.Time
	End           time.Time
	DurationDays  int
	Dependencies  []Dependency
	IsMilestone   bool
	ScheduleNotes string
}

// Persister is the write path.
type Persister interface {
	SaveSchedule(ctx context.Context, update TaskUpdate) error
}

// NewTaskUpdate builds the persistence payload for t. Duration is recomputed
// from the dates rather than copied.
func NewTaskUpdate(t Task) (TaskUpdate, error) {
	c := t.Clone()
	c.Normalize()

	notes, err := EncodeSubDocument(c.SubDocument())
	if err != nil {
		return TaskUpdate{}, fmt.Errorf("task %s: %w", t.ID, err)
	}

	return TaskUpdate{
		TaskID:        c.ID,
		Source:        c.Source,
		Start:         c.Start,
		End:           c.End,
		DurationDays:  c.DurationDays,
		Dependencies:  c.Dependencies,
		IsMilestone:   c.IsMilestone,
		ScheduleNotes: notes,
	}, nil
}
