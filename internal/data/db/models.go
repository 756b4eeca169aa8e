package db

import (
	"database/sql"
)

type ChangeOrder struct {
	ID         string
	ProjectID  string
	CoNumber   string
	Status     string
	ApprovedAt sql.NullInt64
	CreatedAt  int64
}

// LineItem is a row of either estimate_line_items or
// change_order_line_items; ParentID holds estimate_id or change_order_id.
type LineItem struct {
	ID                 string
	ParentID           string
	Position           int64
	Category           string
	Description        string
	Quantity           float64
	CostPerUnit        float64
	TotalCost          float64
	ScheduledStartDate sql.NullString
	ScheduledEndDate   sql.NullString
	DurationDays       sql.NullInt64
	Dependencies       sql.NullString
	IsMilestone        bool
	ScheduleNotes      sql.NullString
	UpdatedAt          int64
}

type Estimate struct {
	ID         string
	ProjectID  string
	Status     string
	ApprovedAt sql.NullInt64
	CreatedAt  int64
}

type ExpenseCorrelation struct {
	ID          string
	ProjectID   string
	LineItemID  string
	Amount      float64
	Description string
	CreatedAt   int64
}

type KvStore struct {
	Key       string
	Value     []byte
	ExpiresAt sql.NullInt64
	CreatedAt int64
	UpdatedAt int64
}

type Notification struct {
	ID        int64
	Level     string
	Message   string
	CreatedAt int64
}

type Project struct {
	ID        string
	Name      string
	StartDate sql.NullString
	EndDate   sql.NullString
	CreatedAt int64
	UpdatedAt int64
}
