package stores

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Fixture describes a project the way the estimating side would hand it
// over: priced estimates and change orders with their line items, plus the
// expenses already correlated to those lines.
type Fixture struct {
	Project      FixtureProject       `yaml:"project"`
	Estimates    []FixtureEstimate    `yaml:"estimates"`
	ChangeOrders []FixtureChangeOrder `yaml:"change_orders"`
	Expenses     []FixtureExpense     `yaml:"expenses"`
}

type FixtureProject struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
}

type FixtureEstimate struct {
	ID         string            `yaml:"id"`
	Status     string            `yaml:"status"`
	ApprovedAt string            `yaml:"approved_at"`
	LineItems  []FixtureLineItem `yaml:"line_items"`
}

type FixtureChangeOrder struct {
	ID         string            `yaml:"id"`
	Number     string            `yaml:"number"`
	Status     string            `yaml:"status"`
	ApprovedAt string            `yaml:"approved_at"`
	LineItems  []FixtureLineItem `yaml:"line_items"`
}

type FixtureLineItem struct {
	ID             string         `yaml:"id"`
	Category       string         `yaml:"category"`
	Description    string         `yaml:"description"`
	Quantity       float64        `yaml:"quantity"`
	CostPerUnit    float64        `yaml:"cost_per_unit"`
	TotalCost      float64        `yaml:"total_cost"`
	ScheduledStart string         `yaml:"scheduled_start"`
	ScheduledEnd   string         `yaml:"scheduled_end"`
	DurationDays   int            `yaml:"duration_days"`
	DependsOn      []string       `yaml:"depends_on"`
	IsMilestone    bool           `yaml:"is_milestone"`
	Completed      *bool          `yaml:"completed"`
	Notes          string         `yaml:"notes"`
	Phases         []FixturePhase `yaml:"phases"`
}

type FixturePhase struct {
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Description string `yaml:"description"`
	Completed   bool   `yaml:"completed"`
}

type FixtureExpense struct {
	ID          string  `yaml:"id"`
	LineItem    string  `yaml:"line_item"`
	Amount      float64 `yaml:"amount"`
	Description string  `yaml:"description"`
}

// LoadFixture reads a YAML fixture from path.
func LoadFixture(path string) (Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}

	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fixture{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return f, nil
}

// total returns the line's cost, deriving it from quantity and unit cost
// when no explicit total was given.
func (li FixtureLineItem) total() float64 {
	if li.TotalCost != 0 {
		return li.TotalCost
	}
	return li.Quantity * li.CostPerUnit
}
