package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	tasks := []Task{
		named("drywall", "Drywall Install", "2024-06-01", "2024-06-05"),
		named("paint", "Exterior Paint", "2024-06-01", "2024-06-03"),
	}
	tasks[0].EstimatedCost = 1000
	entries := []CostEntry{{LineItemID: "drywall", Amount: 250}}

	a := Analyze(tasks, entries, DefaultRules(DefaultTradeRules()))

	require.Len(t, a.Tasks, 2)
	assert.InDelta(t, 250, a.Tasks[0].ActualCost, 0.001)
	assert.Zero(t, tasks[0].ActualCost, "input not modified")
	assert.Equal(t, 25, a.Progress["drywall"].Percent)
	require.NotNil(t, a.Span)
	assert.Equal(t, 5, a.Span.Days)
	assert.Equal(t, []string{"drywall"}, a.CriticalPath.TaskIDs)
	require.Len(t, a.Warnings, 1)
	assert.Equal(t, "finishing-before-rough", a.Warnings[0].Rule)
}

func TestAnalyze_Empty(t *testing.T) {
	a := Analyze(nil, nil, DefaultRules(DefaultTradeRules()))

	assert.Nil(t, a.Span)
	assert.NotNil(t, a.Warnings)
	assert.Empty(t, a.CriticalPath.TaskIDs)
}
