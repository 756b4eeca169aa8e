package tui

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/colonyops/buildsched/internal/core/schedule"
)

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := schedule.ParseDate(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return d
}

func TestRenderBar(t *testing.T) {
	span := schedule.Span{Start: day(t, "2024-01-01"), End: day(t, "2024-01-10"), Days: 10}

	tests := []struct {
		name string
		task schedule.Task
		want string
	}{
		{
			name: "whole span",
			task: schedule.Task{Start: day(t, "2024-01-01"), End: day(t, "2024-01-10")},
			want: "██████████",
		},
		{
			name: "middle",
			task: schedule.Task{Start: day(t, "2024-01-03"), End: day(t, "2024-01-05")},
			want: "  ███     ",
		},
		{
			name: "phases with gap",
			task: schedule.Task{
				Start: day(t, "2024-01-01"),
				End:   day(t, "2024-01-06"),
				Phases: []schedule.Phase{
					{PhaseNumber: 1, Start: day(t, "2024-01-01"), End: day(t, "2024-01-02")},
					{PhaseNumber: 2, Start: day(t, "2024-01-05"), End: day(t, "2024-01-06")},
				},
			},
			want: "██··██    ",
		},
		{
			name: "milestone",
			task: schedule.Task{Start: day(t, "2024-01-10"), End: day(t, "2024-01-10"), IsMilestone: true},
			want: "         ◇",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderBar(tt.task, span, 10))
		})
	}
}

func TestRenderBar_CompressesLongSpans(t *testing.T) {
	span := schedule.Span{Start: day(t, "2024-01-01"), End: day(t, "2024-01-20"), Days: 20}
	task := schedule.Task{Start: day(t, "2024-01-11"), End: day(t, "2024-01-20")}

	assert.Equal(t, "     █████", renderBar(task, span, 10))
}

func TestRenderBar_ClampsOutsideSpan(t *testing.T) {
	span := schedule.Span{Start: day(t, "2024-01-01"), End: day(t, "2024-01-05"), Days: 5}
	task := schedule.Task{Start: day(t, "2023-12-25"), End: day(t, "2024-01-02")}

	assert.Equal(t, "██   ", renderBar(task, span, 5))
	assert.Empty(t, renderBar(task, span, 0))
}
