package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func boolPtr(b bool) *bool { return &b }

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "date", in: "2024-06-01", want: "2024-06-01"},
		{name: "rfc3339 truncated", in: "2024-06-01T15:04:05Z", want: "2024-06-01"},
		{name: "surrounding space", in: "  2024-06-01 ", want: "2024-06-01"},
		{name: "empty", in: "", wantErr: true},
		{name: "garbage", in: "June first", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, FormatDate(got))
		})
	}
}

func TestDaysInclusive(t *testing.T) {
	assert.Equal(t, 1, DaysInclusive(d("2024-06-01"), d("2024-06-01")))
	assert.Equal(t, 5, DaysInclusive(d("2024-06-01"), d("2024-06-05")))
	assert.Equal(t, 30, DaysInclusive(d("2024-02-15"), d("2024-03-15")), "leap year february")
}

func TestDaysBetween_Centuries(t *testing.T) {
	assert.Equal(t, 182621, DaysBetween(d("1700-01-01"), d("2200-01-01")))
	assert.Equal(t, -182621, DaysBetween(d("2200-01-01"), d("1700-01-01")))
	assert.Equal(t, 182622, DaysInclusive(d("1700-01-01"), d("2200-01-01")))
}

func TestParseCategory(t *testing.T) {
	assert.Equal(t, CategoryLabor, ParseCategory("labor"))
	assert.Equal(t, CategorySubcontractor, ParseCategory("subcontractor"))
	assert.Equal(t, CategorySubcontractor, ParseCategory("subcontractors"))
	assert.Equal(t, CategoryOther, ParseCategory("widgets"))
	assert.Equal(t, CategoryOther, ParseCategory(""))
}

func TestTask_Normalize(t *testing.T) {
	t.Run("duration derived from dates", func(t *testing.T) {
		task := Task{ID: "a", Start: d("2024-06-01"), End: d("2024-06-05"), DurationDays: 99}
		task.Normalize()
		assert.Equal(t, 5, task.DurationDays)
	})

	t.Run("end before start collapses to one day", func(t *testing.T) {
		task := Task{ID: "a", Start: d("2024-06-05"), End: d("2024-06-01")}
		task.Normalize()
		assert.Equal(t, d("2024-06-05"), task.End)
		assert.Equal(t, 1, task.DurationDays)
	})

	t.Run("span follows phases", func(t *testing.T) {
		task := Task{
			ID:    "a",
			Start: d("2024-01-01"),
			End:   d("2024-01-01"),
			Phases: []Phase{
				{PhaseNumber: 1, Start: d("2024-06-01"), End: d("2024-06-03")},
				{PhaseNumber: 2, Start: d("2024-06-10"), End: d("2024-06-12")},
			},
		}
		task.Normalize()
		assert.Equal(t, d("2024-06-01"), task.Start)
		assert.Equal(t, d("2024-06-12"), task.End)
		assert.Equal(t, 12, task.DurationDays)
		assert.Equal(t, 3, task.Phases[0].DurationDays)
	})
}

func TestTask_Reschedule(t *testing.T) {
	t.Run("single phase", func(t *testing.T) {
		task := Task{ID: "a", Start: d("2024-06-01"), End: d("2024-06-05")}
		require.NoError(t, task.Reschedule(d("2024-06-10"), d("2024-06-12")))
		assert.Equal(t, d("2024-06-10"), task.Start)
		assert.Equal(t, d("2024-06-12"), task.End)
		assert.Equal(t, 3, task.DurationDays)
	})

	t.Run("rejects inverted range", func(t *testing.T) {
		task := Task{ID: "a", Start: d("2024-06-01"), End: d("2024-06-05")}
		err := task.Reschedule(d("2024-06-10"), d("2024-06-09"))
		require.ErrorIs(t, err, ErrInvalidRange)
		assert.Equal(t, d("2024-06-01"), task.Start)
	})

	t.Run("multi phase shifts and stretches last phase", func(t *testing.T) {
		task := Task{
			ID: "a",
			Phases: []Phase{
				{PhaseNumber: 1, Start: d("2024-06-01"), End: d("2024-06-02")},
				{PhaseNumber: 2, Start: d("2024-06-10"), End: d("2024-06-11")},
			},
		}
		task.Normalize()

		require.NoError(t, task.Reschedule(d("2024-06-03"), d("2024-06-15")))

		assert.Equal(t, d("2024-06-03"), task.Phases[0].Start)
		assert.Equal(t, d("2024-06-04"), task.Phases[0].End)
		assert.Equal(t, d("2024-06-12"), task.Phases[1].Start)
		assert.Equal(t, d("2024-06-15"), task.Phases[1].End)
		assert.Equal(t, d("2024-06-03"), task.Start)
		assert.Equal(t, d("2024-06-15"), task.End)
		assert.Equal(t, 13, task.DurationDays)
	})
}

func TestTask_SetDependencies(t *testing.T) {
	task := Task{ID: "a"}
	task.SetDependencies([]Dependency{
		{TaskID: "a"},
		{TaskID: "b", TaskType: SourceChangeOrderLine},
		{TaskID: "b"},
		{TaskID: ""},
		{TaskID: "c", Relation: "start_to_start"},
	})

	require.Len(t, task.Dependencies, 2)
	assert.Equal(t, "b", task.Dependencies[0].TaskID)
	assert.Equal(t, SourceChangeOrderLine, task.Dependencies[0].TaskType)
	assert.Equal(t, RelationFinishToStart, task.Dependencies[1].Relation)
	assert.Equal(t, SourceEstimateLine, task.Dependencies[1].TaskType)
	assert.True(t, task.DependsOn("c"))
	assert.False(t, task.DependsOn("a"))
}

func TestTask_Clone(t *testing.T) {
	orig := Task{
		ID:           "a",
		Completed:    boolPtr(true),
		Dependencies: []Dependency{{TaskID: "b"}},
		Phases:       []Phase{{PhaseNumber: 1}},
	}
	c := orig.Clone()
	*c.Completed = false
	c.Dependencies[0].TaskID = "z"
	c.Phases[0].Description = "changed"

	assert.True(t, *orig.Completed)
	assert.Equal(t, "b", orig.Dependencies[0].TaskID)
	assert.Empty(t, orig.Phases[0].Description)
}

func TestTask_IsCompleted(t *testing.T) {
	assert.False(t, Task{}.IsCompleted())
	assert.True(t, Task{Completed: boolPtr(true)}.IsCompleted())
	assert.False(t, Task{Phases: []Phase{{Completed: true}, {Completed: false}}}.IsCompleted())
	assert.True(t, Task{Phases: []Phase{{Completed: true}, {Completed: true}}}.IsCompleted())
}

func TestTask_Shift(t *testing.T) {
	task := Task{
		ID: "a",
		Phases: []Phase{
			{PhaseNumber: 1, Start: d("2024-06-01"), End: d("2024-06-02")},
		},
	}
	task.Normalize()
	task.Shift(-3)
	assert.Equal(t, d("2024-05-29"), task.Start)
	assert.Equal(t, d("2024-05-29"), task.Phases[0].Start)
	assert.Equal(t, 2, task.DurationDays)
}
