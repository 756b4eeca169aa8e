package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func phasedTask() Task {
	t := Task{
		ID: "drywall",
		Phases: []Phase{
			{PhaseNumber: 1, Start: d("2024-06-01"), End: d("2024-06-02"), Description: "hang"},
			{PhaseNumber: 2, Start: d("2024-06-05"), End: d("2024-06-06"), Description: "tape"},
			{PhaseNumber: 3, Start: d("2024-06-09"), End: d("2024-06-10"), Description: "sand"},
		},
	}
	t.Normalize()
	return t
}

func phaseNumbers(t Task) []int {
	out := make([]int, len(t.Phases))
	for i, p := range t.Phases {
		out[i] = p.PhaseNumber
	}
	return out
}

func TestRemovePhase_Renumbers(t *testing.T) {
	task := phasedTask()

	require.NoError(t, task.RemovePhase(2))

	assert.Equal(t, []int{1, 2}, phaseNumbers(task))
	assert.Equal(t, "hang", task.Phases[0].Description)
	assert.Equal(t, "sand", task.Phases[1].Description)
	assert.Equal(t, d("2024-06-01"), task.Start)
	assert.Equal(t, d("2024-06-10"), task.End)
}

func TestRemovePhase_LastPhaseKeepsSpan(t *testing.T) {
	task := Task{ID: "a"}
	require.NoError(t, task.AddPhase(Phase{Start: d("2024-06-03"), End: d("2024-06-04")}))

	require.NoError(t, task.RemovePhase(1))

	assert.Empty(t, task.Phases)
	assert.Equal(t, d("2024-06-03"), task.Start)
	assert.Equal(t, d("2024-06-04"), task.End)
	assert.Equal(t, 2, task.DurationDays)
}

func TestRemovePhase_Unknown(t *testing.T) {
	task := phasedTask()
	require.ErrorIs(t, task.RemovePhase(9), ErrPhaseNotFound)
	assert.Len(t, task.Phases, 3)
}

func TestAddPhase_SortsByStart(t *testing.T) {
	task := phasedTask()

	require.NoError(t, task.AddPhase(Phase{Start: d("2024-06-03"), End: d("2024-06-03"), Description: "inspect"}))

	assert.Equal(t, []int{1, 2, 3, 4}, phaseNumbers(task))
	assert.Equal(t, "inspect", task.Phases[1].Description)
	assert.Equal(t, 1, task.Phases[1].DurationDays)
}

func TestAddPhase_InvalidRange(t *testing.T) {
	task := phasedTask()
	err := task.AddPhase(Phase{Start: d("2024-06-03"), End: d("2024-06-01")})
	require.ErrorIs(t, err, ErrInvalidRange)
	assert.Len(t, task.Phases, 3)
}

func TestUpdatePhase(t *testing.T) {
	task := phasedTask()

	require.NoError(t, task.UpdatePhase(3, Phase{Start: d("2024-06-09"), End: d("2024-06-14"), Completed: true}))

	assert.Equal(t, 3, task.Phases[2].PhaseNumber)
	assert.True(t, task.Phases[2].Completed)
	assert.Equal(t, d("2024-06-14"), task.End)

	require.ErrorIs(t, task.UpdatePhase(7, Phase{}), ErrPhaseNotFound)
}

func TestClearPhases(t *testing.T) {
	task := phasedTask()
	for i := range task.Phases {
		task.Phases[i].Completed = true
	}

	task.ClearPhases()

	assert.Empty(t, task.Phases)
	require.NotNil(t, task.Completed)
	assert.True(t, *task.Completed)
	assert.Equal(t, d("2024-06-01"), task.Start)
	assert.Equal(t, d("2024-06-10"), task.End)
}

func TestSplitEvenly(t *testing.T) {
	task := Task{ID: "a", Start: d("2024-06-01"), End: d("2024-06-07")}

	require.NoError(t, task.SplitEvenly(3))

	require.Len(t, task.Phases, 3)
	assert.Equal(t, 3, task.Phases[0].DurationDays)
	assert.Equal(t, 2, task.Phases[1].DurationDays)
	assert.Equal(t, 2, task.Phases[2].DurationDays)
	assert.Equal(t, d("2024-06-07"), task.Phases[2].End)
	assert.Equal(t, 7, task.DurationDays)

	require.Error(t, task.SplitEvenly(0))
	require.Error(t, task.SplitEvenly(8))
}
