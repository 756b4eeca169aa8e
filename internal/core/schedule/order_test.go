package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(tasks []Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestReconcileOrder(t *testing.T) {
	tasks := []Task{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	got := ReconcileOrder([]string{"c", "gone", "a", "c"}, tasks)

	assert.Equal(t, []string{"c", "a", "b", "d"}, got)
	assert.Equal(t, []string{"a", "b", "c", "d"}, ReconcileOrder(nil, tasks))
}

func TestMoveUpDown(t *testing.T) {
	order := []string{"a", "b", "c"}

	up, err := MoveUp(order, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, up)
	assert.Equal(t, []string{"a", "b", "c"}, order, "input untouched")

	down, err := MoveDown(order, "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "b"}, down)

	top, err := MoveUp(order, "a")
	require.NoError(t, err)
	assert.Equal(t, order, top)

	bottom, err := MoveDown(order, "c")
	require.NoError(t, err)
	assert.Equal(t, order, bottom)

	_, err = MoveUp(order, "zzz")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestApplyOrder(t *testing.T) {
	tasks := []Task{
		named("1", "Framing", "2024-06-05", "2024-06-06"),
		named("2", "Demo", "2024-06-01", "2024-06-02"),
		named("3", "Electrical", "2024-06-05", "2024-06-07"),
	}

	assert.Equal(t, []string{"1", "2", "3"}, ids(ApplyOrder(tasks, Preferences{Mode: SortNatural})))
	assert.Equal(t, []string{"2", "3", "1"}, ids(ApplyOrder(tasks, Preferences{Mode: SortStartDate})))
	assert.Equal(t, []string{"3", "1", "2"}, ids(ApplyOrder(tasks, Preferences{Mode: SortManual, Order: []string{"3", "1"}})))
	assert.Equal(t, []string{"1", "2", "3"}, ids(tasks), "input untouched")
}

func TestApplyOrder_DoesNotAffectDates(t *testing.T) {
	tasks := []Task{
		named("1", "Framing", "2024-06-05", "2024-06-06"),
		named("2", "Demo", "2024-06-01", "2024-06-02"),
	}

	out := ApplyOrder(tasks, Preferences{Mode: SortManual, Order: []string{"2", "1"}})

	assert.Equal(t, tasks[0], out[1])
	assert.Equal(t, tasks[1], out[0])
}

func TestSortMode(t *testing.T) {
	assert.True(t, SortManual.IsValid())
	assert.False(t, SortMode("alpha").IsValid())
	assert.Equal(t, SortStartDate, SortNatural.Next())
	assert.Equal(t, SortManual, SortStartDate.Next())
	assert.Equal(t, SortNatural, SortManual.Next())
}
