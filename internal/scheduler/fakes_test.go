package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/colonyops/buildsched/internal/core/schedule"
	"github.com/stretchr/testify/require"
)

// memStore is an in-memory Source and Persister. Successful saves are
// visible to the next load, like the real store.
type memStore struct {
	mu      sync.Mutex
	ds      schedule.Dataset
	loadErr error
	saveErr map[string]error
	saves   []schedule.TaskUpdate
	loads   int

	// entered receives the task id of every save as it starts; release,
	// when set, holds each save until it can be received from.
	entered chan string
	release chan struct{}
}

func newMemStore(ds schedule.Dataset) *memStore {
	return &memStore{ds: ds, saveErr: make(map[string]error)}
}

func (m *memStore) LoadDataset(_ context.Context, projectID string) (schedule.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return schedule.Dataset{}, m.loadErr
	}
	ds := m.ds
	ds.LineItems = append([]schedule.LineItem(nil), m.ds.LineItems...)
	return ds, nil
}

func (m *memStore) SaveSchedule(_ context.Context, u schedule.TaskUpdate) error {
	if m.entered != nil {
		m.entered <- u.TaskID
	}
	if m.release != nil {
		<-m.release
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, u)
	if err := m.saveErr[u.TaskID]; err != nil {
		return err
	}
	for i, li := range m.ds.LineItems {
		if li.ID != u.TaskID {
			continue
		}
		start, end := u.Start, u.End
		li.ScheduledStart, li.ScheduledEnd = &start, &end
		li.DurationDays = u.DurationDays
		li.Dependencies = u.Dependencies
		li.ScheduleNotes = u.ScheduleNotes
		li.IsMilestone = u.IsMilestone
		m.ds.LineItems[i] = li
	}
	return nil
}

func (m *memStore) setLoadErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

func (m *memStore) setSaveErr(taskID string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr[taskID] = err
}

func (m *memStore) savesFor(taskID string) []schedule.TaskUpdate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []schedule.TaskUpdate
	for _, u := range m.saves {
		if u.TaskID == taskID {
			out = append(out, u)
		}
	}
	return out
}

func d(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := schedule.ParseDate(s)
	require.NoError(t, err)
	return v
}

func datePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	v := d(t, s)
	return &v
}

// siteDataset is a small project: framing, drywall, an exterior paint job
// that starts too early, and one change-order line.
func siteDataset(t *testing.T) schedule.Dataset {
	t.Helper()
	return schedule.Dataset{
		Project: schedule.Project{ID: "p-site", Name: "Site", StartDate: datePtr(t, "2024-01-01")},
		LineItems: []schedule.LineItem{
			{
				ID: "li-frame", Source: schedule.SourceEstimateLine, Category: "labor", Description: "Framing",
				TotalCost: 1000, ScheduledStart: datePtr(t, "2024-01-01"), ScheduledEnd: datePtr(t, "2024-01-07"),
			},
			{
				ID: "li-drywall", Source: schedule.SourceEstimateLine, Category: "subcontractors", Description: "Drywall Install",
				TotalCost: 500, ScheduledStart: datePtr(t, "2024-01-03"), ScheduledEnd: datePtr(t, "2024-01-05"),
			},
			{
				ID: "li-paint", Source: schedule.SourceEstimateLine, Category: "labor", Description: "Exterior Paint",
				TotalCost: 400, ScheduledStart: datePtr(t, "2024-01-01"), ScheduledEnd: datePtr(t, "2024-01-02"),
			},
			{
				ID: "li-outlets", Source: schedule.SourceChangeOrderLine, ChangeOrderNumber: "CO-001", Category: "materials",
				Description: "Extra outlets", TotalCost: 250, ScheduledStart: datePtr(t, "2024-01-08"), ScheduledEnd: datePtr(t, "2024-01-09"),
			},
		},
		Entries: []schedule.CostEntry{{ID: "e1", LineItemID: "li-frame", Amount: 500}},
	}
}
