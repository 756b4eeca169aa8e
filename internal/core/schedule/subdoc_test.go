package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubDocument(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantPhases int
		wantDone   *bool
		wantNotes  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace", raw: "   "},
		{name: "malformed json", raw: `{"phases": [`},
		{name: "plain text kept as notes", raw: "call the inspector first", wantNotes: "call the inspector first"},
		{name: "completion only", raw: `{"completed": true}`, wantDone: boolPtr(true)},
		{
			name:       "phases",
			raw:        `{"phases":[{"phase_number":2,"start_date":"2024-06-05","end_date":"2024-06-06"},{"phase_number":1,"start_date":"2024-06-01","end_date":"2024-06-02"}],"notes":"n"}`,
			wantPhases: 2,
			wantNotes:  "n",
		},
		{name: "bad phase date", raw: `{"phases":[{"phase_number":1,"start_date":"soon","end_date":"2024-06-02"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := ParseSubDocument(tt.raw)
			assert.Len(t, doc.Phases, tt.wantPhases)
			assert.Equal(t, tt.wantDone, doc.Completed)
			assert.Equal(t, tt.wantNotes, doc.Notes)
		})
	}
}

func TestParseSubDocument_OrdersPhases(t *testing.T) {
	doc := ParseSubDocument(`{"phases":[{"phase_number":5,"start_date":"2024-06-05","end_date":"2024-06-06"},{"phase_number":2,"start_date":"2024-06-01","end_date":"2024-06-02"}]}`)

	require.Len(t, doc.Phases, 2)
	assert.Equal(t, 1, doc.Phases[0].PhaseNumber)
	assert.Equal(t, d("2024-06-01"), doc.Phases[0].Start)
	assert.Equal(t, 2, doc.Phases[1].PhaseNumber)
	assert.Equal(t, 2, doc.Phases[1].DurationDays)
}

func TestSubDocument_RoundTrip(t *testing.T) {
	task := phasedTask()
	task.Phases[1].Completed = true
	task.Phases[2].Notes = "bring the big sander"
	task.Notes = "top floor only"

	raw, err := EncodeSubDocument(task.SubDocument())
	require.NoError(t, err)

	got := ParseSubDocument(raw)
	assert.Equal(t, task.Phases, got.Phases)
	assert.Equal(t, task.Notes, got.Notes)
	assert.Nil(t, got.Completed)
}

func TestEncodeSubDocument_Empty(t *testing.T) {
	raw, err := EncodeSubDocument(SubDocument{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}
