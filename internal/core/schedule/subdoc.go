package schedule

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// SubDocument is the scheduling state stored alongside a line item, apart
// from the cost fields owned by estimating.
type SubDocument struct {
	Phases    []Phase
	Completed *bool
	Notes     string
}

type subDocumentJSON struct {
	Phases    []subPhaseJSON `json:"phases,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
	Notes     string         `json:"notes,omitempty"`
}

type subPhaseJSON struct {
	PhaseNumber  int    `json:"phase_number"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Description  string `json:"description,omitempty"`
	Completed    bool   `json:"completed"`
	Notes        string `json:"notes,omitempty"`
}

// ParseSubDocument decodes a stored scheduling sub-document. It never fails:
// an empty value or malformed JSON yields the zero document (no phases, no
// completion mark), and plain text that is not JSON at all is kept as notes.
func ParseSubDocument(raw string) SubDocument {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return SubDocument{}
	}
	if raw[0] != '{' && raw[0] != '[' {
		return SubDocument{Notes: raw}
	}

	var doc subDocumentJSON
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return SubDocument{}
	}

	phases := make([]Phase, 0, len(doc.Phases))
	for _, sp := range doc.Phases {
		p, err := sp.toPhase()
		if err != nil {
			return SubDocument{}
		}
		phases = append(phases, p)
	}
	slices.SortStableFunc(phases, func(a, b Phase) int { return a.PhaseNumber - b.PhaseNumber })
	renumberPhases(phases)

	out := SubDocument{Completed: doc.Completed, Notes: doc.Notes}
	if len(phases) > 0 {
		out.Phases = phases
	}
	return out
}

// EncodeSubDocument serializes doc. An empty document encodes as "".
func EncodeSubDocument(doc SubDocument) (string, error) {
	if len(doc.Phases) == 0 && doc.Completed == nil && doc.Notes == "" {
		return "", nil
	}

	out := subDocumentJSON{Completed: doc.Completed, Notes: doc.Notes}
	for i, p := range doc.Phases {
		p.normalize()
		out.Phases = append(out.Phases, subPhaseJSON{
			PhaseNumber:  i + 1,
			StartDate:    FormatDate(p.Start),
			EndDate:      FormatDate(p.End),
			DurationDays: p.DurationDays,
			Description:  p.Description,
			Completed:    p.Completed,
			Notes:        p.Notes,
		})
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode schedule sub-document: %w", err)
	}
	return string(data), nil
}

// SubDocument extracts the scheduling sub-document of t.
func (t Task) SubDocument() SubDocument {
	c := t.Clone()
	return SubDocument{Phases: c.Phases, Completed: c.Completed, Notes: c.Notes}
}

func (sp subPhaseJSON) toPhase() (Phase, error) {
	start, err := ParseDate(sp.StartDate)
	if err != nil {
		return Phase{}, fmt.Errorf("phase %d start: %w", sp.PhaseNumber, err)
	}
	end, err := ParseDate(sp.EndDate)
	if err != nil {
		return Phase{}, fmt.Errorf("phase %d end: %w", sp.PhaseNumber, err)
	}

	p := Phase{
		PhaseNumber: sp.PhaseNumber,
		Start:       start,
		End:         end,
		Description: sp.Description,
		Completed:   sp.Completed,
		Notes:       sp.Notes,
	}
	p.normalize()
	return p, nil
}
