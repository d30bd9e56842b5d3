package session

import (
	"github.com/hyperifyio/gonarrative/internal/prompt"
	"github.com/hyperifyio/gonarrative/internal/table"
)

// PreviewRow is a table row formatted for display.
type PreviewRow struct {
	Metric string `json:"metric"`
	Value  string `json:"value"`
}

// Snapshot is a read-only copy of the session for rendering.
type Snapshot struct {
	Step        Step         `json:"-"`
	StepName    string       `json:"step"`
	Industry    string       `json:"industry"`
	FileName    string       `json:"file_name,omitempty"`
	Rows        []PreviewRow `json:"rows,omitempty"`
	ProfileID   string       `json:"profile_id,omitempty"`
	ProfileName string       `json:"profile_name,omitempty"`
	Narrative   string       `json:"narrative,omitempty"`
	Generating  bool         `json:"generating"`
	CanGenerate bool         `json:"can_generate"`
}

// Snapshot copies the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := s.stepLocked()
	snap := Snapshot{
		Step:       step,
		StepName:   step.String(),
		Industry:   s.industry,
		FileName:   s.fileName,
		Rows:       previewRows(s.table),
		Narrative:  s.narrative,
		Generating: s.generating,
	}
	if s.profile != nil {
		snap.ProfileID = string(s.profile.ID)
		snap.ProfileName = s.profile.DisplayName
	}
	snap.CanGenerate = step >= Configured && !s.generating
	return snap
}

func previewRows(t *table.Table) []PreviewRow {
	if t == nil {
		return nil
	}
	entries := t.Entries()
	rows := make([]PreviewRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, PreviewRow{Metric: e.Metric, Value: prompt.FormatValue(e.Metric, e.Value)})
	}
	return rows
}
