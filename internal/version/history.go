package version

import (
	"encoding/json"

	"github.com/drivelens/drivelens/internal/diff"
	"github.com/drivelens/drivelens/internal/model"
)

// MaxHistory bounds the retained history length. Older entries are
// dropped silently; trimmed scans keep no snapshot, only the summaries
// that remain inside the bound.
const MaxHistory = 50

// HistoryEntry is one meaningful scan in the version history.
type HistoryEntry struct {
	Version        string           `json:"version"`
	ScanDate       string           `json:"scan_date"`
	ScannerVersion string           `json:"scanner_version"`
	Changes        *diff.ChangeSet  `json:"changes"`
	Stats          *model.ScanStats `json:"stats,omitempty"`
}

// UnmarshalJSON migrates legacy version key names ("current_version",
// "n_version") written by older scanners to the canonical "version".
// Doing it at load time keeps the merge logic free of compatibility
// branches.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	type plain HistoryEntry
	aux := struct {
		*plain
		CurrentVersion string `json:"current_version"`
		NVersion       string `json:"n_version"`
	}{plain: (*plain)(e)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if e.Version == "" {
		if aux.CurrentVersion != "" {
			e.Version = aux.CurrentVersion
		} else if aux.NVersion != "" {
			e.Version = aux.NVersion
		}
	}
	return nil
}

// Merge folds a new scan into the history. A zero-change entry never
// grows the history: it refreshes the head's scan date and stats in
// place. Change-bearing entries are inserted newest-first and the
// result is truncated to MaxHistory.
func Merge(history []HistoryEntry, entry HistoryEntry) []HistoryEntry {
	if entry.Changes != nil && entry.Changes.TotalChanges == 0 && len(history) > 0 {
		history[0].ScanDate = entry.ScanDate
		if entry.Stats != nil {
			history[0].Stats = entry.Stats
		}
		return history
	}

	history = append([]HistoryEntry{entry}, history...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	return history
}
