package version

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/drivelens/drivelens/internal/diff"
	"github.com/drivelens/drivelens/internal/model"
)

func TestAdvanceNoChanges(t *testing.T) {
	for _, v := range []string{"1.0.0", "3.7.9", "garbage"} {
		if got := Advance(v, false); got != v {
			t.Errorf("Advance(%q, false) = %q, want unchanged", v, got)
		}
	}
}

func TestAdvancePatch(t *testing.T) {
	if got := Advance("1.0.0", true); got != "1.0.1" {
		t.Errorf("Advance(1.0.0) = %q, want 1.0.1", got)
	}
	if got := Advance("0.0.0", true); got != "0.0.1" {
		t.Errorf("Advance(0.0.0) = %q, want 0.0.1", got)
	}
}

func TestAdvanceCarry(t *testing.T) {
	if got := Advance("1.2.9", true); got != "1.3.0" {
		t.Errorf("Advance(1.2.9) = %q, want 1.3.0", got)
	}
	if got := Advance("1.9.9", true); got != "2.0.0" {
		t.Errorf("Advance(1.9.9) = %q, want 2.0.0", got)
	}
	if got := Advance("9.9.9", true); got != "10.0.0" {
		t.Errorf("Advance(9.9.9) = %q, want 10.0.0", got)
	}
}

func TestAdvanceMalformed(t *testing.T) {
	for _, v := range []string{"", "1.2", "1.2.3.4", "a.b.c", "1..3"} {
		if got := Advance(v, true); got != "1.0.1" {
			t.Errorf("Advance(%q, true) = %q, want fallback 1.0.1", v, got)
		}
	}
}

func changeEntry(version string, total int) HistoryEntry {
	changes := &diff.ChangeSet{TotalChanges: total}
	return HistoryEntry{
		Version:  version,
		ScanDate: "2024-01-01T00:00:00Z",
		Changes:  changes,
	}
}

func TestMergeInsertsNewestFirst(t *testing.T) {
	history := Merge(nil, changeEntry("1.0.1", 2))
	history = Merge(history, changeEntry("1.0.2", 1))

	if len(history) != 2 {
		t.Fatalf("len = %d, want 2", len(history))
	}
	if history[0].Version != "1.0.2" || history[1].Version != "1.0.1" {
		t.Fatalf("wrong order: %s, %s", history[0].Version, history[1].Version)
	}
}

func TestMergeBounded(t *testing.T) {
	var history []HistoryEntry
	for i := 0; i < MaxHistory; i++ {
		history = Merge(history, changeEntry(fmt.Sprintf("1.0.%d", i), 1))
	}
	if len(history) != MaxHistory {
		t.Fatalf("len = %d, want %d", len(history), MaxHistory)
	}

	oldest := history[MaxHistory-1].Version
	history = Merge(history, changeEntry("9.9.9", 1))

	if len(history) != MaxHistory {
		t.Fatalf("len after overflow = %d, want %d", len(history), MaxHistory)
	}
	if history[0].Version != "9.9.9" {
		t.Fatalf("head = %s, want 9.9.9", history[0].Version)
	}
	for _, e := range history {
		if e.Version == oldest {
			t.Fatalf("oldest entry %s should have been dropped", oldest)
		}
	}
}

func TestMergeNoOpRefreshesHead(t *testing.T) {
	history := Merge(nil, changeEntry("1.0.1", 2))

	noop := changeEntry("1.0.1", 0)
	noop.ScanDate = "2024-06-01T00:00:00Z"
	noop.Stats = &model.ScanStats{TotalFiles: 42}

	history = Merge(history, noop)
	if len(history) != 1 {
		t.Fatalf("no-op merge grew history: len = %d", len(history))
	}
	if history[0].ScanDate != "2024-06-01T00:00:00Z" {
		t.Fatalf("head scan date not refreshed: %s", history[0].ScanDate)
	}
	if history[0].Stats == nil || history[0].Stats.TotalFiles != 42 {
		t.Fatalf("head stats not refreshed: %+v", history[0].Stats)
	}
	if history[0].Version != "1.0.1" {
		t.Fatalf("head version must stay: %s", history[0].Version)
	}
}

func TestMergeNoOpIntoEmptyHistory(t *testing.T) {
	// Genesis: even a zero-change first scan is recorded.
	history := Merge(nil, changeEntry("1.0.0", 0))
	if len(history) != 1 {
		t.Fatalf("len = %d, want 1", len(history))
	}
}

func TestLegacyVersionKeys(t *testing.T) {
	raw := []byte(`[
		{"current_version": "2.1.0", "scan_date": "2023-01-01T00:00:00Z"},
		{"n_version": "2.0.9", "scan_date": "2022-12-01T00:00:00Z"},
		{"version": "2.0.8", "scan_date": "2022-11-01T00:00:00Z"}
	]`)

	var history []HistoryEntry
	if err := json.Unmarshal(raw, &history); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	want := []string{"2.1.0", "2.0.9", "2.0.8"}
	for i, w := range want {
		if history[i].Version != w {
			t.Errorf("entry %d: Version = %q, want %q", i, history[i].Version, w)
		}
	}
}
