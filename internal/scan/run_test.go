package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/drivelens/drivelens/internal/events"
	"github.com/drivelens/drivelens/internal/remote"
	"github.com/drivelens/drivelens/internal/snapshot"
)

type fakeStore struct {
	changelog *snapshot.Changelog

	savedData      *snapshot.DataBundle
	savedChangelog *snapshot.Changelog
	saveErr        error
	saves          int
}

func (s *fakeStore) Load(context.Context) (*snapshot.Changelog, error) {
	if s.changelog == nil {
		return &snapshot.Changelog{}, nil
	}
	return s.changelog, nil
}

func (s *fakeStore) Save(_ context.Context, data *snapshot.DataBundle, changelog *snapshot.Changelog) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.savedData = data
	s.savedChangelog = changelog
	// Next Load sees what was persisted, like a real store.
	s.changelog = changelog
	return nil
}

func (s *fakeStore) Close() error { return nil }

func newRunner(p remote.Provider, store snapshot.Store) *Runner {
	return &Runner{
		Provider: p,
		Store:    store,
		RootID:   "root",
		RootName: "Root",
	}
}

func TestRunGenesis(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{
			fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
		}},
	}}
	store := &fakeStore{}

	result, err := newRunner(p, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PreviousVersion != "1.0.0" {
		t.Errorf("PreviousVersion = %q, want default baseline 1.0.0", result.PreviousVersion)
	}
	if result.Version != "1.0.1" {
		t.Errorf("Version = %q, want 1.0.1 (first scan sees all files as added)", result.Version)
	}
	if len(result.Changes.Added) != 1 || result.Changes.Added[0].ID != "A" {
		t.Errorf("Added = %+v, want [A]", result.Changes.Added)
	}

	if store.savedData == nil || store.savedChangelog == nil {
		t.Fatal("both bundles must be persisted")
	}
	if store.savedData.Version != "1.0.1" || store.savedData.Stats.TotalFiles != 1 {
		t.Errorf("data bundle = %+v", store.savedData)
	}
	record := store.savedChangelog.ScanHistory
	if record == nil || len(record.FileSignatures) != 1 {
		t.Fatalf("scan record must carry the signature baseline: %+v", record)
	}
	if len(store.savedChangelog.VersionHistory) != 1 {
		t.Fatalf("history len = %d, want 1", len(store.savedChangelog.VersionHistory))
	}
}

func TestRunNoChanges(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{
			fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
		}},
	}}
	store := &fakeStore{}
	runner := newRunner(p, store)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if second.Changes.TotalChanges != 0 {
		t.Fatalf("TotalChanges = %d, want 0", second.Changes.TotalChanges)
	}
	if second.Version != "1.0.1" {
		t.Fatalf("Version = %q, want 1.0.1 (unchanged)", second.Version)
	}
	if len(store.savedChangelog.VersionHistory) != 1 {
		t.Fatalf("no-op run must not grow the history: len = %d",
			len(store.savedChangelog.VersionHistory))
	}
	if store.saves != 2 {
		t.Fatalf("saves = %d, want 2 (bundles are rewritten every run)", store.saves)
	}
}

func TestRunChangeBumpsVersion(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{
			fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
		}},
	}}
	store := &fakeStore{}
	runner := newRunner(p, store)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	// B appears between runs.
	p.listings["root|"] = &remote.Listing{Entries: []remote.Entry{
		fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
		fileEntry("B", "b.pdf", 500, "2024-02-01T00:00:00.000Z"),
	}}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if result.Version != "1.0.2" {
		t.Fatalf("Version = %q, want 1.0.2", result.Version)
	}
	if len(result.Changes.Added) != 1 || result.Changes.Added[0].ID != "B" {
		t.Fatalf("Added = %+v, want [B]", result.Changes.Added)
	}
	if result.Changes.Summary != "1 files added" {
		t.Fatalf("Summary = %q", result.Changes.Summary)
	}

	history := store.savedChangelog.VersionHistory
	if len(history) != 2 {
		t.Fatalf("history len = %d, want 2", len(history))
	}
	if history[0].Version != "1.0.2" || history[1].Version != "1.0.1" {
		t.Fatalf("history order: %s, %s", history[0].Version, history[1].Version)
	}
}

func TestRunDeletionDetectedAcrossRuns(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{
			fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
			fileEntry("B", "b.pdf", 200, "2024-01-01T00:00:00.000Z"),
		}},
	}}
	store := &fakeStore{}
	runner := newRunner(p, store)

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}

	p.listings["root|"] = &remote.Listing{Entries: []remote.Entry{
		fileEntry("A", "a.pdf", 150, "2024-03-01T00:00:00.000Z"),
	}}

	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}

	if len(result.Changes.Deleted) != 1 || result.Changes.Deleted[0].ID != "B" {
		t.Fatalf("Deleted = %+v, want [B]", result.Changes.Deleted)
	}
	if len(result.Changes.Modified) != 1 || result.Changes.Modified[0].ID != "A" {
		t.Fatalf("Modified = %+v, want [A]", result.Changes.Modified)
	}
	if result.Changes.TotalChanges != 2 {
		t.Fatalf("TotalChanges = %d, want 2", result.Changes.TotalChanges)
	}
}

func TestRunSaveErrorAborts(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{fileEntry("A", "a.pdf", 1, "")}},
	}}
	boom := errors.New("disk full")
	store := &fakeStore{saveErr: boom}

	if _, err := newRunner(p, store).Run(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want save failure", err)
	}
}

func TestRunPublishesEvents(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{
			fileEntry("A", "a.pdf", 100, "2024-01-01T00:00:00.000Z"),
		}},
	}}
	store := &fakeStore{}

	broadcaster := events.NewBroadcaster()
	sub := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(sub)

	runner := newRunner(p, store)
	runner.Broadcaster = broadcaster

	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if _, err := runner.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}

	first := <-sub
	if first.Type != events.EventChanged || first.Version != "1.0.1" || first.Added != 1 {
		t.Fatalf("first event = %+v", first)
	}
	second := <-sub
	if second.Type != events.EventUnchanged || second.Version != "1.0.1" {
		t.Fatalf("second event = %+v", second)
	}
}

func TestRunCorruptBaselineDegrades(t *testing.T) {
	p := &fakeProvider{listings: map[string]*remote.Listing{
		"root|": {Entries: []remote.Entry{fileEntry("A", "a.pdf", 1, "")}},
	}}
	// A changelog with no usable scan record: treated as a first scan.
	store := &fakeStore{changelog: &snapshot.Changelog{
		ScanHistory: &snapshot.ScanRecord{},
	}}

	result, err := newRunner(p, store).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.PreviousVersion != "1.0.0" || result.Version != "1.0.1" {
		t.Fatalf("versions = %q -> %q, want 1.0.0 -> 1.0.1",
			result.PreviousVersion, result.Version)
	}
}
