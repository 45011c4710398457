package scan

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/drivelens/drivelens/internal/diff"
	"github.com/drivelens/drivelens/internal/events"
	"github.com/drivelens/drivelens/internal/logging"
	"github.com/drivelens/drivelens/internal/metrics"
	"github.com/drivelens/drivelens/internal/model"
	"github.com/drivelens/drivelens/internal/remote"
	"github.com/drivelens/drivelens/internal/snapshot"
	"github.com/drivelens/drivelens/internal/version"
)

// ScannerVersion is stamped into every persisted bundle.
const ScannerVersion = "1.0.0"

// Runner wires a provider and a snapshot store into repeatable scan
// runs. Broadcaster is optional; when set, every run publishes its
// outcome to subscribers.
type Runner struct {
	Provider    remote.Provider
	Store       snapshot.Store
	Broadcaster *events.Broadcaster

	RootID   string
	RootName string
	Scan     Config
	Location *time.Location
}

// Result summarizes one completed run.
type Result struct {
	PreviousVersion string
	Version         string
	Changes         *diff.ChangeSet
	Stats           *Stats
	Tree            *model.Node
}

// Run executes one full scan: load the previous baseline, capture the
// tree, diff, advance the version, merge the history, and persist both
// bundles. Both bundles are rewritten even when nothing changed; only
// the version history is shielded from no-op growth.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	logging.Info("scan starting",
		zap.String("root", r.RootID), zap.String("scanner_version", ScannerVersion))

	changelog, err := r.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	baseline := changelog.Baseline()
	logging.Info("previous scan loaded",
		zap.String("version", baseline.Version),
		zap.Int("baseline_files", len(baseline.Signatures)))

	scanner := New(r.Provider, r.Scan)
	tree, stats, err := scanner.Scan(ctx, r.RootID, r.RootName)
	if err != nil {
		metrics.RecordScan("failed", time.Since(started))
		return nil, err
	}

	currentSignatures := diff.Flatten(tree)
	changes := diff.Compare(currentSignatures, baseline.Signatures)
	hasChanges := changes.TotalChanges > 0
	nextVersion := version.Advance(baseline.Version, hasChanges)
	scanDate := time.Now().In(r.location()).Format(time.RFC3339)

	entry := version.HistoryEntry{
		Version:        nextVersion,
		ScanDate:       scanDate,
		ScannerVersion: ScannerVersion,
		Changes:        changes,
		Stats: &model.ScanStats{
			TotalFiles:   stats.TotalFiles,
			TotalFolders: stats.TotalFolders,
			TotalSizeMB:  stats.TotalSizeMB,
		},
	}

	data := &snapshot.DataBundle{
		Version:        nextVersion,
		ScanDate:       scanDate,
		ScannerVersion: ScannerVersion,
		Stats: &model.ScanStats{
			TotalFiles:   stats.TotalFiles,
			TotalFolders: stats.TotalFolders,
			TotalSizeMB:  stats.TotalSizeMB,
			APICalls:     stats.APICalls,
		},
		Data: tree,
	}
	updated := &snapshot.Changelog{
		ScanHistory: &snapshot.ScanRecord{
			Version:        nextVersion,
			ScanDate:       scanDate,
			ScannerVersion: ScannerVersion,
			Changes:        changes,
			Data:           tree,
			FileSignatures: currentSignatures,
			TotalFiles:     stats.TotalFiles,
			TotalFolders:   stats.TotalFolders,
		},
		VersionHistory: version.Merge(changelog.VersionHistory, entry),
	}

	if err := r.Store.Save(ctx, data, updated); err != nil {
		metrics.RecordScan("failed", time.Since(started))
		return nil, err
	}

	r.observe(baseline.Version, nextVersion, changes, stats, time.Since(started))

	return &Result{
		PreviousVersion: baseline.Version,
		Version:         nextVersion,
		Changes:         changes,
		Stats:           stats,
		Tree:            tree,
	}, nil
}

func (r *Runner) observe(previous, next string, changes *diff.ChangeSet, stats *Stats, elapsed time.Duration) {
	outcome := "unchanged"
	if changes.TotalChanges > 0 {
		outcome = "changed"
	}
	metrics.RecordScan(outcome, elapsed)
	metrics.SetTreeTotals(stats.TotalFiles, stats.TotalFolders, stats.TotalSizeMB)
	metrics.RecordChanges(len(changes.Added), len(changes.Deleted), len(changes.Modified))

	logging.Info("scan complete",
		zap.String("version", previous+" -> "+next),
		zap.Int("files", stats.TotalFiles),
		zap.Int("folders", stats.TotalFolders),
		zap.Float64("size_mb", stats.TotalSizeMB),
		zap.Int("api_calls", stats.APICalls),
		zap.Int("errors", len(stats.Errors)),
		zap.String("changes", changes.Summary),
		zap.Duration("elapsed", elapsed))

	if r.Broadcaster != nil {
		eventType := events.EventUnchanged
		if changes.TotalChanges > 0 {
			eventType = events.EventChanged
		}
		r.Broadcaster.Publish(events.Event{
			Type:     eventType,
			Version:  next,
			Added:    len(changes.Added),
			Deleted:  len(changes.Deleted),
			Modified: len(changes.Modified),
			Summary:  changes.Summary,
		})
	}
}

func (r *Runner) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.UTC
}
