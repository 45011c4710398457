// Package snapshot defines the persisted bundle shapes and the store
// contract the engine reads its baseline from and writes results to.
// The JSON field names mirror snapshots written by earlier scanner
// generations and are a compatibility contract.
package snapshot

import (
	"context"

	"github.com/drivelens/drivelens/internal/diff"
	"github.com/drivelens/drivelens/internal/model"
	"github.com/drivelens/drivelens/internal/version"
)

// DataBundle is the primary output: the captured tree plus run totals.
type DataBundle struct {
	Version        string           `json:"version"`
	ScanDate       string           `json:"scan_date"`
	ScannerVersion string           `json:"scanner_version"`
	Stats          *model.ScanStats `json:"stats"`
	Data           *model.Node      `json:"data"`
}

// ScanRecord is the changelog's record of the most recent scan. Its
// signature map is the comparison baseline for the next run.
type ScanRecord struct {
	Version        string                    `json:"version"`
	ScanDate       string                    `json:"scan_date"`
	ScannerVersion string                    `json:"scanner_version"`
	Changes        *diff.ChangeSet           `json:"changes"`
	Data           *model.Node               `json:"data"`
	FileSignatures map[string]diff.Signature `json:"file_signatures"`
	TotalFiles     int                       `json:"total_files"`
	TotalFolders   int                       `json:"total_folders"`
}

// Changelog is the persisted bundle pairing the latest scan record with
// the bounded version history.
type Changelog struct {
	ScanHistory    *ScanRecord            `json:"scan_history"`
	VersionHistory []version.HistoryEntry `json:"version_history"`
}

// Baseline is what the engine needs from a previous scan to diff
// against.
type Baseline struct {
	Version      string
	ScanDate     string
	Signatures   map[string]diff.Signature
	TotalFiles   int
	TotalFolders int
}

// DefaultBaseline is the comparison state of a first-ever scan.
func DefaultBaseline() *Baseline {
	return &Baseline{
		Version:    version.Initial,
		Signatures: map[string]diff.Signature{},
	}
}

// Baseline extracts the previous-scan state, degrading to the default
// when the changelog has no usable scan record.
func (c *Changelog) Baseline() *Baseline {
	if c == nil || c.ScanHistory == nil || c.ScanHistory.Version == "" {
		return DefaultBaseline()
	}
	b := &Baseline{
		Version:      c.ScanHistory.Version,
		ScanDate:     c.ScanHistory.ScanDate,
		Signatures:   c.ScanHistory.FileSignatures,
		TotalFiles:   c.ScanHistory.TotalFiles,
		TotalFolders: c.ScanHistory.TotalFolders,
	}
	if b.Signatures == nil {
		b.Signatures = map[string]diff.Signature{}
	}
	return b
}

// Store persists scan results. Load must degrade missing or unreadable
// state to an empty changelog rather than fail: a corrupt store means
// a fresh baseline, not a dead scanner. Save failures are fatal to the
// run.
type Store interface {
	Load(ctx context.Context) (*Changelog, error)
	Save(ctx context.Context, data *DataBundle, changelog *Changelog) error
	Close() error
}
