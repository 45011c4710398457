// Package file persists snapshot bundles as a pair of JSON documents
// (data.json, changelog.json) in a local directory.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/drivelens/drivelens/internal/logging"
	"github.com/drivelens/drivelens/internal/metrics"
	"github.com/drivelens/drivelens/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	dataFile      = "data.json"
	changelogFile = "changelog.json"
)

// Store is a directory-backed snapshot store.
type Store struct {
	dir string
}

// New creates the output directory if needed and returns a store.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Load reads the changelog. A missing or unparseable file degrades to
// an empty changelog so the next scan starts from a fresh baseline.
func (s *Store) Load(_ context.Context) (*snapshot.Changelog, error) {
	path := filepath.Join(s.dir, changelogFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("changelog unreadable, starting fresh",
				zap.String("path", path), zap.Error(err))
		}
		return &snapshot.Changelog{}, nil
	}

	var changelog snapshot.Changelog
	if err := json.Unmarshal(raw, &changelog); err != nil {
		logging.Warn("changelog corrupt, starting fresh",
			zap.String("path", path), zap.Error(err))
		return &snapshot.Changelog{}, nil
	}
	return &changelog, nil
}

// Save writes both bundles, each atomically via temp file and rename.
func (s *Store) Save(_ context.Context, data *snapshot.DataBundle, changelog *snapshot.Changelog) error {
	start := time.Now()

	if err := s.writeJSON(dataFile, data); err != nil {
		metrics.RecordSnapshotSave("file", time.Since(start), false)
		return err
	}
	if err := s.writeJSON(changelogFile, changelog); err != nil {
		metrics.RecordSnapshotSave("file", time.Since(start), false)
		return err
	}

	metrics.RecordSnapshotSave("file", time.Since(start), true)
	return nil
}

// Close implements snapshot.Store; the file store holds no resources.
func (s *Store) Close() error {
	return nil
}

func (s *Store) writeJSON(name string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp, err := os.CreateTemp(s.dir, ".drivelens-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for %s: %w", name, err)
	}

	path := filepath.Join(s.dir, name)
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}
