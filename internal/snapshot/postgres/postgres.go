// Package postgres persists snapshot bundles in PostgreSQL, one row
// per bundle kind, upserted on every scan.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/drivelens/drivelens/internal/logging"
	"github.com/drivelens/drivelens/internal/metrics"
	"github.com/drivelens/drivelens/internal/snapshot"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	bundleData      = "data"
	bundleChangelog = "changelog"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	name       TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// Store is a PostgreSQL snapshot store.
type Store struct {
	db *sql.DB
}

// New opens the database, verifies connectivity, and ensures the
// snapshots table exists.
func New(databaseURL string) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure snapshots table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load reads the changelog row. A missing row or unparseable payload
// degrades to an empty changelog.
func (s *Store) Load(ctx context.Context) (*snapshot.Changelog, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT payload FROM snapshots WHERE name = $1`, bundleChangelog).Scan(&raw)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			logging.Warn("changelog row unreadable, starting fresh", zap.Error(err))
		}
		return &snapshot.Changelog{}, nil
	}

	var changelog snapshot.Changelog
	if err := json.Unmarshal(raw, &changelog); err != nil {
		logging.Warn("changelog payload corrupt, starting fresh", zap.Error(err))
		return &snapshot.Changelog{}, nil
	}
	return &changelog, nil
}

// Save upserts both bundles in one transaction.
func (s *Store) Save(ctx context.Context, data *snapshot.DataBundle, changelog *snapshot.Changelog) error {
	start := time.Now()

	err := s.save(ctx, data, changelog)
	metrics.RecordSnapshotSave("postgres", time.Since(start), err == nil)
	return err
}

func (s *Store) save(ctx context.Context, data *snapshot.DataBundle, changelog *snapshot.Changelog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := upsert(ctx, tx, bundleData, data); err != nil {
		return err
	}
	if err := upsert(ctx, tx, bundleChangelog, changelog); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshots: %w", err)
	}
	return nil
}

func upsert(ctx context.Context, tx *sql.Tx, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s bundle: %w", name, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (name, payload, updated_at) VALUES ($1, $2, now())
		 ON CONFLICT (name) DO UPDATE SET payload = EXCLUDED.payload, updated_at = now()`,
		name, raw)
	if err != nil {
		return fmt.Errorf("upsert %s bundle: %w", name, err)
	}
	return nil
}
