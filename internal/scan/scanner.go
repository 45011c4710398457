// Package scan captures a remote folder tree into the in-memory model
// and orchestrates full scan runs: baseline load, capture, diff,
// version advance, history merge, and snapshot save.
package scan

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/drivelens/drivelens/internal/logging"
	"github.com/drivelens/drivelens/internal/metrics"
	"github.com/drivelens/drivelens/internal/model"
	"github.com/drivelens/drivelens/internal/remote"
)

// Config holds the per-call retry knobs.
type Config struct {
	MaxRetries int
	RetryDelay time.Duration
	Categories model.CategoryTable
}

// Stats is the run-scoped accumulator threaded through one scan.
// Keeping it per-run (not process-wide) lets multiple scans share a
// process without cross-contaminating counters.
type Stats struct {
	TotalFiles   int
	TotalFolders int
	TotalSizeMB  float64
	APICalls     int
	Errors       []string
}

// Scanner walks a remote namespace depth-first, one folder listing at
// a time, folding aggregates bottom-up.
type Scanner struct {
	provider remote.Provider
	cfg      Config
	stats    *Stats

	// sleep is swappable so tests can observe backoff without waiting.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a scanner for one run. Zero retry knobs get defaults of
// 3 attempts and a 2s base delay.
func New(provider remote.Provider, cfg Config) *Scanner {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 2 * time.Second
	}
	if cfg.Categories == nil {
		cfg.Categories = model.DefaultCategories
	}
	return &Scanner{
		provider: provider,
		cfg:      cfg,
		stats:    &Stats{},
		sleep:    sleepCtx,
	}
}

// Scan captures the tree rooted at rootID. It returns the tree and the
// run stats; a listing that exhausts its retry budget aborts the whole
// scan with no partial result.
func (s *Scanner) Scan(ctx context.Context, rootID, rootName string) (*model.Node, *Stats, error) {
	root, err := s.scanFolder(ctx, rootID, rootName)
	if err != nil {
		return nil, s.stats, err
	}
	s.stats.TotalSizeMB = root.TotalSizeMB
	return root, s.stats, nil
}

func (s *Scanner) scanFolder(ctx context.Context, id, name string) (*model.Node, error) {
	logging.Debug("scanning folder", zap.String("id", id), zap.String("name", name))

	node := model.NewFolder(id, name)

	pageToken := ""
	for {
		listing, err := s.listPage(ctx, id, pageToken)
		if err != nil {
			return nil, err
		}
		if listing == nil {
			// Listing denied; the subtree degrades to empty.
			break
		}

		for _, entry := range listing.Entries {
			if entry.IsFolder() {
				s.stats.TotalFolders++

				child, err := s.scanFolder(ctx, entry.ID, entry.Name)
				if err != nil {
					return nil, err
				}
				child.Description = s.describe(ctx, entry.ID)
				child.Link = entry.Link
				node.AddFolder(child)
				continue
			}

			s.stats.TotalFiles++
			node.AddFile(s.fileNode(entry))
		}

		pageToken = listing.NextPageToken
		if pageToken == "" {
			break
		}
	}

	node.Finish()
	return node, nil
}

func (s *Scanner) fileNode(entry remote.Entry) *model.Node {
	file := model.NewFile(entry.ID, entry.Name)
	file.MimeType = entry.MimeType
	file.Category = s.cfg.Categories.Categorize(entry.MimeType)
	file.Size = model.FormatSize(entry.Size)
	file.Link = entry.Link

	// Fall back to the creation time when the entry was never modified.
	modified := entry.ModifiedTime
	if modified == "" {
		modified = entry.CreatedTime
	}
	file.ModifiedTime = model.NormalizeTime(modified)
	file.CreatedTime = model.NormalizeTime(entry.CreatedTime)
	return file
}

// listPage fetches one listing page with the retry policy applied.
// Permission denials degrade to a nil listing after being recorded.
func (s *Scanner) listPage(ctx context.Context, folderID, pageToken string) (*remote.Listing, error) {
	listing, err := callWithRetry(ctx, s, "list", func(ctx context.Context) (*remote.Listing, error) {
		return s.provider.List(ctx, folderID, pageToken)
	})
	if err != nil {
		if remote.IsPermissionDenied(err) {
			return nil, nil
		}
		return nil, err
	}
	return listing, nil
}

// describe fetches the folder description best-effort: every failure,
// including an exhausted retry budget, yields an empty description.
func (s *Scanner) describe(ctx context.Context, folderID string) string {
	description, err := callWithRetry(ctx, s, "description", func(ctx context.Context) (string, error) {
		return s.provider.Description(ctx, folderID)
	})
	if err != nil {
		return ""
	}
	return description
}

// callWithRetry applies the per-call retry policy: exponential backoff
// on rate limits, a flat delay on other transient failures, and an
// immediate non-retried return on permission denials. Every attempt
// counts against the run's API-call total and the retry budget.
func callWithRetry[T any](ctx context.Context, s *Scanner, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < s.cfg.MaxRetries; attempt++ {
		s.stats.APICalls++
		result, err := fn(ctx)
		metrics.RecordRemoteCall(op, err == nil)
		if err == nil {
			return result, nil
		}
		lastErr = err

		switch {
		case remote.IsRateLimited(err):
			wait := s.cfg.RetryDelay << attempt
			logging.Warn("rate limit hit, backing off",
				zap.String("op", op), zap.Duration("wait", wait))
			metrics.RecordRetry("rate_limited")
			if serr := s.sleep(ctx, wait); serr != nil {
				return zero, serr
			}

		case remote.IsPermissionDenied(err):
			s.stats.Errors = append(s.stats.Errors, fmt.Sprintf("access forbidden: %v", err))
			logging.Warn("permission denied", zap.String("op", op), zap.Error(err))
			return zero, err

		default:
			if attempt == s.cfg.MaxRetries-1 {
				break
			}
			metrics.RecordRetry("error")
			if serr := s.sleep(ctx, s.cfg.RetryDelay); serr != nil {
				return zero, serr
			}
		}
	}

	s.stats.Errors = append(s.stats.Errors, fmt.Sprintf("%s failed: %v", op, lastErr))
	return zero, lastErr
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
