// drivelens scanner
//
// Periodically snapshots a hierarchical remote file tree (Google Drive
// or an S3 bucket), detects added/deleted/modified files against the
// previous snapshot, and maintains a bounded, versioned change history.
//
// Runs once by default; set SCAN_INTERVAL for daemon mode with a
// Prometheus metrics endpoint.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/drivelens/drivelens/internal/config"
	"github.com/drivelens/drivelens/internal/events"
	"github.com/drivelens/drivelens/internal/logging"
	"github.com/drivelens/drivelens/internal/metrics"
	"github.com/drivelens/drivelens/internal/remote"
	"github.com/drivelens/drivelens/internal/remote/drive"
	s3remote "github.com/drivelens/drivelens/internal/remote/s3"
	"github.com/drivelens/drivelens/internal/scan"
	"github.com/drivelens/drivelens/internal/snapshot"
	filestore "github.com/drivelens/drivelens/internal/snapshot/file"
	"github.com/drivelens/drivelens/internal/snapshot/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Can't use structured logging yet
		panic("configuration error: " + err.Error())
	}

	if err := logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	}); err != nil {
		panic("logging init error: " + err.Error())
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, rootID := buildProvider(ctx, cfg)
	store := buildStore(cfg)
	defer store.Close()

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.Warn("unknown timezone, using UTC", zap.String("timezone", cfg.Timezone))
		location = time.UTC
	}

	broadcaster := events.NewBroadcaster()
	runner := &scan.Runner{
		Provider:    provider,
		Store:       store,
		Broadcaster: broadcaster,
		RootID:      rootID,
		RootName:    cfg.RootFolderName,
		Scan: scan.Config{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		},
		Location: location,
	}

	if cfg.ScanInterval <= 0 {
		if _, err := runner.Run(ctx); err != nil {
			logging.Fatal("scan failed", zap.Error(err))
		}
		return
	}

	runDaemon(ctx, cfg, runner, broadcaster)
}

func buildProvider(ctx context.Context, cfg *config.Config) (remote.Provider, string) {
	switch cfg.Provider {
	case "s3":
		provider, err := s3remote.New(ctx, s3remote.ProviderConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Region:    cfg.S3Region,
			UseSSL:    cfg.S3UseSSL,
			Prefix:    cfg.S3Prefix,
		})
		if err != nil {
			logging.Fatal("s3 provider init failed", zap.Error(err))
		}
		logging.Info("using s3 provider",
			zap.String("bucket", cfg.S3Bucket), zap.String("prefix", provider.RootID()))
		return provider, provider.RootID()

	default:
		provider, err := drive.New(drive.Config{
			CredentialsFile: cfg.CredentialsFile,
		})
		if err != nil {
			logging.Fatal("drive provider init failed", zap.Error(err))
		}
		logging.Info("using drive provider", zap.String("root", cfg.RootFolderID))
		return provider, cfg.RootFolderID
	}
}

func buildStore(cfg *config.Config) snapshot.Store {
	switch cfg.SnapshotBackend {
	case "postgres":
		store, err := postgres.New(cfg.DatabaseURL)
		if err != nil {
			logging.Fatal("postgres snapshot store init failed", zap.Error(err))
		}
		logging.Info("using postgres snapshot store")
		return store

	default:
		store, err := filestore.New(cfg.OutputDir)
		if err != nil {
			logging.Fatal("file snapshot store init failed", zap.Error(err))
		}
		logging.Info("using file snapshot store", zap.String("dir", cfg.OutputDir))
		return store
	}
}

func runDaemon(ctx context.Context, cfg *config.Config, runner *scan.Runner, broadcaster *events.Broadcaster) {
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(),
	}
	go func() {
		logging.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logging.Error("metrics server error", zap.Error(err))
		}
	}()
	defer metricsServer.Close()

	// Log each published outcome like any other subscriber would see it.
	sub := broadcaster.Subscribe()
	defer broadcaster.Unsubscribe(sub)
	go func() {
		for event := range sub {
			logging.Info("scan event",
				zap.String("type", event.Type),
				zap.String("version", event.Version),
				zap.String("summary", event.Summary))
		}
	}()

	logging.Info("daemon mode", zap.Duration("interval", cfg.ScanInterval))

	ticker := time.NewTicker(cfg.ScanInterval)
	defer ticker.Stop()

	for {
		if _, err := runner.Run(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			// A failed scan persists nothing; the next interval retries.
			logging.Error("scan failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			logging.Info("shutting down...")
			return
		case <-ticker.C:
		}
	}
}
