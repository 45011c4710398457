// Package metrics provides Prometheus metrics for the drivelens scanner.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Remote API metrics
	remoteCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_remote_calls_total",
			Help: "Total remote API call attempts",
		},
		[]string{"operation", "status"},
	)

	remoteRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_remote_retries_total",
			Help: "Total remote call retries",
		},
		[]string{"reason"},
	)

	// Scan metrics
	scansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_scans_total",
			Help: "Total scan runs",
		},
		[]string{"outcome"},
	)

	scanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "drivelens_scan_duration_seconds",
			Help:    "Full scan run duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)

	treeFiles = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivelens_tree_files",
			Help: "Files in the most recent captured tree",
		},
	)

	treeFolders = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivelens_tree_folders",
			Help: "Folders in the most recent captured tree",
		},
	)

	treeSizeMB = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivelens_tree_size_mb",
			Help: "Total size of the most recent captured tree in MB",
		},
	)

	changesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_changes_total",
			Help: "Total detected file changes",
		},
		[]string{"kind"},
	)

	// Snapshot store metrics
	snapshotSaveDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drivelens_snapshot_save_duration_seconds",
			Help:    "Snapshot save duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	snapshotSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_snapshot_saves_total",
			Help: "Total snapshot save operations",
		},
		[]string{"backend", "status"},
	)

	// Event metrics
	eventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drivelens_events_total",
			Help: "Total scan events published",
		},
		[]string{"type"},
	)

	subscribersActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drivelens_subscribers_active",
			Help: "Number of active event subscribers",
		},
	)
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRemoteCall records one remote API call attempt.
func RecordRemoteCall(operation string, success bool) {
	remoteCallsTotal.WithLabelValues(operation, statusLabel(success)).Inc()
}

// RecordRetry records a retried remote call by reason.
func RecordRetry(reason string) {
	remoteRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordScan records a completed scan run.
func RecordScan(outcome string, duration time.Duration) {
	scansTotal.WithLabelValues(outcome).Inc()
	scanDuration.Observe(duration.Seconds())
}

// SetTreeTotals updates the captured-tree gauges.
func SetTreeTotals(files, folders int, sizeMB float64) {
	treeFiles.Set(float64(files))
	treeFolders.Set(float64(folders))
	treeSizeMB.Set(sizeMB)
}

// RecordChanges records detected changes by kind.
func RecordChanges(added, deleted, modified int) {
	changesTotal.WithLabelValues("added").Add(float64(added))
	changesTotal.WithLabelValues("deleted").Add(float64(deleted))
	changesTotal.WithLabelValues("modified").Add(float64(modified))
}

// RecordSnapshotSave records a snapshot save operation.
func RecordSnapshotSave(backend string, duration time.Duration, success bool) {
	snapshotSaveDuration.WithLabelValues(backend).Observe(duration.Seconds())
	snapshotSavesTotal.WithLabelValues(backend, statusLabel(success)).Inc()
}

// RecordEvent records a published scan event.
func RecordEvent(eventType string) {
	eventsTotal.WithLabelValues(eventType).Inc()
}

// SetSubscribersActive updates the subscriber gauge.
func SetSubscribersActive(n int) {
	subscribersActive.Set(float64(n))
}

func statusLabel(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
