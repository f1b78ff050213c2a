// Package metrics registers the Prometheus collectors for the image store.
// Collectors are package-level and updated from the repository and handle
// registry as operations complete.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation results used as the "result" label.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultNotFound = "not_found"
)

var (
	// BlobOperations counts Blob Repository operations by kind and result.
	BlobOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiles_blob_operations_total",
			Help: "Blob repository operations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	// HandlesLive is the number of display handles currently outstanding.
	HandlesLive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "profiles_handles_live",
			Help: "Display handles currently cached and not revoked.",
		},
	)

	// HandlesMinted counts display handles created.
	HandlesMinted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiles_handles_minted_total",
			Help: "Display handles created.",
		},
	)

	// HandlesRevoked counts display handles revoked.
	HandlesRevoked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profiles_handles_revoked_total",
			Help: "Display handles revoked.",
		},
	)

	// MigrationRecords counts records processed by migration runs by result.
	MigrationRecords = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "profiles_migration_records_total",
			Help: "Records processed by inline-to-blob migration by result.",
		},
		[]string{"result"},
	)
)

// ObserveBlob records one Blob Repository operation outcome.
func ObserveBlob(operation, result string) {
	BlobOperations.WithLabelValues(operation, result).Inc()
}

// WriteTextfile writes every collector registered with the default
// registry to path in the Prometheus text format, for pickup by a node
// exporter textfile collector. The file is replaced atomically.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

// Result maps an error to a result label.
func Result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
