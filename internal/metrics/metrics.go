// Package metrics registers the Prometheus collectors of the QR service.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qrtist/backend/internal/models"
)

var (
	// GenerationsTotal counts generation attempts by content type and result.
	GenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_generations_total",
			Help: "Total number of QR code generation attempts",
		},
		[]string{"content_type", "result"},
	)

	// DownloadsTotal counts successful downloads by content type.
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qr_downloads_total",
			Help: "Total number of QR code downloads",
		},
		[]string{"content_type"},
	)

	// OrphanedArtifactsTotal counts artifacts left without a record.
	OrphanedArtifactsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_orphaned_artifacts_total",
		Help: "Total number of artifacts stored without a matching record",
	})

	SweepRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_sweep_runs_total",
		Help: "Total number of artifact sweep runs",
	})

	SweepDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "qr_sweep_deleted_total",
		Help: "Total number of unreferenced artifacts deleted by the sweeper",
	})

	SweepDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "qr_sweep_duration_seconds",
		Help:    "Duration of artifact sweep runs in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
	})
)

// Result labels
const (
	ResultSuccess     = "success"
	ResultValidation  = "validation_error"
	ResultRender      = "render_error"
	ResultPersistence = "persistence_error"
)

// ResultLabel classifies a generation error into a metric label
func ResultLabel(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, models.ErrValidation):
		return ResultValidation
	case errors.Is(err, models.ErrRender):
		return ResultRender
	default:
		return ResultPersistence
	}
}

// ObserveGeneration records the outcome of one generation attempt
func ObserveGeneration(contentType string, err error) {
	GenerationsTotal.WithLabelValues(contentType, ResultLabel(err)).Inc()
}
