// Package metrics holds the prometheus collectors shared by the blob gateway,
// the media saga and the reconciliation jobs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "gameshelf"

// Metrics groups every collector. A nil *Metrics is valid and records nothing.
type Metrics struct {
	blobOps        *prometheus.CounterVec
	blobDurations  *prometheus.HistogramVec
	compensations  *prometheus.CounterVec
	orphansFound   *prometheus.GaugeVec
	orphansDeleted *prometheus.CounterVec
	jobRuns        *prometheus.CounterVec
}

// New builds the collectors and registers them with reg when reg is non-nil.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		blobOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "blob_operations_total",
				Help:      "Blob store calls by operation and outcome.",
			},
			[]string{"operation", "status"},
		),
		blobDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "blob_operation_duration_seconds",
				Help:      "Time spent in blob store calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		compensations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "compensating_deletes_total",
				Help:      "Compensating deletes issued after a failed create or update.",
			},
			[]string{"status"},
		),
		orphansFound: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "orphans_found",
				Help:      "Orphans found by the last scan, by category.",
			},
			[]string{"category"},
		),
		orphansDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "orphans_deleted_total",
				Help:      "Orphan deletions applied, by category and outcome.",
			},
			[]string{"category", "status"},
		),
		jobRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reconcile_runs_total",
				Help:      "Reconciliation job runs by job and outcome.",
			},
			[]string{"job", "status"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.blobOps,
			m.blobDurations,
			m.compensations,
			m.orphansFound,
			m.orphansDeleted,
			m.jobRuns,
		)
	}
	return m
}

// BlobOp records one blob store call.
func (m *Metrics) BlobOp(op string, took time.Duration, err error) {
	if m == nil {
		return
	}
	m.blobOps.WithLabelValues(op, status(err)).Inc()
	m.blobDurations.WithLabelValues(op).Observe(took.Seconds())
}

// Compensation records one compensating delete.
func (m *Metrics) Compensation(err error) {
	if m == nil {
		return
	}
	m.compensations.WithLabelValues(status(err)).Inc()
}

// OrphansFound sets the last observed orphan count for a category.
func (m *Metrics) OrphansFound(category string, n int) {
	if m == nil {
		return
	}
	m.orphansFound.WithLabelValues(category).Set(float64(n))
}

// OrphansDeleted adds applied deletions for a category.
func (m *Metrics) OrphansDeleted(category string, deleted, failed int) {
	if m == nil {
		return
	}
	m.orphansDeleted.WithLabelValues(category, "ok").Add(float64(deleted))
	m.orphansDeleted.WithLabelValues(category, "error").Add(float64(failed))
}

// JobRun records the outcome of one reconciliation job.
func (m *Metrics) JobRun(job string, err error) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
