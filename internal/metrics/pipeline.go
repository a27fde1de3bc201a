// Package metrics provides Prometheus metrics for the store ingestion pipeline.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pipeline operations.
const (
	OpCreate = "create"
	OpUpdate = "update"
)

// Pipeline outcomes. Every ingest ends in exactly one of these.
const (
	OutcomePersisted = "persisted"
	OutcomeInvalid   = "invalid"  // record field validation failed
	OutcomeRejected  = "rejected" // upload media type refused
	OutcomeFailed    = "failed"   // transcode, slug or store failure
)

// PipelineMetrics contains the Prometheus metrics for store ingestion.
// A nil *PipelineMetrics is valid and records nothing, which keeps tests and
// callers that do not care about metrics free of setup.
type PipelineMetrics struct {
	ingestTotal       *prometheus.CounterVec
	transcodeDuration prometheus.Histogram
	transcodeBytes    prometheus.Counter
	slugConflicts     prometheus.Counter
}

// NewPipelineMetrics creates the pipeline metrics and registers them with registry.
func NewPipelineMetrics(registry prometheus.Registerer) (*PipelineMetrics, error) {
	m := &PipelineMetrics{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("metrics.NewPipelineMetrics: %w", err)
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.ingestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_ingest_total",
			Help: "Total number of store ingest requests by operation and outcome.",
		},
		[]string{"op", "outcome"},
	)

	m.transcodeDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name: "store_photo_transcode_duration_seconds",
		Help: "Time taken to decode, resize, encode and write an uploaded photo.",
		// 10ms to ~10s
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	m.transcodeBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_photo_transcode_bytes_total",
		Help: "Total bytes of resized photos written to the upload directory.",
	})

	m.slugConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "store_slug_conflicts_total",
		Help: "Total number of slug unique-constraint conflicts that forced a retry.",
	})
}

// Describe implements the prometheus.Collector interface.
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.ingestTotal.Describe(ch)
	m.transcodeDuration.Describe(ch)
	m.transcodeBytes.Describe(ch)
	m.slugConflicts.Describe(ch)
}

// Collect implements the prometheus.Collector interface.
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.ingestTotal.Collect(ch)
	m.transcodeDuration.Collect(ch)
	m.transcodeBytes.Collect(ch)
	m.slugConflicts.Collect(ch)
}

// RecordIngest counts one finished pipeline run.
func (m *PipelineMetrics) RecordIngest(op, outcome string) {
	if m == nil {
		return
	}
	m.ingestTotal.WithLabelValues(op, outcome).Inc()
}

// RecordTranscode records one successful photo transcode.
func (m *PipelineMetrics) RecordTranscode(d time.Duration, bytes int) {
	if m == nil {
		return
	}
	m.transcodeDuration.Observe(d.Seconds())
	m.transcodeBytes.Add(float64(bytes))
}

// RecordSlugConflict counts one lost slug race.
func (m *PipelineMetrics) RecordSlugConflict() {
	if m == nil {
		return
	}
	m.slugConflicts.Inc()
}
