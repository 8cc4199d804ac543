// Package metrics provides Prometheus metrics for colstream write activity:
// messages framed, bytes written, dictionary tracker decisions and chunk
// sizes.
//
// # Basic Usage
//
//	// Count a framed message
//	metrics.MessagesWritten.WithLabelValues("chunk").Inc()
//
//	// Track written bytes by stream section
//	metrics.BytesWritten.WithLabelValues("metadata").Add(float64(metaLen))
//	metrics.BytesWritten.WithLabelValues("body").Add(float64(bodyLen))
//
//	// Time a conversion run
//	timer := metrics.NewTimer("convert")
//	runConvert()
//	duration := timer.Stop()
//
// All metrics are registered on the default Prometheus registry at package
// load. Recording them never affects the bytes a writer produces.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesWritten counts messages framed onto streams.
	// Labels: kind (schema/dictionary/chunk)
	//
	// Example:
	//	metrics.MessagesWritten.WithLabelValues("dictionary").Inc()
	MessagesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colstream_messages_written_total",
			Help: "Total number of messages framed onto streams",
		},
		[]string{"kind"},
	)

	// BytesWritten counts bytes written to stream sinks.
	// Labels: section (metadata/body)
	//
	// Metadata covers continuation markers, length prefixes, padded
	// headers and the end-of-stream marker; body covers padded message
	// bodies.
	BytesWritten = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colstream_bytes_written_total",
			Help: "Total bytes written to stream sinks",
		},
		[]string{"section"},
	)

	// DictionaryDecisions counts dictionary tracker outcomes.
	// Labels: decision (skip/emit/replace/reject)
	//
	// Example:
	//	metrics.DictionaryDecisions.WithLabelValues(decision.String()).Inc()
	DictionaryDecisions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "colstream_dictionary_decisions_total",
			Help: "Total dictionary tracker decisions",
		},
		[]string{"decision"},
	)

	// ChunkRows tracks the distribution of rows per written chunk.
	ChunkRows = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "colstream_chunk_rows",
			Help:    "Rows per written chunk",
			Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1e6},
		},
	)

	// ActiveStreams tracks streams that have started but not yet
	// finished or been detached.
	ActiveStreams = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "colstream_active_streams",
			Help: "Streams started and not yet finished",
		},
	)
)

// Timer provides a simple timing mechanism for measuring operation durations.
// It captures the start time on creation and calculates elapsed time on stop.
type Timer struct {
	start time.Time
	name  string
}

// NewTimer creates a new timer and starts timing immediately.
// The name parameter is for identification in logs.
//
// Example:
//
//	timer := metrics.NewTimer("convert")
//	runConvert()
//	logger.Info("done", zap.Duration("took", timer.Stop()))
func NewTimer(name string) *Timer {
	return &Timer{
		start: time.Now(),
		name:  name,
	}
}

// Stop returns the elapsed duration since creation. Stopping more than
// once returns the total elapsed time each call.
func (t *Timer) Stop() time.Duration {
	return time.Since(t.start)
}
