package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the counters of one run on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	LinesRead        prometheus.Counter
	RecordsPublished prometheus.Counter
	ChunksPublished  prometheus.Counter
	PublishFailures  prometheus.Counter
	ChunkDuration    prometheus.Histogram
	LastSuccess      prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readfile_lines_read_total",
			Help: "Lines read from the input file",
		}),
		RecordsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readfile_records_published_total",
			Help: "Records acknowledged by the broker",
		}),
		ChunksPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readfile_chunks_published_total",
			Help: "Chunks fully published",
		}),
		PublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "readfile_publish_failures_total",
			Help: "Chunk publish attempts that failed",
		}),
		ChunkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "readfile_chunk_publish_duration_seconds",
			Help:    "Time to publish one chunk",
			Buckets: prometheus.DefBuckets,
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "readfile_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run",
		}),
	}

	m.Registry.MustRegister(
		m.LinesRead,
		m.RecordsPublished,
		m.ChunksPublished,
		m.PublishFailures,
		m.ChunkDuration,
		m.LastSuccess,
	)
	return m
}

// ObserveChunk records a successful chunk of n records.
func (m *Metrics) ObserveChunk(n int, took time.Duration) {
	m.ChunksPublished.Inc()
	m.RecordsPublished.Add(float64(n))
	m.ChunkDuration.Observe(took.Seconds())
}

func (m *Metrics) MarkSuccess(at time.Time) {
	m.LastSuccess.Set(float64(at.Unix()))
}

// Push sends the registry to a Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, url, job string) error {
	return push.New(url, job).Gatherer(m.Registry).PushContext(ctx)
}
