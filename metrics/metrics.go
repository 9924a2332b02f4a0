// Package metrics instruments the index engine with Prometheus counters
// and histograms for insert/query operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder wraps the Prometheus collectors an index.Engine reports
// through. Register it against a prometheus.Registerer once at
// startup, then call its methods around each engine operation.
type Recorder struct {
	inserts        prometheus.Counter
	insertErrors   prometheus.Counter
	insertDuration prometheus.Histogram
	queries        *prometheus.CounterVec
	queryDuration  *prometheus.HistogramVec
	shardDrops     prometheus.Counter
}

// NewRecorder builds a Recorder. Callers must register it with a
// prometheus.Registerer (see Register) before metrics become visible to
// a scraper.
func NewRecorder() *Recorder {
	return &Recorder{
		inserts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyindex_inserts_total",
			Help: "Total number of documents inserted into the index.",
		}),
		insertErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyindex_insert_errors_total",
			Help: "Total number of failed insert operations.",
		}),
		insertDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fuzzyindex_insert_duration_seconds",
			Help:    "Insert operation latency.",
			Buckets: prometheus.DefBuckets,
		}),
		queries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fuzzyindex_queries_total",
			Help: "Total number of queries evaluated, by mode.",
		}, []string{"mode"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fuzzyindex_query_duration_seconds",
			Help:    "Query evaluation latency, by mode.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		shardDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fuzzyindex_shard_dropped_tokens_total",
			Help: "Total number of token records dropped for falling outside the opened shard range.",
		}),
	}
}

// Register registers every collector with reg.
func (r *Recorder) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.inserts, r.insertErrors, r.insertDuration, r.queries, r.queryDuration, r.shardDrops} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveInsert records one insert attempt's outcome and latency.
func (r *Recorder) ObserveInsert(start time.Time, err error) {
	r.insertDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.insertErrors.Inc()
		return
	}
	r.inserts.Inc()
}

// ObserveQuery records one query evaluation's mode and latency.
func (r *Recorder) ObserveQuery(mode string, start time.Time) {
	r.queries.WithLabelValues(mode).Inc()
	r.queryDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
}

// IncShardDrop records one token record dropped by the shard router for
// falling outside the opened [submin, submax] range.
func (r *Recorder) IncShardDrop() {
	r.shardDrops.Inc()
}
