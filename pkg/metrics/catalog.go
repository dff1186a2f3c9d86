package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CatalogMetrics instruments catalog reads, ranking fan-out, cascades and
// push delivery. A nil *CatalogMetrics is a valid no-op.
type CatalogMetrics struct {
	queryDuration *prometheus.HistogramVec
	partitions    *prometheus.CounterVec
	cascades      *prometheus.CounterVec
	pushes        *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paintref_query_duration_seconds",
		Help:    "Duration of catalog read operations in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	partitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paintref_ranker_partitions_total",
		Help: "Brand partitions visited by the similarity ranker.",
	}, []string{"outcome"})
	cascades := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paintref_palette_cascades_total",
		Help: "Palette cascade deletes by outcome.",
	}, []string{"outcome"})
	pushes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "paintref_push_deliveries_total",
		Help: "Push notification deliveries by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(queryDuration, partitions, cascades, pushes)
	return &CatalogMetrics{
		queryDuration: queryDuration,
		partitions:    partitions,
		cascades:      cascades,
		pushes:        pushes,
	}
}

// ObserveQuery records the duration of a read operation.
func (c *CatalogMetrics) ObserveQuery(op string, duration time.Duration) {
	if c == nil || c.queryDuration == nil {
		return
	}
	c.queryDuration.WithLabelValues(normalizeLabel(op)).Observe(duration.Seconds())
}

// IncPartition counts one ranker partition by outcome (scanned, missing, failed).
func (c *CatalogMetrics) IncPartition(outcome string) {
	if c == nil || c.partitions == nil {
		return
	}
	c.partitions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncCascade counts one palette cascade by outcome (ok, partial_write).
func (c *CatalogMetrics) IncCascade(outcome string) {
	if c == nil || c.cascades == nil {
		return
	}
	c.cascades.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// AddPushes adds delivered and failed push counts.
func (c *CatalogMetrics) AddPushes(success, failure int) {
	if c == nil || c.pushes == nil {
		return
	}
	if success > 0 {
		c.pushes.WithLabelValues("success").Add(float64(success))
	}
	if failure > 0 {
		c.pushes.WithLabelValues("failure").Add(float64(failure))
	}
}
