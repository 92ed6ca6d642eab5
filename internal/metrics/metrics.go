package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Searches          *prometheus.CounterVec
	DetailFetches     *prometheus.CounterVec
	RequestSeconds    *prometheus.HistogramVec
	ActiveEnrichments prometheus.Gauge
	ResultSize        prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "facility_searches_total",
			Help: "Total number of nearby facility searches by outcome.",
		}, []string{"outcome"}),
		DetailFetches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "facility_detail_fetches_total",
			Help: "Total number of facility detail lookups by status.",
		}, []string{"status"}),
		RequestSeconds: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "facility_provider_request_duration_seconds",
			Help:    "Duration of requests to the place provider API.",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider", "operation"}),
		ActiveEnrichments: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "facility_active_enrichments",
			Help: "Current number of in-flight facility detail lookups.",
		}),
		ResultSize: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "facility_search_result_size",
			Help:    "Number of facilities returned per successful search.",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 40, 60},
		}),
	}
}
