package router

import "github.com/prometheus/client_golang/prometheus"

// metrics instruments the routing hot path. All collectors are registered on
// the injected Registerer so embedding applications keep control of their
// metric namespace.
type metrics struct {
	requestsTotal *prometheus.CounterVec
	noRouteTotal  prometheus.Counter
	quoteDuration *prometheus.HistogramVec
	pathsReturned prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swap_router",
			Name:      "requests_total",
			Help:      "Routing requests by swap kind and outcome.",
		}, []string{"kind", "outcome"}),
		noRouteTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "swap_router",
			Name:      "no_route_total",
			Help:      "Requests for which no viable path existed.",
		}),
		quoteDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swap_router",
			Name:      "quote_duration_seconds",
			Help:      "End-to-end quote latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"kind"}),
		pathsReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "swap_router",
			Name:      "paths_returned",
			Help:      "Number of paths in the final route.",
			Buckets:   prometheus.LinearBuckets(0, 1, 9),
		}),
	}
	reg.MustRegister(m.requestsTotal, m.noRouteTotal, m.quoteDuration, m.pathsReturned)
	return m
}
