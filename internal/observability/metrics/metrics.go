package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	RegistrationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_registrations_total",
			Help: "Total number of registration attempts.",
		},
		[]string{"result"},
	)

	LoginsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_logins_total",
			Help: "Total number of login attempts.",
		},
		[]string{"result"},
	)

	TokensIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_tokens_issued_total",
			Help: "Total number of access tokens issued.",
		},
		[]string{"result"},
	)

	GateAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_gate_attempts_total",
			Help: "Total number of bearer-token checks on protected routes.",
		},
		[]string{"result"},
	)

	ReceiverSearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "handoff_receiver_searches_total",
			Help: "Total number of receiver searches.",
		},
		[]string{"result"},
	)

	ReceiverSearchMatches = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "handoff_receiver_search_matches",
			Help:    "Number of receivers returned per search.",
			Buckets: []float64{0, 1, 2, 5, 10, 25, 50, 100},
		},
	)
)

// MustRegister registers every collector on the default registry with a
// constant service label.
func MustRegister(serviceName string) {
	reg := prometheus.WrapRegistererWith(prometheus.Labels{"service": serviceName}, prometheus.DefaultRegisterer)
	reg.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		RegistrationsTotal,
		LoginsTotal,
		TokensIssuedTotal,
		GateAttemptsTotal,
		ReceiverSearchesTotal,
		ReceiverSearchMatches,
	)
}
