package utils

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the service's Prometheus collectors.
type Metrics struct {
	HTTPRequests  *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	Bookings      *prometheus.CounterVec
	Compensations *prometheus.CounterVec
	AccessChecks  *prometheus.CounterVec
	NoncesSwept   prometheus.Counter
}

// NewMetrics registers collectors on reg. Passing nil uses a private registry,
// which keeps tests from colliding on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotchain",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "slotchain",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		Bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotchain",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome kind.",
		}, []string{"outcome"}),
		Compensations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotchain",
			Name:      "booking_compensations_total",
			Help:      "Slot release attempts after a failed booking, by result.",
		}, []string{"result"}),
		AccessChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "slotchain",
			Name:      "meeting_access_total",
			Help:      "Meeting access redemptions by outcome kind.",
		}, []string{"outcome"}),
		NoncesSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "slotchain",
			Name:      "nonces_swept_total",
			Help:      "Expired access nonces removed by the sweeper.",
		}),
	}

	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.Bookings, m.Compensations, m.AccessChecks, m.NoncesSwept)
	return m
}

// Outcome turns an error into a low-cardinality label value.
func Outcome(err error) string {
	if err == nil {
		return "success"
	}
	return string(ErrorKindOf(err))
}
