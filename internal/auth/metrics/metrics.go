// Package metrics holds the prometheus instruments for the auth service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "sessionauth"

// Result labels.
const (
	ResultSuccess   = "success"
	ResultInvalid   = "invalid"
	ResultDuplicate = "duplicate"
	ResultExpired   = "expired"
	ResultUnknown   = "unknown"
	ResultInactive  = "inactive"
	ResultError     = "error"
)

// Metrics is safe to use as a nil pointer; every recorder becomes a no-op.
type Metrics struct {
	logins           *prometheus.CounterVec
	loginDuration    prometheus.Histogram
	resolutions      *prometheus.CounterVec
	registrations    *prometheus.CounterVec
	tokensRevoked    prometheus.Counter
	housekeepDeleted prometheus.Counter
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration panics.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		logins: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logins_total",
			Help:      "Login attempts by result",
		}, []string{"result"}),
		loginDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "login_duration_seconds",
			Help:      "Histogram of login latency in seconds, dominated by password hashing",
			Buckets:   prometheus.DefBuckets,
		}),
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_resolutions_total",
			Help:      "Bearer token resolutions by result",
		}, []string{"result"}),
		registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "User registrations by result",
		}, []string{"result"}),
		tokensRevoked: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tokens_revoked_total",
			Help:      "Session tokens revoked explicitly",
		}),
		housekeepDeleted: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "housekeeping_deleted_total",
			Help:      "Expired session tokens purged by housekeeping",
		}),
	}
}

func (m *Metrics) Login(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.logins.WithLabelValues(result).Inc()
	m.loginDuration.Observe(took.Seconds())
}

func (m *Metrics) Resolution(result string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(result).Inc()
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) TokenRevoked() {
	if m == nil {
		return
	}
	m.tokensRevoked.Inc()
}

func (m *Metrics) HousekeepingDeleted(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.housekeepDeleted.Add(float64(n))
}
