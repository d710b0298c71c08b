package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeError   = "error"
)

var (
	// AuthEventsTotal counts register/login/refresh/logout attempts by outcome.
	AuthEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_auth_events_total",
		Help: "Authentication events by type and outcome.",
	}, []string{"event", "outcome"})

	PostOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "posts_post_operations_total",
		Help: "Post operations by type and outcome.",
	}, []string{"operation", "outcome"})

	LoginThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "posts_login_throttled_total",
		Help: "Login attempts rejected by the rate limiter.",
	})
)
