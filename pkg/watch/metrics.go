package watch

import (
	"github.com/prometheus/client_golang/prometheus"
)

// reconnects counts watch reconnect attempts, labeled by outcome, so a
// caller scraping Prometheus metrics can see watch churn without
// inspecting Callbacks: reopens after a clean EOF, backed-off retries
// after a failed open (spec.md §4.H point 5), and expiry resets.
var reconnects = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "kubecli",
	Subsystem: "watch",
	Name:      "reconnects_total",
	Help:      "Count of watch reconnect attempts by outcome.",
}, []string{"outcome"})

func init() {
	prometheus.MustRegister(reconnects)
}

const (
	outcomeClean   = "clean_eof"
	outcomeFailure = "failure"
	outcomeReset   = "reset"
)
