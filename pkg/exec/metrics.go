package exec

import "github.com/prometheus/client_golang/prometheus"

// activeSessions reports how many exec calls currently have their SPDY
// streams open, grounded on the same Prometheus wiring pkg/watch uses
// for reconnects.
var activeSessions = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "kubecli",
	Subsystem: "exec",
	Name:      "active_sessions",
	Help:      "Number of exec calls with an open SPDY connection.",
})

func init() {
	prometheus.MustRegister(activeSessions)
}
