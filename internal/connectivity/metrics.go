package connectivity

import "github.com/prometheus/client_golang/prometheus"

var (
	connectedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "netmoya",
		Subsystem: "connectivity",
		Name:      "connected",
		Help:      "1 when the monitor reports the internet as reachable.",
	})

	probesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "netmoya",
			Subsystem: "connectivity",
			Name:      "probes_total",
			Help:      "Reachability probes by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(connectedGauge, probesTotal)
}

func recordState(s State) {
	if s.Connected {
		connectedGauge.Set(1)
	} else {
		connectedGauge.Set(0)
	}
}

func recordProbe(result string) {
	probesTotal.WithLabelValues(result).Inc()
}
