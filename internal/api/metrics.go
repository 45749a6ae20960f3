package api

import (
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/net/publicsuffix"
)

const metricsNamespace = "netmoya"

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API calls by method, endpoint, target domain and outcome.",
		},
		[]string{"method", "endpoint", "domain", "outcome"},
	)

	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Wall time of API calls including body decoding.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint"},
	)
)

func init() {
	prometheus.MustRegister(requestsTotal, requestDuration)
}

// recordRequest reports a finished call. outcome is "ok" or the error kind.
func recordRequest(method, endpoint, host string, outcome string, elapsed time.Duration) {
	requestsTotal.WithLabelValues(method, endpoint, domainLabel(host), outcome).Inc()
	requestDuration.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
}

// domainLabel collapses a host to its registrable domain so the label set
// stays small. IPs and single-label hosts are returned as is.
func domainLabel(host string) string {
	if host == "" {
		return "unknown"
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	if net.ParseIP(host) != nil {
		return host
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
