package interfaces

import (
	"github.com/prometheus/client_golang/prometheus"
)

// NoOpDaemon is a dummy daemon implementation, supporting the Daemon interface.
// Used only in testing.
type NoOpDaemon struct {
	metricsRegistry  *prometheus.Registry
	metricsNamespace string
}

func MakeNoOpDaemon() *NoOpDaemon {
	return &NoOpDaemon{
		metricsRegistry:  prometheus.NewRegistry(),
		metricsNamespace: PrometheusNamespace,
	}
}

// MetricsRegistry returns the same registry on every call, so tests can
// gather what the components under test registered.
func (d *NoOpDaemon) MetricsRegistry() *prometheus.Registry {
	return d.metricsRegistry
}

func (d *NoOpDaemon) MetricsNamespace() string {
	return d.metricsNamespace
}
