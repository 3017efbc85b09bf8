package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"cmdbridge/internal/domain"
)

type PrometheusMetrics struct {
	commandDuration  *prometheus.HistogramVec
	toolCallDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(registerer prometheus.Registerer) *PrometheusMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &PrometheusMetrics{
		commandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmdbridge_command_duration_seconds",
				Help:    "Duration of routed commands in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"namespace", "status"},
		),
		toolCallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cmdbridge_tool_call_duration_seconds",
				Help:    "Duration of MCP tool calls in seconds",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"server", "tool", "status"},
		),
	}
}

func (p *PrometheusMetrics) ObserveCommand(namespace string, duration time.Duration, err error) {
	p.commandDuration.WithLabelValues(namespace, statusLabel(err)).Observe(duration.Seconds())
}

func (p *PrometheusMetrics) ObserveToolCall(server, tool string, duration time.Duration, err error) {
	p.toolCallDuration.WithLabelValues(server, tool, statusLabel(err)).Observe(duration.Seconds())
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type NoopMetrics struct{}

func NewNoopMetrics() *NoopMetrics {
	return &NoopMetrics{}
}

func (n *NoopMetrics) ObserveCommand(_ string, _ time.Duration, _ error) {}

func (n *NoopMetrics) ObserveToolCall(_, _ string, _ time.Duration, _ error) {}

var (
	_ domain.Metrics = (*PrometheusMetrics)(nil)
	_ domain.Metrics = (*NoopMetrics)(nil)
)
