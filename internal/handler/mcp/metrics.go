package mcp

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const (
	toolOutcomeOK           = "ok"
	toolOutcomeError        = "error"
	toolOutcomeInvalidInput = "invalid_arguments"
)

// MetricsHook counts tool calls and their latency by tool and outcome.
type MetricsHook struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func NewMetricsHook(registry *prometheus.Registry) *MetricsHook {
	h := &MetricsHook{
		calls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mcp_tool_calls_total",
				Help: "Total MCP tool calls by tool and outcome.",
			},
			[]string{"tool", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mcp_tool_call_duration_seconds",
				Help:    "MCP tool call duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"tool", "outcome"},
		),
	}

	registry.MustRegister(h.calls, h.duration)
	return h
}

func (h *MetricsHook) BeforeRun(context.Context, string, json.RawMessage) error {
	return nil
}

func (h *MetricsHook) AfterRun(_ context.Context, toolName string, result Result, runErr error, elapsed time.Duration) {
	outcome := toolOutcome(result, runErr)
	h.calls.WithLabelValues(toolName, outcome).Inc()
	h.duration.WithLabelValues(toolName, outcome).Observe(elapsed.Seconds())
}

// LogHook writes one log line per tool call.
type LogHook struct{}

func (LogHook) BeforeRun(_ context.Context, toolName string, _ json.RawMessage) error {
	logrus.WithField("tool", toolName).Debug("tool call started")
	return nil
}

func (LogHook) AfterRun(_ context.Context, toolName string, result Result, runErr error, elapsed time.Duration) {
	logger := logrus.WithFields(logrus.Fields{
		"tool":        toolName,
		"duration_ms": elapsed.Milliseconds(),
		"outcome":     toolOutcome(result, runErr),
	})
	if runErr != nil {
		logger.WithError(runErr).Warn("tool call failed")
		return
	}

	logger.Info("tool call finished")
}

func toolOutcome(result Result, runErr error) string {
	switch {
	case runErr != nil:
		return toolOutcomeInvalidInput
	case result.IsError:
		return toolOutcomeError
	default:
		return toolOutcomeOK
	}
}
