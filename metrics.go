package main

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/getsentry/sentry-go"
)

// Supported metric names. Anything else computes to zero.
const (
	MetricErrorRate    = "error_rate"
	MetricResponseTime = "response_time"
	MetricErrorCount   = "error_count"
	MetricMemoryUsage  = "memory_usage"
	MetricRequestCount = "request_count"
)

const (
	errorWindow   = 10 * time.Minute
	requestWindow = 1 * time.Minute
)

// MetricProvider computes a single numeric value for a named metric.
// Implementations must not fail past their caller: a bad telemetry read
// degrades to zero so one metric cannot abort a whole evaluation cycle.
type MetricProvider interface {
	Compute(ctx context.Context, metric string) float64
}

// TelemetryMetricProvider computes metrics from persisted request and error
// logs, except memory_usage which samples the running process at call time.
type TelemetryMetricProvider struct {
	telemetry *TelemetryStore
}

func NewTelemetryMetricProvider(telemetry *TelemetryStore) *TelemetryMetricProvider {
	return &TelemetryMetricProvider{telemetry: telemetry}
}

func (p *TelemetryMetricProvider) Compute(ctx context.Context, metric string) float64 {
	span := sentry.StartSpan(ctx, "function", sentry.WithDescription("Compute Metric"))
	span.SetData("osprey.metric", metric)
	ctx = span.Context()
	defer span.Finish()

	switch metric {
	case MetricErrorRate:
		total, err := p.telemetry.CountRequests(ctx, errorWindow, 0)
		if err != nil {
			slog.ErrorContext(ctx, "counting requests for error rate", slog.String("error", err.Error()))
			return 0
		}
		if total == 0 {
			return 0
		}
		failed, err := p.telemetry.CountRequests(ctx, errorWindow, 500)
		if err != nil {
			slog.ErrorContext(ctx, "counting failed requests for error rate", slog.String("error", err.Error()))
			return 0
		}
		return float64(failed) / float64(total) * 100
	case MetricResponseTime:
		avgLatency, err := p.telemetry.AvgResponseTime(ctx, errorWindow)
		if err != nil {
			slog.ErrorContext(ctx, "averaging response time", slog.String("error", err.Error()))
			return 0
		}
		return avgLatency
	case MetricErrorCount:
		count, err := p.telemetry.CountErrors(ctx, errorWindow)
		if err != nil {
			slog.ErrorContext(ctx, "counting errors", slog.String("error", err.Error()))
			return 0
		}
		return float64(count)
	case MetricMemoryUsage:
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)
		if memStats.HeapSys == 0 {
			return 0
		}
		return float64(memStats.HeapAlloc) / float64(memStats.HeapSys) * 100
	case MetricRequestCount:
		count, err := p.telemetry.CountRequests(ctx, requestWindow, 0)
		if err != nil {
			slog.ErrorContext(ctx, "counting requests", slog.String("error", err.Error()))
			return 0
		}
		return float64(count)
	default:
		slog.WarnContext(ctx, "unknown metric name, computing as zero", slog.String("metric", metric))
		return 0
	}
}
