package main

import (
	"context"
	"testing"
	"time"

	"github.com/guregu/null/v5"
)

func cleanupTelemetryTables(t *testing.T) {
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
		defer cancel()
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("failed to get db connection: %v", err)
		}
		defer conn.Close()
		for _, table := range []string{"request_log", "error_log"} {
			if _, err := conn.ExecContext(ctx, `DELETE FROM `+table); err != nil {
				t.Fatalf("failed to clean up %s table: %v", table, err)
			}
		}
	})
}

func insertTelemetry(t *testing.T, submissions []TelemetrySubmissionRequest) {
	t.Helper()

	telemetryStore := NewTelemetryStore(db)
	for i, submission := range submissions {
		if err := telemetryStore.InsertRequestLog(t.Context(), submission, "test"); err != nil {
			t.Fatalf("failed to insert telemetry on iteration %d: %v", i, err)
		}
	}
}

func TestTelemetryMetricProvider_ErrorRate(t *testing.T) {
	cleanupTelemetryTables(t)

	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	t.Run("zero requests in window", func(t *testing.T) {
		value := provider.Compute(t.Context(), MetricErrorRate)
		if value != 0 {
			t.Errorf("expected error rate 0 with no requests, got %v", value)
		}
	})

	t.Run("mixed statuses", func(t *testing.T) {
		now := time.Now()
		insertTelemetry(t, []TelemetrySubmissionRequest{
			{Method: "GET", Path: "/api/items", StatusCode: 200, LatencyMs: 40, Timestamp: now},
			{Method: "GET", Path: "/api/items", StatusCode: 200, LatencyMs: 55, Timestamp: now},
			{Method: "POST", Path: "/api/items", StatusCode: 502, LatencyMs: 310, Timestamp: now},
			{Method: "GET", Path: "/api/users", StatusCode: 500, LatencyMs: 120, Timestamp: now},
		})

		value := provider.Compute(t.Context(), MetricErrorRate)
		if value != 50 {
			t.Errorf("expected error rate 50, got %v", value)
		}
	})
}

func TestTelemetryMetricProvider_ResponseTime(t *testing.T) {
	cleanupTelemetryTables(t)

	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	t.Run("no data", func(t *testing.T) {
		value := provider.Compute(t.Context(), MetricResponseTime)
		if value != 0 {
			t.Errorf("expected response time 0 with no requests, got %v", value)
		}
	})

	t.Run("mean latency", func(t *testing.T) {
		now := time.Now()
		insertTelemetry(t, []TelemetrySubmissionRequest{
			{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 100, Timestamp: now},
			{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 200, Timestamp: now},
			{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 300, Timestamp: now},
		})

		value := provider.Compute(t.Context(), MetricResponseTime)
		if value != 200 {
			t.Errorf("expected mean response time 200, got %v", value)
		}
	})
}

func TestTelemetryMetricProvider_ErrorCount(t *testing.T) {
	cleanupTelemetryTables(t)

	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	now := time.Now()
	insertTelemetry(t, []TelemetrySubmissionRequest{
		{Method: "GET", Path: "/", StatusCode: 500, LatencyMs: 10, Error: null.StringFrom("database timeout"), Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 500, LatencyMs: 10, Error: null.StringFrom("database timeout"), Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
	})

	value := provider.Compute(t.Context(), MetricErrorCount)
	if value != 2 {
		t.Errorf("expected error count 2, got %v", value)
	}
}

func TestTelemetryMetricProvider_RequestCount(t *testing.T) {
	cleanupTelemetryTables(t)

	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	now := time.Now()
	insertTelemetry(t, []TelemetrySubmissionRequest{
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now},
		// Outside the 1 minute request_count window.
		{Method: "GET", Path: "/", StatusCode: 200, LatencyMs: 10, Timestamp: now.Add(-5 * time.Minute)},
	})

	value := provider.Compute(t.Context(), MetricRequestCount)
	if value != 5 {
		t.Errorf("expected request count 5, got %v", value)
	}
}

func TestTelemetryMetricProvider_MemoryUsage(t *testing.T) {
	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	value := provider.Compute(t.Context(), MetricMemoryUsage)
	if value <= 0 || value > 100 {
		t.Errorf("expected memory usage percentage in (0, 100], got %v", value)
	}
}

func TestTelemetryMetricProvider_UnknownMetric(t *testing.T) {
	provider := NewTelemetryMetricProvider(NewTelemetryStore(db))

	value := provider.Compute(t.Context(), "disk_usage")
	if value != 0 {
		t.Errorf("expected unknown metric to compute as 0, got %v", value)
	}
}
