package main

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate bootstraps the schema. With clean set, all engine-owned tables are
// dropped first; only tests should do that.
func Migrate(db *sql.DB, ctx context.Context, clean bool) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting db connection: %w", err)
	}
	defer conn.Close()

	if clean {
		for _, table := range []string{"alert_history", "alert_rules", "request_log", "error_log"} {
			if _, err := conn.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, table)); err != nil {
				return fmt.Errorf("dropping table %s: %w", table, err)
			}
		}
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alert_rules (
			id VARCHAR PRIMARY KEY,
			name VARCHAR NOT NULL,
			metric VARCHAR NOT NULL,
			operator VARCHAR NOT NULL,
			threshold DOUBLE NOT NULL,
			webhook_url VARCHAR,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			last_triggered_at TIMESTAMP,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating alert_rules table: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS alert_history (
			id VARCHAR PRIMARY KEY,
			alert_rule_id VARCHAR NOT NULL,
			metric_value DOUBLE NOT NULL,
			threshold DOUBLE NOT NULL,
			message VARCHAR NOT NULL,
			webhook_status VARCHAR NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating alert_history table: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS request_log (
			id VARCHAR PRIMARY KEY,
			source VARCHAR NOT NULL,
			method VARCHAR NOT NULL,
			path VARCHAR NOT NULL,
			status_code INTEGER NOT NULL,
			latency_ms BIGINT NOT NULL,
			client_ip VARCHAR,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating request_log table: %w", err)
	}

	_, err = conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS error_log (
			id VARCHAR PRIMARY KEY,
			source VARCHAR NOT NULL,
			level VARCHAR NOT NULL,
			message VARCHAR NOT NULL,
			path VARCHAR,
			created_at TIMESTAMP NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("creating error_log table: %w", err)
	}

	return nil
}
