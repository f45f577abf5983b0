package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/guregu/null/v5"
)

// AlertRule is an operator-authored threshold condition on a named metric.
// Rules are created and edited by an external administrative surface; the
// engine only reads them and advances LastTriggeredAt when a rule fires.
type AlertRule struct {
	ID              string      `db:"id"`
	Name            string      `db:"name"`
	Metric          string      `db:"metric"`
	Operator        string      `db:"operator"`
	Threshold       float64     `db:"threshold"`
	WebhookUrl      null.String `db:"webhook_url"`
	Enabled         bool        `db:"enabled"`
	LastTriggeredAt null.Time   `db:"last_triggered_at"`
	CreatedAt       time.Time   `db:"created_at"`
}

// AlertHistoryRecord is an immutable, append-only fact recorded once per
// trigger. Threshold is copied at trigger time so later rule edits do not
// rewrite history.
type AlertHistoryRecord struct {
	ID            string    `db:"id"`
	AlertRuleID   string    `db:"alert_rule_id"`
	MetricValue   float64   `db:"metric_value"`
	Threshold     float64   `db:"threshold"`
	Message       string    `db:"message"`
	WebhookStatus string    `db:"webhook_status"`
	CreatedAt     time.Time `db:"created_at"`
}

type RuleStore struct {
	db *sql.DB
}

func NewRuleStore(db *sql.DB) *RuleStore {
	return &RuleStore{db: db}
}

func (s *RuleStore) ListEnabledRules(ctx context.Context) ([]AlertRule, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting db connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT id, name, metric, operator, threshold, webhook_url, enabled, last_triggered_at, created_at
		FROM alert_rules
		WHERE enabled = TRUE
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying alert rules: %w", err)
	}
	defer rows.Close()

	var rules []AlertRule
	for rows.Next() {
		var rule AlertRule
		if err := rows.Scan(&rule.ID, &rule.Name, &rule.Metric, &rule.Operator, &rule.Threshold, &rule.WebhookUrl, &rule.Enabled, &rule.LastTriggeredAt, &rule.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alert rule: %w", err)
		}
		rules = append(rules, rule)
	}

	return rules, nil
}

// TouchLastTriggered advances the only rule field the engine owns.
func (s *RuleStore) TouchLastTriggered(ctx context.Context, ruleID string, triggeredAt time.Time) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting db connection: %w", err)
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		UPDATE alert_rules
		SET last_triggered_at = ?
		WHERE id = ?
	`, triggeredAt, ruleID)
	if err != nil {
		return fmt.Errorf("updating alert rule last_triggered_at: %w", err)
	}

	return nil
}

type HistoryStore struct {
	db *sql.DB
}

func NewHistoryStore(db *sql.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Append inserts one history record. The record ID is generated here when
// the caller leaves it empty.
func (s *HistoryStore) Append(ctx context.Context, record AlertHistoryRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("getting db connection: %w", err)
	}
	defer conn.Close()

	_, err = conn.ExecContext(ctx, `
		INSERT INTO alert_history (id, alert_rule_id, metric_value, threshold, message, webhook_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, record.ID, record.AlertRuleID, record.MetricValue, record.Threshold, record.Message, record.WebhookStatus, record.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting alert history: %w", err)
	}

	return nil
}

func (s *HistoryStore) Recent(ctx context.Context, limit int) ([]AlertHistoryRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting db connection: %w", err)
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, `
		SELECT id, alert_rule_id, metric_value, threshold, message, webhook_status, created_at
		FROM alert_history
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying alert history: %w", err)
	}
	defer rows.Close()

	var records []AlertHistoryRecord
	for rows.Next() {
		var record AlertHistoryRecord
		if err := rows.Scan(&record.ID, &record.AlertRuleID, &record.MetricValue, &record.Threshold, &record.Message, &record.WebhookStatus, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning alert history: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}
