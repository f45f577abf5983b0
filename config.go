package main

import "log/slog"

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port" default:"8610"`

		LogLevel slog.Level `yaml:"log_level"`
	} `yaml:"server"`
	Database struct {
		Path string `yaml:"path" default:"osprey.db"`
	} `yaml:"database"`
	TaskQueue struct {
		Telemetry struct {
			ProducerAddress string `yaml:"producer_address" default:"mem://telemetry_events" envconfig:"TELEMETRY_PRODUCER_ADDRESS"`
			ConsumerAddress string `yaml:"consumer_address" default:"mem://telemetry_events" envconfig:"TELEMETRY_CONSUMER_ADDRESS"`
		} `yaml:"telemetry"`
	} `yaml:"task_queue"`
	Telemetry struct {
		RetentionDays int `yaml:"retention_days" default:"7"`
	} `yaml:"telemetry"`
	// RegisteredProducers lists the host application instances that are
	// allowed to submit telemetry over HTTP.
	RegisteredProducers []struct {
		Name   string `yaml:"name"`
		ApiKey string `yaml:"api_key"`
	} `yaml:"registered_producers"`
	Alerting struct {
		CheckInterval     string `yaml:"check_interval" default:"1m"`
		InitialDelay      string `yaml:"initial_delay" default:"10s"`
		CooldownWindow    string `yaml:"cooldown_window" default:"5m"`
		MaxAlertsPerCycle int    `yaml:"max_alerts_per_cycle" default:"2"`
		MaxAlertsPerHour  int    `yaml:"max_alerts_per_hour" default:"10"`
		Telegram          struct {
			BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
			ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
		} `yaml:"telegram"`
		Webhook struct {
			HmacSecret    string            `yaml:"hmac_secret" envconfig:"ALERT_WEBHOOK_HMAC_SECRET"`
			CustomHeaders map[string]string `yaml:"custom_headers"`
		} `yaml:"webhook"`
	} `yaml:"alerting"`
	Sentry struct {
		Dsn                   string  `yaml:"dsn" envconfig:"SENTRY_DSN"`
		ErrorSampleRate       float64 `yaml:"error_sample_rate" default:"1.0" envconfig:"SENTRY_ERROR_SAMPLE_RATE"`
		TracesSampleRate      float64 `yaml:"traces_sample_rate" default:"1.0" envconfig:"SENTRY_TRACES_SAMPLE_RATE"`
		Debug                 bool    `yaml:"debug" default:"false" envconfig:"SENTRY_DEBUG"`
		TraceOutgoingRequests bool    `yaml:"trace_outgoing_requests" default:"false" envconfig:"SENTRY_TRACE_OUTGOING_REQUESTS"`
	} `yaml:"sentry"`
}
