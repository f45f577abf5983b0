package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/goccy/go-yaml"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/marcboeker/go-duckdb/v2"
	"gocloud.dev/pubsub"
	_ "gocloud.dev/pubsub/kafkapubsub"
	_ "gocloud.dev/pubsub/mempubsub"
	_ "gocloud.dev/pubsub/natspubsub"
	_ "gocloud.dev/pubsub/rabbitpubsub"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		slog.Error("failed to process environment configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	configFile, err := os.ReadFile(*configPath)
	if err == nil {
		if err := yaml.Unmarshal(configFile, &config); err != nil {
			slog.Error("failed to unmarshal config file", slog.String("error", err.Error()))
			os.Exit(1)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		slog.Error("failed to read config file", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.SetLogLoggerLevel(config.Server.LogLevel)

	err = sentry.Init(sentry.ClientOptions{
		Dsn:              config.Sentry.Dsn,
		SampleRate:       config.Sentry.ErrorSampleRate,
		TracesSampleRate: config.Sentry.TracesSampleRate,
		Debug:            config.Sentry.Debug,
		EnableTracing:    config.Sentry.TracesSampleRate > 0,
	})
	if err != nil {
		slog.Error("failed to initialize sentry", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer sentry.Flush(2 * time.Second)

	db, err := sql.Open("duckdb", config.Database.Path)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), time.Minute)
	if err := Migrate(db, migrateCtx, false); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		migrateCancel()
		os.Exit(1)
	}
	migrateCancel()

	setupCtx := context.Background()

	telemetryProducer, err := pubsub.OpenTopic(setupCtx, config.TaskQueue.Telemetry.ProducerAddress)
	if err != nil {
		slog.Error("failed to open telemetry producer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer telemetryProducer.Shutdown(setupCtx)

	telemetryConsumer, err := pubsub.OpenSubscription(setupCtx, config.TaskQueue.Telemetry.ConsumerAddress)
	if err != nil {
		slog.Error("failed to open telemetry consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer telemetryConsumer.Shutdown(setupCtx)

	telemetryStore := NewTelemetryStore(db)
	ruleStore := NewRuleStore(db)
	historyStore := NewHistoryStore(db)

	dispatcher := NewDispatcher(
		NewTelegramAlerter(TelegramAlerterOptions{
			BotToken: config.Alerting.Telegram.BotToken,
			ChatId:   config.Alerting.Telegram.ChatID,
		}),
		NewWebhookAlerter(config.Alerting.Webhook.HmacSecret, config.Alerting.Webhook.CustomHeaders, nil),
	)

	checker := NewAlertCheckerWorker(AlertCheckerOptions{
		RuleStore:         ruleStore,
		HistoryStore:      historyStore,
		MetricProvider:    NewTelemetryMetricProvider(telemetryStore),
		Dispatcher:        dispatcher,
		CheckInterval:     parseDurationOr(config.Alerting.CheckInterval, time.Minute),
		InitialDelay:      parseDurationOr(config.Alerting.InitialDelay, 10*time.Second),
		CooldownWindow:    parseDurationOr(config.Alerting.CooldownWindow, 5*time.Minute),
		MaxAlertsPerCycle: config.Alerting.MaxAlertsPerCycle,
		MaxAlertsPerHour:  config.Alerting.MaxAlertsPerHour,
	})

	ingester := NewTelemetryIngesterWorker(telemetryStore, telemetryConsumer, time.Duration(config.Telemetry.RetentionDays)*24*time.Hour)
	go func() {
		if err := ingester.Start(); err != nil {
			slog.Error("telemetry ingester stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	if err := checker.Start(); err != nil {
		slog.Error("failed to start alert checker", slog.String("error", err.Error()))
		os.Exit(1)
	}

	server, err := NewServer(ServerOptions{
		Config:            config,
		HistoryStore:      historyStore,
		Checker:           checker,
		TelemetryProducer: telemetryProducer,
	})
	if err != nil {
		slog.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	go func() {
		slog.Info("starting server", slog.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	<-interrupt

	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	if err := checker.Stop(); err != nil {
		slog.Error("failed to stop alert checker", slog.String("error", err.Error()))
	}
	if err := ingester.Stop(); err != nil {
		slog.Error("failed to stop telemetry ingester", slog.String("error", err.Error()))
	}
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		slog.Warn("invalid duration in configuration, using fallback", slog.String("value", raw), slog.Duration("fallback", fallback))
		return fallback
	}
	return parsed
}
