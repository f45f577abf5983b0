package main

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrAlerterNotConfigured is returned when an alerter operation is attempted
// but the channel has not been configured: a missing bot token or chat id on
// the primary channel, or a rule without a webhook URL on the secondary one.
var ErrAlerterNotConfigured = errors.New("alerter not configured")

// ErrAlerterRateLimited is returned when a downstream channel has rate
// limited the alerter and cannot accept additional alerts until the rate
// limit period has passed.
var ErrAlerterRateLimited = errors.New("alerter rate limited")

// ErrAlerterDropped is returned when an alert message cannot be successfully
// delivered by the alerter, for example when a downstream delivery mechanism
// returns a non-2xx HTTP response.
var ErrAlerterDropped = errors.New("alerter message dropped")

// ChannelStatus is the outcome of one delivery channel for one trigger.
type ChannelStatus string

const (
	ChannelStatusSent          ChannelStatus = "sent"
	ChannelStatusFailed        ChannelStatus = "failed"
	ChannelStatusNotConfigured ChannelStatus = "not_configured"
	ChannelStatusNoWebhook     ChannelStatus = "no_webhook"
)

// Final summary statuses persisted to alert history.
const (
	FinalStatusTelegramSent   = "telegram_sent"
	FinalStatusWebhookSent    = "webhook_sent"
	FinalStatusNoNotification = "no_notification"
	FinalStatusFailed         = "failed"
)

// Alerter defines an interface for sending one alert notification through a
// single channel. Implementations handle the delivery transport; the
// dispatcher reduces their outcomes to a single summary status.
type Alerter interface {
	// Send delivers an alert for the given rule with the rendered message
	// and the trigger time. It returns ErrAlerterNotConfigured when the
	// channel is inert, or a transport error on delivery failure.
	Send(ctx context.Context, rule AlertRule, message string, occurredAt time.Time) error
}

type DispatchResult struct {
	TelegramStatus ChannelStatus
	WebhookStatus  ChannelStatus
	FinalStatus    string
}

// Dispatcher fans one triggered alert out to the fixed primary chat channel
// and the optional per-rule webhook, and reduces both outcomes to the single
// summary status recorded in history. It never returns an error: transport
// failures only surface as statuses.
type Dispatcher struct {
	telegram Alerter
	webhook  Alerter
}

func NewDispatcher(telegram Alerter, webhook Alerter) *Dispatcher {
	return &Dispatcher{
		telegram: telegram,
		webhook:  webhook,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, rule AlertRule, message string, occurredAt time.Time) DispatchResult {
	var result DispatchResult

	wg := sync.WaitGroup{}
	wg.Go(func() {
		result.TelegramStatus = channelStatus(d.telegram.Send(ctx, rule, message, occurredAt), ChannelStatusNotConfigured)
		if result.TelegramStatus == ChannelStatusFailed {
			slog.WarnContext(ctx, "telegram delivery failed", slog.String("rule_id", rule.ID))
		}
	})
	wg.Go(func() {
		result.WebhookStatus = channelStatus(d.webhook.Send(ctx, rule, message, occurredAt), ChannelStatusNoWebhook)
		if result.WebhookStatus == ChannelStatusFailed {
			slog.WarnContext(ctx, "webhook delivery failed", slog.String("rule_id", rule.ID))
		}
	})
	wg.Wait()

	result.FinalStatus = reduceFinalStatus(result.TelegramStatus, result.WebhookStatus)
	return result
}

func channelStatus(err error, inertStatus ChannelStatus) ChannelStatus {
	switch {
	case err == nil:
		return ChannelStatusSent
	case errors.Is(err, ErrAlerterNotConfigured):
		return inertStatus
	default:
		return ChannelStatusFailed
	}
}

// reduceFinalStatus encodes the summary precedence contract:
// telegram_sent > webhook_sent > no_notification (both channels inert) >
// failed (attempted but neither succeeded). Compatible engines must match
// this table exactly.
func reduceFinalStatus(telegramStatus ChannelStatus, webhookStatus ChannelStatus) string {
	switch {
	case telegramStatus == ChannelStatusSent:
		return FinalStatusTelegramSent
	case webhookStatus == ChannelStatusSent:
		return FinalStatusWebhookSent
	case telegramStatus == ChannelStatusNotConfigured && webhookStatus == ChannelStatusNoWebhook:
		return FinalStatusNoNotification
	default:
		return FinalStatusFailed
	}
}
