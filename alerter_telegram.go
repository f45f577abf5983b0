package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const telegramApiBaseURL = "https://api.telegram.org"

// TelegramAlerter is the fixed primary chat channel. It is inert unless both
// the bot token and the chat id are configured; in that state Send returns
// ErrAlerterNotConfigured without any network I/O.
type TelegramAlerter struct {
	botToken   string
	chatId     string
	baseURL    string
	httpClient *http.Client
}

type TelegramAlerterOptions struct {
	BotToken string
	ChatId   string
	// BaseURL overrides the Telegram API endpoint, used in tests.
	BaseURL    string
	HttpClient *http.Client
}

func NewTelegramAlerter(options TelegramAlerterOptions) *TelegramAlerter {
	if options.BaseURL == "" {
		options.BaseURL = telegramApiBaseURL
	}
	if options.HttpClient == nil {
		options.HttpClient = http.DefaultClient
	}
	return &TelegramAlerter{
		botToken:   options.BotToken,
		chatId:     options.ChatId,
		baseURL:    options.BaseURL,
		httpClient: options.HttpClient,
	}
}

type telegramSendMessageRequest struct {
	ChatId    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

func (t *TelegramAlerter) Send(ctx context.Context, rule AlertRule, message string, occurredAt time.Time) error {
	if t.botToken == "" || t.chatId == "" {
		return ErrAlerterNotConfigured
	}

	requestBody, err := json.Marshal(telegramSendMessageRequest{
		ChatId:    t.chatId,
		Text:      fmt.Sprintf("🚨 *%s*\n%s\n\nTriggered at %s", rule.Name, message, occurredAt.UTC().Format(time.RFC3339)),
		ParseMode: "Markdown",
	})
	if err != nil {
		return err
	}

	requestUrl := fmt.Sprintf("%s/bot%s/sendMessage", t.baseURL, t.botToken)
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, requestUrl, bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", "osprey-alerter/1.0")

	response, err := t.httpClient.Do(request)
	if err != nil {
		return err
	}
	defer func() {
		if response.Body != nil {
			_ = response.Body.Close()
		}
	}()
	if response.StatusCode == http.StatusTooManyRequests {
		return ErrAlerterRateLimited
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf("%w: received non-2xx response code %d", ErrAlerterDropped, response.StatusCode)
	}

	return nil
}
