package main

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// WebhookAlerter is the optional secondary channel. The target URL comes
// from the rule itself; a rule without one makes this channel inert.
type WebhookAlerter struct {
	hmacSecret    string
	customHeaders map[string]string
	httpClient    *http.Client
}

func NewWebhookAlerter(hmacSecret string, customHeaders map[string]string, httpClient *http.Client) *WebhookAlerter {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &WebhookAlerter{
		hmacSecret:    hmacSecret,
		customHeaders: customHeaders,
		httpClient:    httpClient,
	}
}

type webhookBlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type webhookBlock struct {
	Type     string             `json:"type"`
	Text     *webhookBlockText  `json:"text,omitempty"`
	Elements []webhookBlockText `json:"elements,omitempty"`
}

// webhookRequestPayload follows the message-block format common chat-webhook
// consumers accept: a title section plus a context line carrying the trigger
// timestamp.
type webhookRequestPayload struct {
	Text   string         `json:"text"`
	Blocks []webhookBlock `json:"blocks"`
}

func (w *WebhookAlerter) Send(ctx context.Context, rule AlertRule, message string, occurredAt time.Time) error {
	if !rule.WebhookUrl.Valid || rule.WebhookUrl.String == "" {
		return ErrAlerterNotConfigured
	}

	requestBody, err := json.Marshal(webhookRequestPayload{
		Text: fmt.Sprintf("Alert '%s': %s", rule.Name, message),
		Blocks: []webhookBlock{
			{
				Type: "section",
				Text: &webhookBlockText{
					Type: "mrkdwn",
					Text: fmt.Sprintf("*🚨 %s*\n%s", rule.Name, message),
				},
			},
			{
				Type: "context",
				Elements: []webhookBlockText{
					{
						Type: "mrkdwn",
						Text: fmt.Sprintf("Triggered at %s", occurredAt.UTC().Format(time.RFC3339)),
					},
				},
			},
		},
	})
	if err != nil {
		return err
	}

	var signature string
	if w.hmacSecret != "" {
		signer := hmac.New(sha256.New, []byte(w.hmacSecret))
		signer.Write(requestBody)
		signature = fmt.Sprintf("%x", signer.Sum(nil))
	}
	request, err := http.NewRequestWithContext(ctx, http.MethodPost, rule.WebhookUrl.String, bytes.NewReader(requestBody))
	if err != nil {
		return err
	}
	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("User-Agent", "osprey-webhook/1.0")
	for key, value := range w.customHeaders {
		request.Header.Set(key, value)
	}
	if signature != "" {
		request.Header.Set("X-Signature", signature)
	}

	response, err := w.httpClient.Do(request)
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
