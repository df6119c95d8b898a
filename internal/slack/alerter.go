package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

const defaultMinInterval = 30 * time.Second

// Alerter posts webhook storage failures to a Slack channel via chat.postMessage.
type Alerter struct {
	token   string
	channel string
	client  *http.Client
	apiURL  string

	minInterval time.Duration

	mu       sync.Mutex
	lastSent time.Time
}

// NewAlerter creates a new Slack alerter.
func NewAlerter(token, channel string) *Alerter {
	return &Alerter{
		token:       token,
		channel:     channel,
		client:      &http.Client{Timeout: 10 * time.Second},
		apiURL:      "https://slack.com/api/chat.postMessage",
		minInterval: defaultMinInterval,
	}
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// PostStorageAlert reports a delivery that could not be stored. At most one
// alert is sent per interval so a database outage does not flood the channel.
func (a *Alerter) PostStorageAlert(ctx context.Context, callID, event string, cause error) error {
	a.mu.Lock()
	if time.Since(a.lastSent) < a.minInterval {
		a.mu.Unlock()
		return nil
	}
	a.lastSent = time.Now()
	a.mu.Unlock()

	errMsg := "unknown"
	if cause != nil {
		errMsg = cause.Error()
	}
	if callID == "" {
		callID = "n/a"
	}

	blocks := []map[string]any{
		{
			"type": "header",
			"text": map[string]any{
				"type": "plain_text",
				"text": "Interview Webhook Storage Failure",
			},
		},
		{
			"type": "section",
			"fields": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("*Call:*\n%s", callID)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Event:*\n%s", event)},
				{"type": "mrkdwn", "text": fmt.Sprintf("*Error:*\n%s", errMsg)},
			},
		},
		{
			"type": "context",
			"elements": []map[string]any{
				{"type": "mrkdwn", "text": fmt.Sprintf("Sent at %s", time.Now().UTC().Format(time.RFC3339))},
			},
		},
	}

	body, err := json.Marshal(map[string]any{
		"channel": a.channel,
		"blocks":  blocks,
		"text":    fmt.Sprintf("Interview storage failure for call %s: %s", callID, errMsg),
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+a.token)

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack returned %d", resp.StatusCode)
	}

	// Slack reports most failures as 200 with ok=false.
	var ar apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err == nil && !ar.OK && ar.Error != "" {
		return fmt.Errorf("slack error: %s", ar.Error)
	}

	slog.Info("storage alert posted to Slack", "channel", a.channel, "call_id", callID)
	return nil
}
