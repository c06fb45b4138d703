// Package notifier delivers grand-prize results to an external webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"golang.org/x/exp/slog"
)

// EventDrawWinner is the event name sent for a finalized draw
const EventDrawWinner = "draw.winner"

// WinnerEvent is the JSON body posted to the webhook
type WinnerEvent struct {
	Event               string    `json:"event"`
	CompetitionID       string    `json:"competitionId"`
	CompetitionTitle    string    `json:"competitionTitle"`
	DrawID              string    `json:"drawId"`
	WinningTicketNumber int       `json:"winningTicketNumber"`
	WinnerID            string    `json:"winnerId"`
	DrawTimestamp       time.Time `json:"drawTimestamp"`
}

// WebhookNotifier posts winner events as JSON
type WebhookNotifier struct {
	URL        string
	Mock       bool
	httpClient *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier
func NewWebhookNotifier(url string, mock bool, timeout time.Duration) *WebhookNotifier {
	return &WebhookNotifier{
		URL:  url,
		Mock: mock,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// NotifyWinner posts the draw result. The draw id doubles as the idempotency
// key so a receiver can drop repeats from retried finalizations.
func (n *WebhookNotifier) NotifyWinner(ctx context.Context, competition *models.Competition, result *models.DrawResult) error {
	event := WinnerEvent{
		Event:               EventDrawWinner,
		CompetitionID:       competition.ID.Hex(),
		CompetitionTitle:    competition.Title,
		DrawID:              result.DrawID,
		WinningTicketNumber: result.WinningTicketNumber,
		WinnerID:            result.WinnerID.Hex(),
		DrawTimestamp:       result.DrawTimestamp,
	}

	if n.Mock {
		slog.Info("Mock winner notification", "competitionId", event.CompetitionID, "drawId", event.DrawID, "ticket", event.WinningTicketNumber)
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal winner event: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", event.DrawID)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send webhook request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	slog.Info("Winner notification delivered", "competitionId", event.CompetitionID, "drawId", event.DrawID, "status", resp.StatusCode)
	return nil
}
