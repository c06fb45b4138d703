package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ArowuTest/competitions-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func fixtures() (*models.Competition, *models.DrawResult) {
	competition := &models.Competition{ID: primitive.NewObjectID(), Title: "Camper van"}
	result := &models.DrawResult{
		CompetitionID:       competition.ID,
		DrawID:              "DRAW-20261016-ABCDEFGH",
		WinningTicketNumber: 17,
		WinnerID:            primitive.NewObjectID(),
		DrawTimestamp:       time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	return competition, result
}

func TestNotifyWinnerPostsEvent(t *testing.T) {
	competition, result := fixtures()
	var received WinnerEvent
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, result.DrawID, r.Header.Get("Idempotency-Key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	n := NewWebhookNotifier(server.URL, false, time.Second)
	require.NoError(t, n.NotifyWinner(context.Background(), competition, result))
	assert.Equal(t, EventDrawWinner, received.Event)
	assert.Equal(t, competition.ID.Hex(), received.CompetitionID)
	assert.Equal(t, "Camper van", received.CompetitionTitle)
	assert.Equal(t, 17, received.WinningTicketNumber)
	assert.Equal(t, result.WinnerID.Hex(), received.WinnerID)
	assert.True(t, result.DrawTimestamp.Equal(received.DrawTimestamp))
}

func TestNotifyWinnerReportsFailure(t *testing.T) {
	competition, result := fixtures()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "receiver unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := NewWebhookNotifier(server.URL, false, time.Second).NotifyWinner(context.Background(), competition, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "receiver unavailable")
}

func TestMockNotifierSendsNothing(t *testing.T) {
	competition, result := fixtures()
	n := NewWebhookNotifier("http://127.0.0.1:1/unreachable", true, time.Second)
	assert.NoError(t, n.NotifyWinner(context.Background(), competition, result))
}
