package stats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nur1slam20/tg-profession-bot/internal/domain"
)

type fakeCounter struct {
	users, sessions, finished int
	err                       error
}

func (f fakeCounter) Counts(ctx context.Context) (int, int, int, error) {
	return f.users, f.sessions, f.finished, f.err
}

func TestComputeCompletionRate(t *testing.T) {
	cases := []struct {
		name                      string
		users, sessions, finished int
		wantRate                  int
	}{
		{"no sessions", 5, 0, 0, 0},
		{"all finished", 5, 4, 4, 100},
		{"two thirds rounds up", 3, 3, 2, 67},
		{"one third rounds down", 3, 3, 1, 33},
		{"half", 2, 2, 1, 50},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compute(tc.users, tc.sessions, tc.finished)
			assert.Equal(t, tc.wantRate, got.CompletionRate)
			assert.GreaterOrEqual(t, got.CompletionRate, 0)
			assert.LessOrEqual(t, got.CompletionRate, 100)
		})
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := NewServer("127.0.0.1", 0, fakeCounter{users: 7, sessions: 4, finished: 3})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 7, got.Users)
	assert.Equal(t, 4, got.Sessions)
	assert.Equal(t, 3, got.FinishedSessions)
	assert.Equal(t, 75, got.CompletionRate)
}

func TestStatsEndpointQueryError(t *testing.T) {
	srv := NewServer("127.0.0.1", 0, fakeCounter{err: errors.New("db down")})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer("127.0.0.1", 0, fakeCounter{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ok", got["status"])

	_, err := time.Parse(time.RFC3339, got["timestamp"])
	assert.NoError(t, err)
}
