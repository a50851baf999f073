package liveapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		HTTPClient:     server.Client(),
		BaseURL:        server.URL + "/",
		Token:          "operator-token",
		Logger:         logging.NewNop(),
		CircuitBreaker: breaker,
	})
}

func TestClient_GetMatchDecodesEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/matches/pp-sf-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer operator-token" {
			t.Fatalf("unexpected authorization header %q", got)
		}
		_, _ = io.WriteString(w, `{"apiVersion":"2.0","data":{"id":"pp-sf-1","sport":"football","team_a_id":"idn-persija","team_b_id":"idn-persib","score_a":2,"score_b":1,"status":"live","game_clock":"67'","version":7,"updated_at":"2026-01-01T10:00:00Z"}}`)
	}, resilience.CircuitBreakerConfig{})

	got, err := client.GetMatch(context.Background(), "pp-sf-1")
	if err != nil {
		t.Fatalf("GetMatch: %v", err)
	}
	if got.ScoreA != 2 || got.ScoreB != 1 || got.Status != match.StatusLive || got.Version != 7 {
		t.Fatalf("unexpected match %+v", got)
	}
}

func TestClient_ListEventsAndRoster(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/matches/pp-sf-1/events":
			_, _ = io.WriteString(w, `{"data":[{"id":"e2","seq":2,"match_id":"pp-sf-1","type":"goal","metadata":{"points":1}},{"id":"e1","seq":1,"match_id":"pp-sf-1","type":"system"}]}`)
		case "/v1/teams/idn-persib/roster":
			_, _ = io.WriteString(w, `{"data":[{"id":"p1","team_id":"idn-persib","name":"Ciro","number":10,"display":"Ciro"}]}`)
		default:
			http.NotFound(w, r)
		}
	}, resilience.CircuitBreakerConfig{})

	events, err := client.ListEvents(context.Background(), "pp-sf-1")
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 2 {
		t.Fatalf("unexpected events %+v", events)
	}
	if points, ok := events[0].IntMetadata("points"); !ok || points != 1 {
		t.Fatalf("expected points metadata, got %v", events[0].Metadata)
	}

	players, err := client.ListByTeam(context.Background(), "idn-persib")
	if err != nil {
		t.Fatalf("ListByTeam: %v", err)
	}
	if len(players) != 1 || players[0].Number != 10 {
		t.Fatalf("unexpected roster %+v", players)
	}
}

func TestClient_CommandsSendBodies(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/matches/m1/events":
			if !strings.Contains(string(body), `"type":"goal"`) {
				t.Fatalf("unexpected event body %s", body)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"data":{"id":"e9","seq":9,"match_id":"m1","type":"goal"}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/matches/m1/score":
			if !strings.Contains(string(body), `"side":"b"`) || !strings.Contains(string(body), `"delta":3`) {
				t.Fatalf("unexpected score body %s", body)
			}
			_, _ = io.WriteString(w, `{"data":{"match_id":"m1","side":"b","score":5}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/v1/matches/m1/clock":
			_, _ = io.WriteString(w, `{"data":{"id":"m1","sport":"football","status":"live","game_clock":"45+2","version":3}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/v1/matches/m1/status":
			_, _ = io.WriteString(w, `{"data":{"id":"m1","sport":"football","status":"paused","version":4}}`)
		case r.Method == http.MethodPost && r.URL.Path == "/v1/matches/m1/complete":
			_, _ = io.WriteString(w, `{"data":{"match_id":"m1","winner_id":"team-b","draw":false}}`)
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}, resilience.CircuitBreakerConfig{})

	ctx := context.Background()
	event, err := client.AppendEvent(ctx, matchevent.Event{MatchID: "m1", Type: matchevent.TypeGoal, TeamID: "team-b"})
	if err != nil || event.Seq != 9 {
		t.Fatalf("AppendEvent = %+v, %v", event, err)
	}
	score, err := client.UpdateScore(ctx, "m1", match.SlotB, 3)
	if err != nil || score != 5 {
		t.Fatalf("UpdateScore = %d, %v", score, err)
	}
	if err := client.SetClock(ctx, "m1", "45+2"); err != nil {
		t.Fatalf("SetClock: %v", err)
	}
	updated, err := client.SetStatus(ctx, "m1", match.StatusPaused)
	if err != nil || updated.Status != match.StatusPaused {
		t.Fatalf("SetStatus = %+v, %v", updated, err)
	}
	winner, err := client.Complete(ctx, "m1")
	if err != nil || winner != "team-b" {
		t.Fatalf("Complete = %q, %v", winner, err)
	}
}

func TestClient_MapsErrorEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"validation", http.StatusBadRequest, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT","errors":[{"reason":"invalidArgument"}]}}`, usecase.ErrValidation},
		{"transition", http.StatusConflict, `{"error":{"code":409,"message":"no","status":"FAILED_PRECONDITION","errors":[{"reason":"invalidTransition"}]}}`, usecase.ErrInvalidTransition},
		{"state", http.StatusConflict, `{"error":{"code":409,"message":"done","status":"FAILED_PRECONDITION","errors":[{"reason":"invalidState"}]}}`, usecase.ErrInvalidState},
		{"not found", http.StatusNotFound, `{"error":{"code":404,"message":"missing","status":"NOT_FOUND"}}`, usecase.ErrNotFound},
		{"unauthenticated", http.StatusUnauthorized, `{"error":{"code":401,"message":"who","status":"UNAUTHENTICATED"}}`, usecase.ErrUnauthorized},
		{"forbidden", http.StatusForbidden, `{"error":{"code":403,"message":"viewer","status":"PERMISSION_DENIED"}}`, usecase.ErrForbidden},
		{"conflict", http.StatusConflict, `{"error":{"code":409,"message":"busy","status":"ABORTED"}}`, usecase.ErrConflict},
		{"unavailable", http.StatusServiceUnavailable, `{"error":{"code":503,"message":"down","status":"UNAVAILABLE"}}`, usecase.ErrDependencyUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}, resilience.CircuitBreakerConfig{})

			_, err := client.GetMatch(context.Background(), "m1")
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestClient_CircuitOpensOnRepeatedServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for i := 0; i < 4; i++ {
		_, err := client.ListEvents(context.Background(), "m1")
		if !errors.Is(err, usecase.ErrDependencyUnavailable) {
			t.Fatalf("call %d: expected dependency unavailable, got %v", i, err)
		}
	}
	if got := calls.Load(); got != 2 {
		t.Fatalf("expected breaker to stop after 2 calls, got %d", got)
	}
}

func TestClient_ClientErrorsDoNotTripCircuit(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":404,"message":"missing","status":"NOT_FOUND"}}`)
	}, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 1, OpenTimeout: time.Minute, HalfOpenMaxReq: 1})

	for i := 0; i < 3; i++ {
		if _, err := client.GetMatch(context.Background(), "m1"); !errors.Is(err, usecase.ErrNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	}
	if got := calls.Load(); got != 3 {
		t.Fatalf("expected 3 calls, got %d", got)
	}
}
