package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	matchmock "github.com/riskibarqy/matchday-live/internal/mocks/domain/match"
	matcheventmock "github.com/riskibarqy/matchday-live/internal/mocks/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/platform/id"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

func TestEventLogService_ListIsReverseOfAppendOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	publisher := &recordingPublisher{}
	matchRepo := memory.NewMatchRepository([]match.Match{{ID: "m1", TeamAID: "t-a", TeamBID: "t-b", Status: match.StatusLive}})
	service := NewEventLogService(matchRepo, memory.NewMatchEventRepository(), id.NewSequenceGenerator("evt"), publisher, logging.NewNop())

	// Game clock values deliberately out of order.
	clocks := []string{"45:00", "12:00", "90:00", "01:00"}
	now := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	for i, clock := range clocks {
		service.now = func() time.Time { return now.Add(-time.Duration(i) * time.Hour) }
		if _, err := service.Append(ctx, "m1", AppendEventInput{Type: "shot_on", TeamID: "t-a", Timestamp: clock}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	items, err := service.List(ctx, "m1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != len(clocks) {
		t.Fatalf("expected %d events, got %d", len(clocks), len(items))
	}
	for i := range items {
		want := clocks[len(clocks)-1-i]
		if items[i].Timestamp != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, items[i].Timestamp)
		}
	}
	if items[0].ID != "evt-4" {
		t.Fatalf("expected last appended first, got %s", items[0].ID)
	}
	if publisher.countFor("m1") != len(clocks) {
		t.Fatalf("expected a notification per append, got %d", publisher.countFor("m1"))
	}
	if publisher.items[0].Kind != livesync.KindEventInserted {
		t.Fatalf("unexpected kind %s", publisher.items[0].Kind)
	}
}

func TestEventLogService_AppendValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := memory.NewMatchRepository([]match.Match{{ID: "m1", TeamAID: "t-a", TeamBID: "t-b", Status: match.StatusLive}})
	service := NewEventLogService(matchRepo, memory.NewMatchEventRepository(), nil, nil, logging.NewNop())

	tests := []struct {
		name    string
		matchID string
		input   AppendEventInput
		wantErr error
	}{
		{name: "blank type", matchID: "m1", input: AppendEventInput{Type: "  "}, wantErr: ErrValidation},
		{name: "foreign team", matchID: "m1", input: AppendEventInput{Type: "goal", TeamID: "t-x"}, wantErr: ErrValidation},
		{name: "missing match", matchID: "m404", input: AppendEventInput{Type: "goal"}, wantErr: ErrNotFound},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := service.Append(ctx, tc.matchID, tc.input); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	stored, err := service.Append(ctx, "m1", AppendEventInput{Type: " GOAL ", TeamID: "t-a", Metadata: map[string]any{"scoreDelta": 1}})
	if err != nil {
		t.Fatalf("append: %v", err)
	}
	if stored.Type != "goal" || stored.ID == "" || stored.Seq == 0 {
		t.Fatalf("unexpected stored event: %+v", stored)
	}
}

func TestEventLogService_AppendStoreFailureUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	matchRepo := matchmock.NewRepository(t)
	eventRepo := matcheventmock.NewRepository(t)
	publisher := &recordingPublisher{}
	service := NewEventLogService(matchRepo, eventRepo, id.NewSequenceGenerator("evt"), publisher, logging.NewNop())

	matchRepo.On("GetByID", mock.Anything, "m1").Return(match.Match{ID: "m1", Status: match.StatusLive}, true, nil).Once()
	eventRepo.On("Append", mock.Anything, mock.MatchedBy(func(e matchevent.Event) bool {
		return e.MatchID == "m1" && e.Type == "system"
	})).Return(matchevent.Event{}, errors.New("connection reset")).Once()

	if _, err := service.Append(ctx, "m1", AppendEventInput{Type: "system", Message: "Kick off"}); err == nil {
		t.Fatalf("expected store error")
	}
	if publisher.countFor("m1") != 0 {
		t.Fatalf("failed append must not be published")
	}
}
