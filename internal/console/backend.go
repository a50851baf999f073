package console

import (
	"context"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

// ServiceBackend runs the console against the in-process services.
type ServiceBackend struct {
	matches *usecase.MatchService
	events  *usecase.EventLogService
}

func NewServiceBackend(matches *usecase.MatchService, events *usecase.EventLogService) *ServiceBackend {
	return &ServiceBackend{matches: matches, events: events}
}

func (b *ServiceBackend) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	return b.matches.Get(ctx, matchID)
}

func (b *ServiceBackend) ListEvents(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	return b.events.List(ctx, matchID)
}

func (b *ServiceBackend) AppendEvent(ctx context.Context, draft matchevent.Event) (matchevent.Event, error) {
	return b.events.Append(ctx, draft.MatchID, usecase.AppendEventInput{
		TeamID:     draft.TeamID,
		PlayerID:   draft.PlayerID,
		PlayerName: draft.PlayerName,
		Type:       draft.Type,
		Message:    draft.Message,
		Timestamp:  draft.Timestamp,
		Metadata:   draft.Metadata,
	})
}

func (b *ServiceBackend) UpdateScore(ctx context.Context, matchID string, side match.Slot, delta int) (int, error) {
	return b.matches.UpdateScore(ctx, matchID, string(side), delta)
}

func (b *ServiceBackend) SetClock(ctx context.Context, matchID, clock string) error {
	_, err := b.matches.SetClock(ctx, matchID, clock)
	return err
}

func (b *ServiceBackend) SetStatus(ctx context.Context, matchID string, status match.Status) (match.Match, error) {
	return b.matches.SetStatus(ctx, matchID, string(status))
}

func (b *ServiceBackend) Complete(ctx context.Context, matchID string) (string, error) {
	return b.matches.Complete(ctx, matchID)
}
