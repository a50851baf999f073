package usecase

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/id"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
)

type AppendEventInput struct {
	TeamID     string
	PlayerID   string
	PlayerName string
	Type       string
	Message    string
	Timestamp  string
	Metadata   map[string]any
}

type EventLogService struct {
	matchRepo match.Repository
	eventRepo matchevent.Repository
	ids       id.Generator
	publisher livesync.Publisher
	logger    *logging.Logger
	now       func() time.Time
}

func NewEventLogService(
	matchRepo match.Repository,
	eventRepo matchevent.Repository,
	ids id.Generator,
	publisher livesync.Publisher,
	logger *logging.Logger,
) *EventLogService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EventLogService{
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		ids:       ids,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// Append stores a new event. The store decides its position in the log; Timestamp is only
// the game clock shown to viewers.
func (s *EventLogService) Append(ctx context.Context, matchID string, input AppendEventInput) (matchevent.Event, error) {
	matchID = strings.TrimSpace(matchID)
	eventType := strings.ToLower(strings.TrimSpace(input.Type))
	ctx, span := startUsecaseSpan(ctx, "usecase.EventLogService.Append", matchAttr(matchID), attribute.String("event.type", eventType))
	defer span.End()

	if matchID == "" {
		return matchevent.Event{}, fmt.Errorf("%w: match id is required", ErrValidation)
	}
	if eventType == "" {
		return matchevent.Event{}, fmt.Errorf("%w: event type is required", ErrValidation)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return matchevent.Event{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return matchevent.Event{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	teamID := strings.TrimSpace(input.TeamID)
	if teamID != "" {
		if _, ok := m.SideOf(teamID); !ok {
			return matchevent.Event{}, fmt.Errorf("%w: team %s does not play match %s", ErrValidation, teamID, matchID)
		}
	}

	eventID, err := s.ids.NewID()
	if err != nil {
		return matchevent.Event{}, fmt.Errorf("generate event id: %w", err)
	}

	item := matchevent.Event{
		ID:         eventID,
		MatchID:    matchID,
		TeamID:     teamID,
		PlayerID:   strings.TrimSpace(input.PlayerID),
		PlayerName: strings.TrimSpace(input.PlayerName),
		Type:       eventType,
		Message:    strings.TrimSpace(input.Message),
		Timestamp:  strings.TrimSpace(input.Timestamp),
		CreatedAt:  s.now().UTC(),
	}
	if len(input.Metadata) > 0 {
		item.Metadata = maps.Clone(input.Metadata)
	}

	stored, err := s.eventRepo.Append(ctx, item)
	if err != nil {
		return matchevent.Event{}, failSpan(span, fmt.Errorf("append match event: %w", err))
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, livesync.EventInserted(stored, s.now().UTC())); err != nil {
			s.logger.WarnContext(ctx, "publish event insert failed", "match_id", matchID, "event_id", stored.ID, "error", err)
		}
	}
	return stored, nil
}

// List returns the match's events newest first.
func (s *EventLogService) List(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.EventLogService.List", matchAttr(matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return nil, fmt.Errorf("%w: match id is required", ErrValidation)
	}

	_, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	items, err := s.eventRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list match events: %w", err)
	}
	return items, nil
}
