package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultMatchWriteAttempts = 3

// errUnchanged lets a mutation skip the write and return the stored aggregate as is.
var errUnchanged = errors.New("match unchanged")

type MatchService struct {
	matchRepo   match.Repository
	publisher   livesync.Publisher
	logger      *logging.Logger
	maxAttempts int
	now         func() time.Time
}

func NewMatchService(matchRepo match.Repository, publisher livesync.Publisher, logger *logging.Logger, maxAttempts int) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}
	if maxAttempts < 1 {
		maxAttempts = defaultMatchWriteAttempts
	}
	return &MatchService{
		matchRepo:   matchRepo,
		publisher:   publisher,
		logger:      logger,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}
}

func (s *MatchService) Get(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Get", matchAttr(matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrValidation)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

// UpdateScore adds delta to one side and returns the side's new score.
func (s *MatchService) UpdateScore(ctx context.Context, matchID, side string, delta int) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.UpdateScore",
		matchAttr(matchID), attribute.String("match.side", side), attribute.Int("score.delta", delta))
	defer span.End()

	slot, err := match.ParseSlot(side)
	if err != nil {
		return 0, fmt.Errorf("%w: side must be a or b", ErrValidation)
	}

	var score int
	_, err = s.mutate(ctx, matchID, func(m *match.Match) error {
		next, err := m.ApplyScore(slot, delta)
		if err != nil {
			return domainError(err)
		}
		score = next
		return nil
	})
	if err != nil {
		return 0, err
	}
	return score, nil
}

func (s *MatchService) SetClock(ctx context.Context, matchID, clock string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetClock", matchAttr(matchID))
	defer span.End()

	clock = strings.TrimSpace(clock)
	if clock == "" {
		return match.Match{}, fmt.Errorf("%w: clock is required", ErrValidation)
	}

	return s.mutate(ctx, matchID, func(m *match.Match) error {
		if m.IsCompleted() {
			return domainError(match.ErrCompleted)
		}
		if m.GameClock == clock {
			return errUnchanged
		}
		m.GameClock = clock
		return nil
	})
}

// SetStatus moves the match along its lifecycle. Completing goes through Complete.
func (s *MatchService) SetStatus(ctx context.Context, matchID, status string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetStatus", matchAttr(matchID), attribute.String("match.status", status))
	defer span.End()

	to := match.NormalizeStatus(status)
	if !to.Valid() {
		return match.Match{}, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}

	if to == match.StatusCompleted {
		current, err := s.Get(ctx, matchID)
		if err != nil {
			return match.Match{}, err
		}
		if !match.CanTransition(current.Status, to) {
			return match.Match{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, to)
		}
		if _, err := s.Complete(ctx, matchID); err != nil {
			return match.Match{}, err
		}
		return s.Get(ctx, matchID)
	}

	return s.mutate(ctx, matchID, func(m *match.Match) error {
		from := m.Status
		if err := m.Transition(to); err != nil {
			return fmt.Errorf("%w: %s -> %s", domainError(err), from, to)
		}
		return nil
	})
}

// SetManualStats merges operator-entered fields such as possession_a.
func (s *MatchService) SetManualStats(ctx context.Context, matchID string, values map[string]int) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.SetManualStats", matchAttr(matchID))
	defer span.End()

	if len(values) == 0 {
		return match.Match{}, fmt.Errorf("%w: at least one manual stat is required", ErrValidation)
	}
	for key, value := range values {
		if strings.TrimSpace(key) == "" {
			return match.Match{}, fmt.Errorf("%w: manual stat key is required", ErrValidation)
		}
		if value < 0 {
			return match.Match{}, fmt.Errorf("%w: manual stat %s must not be negative", ErrValidation, key)
		}
	}

	return s.mutate(ctx, matchID, func(m *match.Match) error {
		if m.IsCompleted() {
			return domainError(match.ErrCompleted)
		}
		if m.ManualStats == nil {
			m.ManualStats = make(map[string]int, len(values))
		}
		for key, value := range values {
			m.ManualStats[strings.TrimSpace(key)] = value
		}
		return nil
	})
}

// Complete finishes the match and advances the winner through the bracket. Calling it on a
// completed match returns the recorded winner; the downstream slot is written at most once.
func (s *MatchService) Complete(ctx context.Context, matchID string) (string, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.Complete", matchAttr(matchID))
	defer span.End()

	var (
		winner        string
		justCompleted bool
	)
	completed, err := s.mutate(ctx, matchID, func(m *match.Match) error {
		if m.IsCompleted() {
			winner = m.WinnerID
			justCompleted = false
			return errUnchanged
		}
		w, err := m.Finish()
		if err != nil {
			return fmt.Errorf("%w: %s -> %s", domainError(err), m.Status, match.StatusCompleted)
		}
		winner = w
		justCompleted = true
		return nil
	})
	if err != nil {
		return "", err
	}

	if completed.NeedsPropagation() {
		if err := s.propagateWinner(ctx, completed); err != nil {
			return winner, err
		}
	} else if justCompleted && winner == "" && completed.NextMatchID != "" {
		s.logger.InfoContext(ctx, "match ended in a draw, downstream slot left empty",
			"match_id", completed.ID,
			"next_match_id", completed.NextMatchID,
			"next_match_slot", string(completed.NextMatchSlot),
		)
	}

	return winner, nil
}

// propagateWinner writes the slot first and the marker second, so an interrupted run is
// finished by the next Complete without a second slot write.
func (s *MatchService) propagateWinner(ctx context.Context, completed match.Match) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.propagateWinner",
		matchAttr(completed.ID), attribute.String("bracket.next_match_id", completed.NextMatchID))
	defer span.End()

	slot := completed.NextMatchSlot
	_, err := s.mutate(ctx, completed.NextMatchID, func(next *match.Match) error {
		switch current := next.TeamID(slot); current {
		case completed.WinnerID:
			return errUnchanged
		case "":
			return next.FillSlot(slot, completed.WinnerID)
		default:
			return fmt.Errorf("%w: slot %s of match %s already holds team %s", ErrInvalidState, slot, next.ID, current)
		}
	})
	if err != nil {
		return failSpan(span, fmt.Errorf("propagate winner to match %s: %w", completed.NextMatchID, err))
	}

	_, err = s.mutate(ctx, completed.ID, func(m *match.Match) error {
		if m.BracketPropagated {
			return errUnchanged
		}
		m.BracketPropagated = true
		return nil
	})
	if err != nil {
		return failSpan(span, fmt.Errorf("mark bracket propagated: %w", err))
	}

	s.logger.InfoContext(ctx, "winner advanced to next match",
		"match_id", completed.ID,
		"winner_id", completed.WinnerID,
		"next_match_id", completed.NextMatchID,
		"next_match_slot", string(slot),
	)
	return nil
}

// mutate is a read-modify-write guarded by the aggregate version. On a version conflict the
// command is re-applied to a fresh read, so state machine checks always see current state.
func (s *MatchService) mutate(ctx context.Context, matchID string, apply func(*match.Match) error) (match.Match, error) {
	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrValidation)
	}

	span := trace.SpanFromContext(ctx)
	for attempt := 1; ; attempt++ {
		current, exists, err := s.matchRepo.GetByID(ctx, matchID)
		if err != nil {
			return match.Match{}, failSpan(span, fmt.Errorf("get match: %w", err))
		}
		if !exists {
			return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
		}

		next := current.Clone()
		if err := apply(&next); err != nil {
			if errors.Is(err, errUnchanged) {
				return current, nil
			}
			return match.Match{}, err
		}
		next.UpdatedAt = s.now().UTC()

		stored, err := s.matchRepo.Update(ctx, next)
		if errors.Is(err, match.ErrVersionConflict) {
			span.AddEvent("version conflict", trace.WithAttributes(attribute.Int("attempt", attempt)))
			if attempt >= s.maxAttempts {
				return match.Match{}, failSpan(span, fmt.Errorf("%w: match=%s attempts=%d", ErrConflict, matchID, attempt))
			}
			s.logger.DebugContext(ctx, "match version conflict, retrying", "match_id", matchID, "attempt", attempt)
			continue
		}
		if err != nil {
			return match.Match{}, failSpan(span, fmt.Errorf("update match: %w", err))
		}

		s.publish(ctx, livesync.MatchUpdated(stored, s.now().UTC()))
		return stored, nil
	}
}

func (s *MatchService) publish(ctx context.Context, n livesync.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		s.logger.WarnContext(ctx, "publish live notification failed", "match_id", n.MatchID, "kind", string(n.Kind), "error", err)
	}
}
