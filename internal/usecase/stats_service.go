package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
	"go.opentelemetry.io/otel/attribute"
)

const (
	defaultStatsWorkers  = 4
	maxStatsBatchMatches = 50
)

type MatchStats struct {
	MatchID string
	Stats   matchstats.Stats
}

type StatsService struct {
	matchRepo match.Repository
	eventRepo matchevent.Repository
	workers   int
}

func NewStatsService(matchRepo match.Repository, eventRepo matchevent.Repository, workers int) *StatsService {
	if workers < 1 {
		workers = defaultStatsWorkers
	}
	return &StatsService{
		matchRepo: matchRepo,
		eventRepo: eventRepo,
		workers:   workers,
	}
}

// Project recomputes the match statistics from its full event log.
func (s *StatsService) Project(ctx context.Context, matchID string) (matchstats.Stats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.Project", matchAttr(matchID))
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return matchstats.Stats{}, fmt.Errorf("%w: match id is required", ErrValidation)
	}

	m, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return matchstats.Stats{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return matchstats.Stats{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	events, err := s.eventRepo.ListByMatch(ctx, matchID)
	if err != nil {
		return matchstats.Stats{}, fmt.Errorf("list match events: %w", err)
	}

	stats, err := matchstats.Project(m.Sport, m, events)
	if err != nil {
		return matchstats.Stats{}, domainError(err)
	}
	return stats, nil
}

// ProjectMany projects several matches on a bounded worker pool. Results keep the input order.
func (s *StatsService) ProjectMany(ctx context.Context, matchIDs []string) ([]MatchStats, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatsService.ProjectMany", attribute.Int("match.count", len(matchIDs)))
	defer span.End()

	ids := uniqueTrimmed(matchIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: at least one match id is required", ErrValidation)
	}
	if len(ids) > maxStatsBatchMatches {
		return nil, fmt.Errorf("%w: at most %d match ids are allowed", ErrValidation, maxStatsBatchMatches)
	}

	pool, err := ants.NewPool(min(s.workers, len(ids)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]MatchStats, len(ids))
	errs := make([]error, len(ids))

	var workers sync.WaitGroup
	for i, matchID := range ids {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()
			stats, err := s.Project(ctx, matchID)
			if err != nil {
				errs[i] = fmt.Errorf("match %s: %w", matchID, err)
				return
			}
			results[i] = MatchStats{MatchID: matchID, Stats: stats}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return nil, fmt.Errorf("submit task to worker pool: %w", err)
		}
	}
	workers.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func uniqueTrimmed(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
