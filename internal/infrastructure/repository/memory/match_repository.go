package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
)

type MatchRepository struct {
	mu      sync.RWMutex
	matches map[string]match.Match
}

func NewMatchRepository(items []match.Match) *MatchRepository {
	matches := make(map[string]match.Match, len(items))
	for _, item := range items {
		if item.Version == 0 {
			item.Version = 1
		}
		matches[item.ID] = item.Clone()
	}

	return &MatchRepository{matches: matches}
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.matches[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return item.Clone(), true, nil
}

func (r *MatchRepository) ListByIDs(_ context.Context, matchIDs []string) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(matchIDs))
	for _, matchID := range matchIDs {
		if item, ok := r.matches[matchID]; ok {
			out = append(out, item.Clone())
		}
	}
	return out, nil
}

func (r *MatchRepository) Update(_ context.Context, item match.Match) (match.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.matches[item.ID]
	if !ok || current.Version != item.Version {
		return match.Match{}, match.ErrVersionConflict
	}

	item.Version++
	r.matches[item.ID] = item.Clone()
	return item.Clone(), nil
}
