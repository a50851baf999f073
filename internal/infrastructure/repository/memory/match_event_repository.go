package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

// MatchEventRepository keeps one insertion-ordered log per match; Seq is global to the store.
type MatchEventRepository struct {
	mu      sync.RWMutex
	seq     int64
	byMatch map[string][]matchevent.Event
}

func NewMatchEventRepository() *MatchEventRepository {
	return &MatchEventRepository{byMatch: make(map[string][]matchevent.Event)}
}

func (r *MatchEventRepository) Append(_ context.Context, item matchevent.Event) (matchevent.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	item.Seq = r.seq
	r.byMatch[item.MatchID] = append(r.byMatch[item.MatchID], item.Clone())
	return item.Clone(), nil
}

func (r *MatchEventRepository) ListByMatch(_ context.Context, matchID string) ([]matchevent.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byMatch[matchID]
	out := make([]matchevent.Event, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		out = append(out, items[i].Clone())
	}
	return out, nil
}
