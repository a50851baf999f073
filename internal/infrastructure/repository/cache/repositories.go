package cache

import (
	"context"
	"strings"

	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	basecache "github.com/riskibarqy/matchday-live/internal/platform/cache"
)

// RosterRepository caches roster reads. Rosters are owned by another system and change rarely
// during a match; match and event reads are never cached.
type RosterRepository struct {
	next  roster.Repository
	cache *basecache.Store
}

func NewRosterRepository(next roster.Repository, cache *basecache.Store) *RosterRepository {
	return &RosterRepository{next: next, cache: cache}
}

func (r *RosterRepository) ListByTeam(ctx context.Context, teamID string) ([]roster.Player, error) {
	key := "roster:team:" + strings.TrimSpace(teamID)
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		items, err := r.next.ListByTeam(ctx, teamID)
		if err != nil {
			return nil, err
		}
		return append([]roster.Player(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]roster.Player)
	return append([]roster.Player(nil), items...), nil
}

// Invalidate drops one team's cached roster, or every roster when teamID is empty.
func (r *RosterRepository) Invalidate(ctx context.Context, teamID string) {
	teamID = strings.TrimSpace(teamID)
	if teamID == "" {
		r.cache.DeletePrefix(ctx, "roster:team:")
		return
	}
	r.cache.Delete(ctx, "roster:team:"+teamID)
}
