package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/matchday-live/internal/domain/roster"
)

type RosterRepository struct {
	mu     sync.RWMutex
	byTeam map[string][]roster.Player
}

func NewRosterRepository(players []roster.Player) *RosterRepository {
	byTeam := make(map[string][]roster.Player)
	for _, item := range players {
		byTeam[item.TeamID] = append(byTeam[item.TeamID], item)
	}

	return &RosterRepository{byTeam: byTeam}
}

func (r *RosterRepository) ListByTeam(_ context.Context, teamID string) ([]roster.Player, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := r.byTeam[teamID]
	out := make([]roster.Player, 0, len(items))
	out = append(out, items...)
	return out, nil
}
