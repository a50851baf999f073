package roster

import "context"

// Repository exposes read-only roster lookups.
type Repository interface {
	ListByTeam(ctx context.Context, teamID string) ([]Player, error)
}
