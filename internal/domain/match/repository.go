package match

import "context"

// Repository persists match aggregates.
type Repository interface {
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ListByIDs(ctx context.Context, matchIDs []string) ([]Match, error)
	// Update stores item when the stored version equals item.Version and returns the stored
	// copy with the bumped version. A stale version yields ErrVersionConflict.
	Update(ctx context.Context, item Match) (Match, error)
}
