package matchevent

import "context"

// Repository is the append-only event log.
type Repository interface {
	// Append assigns Seq and CreatedAt and returns the stored event.
	Append(ctx context.Context, item Event) (Event, error)
	// ListByMatch returns every event of the match, newest first.
	ListByMatch(ctx context.Context, matchID string) ([]Event, error)
}
