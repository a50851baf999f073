package console

import (
	"context"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
)

// Backend is the durable side of the console: the match aggregate and its event log.
type Backend interface {
	GetMatch(ctx context.Context, matchID string) (match.Match, error)
	ListEvents(ctx context.Context, matchID string) ([]matchevent.Event, error)
	AppendEvent(ctx context.Context, draft matchevent.Event) (matchevent.Event, error)
	UpdateScore(ctx context.Context, matchID string, side match.Slot, delta int) (int, error)
	SetClock(ctx context.Context, matchID, clock string) error
	SetStatus(ctx context.Context, matchID string, status match.Status) (match.Match, error)
	Complete(ctx context.Context, matchID string) (string, error)
}

type RosterSource interface {
	ListByTeam(ctx context.Context, teamID string) ([]roster.Player, error)
}

// PlayerPrompter asks the operator to pick the player an action is credited to.
// ok is false when the operator cancelled.
type PlayerPrompter interface {
	PromptPlayer(ctx context.Context, side match.Slot, players []roster.Player) (player roster.Player, ok bool, err error)
}

type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// Notifier surfaces asynchronous outcomes to the operator. It is called from the background
// writer as well as from the caller goroutine.
type Notifier interface {
	SyncFailed(failure SyncFailure)
	ViewChanged(view View)
}
