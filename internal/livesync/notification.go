package livesync

import (
	"context"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

type Kind string

const (
	KindMatchUpdated  Kind = "match.updated"
	KindEventInserted Kind = "event.inserted"
	KindEventUpdated  Kind = "event.updated"
	KindEventDeleted  Kind = "event.deleted"
	// KindResync carries no payload; receivers re-fetch the match and its events.
	KindResync Kind = "resync"
)

// Notification is one change on a match feed.
type Notification struct {
	Kind    Kind
	MatchID string
	Match   *match.Match
	Event   *matchevent.Event
	At      time.Time
}

func MatchUpdated(m match.Match, at time.Time) Notification {
	item := m.Clone()
	return Notification{Kind: KindMatchUpdated, MatchID: m.ID, Match: &item, At: at}
}

func EventInserted(e matchevent.Event, at time.Time) Notification {
	item := e.Clone()
	return Notification{Kind: KindEventInserted, MatchID: e.MatchID, Event: &item, At: at}
}

func Resync(matchID string, at time.Time) Notification {
	return Notification{Kind: KindResync, MatchID: matchID, At: at}
}

// Publisher fans a committed change out to the match's viewers. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Handlers receive notifications of one match feed in publish order, which can differ from
// commit order when writers race. Consumers order events by Seq and drop a match whose Version
// is not newer than the one they hold, as Follower does. Nil handlers are skipped.
type Handlers struct {
	OnMatch       func(match.Match)
	OnEventInsert func(matchevent.Event)
	OnEventUpdate func(matchevent.Event)
	OnEventDelete func(matchevent.Event)
	OnResync      func()
	// OnAny sees every notification untouched, before the typed handler. Transports use it to
	// forward frames without re-encoding per kind.
	OnAny func(Notification)
}

// Dispatch routes n to the handler for its kind.
func (h Handlers) Dispatch(n Notification) {
	if h.OnAny != nil {
		h.OnAny(n)
	}
	switch n.Kind {
	case KindMatchUpdated:
		if h.OnMatch != nil && n.Match != nil {
			h.OnMatch(*n.Match)
		}
	case KindEventInserted:
		if h.OnEventInsert != nil && n.Event != nil {
			h.OnEventInsert(*n.Event)
		}
	case KindEventUpdated:
		if h.OnEventUpdate != nil && n.Event != nil {
			h.OnEventUpdate(*n.Event)
		}
	case KindEventDeleted:
		if h.OnEventDelete != nil && n.Event != nil {
			h.OnEventDelete(*n.Event)
		}
	case KindResync:
		if h.OnResync != nil {
			h.OnResync()
		}
	}
}

// Handle is a live subscription. Done is closed once the feed is gone, for any reason.
type Handle interface {
	Unsubscribe()
	Done() <-chan struct{}
}

// Channel opens match feeds; the in-process Hub and the websocket dialer both implement it.
type Channel interface {
	Open(ctx context.Context, matchID string, handlers Handlers) (Handle, error)
}

// Multi publishes to every publisher in order and returns the first error.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, n Notification) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
