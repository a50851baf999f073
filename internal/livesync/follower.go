package livesync

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/sourcegraph/conc/pool"
)

var ErrNotReady = errors.New("follower has not synced yet")

// StateFetcher is the pull side used to fill gaps the push channel may have dropped.
type StateFetcher interface {
	GetMatch(ctx context.Context, matchID string) (match.Match, error)
	ListEvents(ctx context.Context, matchID string) ([]matchevent.Event, error)
}

type Snapshot struct {
	Match  match.Match
	Events []matchevent.Event
	Ready  bool
}

type FollowerOptions struct {
	Backoff  resilience.BackoffConfig
	Logger   *logging.Logger
	OnChange func(Snapshot)
}

// Follower keeps a viewer's local copy of one match. Every (re)connect is followed by a
// resync, so a dropped push only delays an update.
type Follower struct {
	matchID  string
	channel  Channel
	fetcher  StateFetcher
	backoff  resilience.Backoff
	logger   *logging.Logger
	onChange func(Snapshot)
	resyncs  resilience.Group[struct{}]

	connected atomic.Bool
	mu        sync.RWMutex
	match     match.Match
	hasMatch  bool
	events    []matchevent.Event
	seen      map[string]struct{}
}

func NewFollower(matchID string, channel Channel, fetcher StateFetcher, opts FollowerOptions) *Follower {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Follower{
		matchID:  matchID,
		channel:  channel,
		fetcher:  fetcher,
		backoff:  resilience.NewBackoff(opts.Backoff),
		logger:   logger.Named("livesync.follower").With("match_id", matchID),
		onChange: opts.OnChange,
		seen:     make(map[string]struct{}),
	}
}

// Run subscribes and keeps resubscribing until ctx ends or the backoff gives up.
func (f *Follower) Run(ctx context.Context) error {
	attempt := 0
	for {
		handle, err := f.connect(ctx)
		if err == nil {
			attempt = 0
			f.connected.Store(true)
			select {
			case <-ctx.Done():
				handle.Unsubscribe()
				f.connected.Store(false)
				return nil
			case <-handle.Done():
			}
			f.connected.Store(false)
			f.logger.WarnContext(ctx, "live channel disconnected, resubscribing")
		} else if ctx.Err() == nil {
			f.logger.WarnContext(ctx, "live channel connect failed", "attempt", attempt, "error", err)
		}

		if ctx.Err() != nil {
			return nil
		}
		if err := f.backoff.Wait(ctx, attempt); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("follow match %s: %w", f.matchID, err)
		}
		attempt++
	}
}

// connect subscribes before fetching so nothing committed in between is lost.
func (f *Follower) connect(ctx context.Context) (Handle, error) {
	handle, err := f.channel.Open(ctx, f.matchID, f.handlers(ctx))
	if err != nil {
		return nil, fmt.Errorf("open live channel: %w", err)
	}
	if err := f.Resync(ctx); err != nil {
		handle.Unsubscribe()
		return nil, err
	}
	return handle, nil
}

func (f *Follower) handlers(ctx context.Context) Handlers {
	return Handlers{
		OnMatch:       f.applyMatch,
		OnEventInsert: f.insertEvent,
		OnEventUpdate: f.updateEvent,
		OnEventDelete: f.deleteEvent,
		OnResync: func() {
			if err := f.Resync(ctx); err != nil {
				f.logger.WarnContext(ctx, "resync requested by channel failed", "error", err)
			}
		},
	}
}

// Resync overwrites the cache with fetched truth. Concurrent calls share one fetch.
func (f *Follower) Resync(ctx context.Context) error {
	_, err, _ := f.resyncs.Do(f.matchID, func() (struct{}, error) {
		var (
			fetched match.Match
			events  []matchevent.Event
		)

		p := pool.New().WithErrors().WithContext(ctx)
		p.Go(func(ctx context.Context) error {
			item, err := f.fetcher.GetMatch(ctx, f.matchID)
			if err != nil {
				return fmt.Errorf("fetch match: %w", err)
			}
			fetched = item
			return nil
		})
		p.Go(func(ctx context.Context) error {
			items, err := f.fetcher.ListEvents(ctx, f.matchID)
			if err != nil {
				return fmt.Errorf("fetch events: %w", err)
			}
			events = items
			return nil
		})
		if err := p.Wait(); err != nil {
			return struct{}{}, fmt.Errorf("resync match %s: %w", f.matchID, err)
		}

		f.mu.Lock()
		if !f.hasMatch || fetched.Version >= f.match.Version {
			f.match = fetched.Clone()
			f.hasMatch = true
		}
		for _, e := range events {
			f.insertLocked(e)
		}
		f.mu.Unlock()

		f.notify()
		return struct{}{}, nil
	})
	return err
}

func (f *Follower) Connected() bool {
	return f.connected.Load()
}

func (f *Follower) Snapshot() Snapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.snapshotLocked()
}

// Stats projects the cached event log.
func (f *Follower) Stats() (matchstats.Stats, error) {
	snap := f.Snapshot()
	if !snap.Ready {
		return matchstats.Stats{}, ErrNotReady
	}
	return matchstats.Project(snap.Match.Sport, snap.Match, snap.Events)
}

func (f *Follower) snapshotLocked() Snapshot {
	events := make([]matchevent.Event, 0, len(f.events))
	for _, e := range f.events {
		events = append(events, e.Clone())
	}
	return Snapshot{Match: f.match.Clone(), Events: events, Ready: f.hasMatch}
}

func (f *Follower) applyMatch(m match.Match) {
	f.mu.Lock()
	if f.hasMatch && m.Version <= f.match.Version {
		f.mu.Unlock()
		return
	}
	f.match = m.Clone()
	f.hasMatch = true
	f.mu.Unlock()
	f.notify()
}

func (f *Follower) insertEvent(e matchevent.Event) {
	f.mu.Lock()
	added := f.insertLocked(e)
	f.mu.Unlock()
	if added {
		f.notify()
	}
}

func (f *Follower) updateEvent(e matchevent.Event) {
	f.mu.Lock()
	idx := slices.IndexFunc(f.events, func(item matchevent.Event) bool { return item.ID == e.ID })
	if idx >= 0 {
		f.events[idx] = e.Clone()
	}
	f.mu.Unlock()
	if idx >= 0 {
		f.notify()
	}
}

func (f *Follower) deleteEvent(e matchevent.Event) {
	f.mu.Lock()
	before := len(f.events)
	f.events = slices.DeleteFunc(f.events, func(item matchevent.Event) bool { return item.ID == e.ID })
	delete(f.seen, e.ID)
	removed := len(f.events) != before
	f.mu.Unlock()
	if removed {
		f.notify()
	}
}

// insertLocked keeps events newest first by Seq and drops duplicates by ID.
func (f *Follower) insertLocked(e matchevent.Event) bool {
	if e.ID == "" {
		return false
	}
	if _, ok := f.seen[e.ID]; ok {
		return false
	}
	f.seen[e.ID] = struct{}{}

	idx, _ := slices.BinarySearchFunc(f.events, e.Seq, func(item matchevent.Event, seq int64) int {
		switch {
		case item.Seq > seq:
			return -1
		case item.Seq < seq:
			return 1
		default:
			return 0
		}
	})
	f.events = slices.Insert(f.events, idx, e.Clone())
	return true
}

func (f *Follower) notify() {
	if f.onChange == nil {
		return
	}
	f.onChange(f.Snapshot())
}
