package console

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultCheckpointEvery = 10
	defaultWriteTimeout    = 10 * time.Second
	writeQueueSize         = 64
)

type Options struct {
	// CheckpointEvery persists the clock every N ticks.
	CheckpointEvery int
	TickInterval    time.Duration
	WriteTimeout    time.Duration
	Logger          *logging.Logger
}

type Dependencies struct {
	Backend   Backend
	Roster    RosterSource
	Prompter  PlayerPrompter
	Confirmer Confirmer
	Notifier  Notifier
}

// writeJob runs on the single writer goroutine, so durable writes keep the order in which
// the operator issued them.
type writeJob struct {
	op   *PendingOp
	run  func(ctx context.Context) error
	done chan error
}

// Controller is the scorekeeper surface for one match. Actions update the local view at once
// and are persisted in the background; a failed write is reported and the view re-fetched.
type Controller struct {
	matchID         string
	deps            Dependencies
	logger          *logging.Logger
	checkpointEvery int
	tickInterval    time.Duration
	writeTimeout    time.Duration

	ctx        context.Context
	cancel     context.CancelFunc
	jobs       chan writeJob
	writerDone chan struct{}
	closeOnce  sync.Once
	sendMu     sync.RWMutex
	sendClosed bool
	clockMu    sync.Mutex
	stopClock  context.CancelFunc

	mu        sync.Mutex
	closed    bool
	confirmed match.Match
	events    []matchevent.Event
	pending   []PendingOp
	nextOpID  int64
	clock     gameClock
	ticks     int
}

func NewController(matchID string, deps Dependencies, opts Options) *Controller {
	if opts.CheckpointEvery < 1 {
		opts.CheckpointEvery = defaultCheckpointEvery
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		matchID:         strings.TrimSpace(matchID),
		deps:            deps,
		logger:          opts.Logger.Named("console").With("match_id", matchID),
		checkpointEvery: opts.CheckpointEvery,
		tickInterval:    opts.TickInterval,
		writeTimeout:    opts.WriteTimeout,
		ctx:             ctx,
		cancel:          cancel,
		jobs:            make(chan writeJob, writeQueueSize),
		writerDone:      make(chan struct{}),
	}
	go c.writer()
	return c
}

// Load fetches confirmed state and seeds the local clock from the stored checkpoint.
func (c *Controller) Load(ctx context.Context) error {
	if err := c.Refresh(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.clock = parseClock(c.confirmed.GameClock)
	c.mu.Unlock()
	c.notifyChanged()
	return nil
}

// Refresh replaces confirmed state with the backend's truth. Pending ops stay layered on top.
func (c *Controller) Refresh(ctx context.Context) error {
	var (
		m      match.Match
		events []matchevent.Event
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		item, err := c.deps.Backend.GetMatch(ctx, c.matchID)
		if err != nil {
			return fmt.Errorf("get match: %w", err)
		}
		m = item
		return nil
	})
	p.Go(func(ctx context.Context) error {
		items, err := c.deps.Backend.ListEvents(ctx, c.matchID)
		if err != nil {
			return fmt.Errorf("list events: %w", err)
		}
		events = items
		return nil
	})
	if err := p.Wait(); err != nil {
		return fmt.Errorf("refresh match %s: %w", c.matchID, err)
	}

	c.mu.Lock()
	c.confirmed = m
	c.events = events
	c.mu.Unlock()
	c.notifyChanged()
	return nil
}

// View returns confirmed state plus pending ops: pending points are added to the score and
// pending events are listed ahead of confirmed ones.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

func (c *Controller) viewLocked() View {
	view := View{
		Match:   c.confirmed.Clone(),
		Events:  make([]matchevent.Event, 0, len(c.pending)+len(c.events)),
		Pending: slices.Clone(c.pending),
		Clock:   c.clock.String(),
	}
	for i := len(c.pending) - 1; i >= 0; i-- {
		op := c.pending[i]
		if !op.Appended {
			view.Events = append(view.Events, op.Event.Clone())
		}
		if op.Action.Points == 0 {
			continue
		}
		if op.Side == match.SlotA {
			view.Match.ScoreA += op.Action.Points
		} else {
			view.Match.ScoreB += op.Action.Points
		}
	}
	for _, e := range c.events {
		view.Events = append(view.Events, e.Clone())
	}
	return view
}

// RecordAction validates synchronously, asks for attribution when needed, shows the action
// immediately and queues the durable writes. Write failures go to the Notifier.
func (c *Controller) RecordAction(ctx context.Context, action Action, side string, player *roster.Player) error {
	action = action.clone()
	action.Type = strings.ToLower(strings.TrimSpace(action.Type))
	if action.Type == "" {
		return fmt.Errorf("%w: action type is required", usecase.ErrValidation)
	}
	slot, err := match.ParseSlot(side)
	if err != nil {
		return fmt.Errorf("%w: side must be a or b", usecase.ErrValidation)
	}
	if action.Points < 0 {
		return fmt.Errorf("%w: action points must not be negative", usecase.ErrValidation)
	}

	c.mu.Lock()
	closed, current := c.closed, c.confirmed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	if current.IsCompleted() {
		return fmt.Errorf("%w: match %s is completed", usecase.ErrInvalidState, c.matchID)
	}

	teamID := current.TeamID(slot)
	if action.RequiresPlayerAttribution && player == nil {
		picked, err := c.promptPlayer(ctx, slot, teamID)
		if err != nil {
			return err
		}
		player = &picked
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.nextOpID++
	clock := c.clock.String()
	draft := matchevent.Event{
		ID:        fmt.Sprintf("pending-%d", c.nextOpID),
		MatchID:   c.matchID,
		TeamID:    teamID,
		Type:      action.Type,
		Timestamp: clock,
	}
	if player != nil {
		draft.PlayerID = player.ID
		draft.PlayerName = player.DisplayName()
	}
	draft.Message = composeMessage(action, teamID, draft.PlayerName, clock)
	if len(action.Metadata) > 0 || action.Points != 0 {
		draft.Metadata = maps.Clone(action.Metadata)
		if draft.Metadata == nil {
			draft.Metadata = make(map[string]any, 1)
		}
		if action.Points != 0 {
			draft.Metadata["scoreDelta"] = action.Points
		}
	}
	op := PendingOp{ID: c.nextOpID, Action: action, Side: slot, Event: draft}
	c.pending = append(c.pending, op)
	c.mu.Unlock()

	c.notifyChanged()
	if !c.enqueue(writeJob{op: &op}) {
		c.dropPending(op.ID)
		return ErrClosed
	}
	return nil
}

func (c *Controller) promptPlayer(ctx context.Context, slot match.Slot, teamID string) (roster.Player, error) {
	if c.deps.Prompter == nil || c.deps.Roster == nil || teamID == "" {
		return roster.Player{}, ErrAttributionRequired
	}
	players, err := c.deps.Roster.ListByTeam(ctx, teamID)
	if err != nil {
		return roster.Player{}, fmt.Errorf("load roster for team %s: %w", teamID, err)
	}
	picked, ok, err := c.deps.Prompter.PromptPlayer(ctx, slot, players)
	if err != nil {
		return roster.Player{}, fmt.Errorf("prompt player: %w", err)
	}
	if !ok {
		return roster.Player{}, ErrAttributionRequired
	}
	return picked, nil
}

// StartMatch moves a scheduled match to live and logs it in the feed.
func (c *Controller) StartMatch(ctx context.Context) error {
	return c.changeStatus(ctx, match.StatusLive, "Match started")
}

// TogglePause flips between live and paused and records a system event.
func (c *Controller) TogglePause(ctx context.Context) error {
	c.mu.Lock()
	status := c.confirmed.Status
	c.mu.Unlock()

	switch status {
	case match.StatusLive:
		return c.changeStatus(ctx, match.StatusPaused, "Match paused")
	case match.StatusPaused:
		return c.changeStatus(ctx, match.StatusLive, "Match resumed")
	default:
		return fmt.Errorf("%w: cannot pause or resume a %s match", usecase.ErrInvalidState, status)
	}
}

// Finish completes the match once the operator confirmed. It cannot be undone.
func (c *Controller) Finish(ctx context.Context) (string, error) {
	if c.deps.Confirmer == nil {
		return "", ErrFinishNotConfirmed
	}
	ok, err := c.deps.Confirmer.Confirm(ctx, "End the match? This cannot be undone.")
	if err != nil {
		return "", fmt.Errorf("confirm finish: %w", err)
	}
	if !ok {
		return "", ErrFinishNotConfirmed
	}

	var winner string
	err = c.await(ctx, func(ctx context.Context) error {
		w, err := c.deps.Backend.Complete(ctx, c.matchID)
		if err != nil {
			return err
		}
		winner = w
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("complete match: %w", err)
	}

	c.StopClock()
	if err := c.Refresh(ctx); err != nil {
		c.logger.WarnContext(ctx, "refresh after finish failed", "error", err)
	}
	return winner, nil
}

func (c *Controller) changeStatus(ctx context.Context, to match.Status, message string) error {
	var updated match.Match
	err := c.await(ctx, func(ctx context.Context) error {
		item, err := c.deps.Backend.SetStatus(ctx, c.matchID, to)
		if err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return fmt.Errorf("set status %s: %w", to, err)
	}

	c.mu.Lock()
	c.confirmed = updated
	clock := c.clock.String()
	c.mu.Unlock()
	c.notifyChanged()

	system := matchevent.Event{
		MatchID:   c.matchID,
		Type:      matchevent.TypeSystem,
		Message:   fmt.Sprintf("%s at %s", message, clock),
		Timestamp: clock,
	}
	err = c.await(ctx, func(ctx context.Context) error {
		stored, err := c.deps.Backend.AppendEvent(ctx, system)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.insertConfirmedLocked(stored)
		c.mu.Unlock()
		return nil
	})
	if err != nil {
		return fmt.Errorf("append system event: %w", err)
	}
	c.notifyChanged()
	return nil
}

// Start runs the game clock until ctx ends, StopClock or Close is called.
func (c *Controller) Start(ctx context.Context) {
	clockCtx, cancel := context.WithCancel(ctx)
	c.clockMu.Lock()
	if c.stopClock != nil {
		c.stopClock()
	}
	c.stopClock = cancel
	c.clockMu.Unlock()

	go func() {
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-clockCtx.Done():
				return
			case <-ticker.C:
				c.Tick()
			}
		}
	}()
}

func (c *Controller) StopClock() {
	c.clockMu.Lock()
	defer c.clockMu.Unlock()
	if c.stopClock != nil {
		c.stopClock()
		c.stopClock = nil
	}
}

// Tick advances the clock by one second while live, checkpointing it every N ticks.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.closed || c.confirmed.Status != match.StatusLive {
		c.mu.Unlock()
		return
	}
	c.clock.elapsed += time.Second
	c.ticks++
	checkpoint := c.ticks%c.checkpointEvery == 0
	clock := c.clock.String()
	c.mu.Unlock()

	c.notifyChanged()
	if !checkpoint {
		return
	}
	c.enqueue(writeJob{run: func(ctx context.Context) error {
		if err := c.deps.Backend.SetClock(ctx, c.matchID, clock); err != nil {
			c.logger.WarnContext(ctx, "clock checkpoint failed", "clock", clock, "error", err)
			return nil
		}
		c.mu.Lock()
		c.confirmed.GameClock = clock
		c.mu.Unlock()
		return nil
	}})
}

// Close stops the clock, drains queued writes and stops the writer. Safe to call repeatedly.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.StopClock()
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.sendMu.Lock()
		c.sendClosed = true
		close(c.jobs)
		c.sendMu.Unlock()

		<-c.writerDone
		c.cancel()
	})
}

func (c *Controller) enqueue(job writeJob) bool {
	c.sendMu.RLock()
	defer c.sendMu.RUnlock()
	if c.sendClosed {
		return false
	}
	c.jobs <- job
	return true
}

// await queues fn behind every pending write and waits for its result.
func (c *Controller) await(ctx context.Context, fn func(ctx context.Context) error) error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	done := make(chan error, 1)
	if !c.enqueue(writeJob{run: fn, done: done}) {
		return ErrClosed
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) writer() {
	defer close(c.writerDone)
	for job := range c.jobs {
		ctx, cancel := context.WithTimeout(c.ctx, c.writeTimeout)
		if job.op != nil {
			c.syncOp(ctx, *job.op)
		} else if job.run != nil {
			err := job.run(ctx)
			if job.done != nil {
				job.done <- err
			}
		}
		cancel()
	}
}

func (c *Controller) syncOp(ctx context.Context, op PendingOp) {
	draft := op.Event.Clone()
	draft.ID = ""
	stored, err := c.deps.Backend.AppendEvent(ctx, draft)
	if err != nil {
		c.fail(ctx, op, "append event", err)
		return
	}

	c.mu.Lock()
	c.insertConfirmedLocked(stored)
	if op.Action.Points == 0 {
		c.dropPendingLocked(op.ID)
	} else {
		c.markAppendedLocked(op.ID)
	}
	c.mu.Unlock()

	if op.Action.Points != 0 {
		score, err := c.deps.Backend.UpdateScore(ctx, c.matchID, op.Side, op.Action.Points)
		if err != nil {
			c.fail(ctx, op, "update score", err)
			return
		}
		// The confirmed score and the pending delta swap in one step, or a View in between
		// would count the points twice.
		c.mu.Lock()
		if op.Side == match.SlotA {
			c.confirmed.ScoreA = score
		} else {
			c.confirmed.ScoreB = score
		}
		c.dropPendingLocked(op.ID)
		c.mu.Unlock()
	}

	c.notifyChanged()
}

// fail drops the op and re-fetches truth; there is no local undo.
func (c *Controller) fail(ctx context.Context, op PendingOp, step string, err error) {
	c.logger.WarnContext(ctx, "console write failed", "action", op.Action.Type, "step", step, "error", err)
	c.dropPending(op.ID)

	failure := SyncFailure{Op: op, Step: step, Err: err}
	if c.deps.Notifier != nil {
		c.deps.Notifier.SyncFailed(failure)
	}
	if err := c.Refresh(ctx); err != nil {
		c.logger.WarnContext(ctx, "refresh after failed write failed", "error", err)
		c.notifyChanged()
	}
}

func (c *Controller) dropPending(opID int64) {
	c.mu.Lock()
	c.dropPendingLocked(opID)
	c.mu.Unlock()
}

func (c *Controller) dropPendingLocked(opID int64) {
	c.pending = slices.DeleteFunc(c.pending, func(op PendingOp) bool { return op.ID == opID })
}

func (c *Controller) markAppendedLocked(opID int64) {
	for i := range c.pending {
		if c.pending[i].ID == opID {
			c.pending[i].Appended = true
			return
		}
	}
}

func (c *Controller) insertConfirmedLocked(e matchevent.Event) {
	if slices.ContainsFunc(c.events, func(item matchevent.Event) bool { return item.ID == e.ID }) {
		return
	}
	c.events = append([]matchevent.Event{e}, c.events...)
}

func (c *Controller) notifyChanged() {
	if c.deps.Notifier == nil {
		return
	}
	c.deps.Notifier.ViewChanged(c.View())
}
