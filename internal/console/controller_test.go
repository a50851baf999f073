package console

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-live/internal/platform/id"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

type recordingNotifier struct {
	mu       sync.Mutex
	failures []SyncFailure
	views    int
}

func (n *recordingNotifier) SyncFailed(f SyncFailure) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, f)
}

func (n *recordingNotifier) ViewChanged(View) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.views++
}

func (n *recordingNotifier) failureCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.failures)
}

type stubPrompter struct {
	pick   *roster.Player
	offers []roster.Player
}

func (p *stubPrompter) PromptPlayer(_ context.Context, _ match.Slot, players []roster.Player) (roster.Player, bool, error) {
	p.offers = players
	if p.pick == nil {
		return roster.Player{}, false, nil
	}
	return *p.pick, true, nil
}

type stubConfirmer bool

func (c stubConfirmer) Confirm(context.Context, string) (bool, error) {
	return bool(c), nil
}

// flakyBackend fails or holds UpdateScore on demand and counts clock checkpoints.
type flakyBackend struct {
	Backend
	mu          sync.Mutex
	failScore   bool
	clockWrites []string
	// scoreEntered/scoreGate, when set, park UpdateScore until the gate closes.
	scoreEntered chan struct{}
	scoreGate    chan struct{}
}

func (b *flakyBackend) UpdateScore(ctx context.Context, matchID string, side match.Slot, delta int) (int, error) {
	b.mu.Lock()
	fail := b.failScore
	b.mu.Unlock()
	if fail {
		return 0, errors.New("network unreachable")
	}
	if b.scoreGate != nil {
		b.scoreEntered <- struct{}{}
		<-b.scoreGate
	}
	return b.Backend.UpdateScore(ctx, matchID, side, delta)
}

func (b *flakyBackend) SetClock(ctx context.Context, matchID, clock string) error {
	b.mu.Lock()
	b.clockWrites = append(b.clockWrites, clock)
	b.mu.Unlock()
	return b.Backend.SetClock(ctx, matchID, clock)
}

type fixture struct {
	matches  *usecase.MatchService
	events   *usecase.EventLogService
	backend  *flakyBackend
	notifier *recordingNotifier
}

func newFixture(t *testing.T, m match.Match) fixture {
	t.Helper()
	matchRepo := memory.NewMatchRepository([]match.Match{m})
	eventRepo := memory.NewMatchEventRepository()
	matches := usecase.NewMatchService(matchRepo, nil, logging.NewNop(), 5)
	events := usecase.NewEventLogService(matchRepo, eventRepo, id.NewSequenceGenerator("evt"), nil, logging.NewNop())
	return fixture{
		matches:  matches,
		events:   events,
		backend:  &flakyBackend{Backend: NewServiceBackend(matches, events)},
		notifier: &recordingNotifier{},
	}
}

func (f fixture) controller(t *testing.T, matchID string, deps Dependencies) *Controller {
	t.Helper()
	deps.Backend = f.backend
	deps.Notifier = f.notifier
	c := NewController(matchID, deps, Options{CheckpointEvery: 3, Logger: logging.NewNop()})
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return c
}

func liveFootball() match.Match {
	return match.Match{
		ID: "m1", Sport: match.SportFootball, TeamAID: "idn-persija", TeamBID: "idn-persib",
		Status: match.StatusLive, GameClock: "23:10",
	}
}

func TestController_FootballGoalFlow(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, liveFootball())
	c := f.controller(t, "m1", Dependencies{})

	scorer := roster.Player{ID: "idn-fwd-01", TeamID: "idn-persija", Name: "Gustavo Almeida"}
	err := c.RecordAction(ctx, Action{Label: "Goal", Type: "goal", Points: 1, RequiresPlayerAttribution: true}, "a", &scorer)
	if err != nil {
		t.Fatalf("record action: %v", err)
	}

	view := c.View()
	if view.Match.ScoreA != 1 {
		t.Fatalf("expected optimistic score 1, got %d", view.Match.ScoreA)
	}
	if len(view.Events) != 1 || view.Events[0].Timestamp != "23:10" {
		t.Fatalf("unexpected optimistic events: %+v", view.Events)
	}

	c.Close()

	stored, err := f.matches.Get(ctx, "m1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	if stored.ScoreA != 1 {
		t.Fatalf("expected score_a=1, got %d", stored.ScoreA)
	}
	events, err := f.events.List(ctx, "m1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].PlayerID != "idn-fwd-01" {
		t.Fatalf("unexpected events: %+v", events)
	}
	stats, err := matchstats.Project(match.SportFootball, stored, events)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if stats.Get("goals", match.SlotA) != 1 {
		t.Fatalf("expected goals_a=1, got %d", stats.Get("goals", match.SlotA))
	}

	final := c.View()
	if len(final.Pending) != 0 || final.Match.ScoreA != 1 {
		t.Fatalf("expected confirmed view without pending ops: %+v", final)
	}
}

func TestController_PromptsForAttribution(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, liveFootball())
	rosterRepo := memory.NewRosterRepository(memory.SeedRoster())

	cancelled := &stubPrompter{}
	c := f.controller(t, "m1", Dependencies{Roster: rosterRepo, Prompter: cancelled})
	err := c.RecordAction(ctx, Action{Label: "Yellow card", Type: "card_yellow", RequiresPlayerAttribution: true}, "b", nil)
	if !errors.Is(err, ErrAttributionRequired) {
		t.Fatalf("expected ErrAttributionRequired, got %v", err)
	}
	if len(c.View().Pending) != 0 {
		t.Fatalf("cancelled action must not be recorded")
	}
	for _, p := range cancelled.offers {
		if p.TeamID != "idn-persib" {
			t.Fatalf("offered player from wrong team: %+v", p)
		}
	}
	if len(cancelled.offers) == 0 {
		t.Fatalf("expected roster of side b to be offered")
	}
	c.Close()

	pick := roster.Player{ID: "idn-mid-02", TeamID: "idn-persib", Name: "Marc Klok"}
	c2 := f.controller(t, "m1", Dependencies{Roster: rosterRepo, Prompter: &stubPrompter{pick: &pick}})
	if err := c2.RecordAction(ctx, Action{Label: "Yellow card", Type: "card_yellow", RequiresPlayerAttribution: true}, "b", nil); err != nil {
		t.Fatalf("record action: %v", err)
	}
	c2.Close()

	events, _ := f.events.List(ctx, "m1")
	if len(events) != 1 || events[0].PlayerName != "Marc Klok" || events[0].TeamID != "idn-persib" {
		t.Fatalf("unexpected events: %+v", events)
	}
}

func TestController_SyncFailureIsReportedAndTruthRefetched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, liveFootball())
	f.backend.failScore = true
	c := f.controller(t, "m1", Dependencies{})

	if err := c.RecordAction(ctx, Action{Label: "Goal", Type: "goal", Points: 1}, "a", nil); err != nil {
		t.Fatalf("record action should not surface sync errors: %v", err)
	}
	c.Close()

	if f.notifier.failureCount() != 1 {
		t.Fatalf("expected one sync failure, got %d", f.notifier.failureCount())
	}
	failure := f.notifier.failures[0]
	if failure.Step != "update score" || failure.Op.Action.Type != "goal" {
		t.Fatalf("unexpected failure: %+v", failure)
	}

	view := c.View()
	if view.Match.ScoreA != 0 {
		t.Fatalf("expected score to snap back to 0, got %d", view.Match.ScoreA)
	}
	if len(view.Pending) != 0 {
		t.Fatalf("failed op must be discarded")
	}
	if len(view.Events) != 1 {
		t.Fatalf("event append succeeded and should stay visible, got %d", len(view.Events))
	}
}

func TestController_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	done := liveFootball()
	done.Status = match.StatusCompleted
	f := newFixture(t, done)
	c := f.controller(t, "m1", Dependencies{})
	defer c.Close()

	if err := c.RecordAction(ctx, Action{Label: "??"}, "a", nil); !errors.Is(err, usecase.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err := c.RecordAction(ctx, Action{Type: "goal"}, "home", nil); !errors.Is(err, usecase.ErrValidation) {
		t.Fatalf("expected ErrValidation for side, got %v", err)
	}
	if err := c.RecordAction(ctx, Action{Type: "goal", Points: 1}, "a", nil); !errors.Is(err, usecase.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestController_FinishRequiresConfirmation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := liveFootball()
	m.ScoreA = 2
	f := newFixture(t, m)

	refused := f.controller(t, "m1", Dependencies{Confirmer: stubConfirmer(false)})
	if _, err := refused.Finish(ctx); !errors.Is(err, ErrFinishNotConfirmed) {
		t.Fatalf("expected ErrFinishNotConfirmed, got %v", err)
	}
	refused.Close()
	if stored, _ := f.matches.Get(ctx, "m1"); stored.Status != match.StatusLive {
		t.Fatalf("unconfirmed finish changed status to %s", stored.Status)
	}

	c := f.controller(t, "m1", Dependencies{Confirmer: stubConfirmer(true)})
	defer c.Close()
	winner, err := c.Finish(ctx)
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if winner != "idn-persija" {
		t.Fatalf("unexpected winner %q", winner)
	}
	if c.View().Match.Status != match.StatusCompleted {
		t.Fatalf("expected completed view")
	}
}

func TestController_ClockCheckpointsAndPause(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m := liveFootball()
	m.Status = match.StatusScheduled
	m.GameClock = "00:00"
	f := newFixture(t, m)
	c := f.controller(t, "m1", Dependencies{})

	c.Tick()
	if c.View().Clock != "00:00" {
		t.Fatalf("clock must not run before kick off")
	}
	if err := c.StartMatch(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 7; i++ {
		c.Tick()
	}
	if err := c.TogglePause(ctx); err != nil {
		t.Fatalf("pause: %v", err)
	}
	c.Tick()
	if got := c.View().Clock; got != "00:07" {
		t.Fatalf("expected paused clock 00:07, got %s", got)
	}
	c.Close()

	f.backend.mu.Lock()
	writes := append([]string(nil), f.backend.clockWrites...)
	f.backend.mu.Unlock()
	if len(writes) != 2 || writes[0] != "00:03" || writes[1] != "00:06" {
		t.Fatalf("unexpected checkpoints: %v", writes)
	}

	stored, _ := f.matches.Get(ctx, "m1")
	if stored.Status != match.StatusPaused || stored.GameClock != "00:06" {
		t.Fatalf("unexpected stored match: %+v", stored)
	}
	events, _ := f.events.List(ctx, "m1")
	if len(events) != 2 || events[0].Type != matchevent.TypeSystem || events[0].Message != "Match paused at 00:07" {
		t.Fatalf("unexpected system events: %+v", events)
	}
}

func TestController_ViewWhileScoreWriteInFlight(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, liveFootball())
	f.backend.scoreEntered = make(chan struct{}, 1)
	f.backend.scoreGate = make(chan struct{})
	c := f.controller(t, "m1", Dependencies{})

	scorer := roster.Player{ID: "idn-fwd-01", TeamID: "idn-persija", Name: "Gustavo Almeida"}
	if err := c.RecordAction(ctx, Action{Label: "Goal", Type: "goal", Points: 1}, "a", &scorer); err != nil {
		t.Fatalf("record action: %v", err)
	}

	select {
	case <-f.backend.scoreEntered:
	case <-time.After(2 * time.Second):
		t.Fatalf("score write never started")
	}

	view := c.View()
	if len(view.Events) != 1 {
		t.Fatalf("expected the goal once while its score is in flight, got %+v", view.Events)
	}
	if view.Events[0].ID == "pending-1" {
		t.Fatalf("expected the stored event to replace the draft, got %s", view.Events[0].ID)
	}
	if view.Match.ScoreA != 1 {
		t.Fatalf("expected score_a=1 while in flight, got %d", view.Match.ScoreA)
	}
	if len(view.Pending) != 1 || !view.Pending[0].Appended {
		t.Fatalf("expected one appended pending op, got %+v", view.Pending)
	}

	close(f.backend.scoreGate)
	c.Close()

	final := c.View()
	if len(final.Events) != 1 || final.Match.ScoreA != 1 || len(final.Pending) != 0 {
		t.Fatalf("unexpected final view: score=%d events=%d pending=%d",
			final.Match.ScoreA, len(final.Events), len(final.Pending))
	}
}

func TestController_CricketRunsMatchScore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, match.Match{
		ID: "c1", Sport: match.SportCricket, TeamAID: "ind", TeamBID: "aus",
		Status: match.StatusLive,
	})
	c := f.controller(t, "c1", Dependencies{})

	byLabel := map[string]Action{}
	for _, action := range ActionsFor(match.SportCricket) {
		byLabel[action.Label] = action
	}
	batter := roster.Player{ID: "ind-bat-01", TeamID: "ind", Name: "Shubman Gill"}
	for _, label := range []string{"2 runs", "1 run", "Four", "3 runs"} {
		action, ok := byLabel[label]
		if !ok {
			t.Fatalf("cricket palette has no %q button", label)
		}
		if err := c.RecordAction(ctx, action, "a", &batter); err != nil {
			t.Fatalf("record %s: %v", label, err)
		}
	}
	if got := c.View().Match.ScoreA; got != 10 {
		t.Fatalf("expected optimistic score 10, got %d", got)
	}
	c.Close()

	stored, err := f.matches.Get(ctx, "c1")
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	events, err := f.events.List(ctx, "c1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	stats, err := matchstats.Project(match.SportCricket, stored, events)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if stored.ScoreA != 10 || stats.Get("runs", match.SlotA) != stored.ScoreA {
		t.Fatalf("runs_a=%d must equal score_a=%d (want 10)", stats.Get("runs", match.SlotA), stored.ScoreA)
	}
	if stats.Get("fours", match.SlotA) != 1 {
		t.Fatalf("expected one four, got %d", stats.Get("fours", match.SlotA))
	}
}

func TestController_ActionMetadataIsCopied(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t, match.Match{
		ID: "c1", Sport: match.SportCricket, TeamAID: "ind", TeamBID: "aus",
		Status: match.StatusLive,
	})
	c := f.controller(t, "c1", Dependencies{})

	action := Action{Label: "2 runs", Type: "runs", Points: 2, Metadata: map[string]any{"runs": 2}}
	if err := c.RecordAction(ctx, action, "b", nil); err != nil {
		t.Fatalf("record action: %v", err)
	}
	action.Metadata["runs"] = 99
	c.Close()

	events, _ := f.events.List(ctx, "c1")
	if len(events) != 1 {
		t.Fatalf("expected one event, got %d", len(events))
	}
	if runs, ok := events[0].IntMetadata("runs"); !ok || runs != 2 {
		t.Fatalf("unexpected runs metadata: %v", events[0].Metadata)
	}
	if delta, ok := events[0].IntMetadata("scoreDelta"); !ok || delta != 2 {
		t.Fatalf("unexpected scoreDelta metadata: %v", events[0].Metadata)
	}
}
