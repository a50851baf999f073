package livesync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

func TestHub_DeliversInPublishOrderPerMatch(t *testing.T) {
	t.Parallel()

	hub := NewHub(16, logging.NewNop())
	defer hub.Close()

	var (
		mu   sync.Mutex
		got  []string
		done = make(chan struct{})
	)
	sub := hub.Subscribe("m1", Handlers{
		OnEventInsert: func(e matchevent.Event) {
			mu.Lock()
			got = append(got, e.ID)
			if len(got) == 5 {
				close(done)
			}
			mu.Unlock()
		},
	})
	defer sub.Unsubscribe()

	other := hub.Subscribe("m2", Handlers{
		OnEventInsert: func(e matchevent.Event) {
			t.Errorf("m2 subscriber received %s", e.ID)
		},
	})
	defer other.Unsubscribe()

	for _, id := range []string{"e1", "e2", "e3", "e4", "e5"} {
		_ = hub.Publish(context.Background(), EventInserted(matchevent.Event{ID: id, MatchID: "m1"}, time.Now()))
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for notifications")
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"e1", "e2", "e3", "e4", "e5"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("unexpected order: %v", got)
		}
	}
}

func TestHub_SlowSubscriberIsDisconnected(t *testing.T) {
	t.Parallel()

	hub := NewHub(1, logging.NewNop())
	defer hub.Close()

	release := make(chan struct{})
	defer close(release)
	sub := hub.Subscribe("m1", Handlers{
		OnMatch: func(match.Match) { <-release },
	})

	for i := 0; i < 3; i++ {
		_ = hub.Publish(context.Background(), MatchUpdated(match.Match{ID: "m1", Version: int64(i)}, time.Now()))
	}

	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("expected slow subscriber to be disconnected")
	}
	if n := hub.Subscribers("m1"); n != 0 {
		t.Fatalf("expected no subscribers left, got %d", n)
	}
}

func TestSubscription_UnsubscribeIsIdempotent(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, logging.NewNop())
	sub := hub.Subscribe("m1", Handlers{})
	if hub.Subscribers("m1") != 1 {
		t.Fatalf("expected one subscriber")
	}

	sub.Unsubscribe()
	sub.Unsubscribe()
	hub.Close()
	sub.Unsubscribe()

	select {
	case <-sub.Done():
	default:
		t.Fatalf("expected done to be closed")
	}

	late := hub.Subscribe("m1", Handlers{})
	select {
	case <-late.Done():
	default:
		t.Fatalf("subscription on closed hub should be done")
	}
}

func TestHub_CountsPerMatch(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, logging.NewNop())
	defer hub.Close()

	a1 := hub.Subscribe("m1", Handlers{})
	hub.Subscribe("m1", Handlers{})
	hub.Subscribe("m2", Handlers{})

	counts := hub.Counts()
	if counts["m1"] != 2 || counts["m2"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	a1.Unsubscribe()
	counts["m1"] = 99
	if got := hub.Counts()["m1"]; got != 1 {
		t.Fatalf("expected 1 subscriber on m1 after unsubscribe, got %d", got)
	}
}

func TestHub_ResyncAllReachesEveryFeed(t *testing.T) {
	t.Parallel()

	hub := NewHub(4, logging.NewNop())
	defer hub.Close()

	resynced := make(chan string, 2)
	for _, matchID := range []string{"m1", "m2"} {
		matchID := matchID
		sub := hub.Subscribe(matchID, Handlers{OnResync: func() { resynced <- matchID }})
		defer sub.Unsubscribe()
	}

	hub.ResyncAll(context.Background())

	seen := map[string]bool{}
	for len(seen) < 2 {
		select {
		case matchID := <-resynced:
			seen[matchID] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out, resynced so far: %v", seen)
		}
	}
}

func TestFrame_RoundTripKeepsPayload(t *testing.T) {
	t.Parallel()

	n := EventInserted(matchevent.Event{
		ID: "e1", Seq: 7, MatchID: "m1", TeamID: "t-a", Type: "runs",
		Metadata: map[string]any{"runs": 4},
	}, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	raw, err := EncodeFrame(n)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeFrame(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Kind != KindEventInserted || got.Event == nil || got.Event.Seq != 7 {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if runs, ok := got.Event.IntMetadata("runs"); !ok || runs != 4 {
		t.Fatalf("unexpected runs metadata: %v", got.Event.Metadata)
	}

	if _, err := DecodeFrame([]byte(`{"kind":""}`)); err == nil {
		t.Fatalf("expected error for frame without kind")
	}
}
