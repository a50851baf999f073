package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

func TestMatchFromRow(t *testing.T) {
	t.Parallel()

	row := matchTableModel{
		PublicID:      "pp-sf-1",
		TournamentID:  "piala-presiden",
		Sport:         "football",
		TeamAID:       sql.NullString{String: "persija", Valid: true},
		ScoreA:        2,
		Status:        "LIVE",
		GameClock:     "63:10",
		NextMatchID:   sql.NullString{String: "pp-final", Valid: true},
		NextMatchSlot: sql.NullString{String: "a", Valid: true},
		ManualStats:   []byte(`{"possession_a":55,"possession_b":45}`),
		Version:       7,
	}

	got, err := matchFromRow(row)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != match.StatusLive {
		t.Fatalf("unexpected status: %s", got.Status)
	}
	if got.TeamBID != "" || got.TeamAID != "persija" {
		t.Fatalf("unexpected teams: %q %q", got.TeamAID, got.TeamBID)
	}
	if got.NextMatchSlot != match.SlotA || got.Version != 7 {
		t.Fatalf("unexpected bracket pointer or version: %+v", got)
	}
	if got.ManualStats["possession_a"] != 55 {
		t.Fatalf("unexpected manual stats: %v", got.ManualStats)
	}
}

func TestMatchFromRow_RejectsBrokenManualStats(t *testing.T) {
	t.Parallel()

	_, err := matchFromRow(matchTableModel{PublicID: "m1", ManualStats: []byte(`{"possession_a":`)})
	if err == nil {
		t.Fatalf("expected decode error")
	}
}

type recordingFeed struct {
	published []livesync.Notification
	resyncs   int
}

func (f *recordingFeed) Publish(_ context.Context, n livesync.Notification) error {
	f.published = append(f.published, n)
	return nil
}

func (f *recordingFeed) ResyncAll(context.Context) {
	f.resyncs++
}

func TestChangeListener_ForwardDecodesFrames(t *testing.T) {
	t.Parallel()

	feed := &recordingFeed{}
	listener := NewChangeListener("", "", feed, logging.NewNop())

	payload, err := livesync.EncodeFrame(livesync.MatchUpdated(match.Match{ID: "m1", ScoreA: 1, Version: 3}, time.Now()))
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	listener.forward(context.Background(), string(payload))
	listener.forward(context.Background(), "not json")

	if len(feed.published) != 1 {
		t.Fatalf("expected exactly one forwarded notification, got %d", len(feed.published))
	}
	got := feed.published[0]
	if got.Kind != livesync.KindMatchUpdated || got.Match == nil || got.Match.ScoreA != 1 {
		t.Fatalf("unexpected notification: %+v", got)
	}
}
