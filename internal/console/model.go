package console

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

var (
	ErrAttributionRequired = errors.New("player attribution required")
	ErrFinishNotConfirmed  = errors.New("finish not confirmed")
	ErrClosed              = errors.New("console closed")
)

// Action is one scorekeeper button.
type Action struct {
	Label                     string
	Type                      string
	Points                    int
	RequiresPlayerAttribution bool
	// Metadata is copied onto the recorded event, e.g. {"runs": 2} for cricket runs.
	Metadata map[string]any
}

func (a Action) clone() Action {
	a.Metadata = maps.Clone(a.Metadata)
	return a
}

// PendingOp is an action shown locally before the backend confirmed it. Once Appended, its
// event is part of the confirmed feed and only the score delta is still in flight.
type PendingOp struct {
	ID       int64
	Action   Action
	Side     match.Slot
	Event    matchevent.Event
	Appended bool
}

// SyncFailure reports a durable write that failed after the view was already updated.
type SyncFailure struct {
	Op   PendingOp
	Step string
	Err  error
}

func (f SyncFailure) Error() string {
	return fmt.Sprintf("sync %s (%s): %v", f.Op.Action.Label, f.Step, f.Err)
}

func (f SyncFailure) Unwrap() error {
	return f.Err
}

// View is confirmed state with the pending operations layered on top.
type View struct {
	Match   match.Match
	Events  []matchevent.Event
	Pending []PendingOp
	Clock   string
}

// gameClock counts elapsed seconds and renders mm:ss.
type gameClock struct {
	elapsed time.Duration
}

func parseClock(value string) gameClock {
	minutes, seconds, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok {
		return gameClock{}
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 {
		return gameClock{}
	}
	s, err := strconv.Atoi(seconds)
	if err != nil || s < 0 || s > 59 {
		return gameClock{}
	}
	return gameClock{elapsed: time.Duration(m)*time.Minute + time.Duration(s)*time.Second}
}

func (c gameClock) String() string {
	total := int(c.elapsed / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func composeMessage(action Action, teamID, playerName, clock string) string {
	label := strings.TrimSpace(action.Label)
	if label == "" {
		label = action.Type
	}

	var b strings.Builder
	b.WriteString(label)
	switch {
	case playerName != "" && teamID != "":
		fmt.Fprintf(&b, " - %s (%s)", playerName, teamID)
	case playerName != "":
		fmt.Fprintf(&b, " - %s", playerName)
	case teamID != "":
		fmt.Fprintf(&b, " - %s", teamID)
	}
	if clock != "" {
		fmt.Fprintf(&b, " at %s", clock)
	}
	return b.String()
}
