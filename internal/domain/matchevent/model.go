package matchevent

import (
	"maps"
	"time"
)

const (
	TypeSystem = "system"
	TypeGoal   = "goal"
)

// Event is one immutable occurrence inside a match.
type Event struct {
	ID         string
	Seq        int64
	MatchID    string
	TeamID     string
	PlayerID   string
	PlayerName string
	Type       string
	Message    string
	Timestamp  string
	Metadata   map[string]any
	CreatedAt  time.Time
}

func (e Event) Clone() Event {
	out := e
	if e.Metadata != nil {
		out.Metadata = maps.Clone(e.Metadata)
	}
	return out
}

// IntMetadata reads a numeric metadata value. JSON decoding yields float64, hence the switch.
func (e Event) IntMetadata(key string) (int, bool) {
	raw, ok := e.Metadata[key]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case int32:
		return int(v), true
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	default:
		return 0, false
	}
}
