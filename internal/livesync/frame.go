package livesync

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
)

// MatchPayload is the JSON shape of a match, shared by REST responses and live frames.
type MatchPayload struct {
	ID                string         `json:"id"`
	TournamentID      string         `json:"tournament_id,omitempty"`
	Sport             string         `json:"sport"`
	TeamAID           string         `json:"team_a_id,omitempty"`
	TeamBID           string         `json:"team_b_id,omitempty"`
	ScoreA            int            `json:"score_a"`
	ScoreB            int            `json:"score_b"`
	Status            string         `json:"status"`
	GameClock         string         `json:"game_clock"`
	WinnerID          string         `json:"winner_id,omitempty"`
	NextMatchID       string         `json:"next_match_id,omitempty"`
	NextMatchSlot     string         `json:"next_match_slot,omitempty"`
	ManualStats       map[string]int `json:"manual_stats,omitempty"`
	BracketPropagated bool           `json:"bracket_propagated"`
	Version           int64          `json:"version"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

type EventPayload struct {
	ID         string         `json:"id"`
	Seq        int64          `json:"seq"`
	MatchID    string         `json:"match_id"`
	TeamID     string         `json:"team_id,omitempty"`
	PlayerID   string         `json:"player_id,omitempty"`
	PlayerName string         `json:"player_name,omitempty"`
	Type       string         `json:"type"`
	Message    string         `json:"message,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Frame struct {
	Kind    string        `json:"kind"`
	MatchID string        `json:"match_id"`
	Match   *MatchPayload `json:"match,omitempty"`
	Event   *EventPayload `json:"event,omitempty"`
	At      time.Time     `json:"at"`
}

func MatchToPayload(m match.Match) MatchPayload {
	return MatchPayload{
		ID:                m.ID,
		TournamentID:      m.TournamentID,
		Sport:             m.Sport,
		TeamAID:           m.TeamAID,
		TeamBID:           m.TeamBID,
		ScoreA:            m.ScoreA,
		ScoreB:            m.ScoreB,
		Status:            string(m.Status),
		GameClock:         m.GameClock,
		WinnerID:          m.WinnerID,
		NextMatchID:       m.NextMatchID,
		NextMatchSlot:     string(m.NextMatchSlot),
		ManualStats:       m.ManualStats,
		BracketPropagated: m.BracketPropagated,
		Version:           m.Version,
		UpdatedAt:         m.UpdatedAt,
	}
}

func (p MatchPayload) ToMatch() match.Match {
	return match.Match{
		ID:                p.ID,
		TournamentID:      p.TournamentID,
		Sport:             p.Sport,
		TeamAID:           p.TeamAID,
		TeamBID:           p.TeamBID,
		ScoreA:            p.ScoreA,
		ScoreB:            p.ScoreB,
		Status:            match.NormalizeStatus(p.Status),
		GameClock:         p.GameClock,
		WinnerID:          p.WinnerID,
		NextMatchID:       p.NextMatchID,
		NextMatchSlot:     match.Slot(p.NextMatchSlot),
		ManualStats:       p.ManualStats,
		BracketPropagated: p.BracketPropagated,
		Version:           p.Version,
		UpdatedAt:         p.UpdatedAt,
	}
}

func EventToPayload(e matchevent.Event) EventPayload {
	return EventPayload{
		ID:         e.ID,
		Seq:        e.Seq,
		MatchID:    e.MatchID,
		TeamID:     e.TeamID,
		PlayerID:   e.PlayerID,
		PlayerName: e.PlayerName,
		Type:       e.Type,
		Message:    e.Message,
		Timestamp:  e.Timestamp,
		Metadata:   e.Metadata,
		CreatedAt:  e.CreatedAt,
	}
}

func (p EventPayload) ToEvent() matchevent.Event {
	return matchevent.Event{
		ID:         p.ID,
		Seq:        p.Seq,
		MatchID:    p.MatchID,
		TeamID:     p.TeamID,
		PlayerID:   p.PlayerID,
		PlayerName: p.PlayerName,
		Type:       p.Type,
		Message:    p.Message,
		Timestamp:  p.Timestamp,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
	}
}

func ToFrame(n Notification) Frame {
	frame := Frame{Kind: string(n.Kind), MatchID: n.MatchID, At: n.At}
	if n.Match != nil {
		payload := MatchToPayload(*n.Match)
		frame.Match = &payload
	}
	if n.Event != nil {
		payload := EventToPayload(*n.Event)
		frame.Event = &payload
	}
	return frame
}

func (f Frame) Notification() Notification {
	n := Notification{Kind: Kind(f.Kind), MatchID: f.MatchID, At: f.At}
	if f.Match != nil {
		m := f.Match.ToMatch()
		n.Match = &m
	}
	if f.Event != nil {
		e := f.Event.ToEvent()
		n.Event = &e
	}
	return n
}

func EncodeFrame(n Notification) ([]byte, error) {
	raw, err := sonic.Marshal(ToFrame(n))
	if err != nil {
		return nil, fmt.Errorf("encode live frame: %w", err)
	}
	return raw, nil
}

func DecodeFrame(raw []byte) (Notification, error) {
	var frame Frame
	if err := sonic.Unmarshal(raw, &frame); err != nil {
		return Notification{}, fmt.Errorf("decode live frame: %w", err)
	}
	if frame.MatchID == "" || frame.Kind == "" {
		return Notification{}, fmt.Errorf("decode live frame: kind and match_id are required")
	}
	return frame.Notification(), nil
}
