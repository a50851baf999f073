package match

import (
	"errors"
	"maps"
	"strings"
	"time"
)

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusLive      Status = "live"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

type Slot string

const (
	SlotA Slot = "a"
	SlotB Slot = "b"
)

const ClockFullTime = "FT"

const (
	SportFootball   = "football"
	SportBasketball = "basketball"
	SportCricket    = "cricket"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrCompleted         = errors.New("match is completed")
	ErrInvalidSide       = errors.New("invalid team side")
	ErrNegativeScore     = errors.New("score cannot decrease")
	// ErrVersionConflict is returned by Repository.Update when the stored version moved on.
	ErrVersionConflict = errors.New("match version conflict")
)

// Match is the live summary of one fixture.
type Match struct {
	ID                string
	TournamentID      string
	Sport             string
	TeamAID           string
	TeamBID           string
	ScoreA            int
	ScoreB            int
	Status            Status
	GameClock         string
	WinnerID          string
	NextMatchID       string
	NextMatchSlot     Slot
	ManualStats       map[string]int
	BracketPropagated bool
	Version           int64
	UpdatedAt         time.Time
}

var transitions = map[Status]map[Status]struct{}{
	StatusScheduled: {StatusLive: {}},
	StatusLive:      {StatusPaused: {}, StatusCompleted: {}},
	StatusPaused:    {StatusLive: {}, StatusCompleted: {}},
}

func NormalizeStatus(value string) Status {
	return Status(strings.ToLower(strings.TrimSpace(value)))
}

func (s Status) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusPaused, StatusCompleted:
		return true
	default:
		return false
	}
}

func CanTransition(from, to Status) bool {
	_, ok := transitions[from][to]
	return ok
}

func ParseSlot(value string) (Slot, error) {
	switch Slot(strings.ToLower(strings.TrimSpace(value))) {
	case SlotA:
		return SlotA, nil
	case SlotB:
		return SlotB, nil
	default:
		return "", ErrInvalidSide
	}
}

func (m Match) Clone() Match {
	out := m
	if m.ManualStats != nil {
		out.ManualStats = maps.Clone(m.ManualStats)
	}
	return out
}

func (m Match) IsCompleted() bool {
	return m.Status == StatusCompleted
}

func (m Match) TeamID(side Slot) string {
	if side == SlotB {
		return m.TeamBID
	}
	return m.TeamAID
}

// SideOf resolves a team id to its slot in this match.
func (m Match) SideOf(teamID string) (Slot, bool) {
	teamID = strings.TrimSpace(teamID)
	switch {
	case teamID == "":
		return "", false
	case teamID == m.TeamAID:
		return SlotA, true
	case teamID == m.TeamBID:
		return SlotB, true
	default:
		return "", false
	}
}

func (m Match) Score(side Slot) int {
	if side == SlotB {
		return m.ScoreB
	}
	return m.ScoreA
}

// ApplyScore adds delta to the side's score. Scores only grow while the match is running.
func (m *Match) ApplyScore(side Slot, delta int) (int, error) {
	if m.IsCompleted() {
		return 0, ErrCompleted
	}
	if side != SlotA && side != SlotB {
		return 0, ErrInvalidSide
	}
	if delta < 0 && (m.Status == StatusLive || m.Status == StatusPaused) {
		return 0, ErrNegativeScore
	}

	next := m.Score(side) + delta
	if next < 0 {
		return 0, ErrNegativeScore
	}
	if side == SlotA {
		m.ScoreA = next
	} else {
		m.ScoreB = next
	}
	return next, nil
}

func (m *Match) Transition(to Status) error {
	if !CanTransition(m.Status, to) {
		return ErrInvalidTransition
	}
	m.Status = to
	return nil
}

// Winner returns the team with the higher score; a draw returns "".
func (m Match) Winner() string {
	switch {
	case m.ScoreA > m.ScoreB:
		return m.TeamAID
	case m.ScoreB > m.ScoreA:
		return m.TeamBID
	default:
		return ""
	}
}

// Finish moves a live or paused match to completed and records the winner.
func (m *Match) Finish() (string, error) {
	if m.IsCompleted() {
		return m.WinnerID, nil
	}
	if err := m.Transition(StatusCompleted); err != nil {
		return "", err
	}
	m.GameClock = ClockFullTime
	m.WinnerID = m.Winner()
	return m.WinnerID, nil
}

// NeedsPropagation reports whether the bracket rule still has a downstream write to do.
func (m Match) NeedsPropagation() bool {
	return m.IsCompleted() &&
		!m.BracketPropagated &&
		m.WinnerID != "" &&
		strings.TrimSpace(m.NextMatchID) != "" &&
		(m.NextMatchSlot == SlotA || m.NextMatchSlot == SlotB)
}

// FillSlot writes a team into one of the two team slots.
func (m *Match) FillSlot(slot Slot, teamID string) error {
	switch slot {
	case SlotA:
		m.TeamAID = teamID
	case SlotB:
		m.TeamBID = teamID
	default:
		return ErrInvalidSide
	}
	return nil
}
