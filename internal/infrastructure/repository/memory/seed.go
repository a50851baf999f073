package memory

import (
	"time"

	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
)

const (
	TournamentIDPiala   = "piala-presiden-2026"
	TournamentIDHoops   = "ibl-cup-2026"
	TournamentIDCricket = "jakarta-t20-2026"
)

// SeedMatches returns a small football bracket (two semi finals feeding a final) plus one
// basketball and one cricket fixture.
func SeedMatches() []match.Match {
	kickoff := time.Date(2026, 3, 1, 19, 0, 0, 0, time.UTC)
	return []match.Match{
		{
			ID: "pp-sf-1", TournamentID: TournamentIDPiala, Sport: match.SportFootball,
			TeamAID: "idn-persija", TeamBID: "idn-persib",
			Status: match.StatusScheduled, GameClock: "00:00",
			NextMatchID: "pp-final", NextMatchSlot: match.SlotA, UpdatedAt: kickoff,
		},
		{
			ID: "pp-sf-2", TournamentID: TournamentIDPiala, Sport: match.SportFootball,
			TeamAID: "idn-persebaya", TeamBID: "idn-baliutd",
			Status: match.StatusScheduled, GameClock: "00:00",
			NextMatchID: "pp-final", NextMatchSlot: match.SlotB, UpdatedAt: kickoff,
		},
		{
			ID: "pp-final", TournamentID: TournamentIDPiala, Sport: match.SportFootball,
			Status: match.StatusScheduled, GameClock: "00:00", UpdatedAt: kickoff,
		},
		{
			ID: "ibl-g1", TournamentID: TournamentIDHoops, Sport: match.SportBasketball,
			TeamAID: "idn-pelita-jaya", TeamBID: "idn-satria-muda",
			Status: match.StatusScheduled, GameClock: "10:00", UpdatedAt: kickoff,
		},
		{
			ID: "jkt-t20-1", TournamentID: TournamentIDCricket, Sport: match.SportCricket,
			TeamAID: "jkt-tigers", TeamBID: "jkt-lions",
			Status: match.StatusScheduled, GameClock: "0.0", UpdatedAt: kickoff,
		},
	}
}

func SeedRoster() []roster.Player {
	return []roster.Player{
		{ID: "idn-gk-01", TeamID: "idn-persija", Name: "Andritany Ardhiyasa", Number: 26, Position: "GK"},
		{ID: "idn-def-01", TeamID: "idn-persija", Name: "Hansamu Yama", Number: 4, Position: "DEF"},
		{ID: "idn-mid-01", TeamID: "idn-persija", Name: "Maciej Gajos", Number: 10, Position: "MID"},
		{ID: "idn-fwd-01", TeamID: "idn-persija", Name: "Gustavo Almeida", Number: 9, Position: "FWD"},
		{ID: "idn-gk-02", TeamID: "idn-persib", Name: "Teja Paku Alam", Number: 14, Position: "GK"},
		{ID: "idn-def-02", TeamID: "idn-persib", Name: "Nick Kuipers", Number: 2, Position: "DEF"},
		{ID: "idn-mid-02", TeamID: "idn-persib", Name: "Marc Klok", Number: 23, Position: "MID"},
		{ID: "idn-fwd-02", TeamID: "idn-persib", Name: "David da Silva", Number: 19, Position: "FWD"},
		{ID: "idn-def-03", TeamID: "idn-persebaya", Name: "Dusan Stevanovic", Number: 5, Position: "DEF"},
		{ID: "idn-mid-03", TeamID: "idn-persebaya", Name: "Bruno Moreira", Number: 7, Position: "MID"},
		{ID: "idn-def-04", TeamID: "idn-baliutd", Name: "Ricky Fajrin", Number: 24, Position: "DEF"},
		{ID: "idn-mid-04", TeamID: "idn-baliutd", Name: "Eber Bessa", Number: 8, Position: "MID"},
		{ID: "ibl-pj-01", TeamID: "idn-pelita-jaya", Name: "Andakara Prastawa", Number: 1, Position: "G"},
		{ID: "ibl-sm-01", TeamID: "idn-satria-muda", Name: "Arki Wisnu", Number: 11, Position: "F"},
		{ID: "t20-tg-01", TeamID: "jkt-tigers", Name: "Padmakar Surve", Number: 18, Position: "BAT"},
		{ID: "t20-ln-01", TeamID: "jkt-lions", Name: "Dhanush Bheemaiah", Number: 7, Position: "BOWL"},
	}
}
