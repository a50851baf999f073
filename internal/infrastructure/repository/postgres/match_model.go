package postgres

import (
	"database/sql"
	"time"

	qb "github.com/riskibarqy/matchday-live/internal/platform/querybuilder"
)

var (
	matchColumns        = qb.MustColumns(matchTableModel{})
	matchEventColumns   = qb.MustColumns(matchEventTableModel{})
	rosterPlayerColumns = qb.MustColumns(rosterPlayerTableModel{})
)

type matchTableModel struct {
	ID                int64          `db:"id,readonly"`
	PublicID          string         `db:"public_id"`
	TournamentID      string         `db:"tournament_public_id"`
	Sport             string         `db:"sport"`
	TeamAID           sql.NullString `db:"team_a_public_id"`
	TeamBID           sql.NullString `db:"team_b_public_id"`
	ScoreA            int            `db:"score_a"`
	ScoreB            int            `db:"score_b"`
	Status            string         `db:"status"`
	GameClock         string         `db:"game_clock"`
	WinnerID          sql.NullString `db:"winner_team_public_id"`
	NextMatchID       sql.NullString `db:"next_match_public_id"`
	NextMatchSlot     sql.NullString `db:"next_match_slot"`
	ManualStats       []byte         `db:"manual_stats"`
	BracketPropagated bool           `db:"bracket_propagated"`
	Version           int64          `db:"version"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

type matchEventTableModel struct {
	ID         int64          `db:"id,readonly"`
	PublicID   string         `db:"public_id"`
	MatchID    string         `db:"match_public_id"`
	TeamID     sql.NullString `db:"team_public_id"`
	PlayerID   sql.NullString `db:"player_public_id"`
	PlayerName sql.NullString `db:"player_name"`
	Type       string         `db:"event_type"`
	Message    string         `db:"message"`
	Timestamp  string         `db:"game_timestamp"`
	Metadata   []byte         `db:"metadata"`
	CreatedAt  time.Time      `db:"created_at"`
}

// matchEventInsertModel feeds querybuilder.InsertModel; jsonb goes over the wire as text.
type matchEventInsertModel struct {
	PublicID   string    `db:"public_id"`
	MatchID    string    `db:"match_public_id"`
	TeamID     *string   `db:"team_public_id"`
	PlayerID   *string   `db:"player_public_id"`
	PlayerName *string   `db:"player_name"`
	Type       string    `db:"event_type"`
	Message    string    `db:"message"`
	Timestamp  string    `db:"game_timestamp"`
	Metadata   string    `db:"metadata"`
	CreatedAt  time.Time `db:"created_at"`
}

type rosterPlayerTableModel struct {
	ID       int64  `db:"id,readonly"`
	PublicID string `db:"public_id"`
	TeamID   string `db:"team_public_id"`
	Name     string `db:"name"`
	Number   int    `db:"shirt_number"`
	Position string `db:"position"`
}
