package postgres

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/repository/memory"
)

// BootstrapSeed loads the demo bracket and rosters into an empty database. It is a no-op once
// any match exists.
func BootstrapSeed(ctx context.Context, db *sqlx.DB) error {
	var count int
	if err := db.GetContext(ctx, &count, `SELECT COUNT(1) FROM matches WHERE deleted_at IS NULL`); err != nil {
		return fmt.Errorf("count matches for bootstrap seed: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, m := range seedOrder(memory.SeedMatches()) {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO matches (
	public_id, tournament_public_id, sport, team_a_public_id, team_b_public_id,
	status, game_clock, next_match_public_id, next_match_slot, updated_at
)
VALUES (
	:public_id, :tournament_public_id, :sport, :team_a_public_id, :team_b_public_id,
	:status, :game_clock, :next_match_public_id, :next_match_slot, :updated_at
)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":            m.ID,
			"tournament_public_id": m.TournamentID,
			"sport":                m.Sport,
			"team_a_public_id":     nullableString(m.TeamAID),
			"team_b_public_id":     nullableString(m.TeamBID),
			"status":               string(m.Status),
			"game_clock":           m.GameClock,
			"next_match_public_id": nullableString(m.NextMatchID),
			"next_match_slot":      nullableString(string(m.NextMatchSlot)),
			"updated_at":           m.UpdatedAt,
		})
		if err != nil {
			return fmt.Errorf("bind seed match %s query: %w", m.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed match %s: %w", m.ID, err)
		}
	}

	for _, p := range memory.SeedRoster() {
		sqlQuery, args, err := sqlx.Named(`
INSERT INTO roster_players (public_id, team_public_id, name, shirt_number, position)
VALUES (:public_id, :team_public_id, :name, :shirt_number, :position)
ON CONFLICT (public_id) DO NOTHING`, map[string]any{
			"public_id":      p.ID,
			"team_public_id": p.TeamID,
			"name":           p.Name,
			"shirt_number":   p.Number,
			"position":       p.Position,
		})
		if err != nil {
			return fmt.Errorf("bind seed player %s query: %w", p.ID, err)
		}
		sqlQuery = tx.Rebind(sqlQuery)
		if _, err := tx.ExecContext(ctx, sqlQuery, args...); err != nil {
			return fmt.Errorf("seed player %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed tx: %w", err)
	}
	return nil
}

// seedOrder puts downstream matches first so next_match_public_id references resolve.
func seedOrder(items []match.Match) []match.Match {
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b match.Match) int {
		return depth(out, a.ID) - depth(out, b.ID)
	})
	return out
}

func depth(items []match.Match, id string) int {
	n := 0
	for guard := 0; guard < len(items); guard++ {
		idx := slices.IndexFunc(items, func(m match.Match) bool { return m.ID == id })
		if idx < 0 || items[idx].NextMatchID == "" {
			return n
		}
		id = items[idx].NextMatchID
		n++
	}
	return n
}
