package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	qb "github.com/riskibarqy/matchday-live/internal/platform/querybuilder"
)

type RosterRepository struct {
	db *sqlx.DB
}

func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

func (r *RosterRepository) ListByTeam(ctx context.Context, teamID string) ([]roster.Player, error) {
	query, args, err := qb.Select(rosterPlayerColumns...).From("roster_players").
		Where(
			qb.Eq("team_public_id", teamID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("shirt_number", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select roster by team query: %w", err)
	}

	var rows []rosterPlayerTableModel
	err = retryStatementReset(func() error {
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("select roster by team: %w", err)
	}

	out := make([]roster.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, roster.Player{
			ID:       row.PublicID,
			TeamID:   row.TeamID,
			Name:     row.Name,
			Number:   row.Number,
			Position: row.Position,
		})
	}
	return out, nil
}
