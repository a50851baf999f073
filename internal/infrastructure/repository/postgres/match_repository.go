package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	qb "github.com/riskibarqy/matchday-live/internal/platform/querybuilder"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.Eq("public_id", matchID),
			qb.IsNull("deleted_at"),
		).
		Limit(1).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build select match by id query: %w", err)
	}

	var row matchTableModel
	err = retryStatementReset(func() error {
		return r.db.GetContext(ctx, &row, query, args...)
	})
	if err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("select match by id: %w", err)
	}

	item, err := matchFromRow(row)
	if err != nil {
		return match.Match{}, false, err
	}
	return item, true, nil
}

func (r *MatchRepository) ListByIDs(ctx context.Context, matchIDs []string) ([]match.Match, error) {
	if len(matchIDs) == 0 {
		return nil, nil
	}
	ids := make([]any, 0, len(matchIDs))
	for _, matchID := range matchIDs {
		ids = append(ids, matchID)
	}

	query, args, err := qb.Select(matchColumns...).From("matches").
		Where(
			qb.In("public_id", ids),
			qb.IsNull("deleted_at"),
		).
		OrderBy("id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select matches by ids query: %w", err)
	}

	var rows []matchTableModel
	err = retryStatementReset(func() error {
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("select matches by ids: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		item, err := matchFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Update writes every mutable column when the stored version still equals item.Version.
func (r *MatchRepository) Update(ctx context.Context, item match.Match) (match.Match, error) {
	manualStats, err := sonic.MarshalString(item.ManualStats)
	if err != nil {
		return match.Match{}, fmt.Errorf("encode manual stats: %w", err)
	}
	if item.ManualStats == nil {
		manualStats = "{}"
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	query, args, err := qb.Update("matches").
		Set("team_a_public_id", nullableString(item.TeamAID)).
		Set("team_b_public_id", nullableString(item.TeamBID)).
		Set("score_a", item.ScoreA).
		Set("score_b", item.ScoreB).
		Set("status", string(item.Status)).
		Set("game_clock", item.GameClock).
		Set("winner_team_public_id", nullableString(item.WinnerID)).
		SetExpr("manual_stats", "?::jsonb", manualStats).
		Set("bracket_propagated", item.BracketPropagated).
		SetExpr("version", "version + 1").
		Set("updated_at", updatedAt).
		Where(
			qb.Eq("public_id", item.ID),
			qb.Eq("version", item.Version),
			qb.IsNull("deleted_at"),
		).
		Suffix("RETURNING version, updated_at").
		ToSQL()
	if err != nil {
		return match.Match{}, fmt.Errorf("build update match query: %w", err)
	}

	var stamp struct {
		Version   int64     `db:"version"`
		UpdatedAt time.Time `db:"updated_at"`
	}
	if err := r.db.GetContext(ctx, &stamp, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, match.ErrVersionConflict
		}
		return match.Match{}, fmt.Errorf("update match: %w", err)
	}

	out := item.Clone()
	out.Version = stamp.Version
	out.UpdatedAt = stamp.UpdatedAt
	return out, nil
}

func matchFromRow(row matchTableModel) (match.Match, error) {
	item := match.Match{
		ID:                row.PublicID,
		TournamentID:      row.TournamentID,
		Sport:             row.Sport,
		TeamAID:           nullStringValue(row.TeamAID),
		TeamBID:           nullStringValue(row.TeamBID),
		ScoreA:            row.ScoreA,
		ScoreB:            row.ScoreB,
		Status:            match.NormalizeStatus(row.Status),
		GameClock:         row.GameClock,
		WinnerID:          nullStringValue(row.WinnerID),
		NextMatchID:       nullStringValue(row.NextMatchID),
		NextMatchSlot:     match.Slot(nullStringValue(row.NextMatchSlot)),
		BracketPropagated: row.BracketPropagated,
		Version:           row.Version,
		UpdatedAt:         row.UpdatedAt,
	}
	if len(row.ManualStats) > 0 {
		if err := sonic.Unmarshal(row.ManualStats, &item.ManualStats); err != nil {
			return match.Match{}, fmt.Errorf("decode manual stats of match %s: %w", row.PublicID, err)
		}
	}
	return item, nil
}
