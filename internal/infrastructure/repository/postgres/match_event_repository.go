package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	qb "github.com/riskibarqy/matchday-live/internal/platform/querybuilder"
)

type MatchEventRepository struct {
	db *sqlx.DB
}

func NewMatchEventRepository(db *sqlx.DB) *MatchEventRepository {
	return &MatchEventRepository{db: db}
}

// Append inserts the event; the row id becomes its Seq.
func (r *MatchEventRepository) Append(ctx context.Context, item matchevent.Event) (matchevent.Event, error) {
	metadata := "{}"
	if len(item.Metadata) > 0 {
		encoded, err := sonic.MarshalString(item.Metadata)
		if err != nil {
			return matchevent.Event{}, fmt.Errorf("encode event metadata: %w", err)
		}
		metadata = encoded
	}

	query, args, err := qb.InsertModel("match_events", matchEventInsertModel{
		PublicID:   item.ID,
		MatchID:    item.MatchID,
		TeamID:     nullableString(item.TeamID),
		PlayerID:   nullableString(item.PlayerID),
		PlayerName: nullableString(item.PlayerName),
		Type:       item.Type,
		Message:    item.Message,
		Timestamp:  item.Timestamp,
		Metadata:   metadata,
		CreatedAt:  item.CreatedAt,
	}, "RETURNING id, created_at")
	if err != nil {
		return matchevent.Event{}, fmt.Errorf("build insert match event query: %w", err)
	}

	var stamp struct {
		ID        int64     `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := r.db.GetContext(ctx, &stamp, query, args...); err != nil {
		if isUniqueViolation(err) {
			return matchevent.Event{}, fmt.Errorf("insert match event %s: duplicate id: %w", item.ID, err)
		}
		return matchevent.Event{}, fmt.Errorf("insert match event: %w", err)
	}

	out := item.Clone()
	out.Seq = stamp.ID
	out.CreatedAt = stamp.CreatedAt
	return out, nil
}

func (r *MatchEventRepository) ListByMatch(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	query, args, err := qb.Select(matchEventColumns...).From("match_events").
		Where(qb.Eq("match_public_id", matchID)).
		OrderBy("id DESC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select match events query: %w", err)
	}

	var rows []matchEventTableModel
	err = retryStatementReset(func() error {
		return r.db.SelectContext(ctx, &rows, query, args...)
	})
	if err != nil {
		return nil, fmt.Errorf("select match events: %w", err)
	}

	out := make([]matchevent.Event, 0, len(rows))
	for _, row := range rows {
		item := matchevent.Event{
			ID:         row.PublicID,
			Seq:        row.ID,
			MatchID:    row.MatchID,
			TeamID:     nullStringValue(row.TeamID),
			PlayerID:   nullStringValue(row.PlayerID),
			PlayerName: nullStringValue(row.PlayerName),
			Type:       row.Type,
			Message:    row.Message,
			Timestamp:  row.Timestamp,
			CreatedAt:  row.CreatedAt,
		}
		if len(row.Metadata) > 0 && string(row.Metadata) != "{}" {
			if err := sonic.Unmarshal(row.Metadata, &item.Metadata); err != nil {
				return nil, fmt.Errorf("decode metadata of event %s: %w", row.PublicID, err)
			}
		}
		out = append(out, item)
	}
	return out, nil
}
