package httpapi

import (
	"context"
	"fmt"
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"github.com/riskibarqy/matchday-live/internal/domain/matchstats"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

const maxRequestBodyBytes = 64 << 10

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrValidation, err)
	}

	return nil
}

// decodeRequest reads a JSON body strictly and validates it.
func (h *Handler) decodeRequest(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := jsoniter.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrValidation, err)
	}
	return h.validateRequest(ctx, dst)
}

type appendEventRequest struct {
	TeamID     string         `json:"team_id" validate:"omitempty,max=64"`
	PlayerID   string         `json:"player_id" validate:"omitempty,max=64"`
	PlayerName string         `json:"player_name" validate:"omitempty,max=120"`
	Type       string         `json:"type" validate:"required,max=64"`
	Message    string         `json:"message" validate:"omitempty,max=500"`
	Timestamp  string         `json:"timestamp" validate:"omitempty,max=16"`
	Metadata   map[string]any `json:"metadata"`
}

type updateScoreRequest struct {
	Side  string `json:"side" validate:"required,oneof=a b A B"`
	Delta int    `json:"delta"`
}

type setClockRequest struct {
	Clock string `json:"clock" validate:"required,max=16"`
}

type setStatusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}

type setManualStatsRequest struct {
	Values map[string]int `json:"values" validate:"required,min=1,dive,keys,required,max=64,endkeys"`
}

type scoreDTO struct {
	MatchID string `json:"match_id"`
	Side    string `json:"side"`
	Score   int    `json:"score"`
}

type completeDTO struct {
	MatchID  string `json:"match_id"`
	WinnerID string `json:"winner_id"`
	Draw     bool   `json:"draw"`
}

type matchStatsDTO struct {
	MatchID string         `json:"match_id"`
	Sport   string         `json:"sport"`
	Keys    []string       `json:"keys"`
	Values  map[string]int `json:"values"`
}

type rosterPlayerDTO struct {
	ID       string `json:"id"`
	TeamID   string `json:"team_id"`
	Name     string `json:"name"`
	Number   int    `json:"number"`
	Position string `json:"position,omitempty"`
	Display  string `json:"display"`
}

func statsToDTO(matchID string, stats matchstats.Stats) matchStatsDTO {
	values := make(map[string]int, len(stats.Values))
	for k, v := range stats.Values {
		values[k] = v
	}
	return matchStatsDTO{
		MatchID: matchID,
		Sport:   stats.Sport,
		Keys:    stats.Keys(),
		Values:  values,
	}
}

func rosterPlayerToDTO(p roster.Player) rosterPlayerDTO {
	return rosterPlayerDTO{
		ID:       p.ID,
		TeamID:   p.TeamID,
		Name:     p.Name,
		Number:   p.Number,
		Position: p.Position,
		Display:  p.DisplayName(),
	}
}
