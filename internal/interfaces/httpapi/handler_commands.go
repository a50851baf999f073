package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

func (h *Handler) AppendMatchEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.AppendMatchEvent")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req appendEventRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.eventService.Append(ctx, matchID, usecase.AppendEventInput{
		TeamID:     req.TeamID,
		PlayerID:   req.PlayerID,
		PlayerName: req.PlayerName,
		Type:       req.Type,
		Message:    req.Message,
		Timestamp:  req.Timestamp,
		Metadata:   req.Metadata,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "append match event failed", "match_id", matchID, "operator_id", operatorID(ctx), "type", req.Type, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, livesync.EventToPayload(item))
}

func (h *Handler) UpdateMatchScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.UpdateMatchScore")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req updateScoreRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	score, err := h.matchService.UpdateScore(ctx, matchID, req.Side, req.Delta)
	if err != nil {
		h.logger.WarnContext(ctx, "update score failed", "match_id", matchID, "operator_id", operatorID(ctx), "side", req.Side, "delta", req.Delta, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, scoreDTO{
		MatchID: matchID,
		Side:    strings.ToLower(req.Side),
		Score:   score,
	})
}

func (h *Handler) SetMatchClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.SetMatchClock")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req setClockRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.SetClock(ctx, matchID, req.Clock)
	if err != nil {
		h.logger.WarnContext(ctx, "set clock failed", "match_id", matchID, "operator_id", operatorID(ctx), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, livesync.MatchToPayload(item))
}

func (h *Handler) SetMatchStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.SetMatchStatus")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req setStatusRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.SetStatus(ctx, matchID, req.Status)
	if err != nil {
		h.logger.WarnContext(ctx, "set status failed", "match_id", matchID, "operator_id", operatorID(ctx), "status", req.Status, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, livesync.MatchToPayload(item))
}

func (h *Handler) SetMatchManualStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.SetMatchManualStats")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	var req setManualStatsRequest
	if err := h.decodeRequest(ctx, w, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.matchService.SetManualStats(ctx, matchID, req.Values)
	if err != nil {
		h.logger.WarnContext(ctx, "set manual stats failed", "match_id", matchID, "operator_id", operatorID(ctx), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, livesync.MatchToPayload(item))
}

func (h *Handler) CompleteMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.CompleteMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	winnerID, err := h.matchService.Complete(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "complete match failed", "match_id", matchID, "operator_id", operatorID(ctx), "error", err)
		writeError(ctx, w, err)
		return
	}

	h.logger.InfoContext(ctx, "match completed", "match_id", matchID, "winner_id", winnerID, "operator_id", operatorID(ctx))
	writeSuccess(ctx, w, http.StatusOK, completeDTO{
		MatchID:  matchID,
		WinnerID: winnerID,
		Draw:     winnerID == "",
	})
}
