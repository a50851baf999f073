package httpapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

type Handler struct {
	matchService  *usecase.MatchService
	eventService  *usecase.EventLogService
	statsService  *usecase.StatsService
	rosterService *usecase.RosterService
	live          *livesync.Hub
	upgrader      liveUpgrader
	logger        *logging.Logger
	validator     *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	eventService *usecase.EventLogService,
	statsService *usecase.StatsService,
	rosterService *usecase.RosterService,
	live *livesync.Hub,
	allowedOrigins []string,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		matchService:  matchService,
		eventService:  eventService,
		statsService:  statsService,
		rosterService: rosterService,
		live:          live,
		upgrader:      newLiveUpgrader(allowedOrigins),
		logger:        logger.Named("httpapi"),
		validator:     validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.GetMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	item, err := h.matchService.Get(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "get match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, livesync.MatchToPayload(item))
}

func (h *Handler) ListMatchEvents(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.ListMatchEvents")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	events, err := h.eventService.List(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "list match events failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]livesync.EventPayload, 0, len(events))
	for _, item := range events {
		items = append(items, livesync.EventToPayload(item))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) GetMatchStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.GetMatchStats")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	stats, err := h.statsService.Project(ctx, matchID)
	if err != nil {
		h.logger.WarnContext(ctx, "project match stats failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statsToDTO(matchID, stats))
}

// ListStats projects several matches at once: GET /v1/stats?match_id=a&match_id=b.
func (h *Handler) ListStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.ListStats")
	defer span.End()

	matchIDs := r.URL.Query()["match_id"]
	if raw := r.URL.Query().Get("match_ids"); raw != "" {
		matchIDs = append(matchIDs, strings.Split(raw, ",")...)
	}

	results, err := h.statsService.ProjectMany(ctx, matchIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "project stats batch failed", "count", len(matchIDs), "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]matchStatsDTO, 0, len(results))
	for _, item := range results {
		items = append(items, statsToDTO(item.MatchID, item.Stats))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}

func (h *Handler) ListTeamRoster(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.ListTeamRoster")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	players, err := h.rosterService.ListByTeam(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "list roster failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]rosterPlayerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, rosterPlayerToDTO(p))
	}
	writeSuccess(ctx, w, http.StatusOK, items)
}
