package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/events", handler.ListMatchEvents)
	mux.HandleFunc("GET /v1/matches/{matchID}/stats", handler.GetMatchStats)
	mux.HandleFunc("GET /v1/matches/{matchID}/live", handler.StreamMatch)
	mux.HandleFunc("GET /v1/stats", handler.ListStats)
	mux.HandleFunc("GET /v1/teams/{teamID}/roster", handler.ListTeamRoster)
}

func registerOperatorRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	operator := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, RequireOperator(fn))
	}

	mux.Handle("POST /v1/matches/{matchID}/events", operator(handler.AppendMatchEvent))
	mux.Handle("POST /v1/matches/{matchID}/score", operator(handler.UpdateMatchScore))
	mux.Handle("PUT /v1/matches/{matchID}/clock", operator(handler.SetMatchClock))
	mux.Handle("PUT /v1/matches/{matchID}/status", operator(handler.SetMatchStatus))
	mux.Handle("PUT /v1/matches/{matchID}/manual-stats", operator(handler.SetMatchManualStats))
	mux.Handle("POST /v1/matches/{matchID}/complete", operator(handler.CompleteMatch))
}
