package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestOriginPolicy_Websocket(t *testing.T) {
	t.Parallel()

	policy := newOriginPolicy([]string{" https://scoreboard.idn-league.test ", ""})
	tests := []struct {
		name   string
		host   string
		origin string
		want   bool
	}{
		{name: "scorekeeper without origin", host: "api.idn-league.test", want: true},
		{name: "configured scoreboard", host: "api.idn-league.test", origin: "https://scoreboard.idn-league.test", want: true},
		{name: "same host page", host: "api.idn-league.test", origin: "https://api.idn-league.test", want: true},
		{name: "same host other port", host: "api.idn-league.test:8080", origin: "http://api.idn-league.test:8080", want: true},
		{name: "foreign page", host: "api.idn-league.test", origin: "https://fan-site.test", want: false},
		{name: "opaque origin", host: "api.idn-league.test", origin: "null", want: false},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/v1/matches/pp-final/live", nil)
			r.Host = tc.host
			if tc.origin != "" {
				r.Header.Set("Origin", tc.origin)
			}
			if got := policy.allowsWebsocket(r); got != tc.want {
				t.Fatalf("allowsWebsocket(%q on %s) = %v, want %v", tc.origin, tc.host, got, tc.want)
			}
		})
	}

	r := httptest.NewRequest(http.MethodGet, "/v1/matches/pp-final/live", nil)
	r.Header.Set("Origin", "https://fan-site.test")
	if !newOriginPolicy([]string{"*"}).allowsWebsocket(r) {
		t.Fatalf("wildcard policy should accept any origin")
	}
}

func TestCORS_OperatorPreflight(t *testing.T) {
	t.Parallel()

	reached := false
	handler := CORS([]string{"https://console.idn-league.test"}, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		reached = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/v1/matches/pp-final/score", nil)
	req.Header.Set("Origin", "https://console.idn-league.test")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent || reached {
		t.Fatalf("preflight should stop at CORS, got status %d reached=%v", rec.Code, reached)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://console.idn-league.test" {
		t.Fatalf("unexpected Access-Control-Allow-Origin: %q", got)
	}
	if got := rec.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("explicit origins must vary on Origin, got %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Headers"); got != "Authorization,Content-Type,Accept" {
		t.Fatalf("operator bearer token header not allowed: %q", got)
	}
}

func TestCORS_ForeignOriginGetsNoGrant(t *testing.T) {
	t.Parallel()

	handler := CORS([]string{"https://console.idn-league.test"}, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/v1/matches/pp-final", nil)
	req.Header.Set("Origin", "https://fan-site.test")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("public reads still reach the handler, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no Access-Control-Allow-Origin, got %q", got)
	}
}
