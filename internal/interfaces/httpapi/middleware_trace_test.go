package httpapi

import "testing"

func TestShouldTraceRequest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want bool
	}{
		{path: "/healthz", want: false},
		{path: " /readyz ", want: false},
		{path: "/v1/matches/pp-final/live", want: false},
		{path: "/v1/matches/pp-final/live/", want: false},
		{path: "/v1/matches/pp-final", want: true},
		{path: "/v1/matches/pp-final/events", want: true},
		{path: "/v1/stats", want: true},
		{path: "/", want: true},
	}
	for _, tc := range tests {
		if got := shouldTraceRequest(tc.path); got != tc.want {
			t.Fatalf("shouldTraceRequest(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}
