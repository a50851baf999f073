package observability

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/bytedance/sonic"
	"github.com/riskibarqy/matchday-live/internal/config"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

// startDebugServer binds before returning; a taken port is reported to the caller.
func startDebugServer(cfg config.Config, logger *logging.Logger, live LiveStats) (*http.Server, error) {
	if !cfg.PprofEnabled {
		logger.Info("debug server disabled", "reason", "PPROF_ENABLED=false")
		return nil, nil
	}

	ln, err := net.Listen("tcp", cfg.PprofAddr)
	if err != nil {
		return nil, fmt.Errorf("listen debug %s: %w", cfg.PprofAddr, err)
	}

	srv := &http.Server{
		Handler:           debugMux(live),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("debug server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("debug server failed", "error", err)
		}
	}()
	return srv, nil
}

func debugMux(live LiveStats) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	if live != nil {
		mux.Handle("GET /debug/live", liveStatsHandler(live))
	}
	return mux
}

type liveStatsResponse struct {
	Total   int            `json:"total"`
	Matches map[string]int `json:"matches"`
}

func liveStatsHandler(live LiveStats) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		counts := live.Counts()
		resp := liveStatsResponse{Matches: counts}
		for _, n := range counts {
			resp.Total += n
		}

		body, err := sonic.Marshal(resp)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})
}
