package observability

import (
	"context"
	"errors"
	"fmt"

	"github.com/riskibarqy/matchday-live/internal/config"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

// LiveStats reports open live subscriptions per match.
type LiveStats interface {
	Counts() map[string]int
}

// LiveStatsFunc adapts a plain function to LiveStats.
type LiveStatsFunc func() map[string]int

func (f LiveStatsFunc) Counts() map[string]int { return f() }

type stopFunc struct {
	name string
	fn   func(context.Context) error
}

// Runtime owns the telemetry started for one process. Shutdown stops it in reverse order.
type Runtime struct {
	logger *logging.Logger
	stops  []stopFunc
}

// Start brings up tracing and continuous profiling as configured.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger}

	stopTracing, err := initUptrace(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init uptrace: %w", err)
	}
	rt.push("uptrace", stopTracing)

	stopProfiling, err := initPyroscope(cfg, logger)
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("init pyroscope: %w", err)
	}
	rt.push("pyroscope", stopProfiling)

	return rt, nil
}

// ServeDebug starts the debug listener (pprof plus live subscriber counts) when enabled.
func (r *Runtime) ServeDebug(cfg config.Config, live LiveStats) error {
	srv, err := startDebugServer(cfg, r.logger, live)
	if err != nil {
		return err
	}
	if srv != nil {
		r.push("debug server", srv.Shutdown)
	}
	return nil
}

func (r *Runtime) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(r.stops) - 1; i >= 0; i-- {
		stop := r.stops[i]
		if err := stop.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop %s: %w", stop.name, err))
		}
	}
	r.stops = nil
	return errors.Join(errs...)
}

func (r *Runtime) push(name string, fn func(context.Context) error) {
	r.stops = append(r.stops, stopFunc{name: name, fn: fn})
}
