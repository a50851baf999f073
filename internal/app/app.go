package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/matchday-live/internal/config"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/account/anubis"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/account/jwtauth"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/broker"
	cacherepo "github.com/riskibarqy/matchday-live/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/matchday-live/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/matchday-live/internal/interfaces/httpapi"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	basecache "github.com/riskibarqy/matchday-live/internal/platform/cache"
	idgen "github.com/riskibarqy/matchday-live/internal/platform/id"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/riskibarqy/matchday-live/internal/usecase"
	"github.com/sourcegraph/conc/pool"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled API process: the HTTP server plus the background loops that feed the
// local live hub from other instances.
type App struct {
	server  *http.Server
	hub     *livesync.Hub
	runners []func(ctx context.Context) error
	closers []func() error
	logger  *logging.Logger
}

type stores struct {
	matches match.Repository
	events  matchevent.Repository
	roster  roster.Repository
	db      *sqlx.DB
}

func New(cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	a := &App{logger: logger.Named("app")}

	st, err := a.openStores(cfg)
	if err != nil {
		return nil, err
	}

	rosterRepo := st.roster
	if cfg.CacheEnabled {
		rosterRepo = cacherepo.NewRosterRepository(rosterRepo, basecache.NewStore(cfg.CacheTTL))
	}

	a.hub = livesync.NewHub(cfg.LiveSubscriberBuffer, logger)
	publisher, err := a.livePublisher(cfg, st.db, logger)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	matchSvc := usecase.NewMatchService(st.matches, publisher, logger.Named("usecase.match"), cfg.MatchWriteMaxAttempts)
	eventSvc := usecase.NewEventLogService(st.matches, st.events, idgen.NewUUIDGenerator(), publisher, logger.Named("usecase.event_log"))
	statsSvc := usecase.NewStatsService(st.matches, st.events, cfg.StatsWorkers)
	rosterSvc := usecase.NewRosterService(rosterRepo)

	verifier, err := newTokenVerifier(cfg, logger)
	if err != nil {
		a.closeAll()
		return nil, err
	}

	handler := httpapi.NewHandler(matchSvc, eventSvc, statsSvc, rosterSvc, a.hub, cfg.CORSAllowedOrigins, logger)
	router := httpapi.NewRouter(handler, verifier, logger, cfg.SwaggerEnabled, cfg.CORSAllowedOrigins)

	if cfg.HTTPAddr == "" {
		a.closeAll()
		return nil, fmt.Errorf("http server addr cannot be empty")
	}
	a.server = &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	a.logger.Info("app assembled",
		"store_driver", cfg.StoreDriver,
		"live_broker", cfg.LiveBroker,
		"auth_mode", cfg.AuthMode,
		"cache_enabled", cfg.CacheEnabled,
	)
	return a, nil
}

// Handler exposes the router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// LiveStats reports open live subscriptions on this instance.
func (a *App) LiveStats() map[string]int {
	return a.hub.Counts()
}

// Run serves until ctx ends or a component fails, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	p := pool.New().WithErrors().WithContext(ctx).WithCancelOnError()

	p.Go(func(context.Context) error {
		a.logger.Info("http server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	p.Go(func(ctx context.Context) error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Live streams are hijacked, so Shutdown does not wait for them; closing the hub ends them.
		a.hub.Close()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		a.logger.Info("http server stopped")
		return nil
	})
	for _, run := range a.runners {
		p.Go(run)
	}

	err := p.Wait()
	a.closeAll()
	return err
}

func (a *App) openStores(cfg config.Config) (stores, error) {
	if cfg.StoreDriver != config.StorePostgres {
		return stores{
			matches: memory.NewMatchRepository(memory.SeedMatches()),
			events:  memory.NewMatchEventRepository(),
			roster:  memory.NewRosterRepository(memory.SeedRoster()),
		}, nil
	}

	db, err := openTracedDB(cfg.DBURL, cfg.DBDisablePreparedBinary)
	if err != nil {
		return stores{}, err
	}
	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return stores{}, fmt.Errorf("ping postgres: %w", err)
	}
	a.closers = append(a.closers, db.Close)

	if cfg.AppEnv == config.EnvDev {
		seedCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := postgres.BootstrapSeed(seedCtx, db); err != nil {
			a.logger.Warn("bootstrap seed failed", "error", err)
		}
	}

	return stores{
		matches: postgres.NewMatchRepository(db),
		events:  postgres.NewMatchEventRepository(db),
		roster:  postgres.NewRosterRepository(db),
		db:      db,
	}, nil
}

// livePublisher picks the single path committed changes take to viewers. With a shared broker
// the local hub is fed back from it, so every instance delivers the same ordered stream.
func (a *App) livePublisher(cfg config.Config, db *sqlx.DB, logger *logging.Logger) (livesync.Publisher, error) {
	switch cfg.LiveBroker {
	case config.BrokerPostgres:
		if db == nil {
			return nil, fmt.Errorf("LIVE_BROKER=postgres requires the postgres store")
		}
		listener := postgres.NewChangeListener(postgres.DSN(cfg.DBURL, cfg.DBDisablePreparedBinary), cfg.LiveNotifyChannel, a.hub, logger)
		a.runners = append(a.runners, listener.Run)
		return postgres.NewNotifyPublisher(db, cfg.LiveNotifyChannel, logger), nil
	case config.BrokerAMQP:
		brokerCfg := broker.Config{
			URL:      cfg.AMQPURL,
			Exchange: cfg.AMQPExchange,
			Backoff:  resilience.DefaultBackoffConfig(),
		}
		publisher := broker.NewPublisher(brokerCfg, logger)
		a.closers = append(a.closers, publisher.Close)
		a.runners = append(a.runners, broker.NewConsumer(brokerCfg, a.hub, logger).Run)
		return publisher, nil
	default:
		return a.hub, nil
	}
}

func newTokenVerifier(cfg config.Config, logger *logging.Logger) (httpapi.TokenVerifier, error) {
	if cfg.AuthMode == config.AuthJWT {
		verifier, err := jwtauth.NewVerifier(cfg.JWTSecretKey)
		if err != nil {
			return nil, fmt.Errorf("build jwt verifier: %w", err)
		}
		return verifier, nil
	}

	return anubis.NewClient(
		&http.Client{Timeout: cfg.AnubisTimeout},
		cfg.AnubisBaseURL,
		cfg.AnubisIntrospectURL,
		cfg.AnubisAdminKey,
		anubis.CircuitBreakerConfig{
			Enabled:          cfg.AnubisCircuitEnabled,
			FailureThreshold: cfg.AnubisCircuitFailureCount,
			OpenTimeout:      cfg.AnubisCircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.AnubisCircuitHalfOpenMaxReq,
		},
		logger,
	), nil
}

func (a *App) closeAll() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("close dependency failed", "error", err)
		}
	}
	a.closers = nil
}
