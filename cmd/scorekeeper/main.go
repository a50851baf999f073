package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/riskibarqy/matchday-live/external/liveapi"
	"github.com/riskibarqy/matchday-live/internal/config"
	"github.com/riskibarqy/matchday-live/internal/console"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/sourcegraph/conc"
)

var errUsage = errors.New("usage: scorekeeper <match-id>")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errUsage
	}
	matchID := strings.TrimSpace(args[0])

	cfg, err := config.LoadScorekeeper()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := logging.NewConsole(os.Stderr, cfg.LogLevel).Named("scorekeeper").With("match_id", matchID)
	defer func() { _ = logger.Sync() }()

	client := liveapi.NewClient(liveapi.ClientConfig{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Logger:  logger,
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          cfg.CircuitEnabled,
			FailureThreshold: cfg.CircuitFailureCount,
			OpenTimeout:      cfg.CircuitOpenTimeout,
			HalfOpenMaxReq:   cfg.CircuitHalfOpenMaxReq,
		},
	})
	dialer := liveapi.NewDialer(cfg.APIURL, cfg.Token, logger)

	term := newTerminal(in, out)
	ctrl := console.NewController(matchID, console.Dependencies{
		Backend:   client,
		Roster:    client,
		Prompter:  term,
		Confirmer: term,
		Notifier:  term,
	}, console.Options{
		CheckpointEvery: cfg.ClockCheckpointInterval,
		WriteTimeout:    cfg.Timeout,
		Logger:          logger,
	})
	defer ctrl.Close()

	loadCtx, cancelLoad := context.WithTimeout(ctx, cfg.Timeout)
	err = ctrl.Load(loadCtx)
	cancelLoad()
	if err != nil {
		return fmt.Errorf("load match %s: %w", matchID, err)
	}

	follower := livesync.NewFollower(matchID, dialer, client, livesync.FollowerOptions{
		Backoff: resilience.DefaultBackoffConfig(),
		Logger:  logger,
	})

	ctx, cancel := context.WithCancel(ctx)
	var wg conc.WaitGroup
	defer wg.Wait()
	defer cancel()
	wg.Go(func() {
		if err := follower.Run(ctx); err != nil {
			logger.WarnContext(ctx, "live feed stopped", "error", err)
		}
	})

	ctrl.Start(ctx)
	s := &session{ctrl: ctrl, follower: follower, term: term, timeout: cfg.Timeout}
	return s.loop(ctx)
}

// session binds the command loop to one controller.
type session struct {
	ctrl     *console.Controller
	follower *livesync.Follower
	term     *terminal
	timeout  time.Duration
	actions  []console.Action
}

func (s *session) loop(ctx context.Context) error {
	view := s.ctrl.View()
	s.actions = console.ActionsFor(view.Match.Sport)
	s.term.printf("%s%s", renderView(view, 5), renderActions(s.actions))
	s.term.printf("%s", helpText)

	for {
		s.term.printf("> ")
		line, ok := s.term.readLine(ctx)
		if !ok {
			return nil
		}
		if line == "" {
			continue
		}
		cmd, err := parseCommand(line, len(s.actions))
		if err != nil {
			s.term.printf("%v\n", err)
			continue
		}
		if cmd.kind == cmdQuit {
			return nil
		}
		if err := s.exec(ctx, cmd); err != nil {
			s.term.printf("error: %v\n", err)
		}
	}
}

func (s *session) exec(ctx context.Context, cmd command) error {
	switch cmd.kind {
	case cmdRecord:
		return s.ctrl.RecordAction(ctx, s.actions[cmd.action], cmd.side, nil)
	case cmdStart:
		return s.ctrl.StartMatch(ctx)
	case cmdPause:
		return s.ctrl.TogglePause(ctx)
	case cmdFinish:
		winner, err := s.ctrl.Finish(ctx)
		if errors.Is(err, console.ErrFinishNotConfirmed) {
			s.term.printf("finish cancelled\n")
			return nil
		}
		if err != nil {
			return err
		}
		if winner == "" {
			s.term.printf("match drawn\n")
		} else {
			s.term.printf("winner: %s\n", winner)
		}
		return nil
	case cmdView:
		s.term.printf("%s", renderView(s.ctrl.View(), 10))
		return nil
	case cmdStats:
		stats, err := s.follower.Stats()
		if err != nil {
			return fmt.Errorf("live feed: %w", err)
		}
		s.term.printf("%s", renderStats(stats))
		return nil
	case cmdRefresh:
		refreshCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return s.ctrl.Refresh(refreshCtx)
	case cmdHelp:
		s.term.printf("%s%s", renderActions(s.actions), helpText)
		return nil
	default:
		return fmt.Errorf("unsupported command")
	}
}
