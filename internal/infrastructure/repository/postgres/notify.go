package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

const (
	DefaultNotifyChannel = "match_changes"

	// NOTIFY rejects payloads of 8000 bytes or more.
	maxNotifyPayload = 7900

	listenerPingInterval = 90 * time.Second
)

// NotifyPublisher sends committed changes through pg_notify so every API instance listening on
// the channel can fan them out to its own viewers.
type NotifyPublisher struct {
	db      *sqlx.DB
	channel string
	logger  *logging.Logger
}

func NewNotifyPublisher(db *sqlx.DB, channel string, logger *logging.Logger) *NotifyPublisher {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &NotifyPublisher{db: db, channel: channel, logger: logger.Named("postgres.notify")}
}

func (p *NotifyPublisher) Publish(ctx context.Context, n livesync.Notification) error {
	payload, err := livesync.EncodeFrame(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if len(payload) > maxNotifyPayload {
		p.logger.WarnContext(ctx, "notification too large for NOTIFY, sending resync",
			"match_id", n.MatchID,
			"kind", string(n.Kind),
			"bytes", len(payload),
		)
		payload, err = livesync.EncodeFrame(livesync.Resync(n.MatchID, n.At))
		if err != nil {
			return fmt.Errorf("encode resync notification: %w", err)
		}
	}

	if _, err := p.db.ExecContext(ctx, "SELECT pg_notify($1, $2)", p.channel, string(payload)); err != nil {
		return fmt.Errorf("pg_notify %s: %w", p.channel, err)
	}
	return nil
}

// LocalFeed is the in-process side a ChangeListener feeds; livesync.Hub satisfies it.
type LocalFeed interface {
	livesync.Publisher
	ResyncAll(ctx context.Context)
}

type ChangeListener struct {
	dsn     string
	channel string
	feed    LocalFeed
	logger  *logging.Logger
}

func NewChangeListener(dsn, channel string, feed LocalFeed, logger *logging.Logger) *ChangeListener {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ChangeListener{
		dsn:     dsn,
		channel: channel,
		feed:    feed,
		logger:  logger.Named("postgres.listener").With("channel", channel),
	}
}

// Run listens until ctx is done. A reconnect of the underlying connection may lose
// notifications, so every open feed is told to resync afterwards.
func (l *ChangeListener) Run(ctx context.Context) error {
	listener := pq.NewListener(l.dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventDisconnected:
			l.logger.Warn("listener disconnected", "error", err)
		case pq.ListenerEventReconnected:
			l.logger.Info("listener reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			l.logger.Warn("listener connection attempt failed", "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.logger.Info("listening for match changes")

	ping := time.NewTicker(listenerPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case notification := <-listener.Notify:
			if notification == nil {
				l.feed.ResyncAll(ctx)
				continue
			}
			l.forward(ctx, notification.Extra)
		case <-ping.C:
			if err := listener.Ping(); err != nil {
				l.logger.Warn("listener ping failed", "error", err)
			}
		}
	}
}

func (l *ChangeListener) forward(ctx context.Context, payload string) {
	n, err := livesync.DecodeFrame([]byte(payload))
	if err != nil {
		l.logger.WarnContext(ctx, "drop malformed notification", "error", err)
		return
	}
	if err := l.feed.Publish(ctx, n); err != nil {
		l.logger.WarnContext(ctx, "forward notification failed", "match_id", n.MatchID, "error", err)
	}
}
