package broker

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/streadway/amqp"
)

const (
	DefaultExchange = "matchday.live"

	routingPrefix = "match."
	contentType   = "application/json"
	heartbeat     = 30 * time.Second
	prefetch      = 100
)

type Config struct {
	URL      string
	Exchange string
	Backoff  resilience.BackoffConfig
}

func (c Config) exchange() string {
	if strings.TrimSpace(c.Exchange) == "" {
		return DefaultExchange
	}
	return c.Exchange
}

// RoutingKey is the topic a match's notifications are published under.
func RoutingKey(matchID string) string {
	return routingPrefix + strings.TrimSpace(matchID)
}

func dial(cfg Config) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.DialConfig(cfg.URL, amqp.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial amqp: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open amqp channel: %w", err)
	}

	if err := channel.ExchangeDeclare(
		cfg.exchange(),
		amqp.ExchangeTopic,
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange %s: %w", cfg.exchange(), err)
	}
	return conn, channel, nil
}

// Publisher sends notifications to the topic exchange. The connection is opened lazily and
// reopened on the next publish after a failure.
type Publisher struct {
	cfg    Config
	logger *logging.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(cfg Config, logger *logging.Logger) *Publisher {
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{cfg: cfg, logger: logger.Named("broker.publisher")}
}

func (p *Publisher) Publish(ctx context.Context, n livesync.Notification) error {
	body, err := livesync.EncodeFrame(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.channel == nil {
		conn, channel, err := dial(p.cfg)
		if err != nil {
			return err
		}
		p.conn, p.channel = conn, channel
	}

	err = p.channel.Publish(p.cfg.exchange(), RoutingKey(n.MatchID), false, false, amqp.Publishing{
		ContentType:  contentType,
		DeliveryMode: amqp.Transient,
		Timestamp:    n.At,
		Type:         string(n.Kind),
		Body:         body,
	})
	if err != nil {
		p.resetLocked()
		return fmt.Errorf("publish %s: %w", RoutingKey(n.MatchID), err)
	}
	return nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.conn == nil {
		return nil
	}
	err := p.conn.Close()
	p.conn, p.channel = nil, nil
	return err
}

func (p *Publisher) resetLocked() {
	if p.conn != nil {
		if err := p.conn.Close(); err != nil {
			p.logger.Debug("close broken amqp connection", "error", err)
		}
	}
	p.conn, p.channel = nil, nil
}

// LocalFeed is what a Consumer delivers into; livesync.Hub satisfies it.
type LocalFeed interface {
	livesync.Publisher
	ResyncAll(ctx context.Context)
}

// Consumer binds a private queue to every match topic and forwards frames into the local feed.
// After any reconnect the feed is told to resync since messages published in between are gone.
type Consumer struct {
	cfg     Config
	feed    LocalFeed
	backoff resilience.Backoff
	logger  *logging.Logger
}

func NewConsumer(cfg Config, feed LocalFeed, logger *logging.Logger) *Consumer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Consumer{
		cfg:     cfg,
		feed:    feed,
		backoff: resilience.NewBackoff(cfg.Backoff),
		logger:  logger.Named("broker.consumer"),
	}
}

// Run consumes until ctx is done; it returns an error only when the backoff gives up.
func (c *Consumer) Run(ctx context.Context) error {
	attempt := 0
	connectedOnce := false
	for {
		err := c.consume(ctx, func() {
			if connectedOnce {
				c.feed.ResyncAll(ctx)
			}
			connectedOnce = true
			attempt = 0
		})
		if ctx.Err() != nil {
			return nil
		}
		c.logger.Warn("amqp consumer stopped, reconnecting", "error", err, "attempt", attempt+1)
		if waitErr := c.backoff.Wait(ctx, attempt); waitErr != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("amqp consumer: %w", waitErr)
		}
		attempt++
	}
}

func (c *Consumer) consume(ctx context.Context, onReady func()) error {
	conn, channel, err := dial(c.cfg)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := channel.Qos(prefetch, 0, false); err != nil {
		return fmt.Errorf("set qos: %w", err)
	}
	queue, err := channel.QueueDeclare(
		"",    // server-named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	if err := channel.QueueBind(queue.Name, routingPrefix+"#", c.cfg.exchange(), false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	deliveries, err := channel.Consume(queue.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	c.logger.Info("amqp consumer ready", "queue", queue.Name, "exchange", c.cfg.exchange())
	onReady()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case amqpErr := <-closed:
			if amqpErr == nil {
				return fmt.Errorf("connection closed")
			}
			return amqpErr
		case delivery, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			c.handle(ctx, delivery.Body)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) {
	n, err := livesync.DecodeFrame(body)
	if err != nil {
		c.logger.WarnContext(ctx, "drop malformed live frame", "error", err)
		return
	}
	if err := c.feed.Publish(ctx, n); err != nil {
		c.logger.WarnContext(ctx, "forward live frame failed", "match_id", n.MatchID, "error", err)
	}
}
