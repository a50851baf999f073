package livesync

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

const defaultSubscriberBuffer = 64

// Hub is the in-process fan-out. Each subscription owns a bounded queue drained by a single
// goroutine, so handlers of one subscription see notifications in publish order. A subscriber
// that falls a full queue behind is disconnected and must resync.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
	logger *logging.Logger
	closed bool
}

func NewHub(buffer int, logger *logging.Logger) *Hub {
	if buffer < 1 {
		buffer = defaultSubscriberBuffer
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
		logger: logger.Named("livesync.hub"),
	}
}

type Subscription struct {
	hub      *Hub
	matchID  string
	handlers Handlers
	queue    chan Notification
	done     chan struct{}
	once     sync.Once
}

func (h *Hub) Subscribe(matchID string, handlers Handlers) *Subscription {
	sub := &Subscription{
		hub:      h,
		matchID:  strings.TrimSpace(matchID),
		handlers: handlers,
		queue:    make(chan Notification, h.buffer),
		done:     make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sub.close()
		return sub
	}
	set, ok := h.subs[sub.matchID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sub.matchID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	go sub.drain(h.logger)
	return sub
}

// Open implements Channel for in-process viewers.
func (h *Hub) Open(_ context.Context, matchID string, handlers Handlers) (Handle, error) {
	return h.Subscribe(matchID, handlers), nil
}

// Publish never blocks on a subscriber and never fails.
func (h *Hub) Publish(ctx context.Context, n Notification) error {
	matchID := strings.TrimSpace(n.MatchID)
	if matchID == "" {
		return nil
	}

	var slow []*Subscription
	h.mu.Lock()
	for sub := range h.subs[matchID] {
		select {
		case sub.queue <- n:
		default:
			slow = append(slow, sub)
		}
	}
	for _, sub := range slow {
		h.removeLocked(sub)
	}
	h.mu.Unlock()

	for _, sub := range slow {
		h.logger.WarnContext(ctx, "dropping slow live subscriber", "match_id", matchID, "buffer", h.buffer)
		sub.close()
	}
	return nil
}

// ResyncAll tells every open feed to re-fetch; used after an upstream gap (listener reconnect,
// broker restart) where individual notifications may have been lost.
func (h *Hub) ResyncAll(ctx context.Context) {
	h.mu.Lock()
	matchIDs := make([]string, 0, len(h.subs))
	for matchID := range h.subs {
		matchIDs = append(matchIDs, matchID)
	}
	h.mu.Unlock()

	now := time.Now().UTC()
	for _, matchID := range matchIDs {
		_ = h.Publish(ctx, Resync(matchID, now))
	}
}

func (h *Hub) Subscribers(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[strings.TrimSpace(matchID)])
}

// Counts returns open subscriptions per match.
func (h *Hub) Counts() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make(map[string]int, len(h.subs))
	for matchID, set := range h.subs {
		out[matchID] = len(set)
	}
	return out
}

// Close disconnects every subscriber; later subscriptions are closed immediately.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*Subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.subs = make(map[string]map[*Subscription]struct{})
	h.mu.Unlock()

	for _, sub := range all {
		sub.close()
	}
}

func (h *Hub) removeLocked(sub *Subscription) {
	set, ok := h.subs[sub.matchID]
	if !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.matchID)
	}
}

func (s *Subscription) MatchID() string {
	return s.matchID
}

func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Unsubscribe is safe to call any number of times, including after a disconnect.
func (s *Subscription) Unsubscribe() {
	s.hub.mu.Lock()
	s.hub.removeLocked(s)
	s.hub.mu.Unlock()
	s.close()
}

func (s *Subscription) close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Subscription) drain(logger *logging.Logger) {
	for {
		select {
		case <-s.done:
			return
		case n := <-s.queue:
			s.deliver(logger, n)
		}
	}
}

func (s *Subscription) deliver(logger *logging.Logger, n Notification) {
	defer func() {
		if recovered := recover(); recovered != nil {
			logger.Error("live subscriber handler panicked", "match_id", s.matchID, "kind", string(n.Kind), "panic", recovered)
		}
	}()
	select {
	case <-s.done:
		return
	default:
	}
	s.handlers.Dispatch(n)
}
