package httpapi

import (
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/valyala/bytebufferpool"
)

const (
	liveWriteWait      = 10 * time.Second
	livePongWait       = 60 * time.Second
	livePingPeriod     = (livePongWait * 9) / 10
	liveMaxMessageSize = 512
	liveSendBuffer     = 32
)

type liveUpgrader struct {
	websocket.Upgrader
}

func newLiveUpgrader(allowedOrigins []string) liveUpgrader {
	policy := newOriginPolicy(allowedOrigins)
	return liveUpgrader{websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     policy.allowsWebsocket,
	}}
}

// StreamMatch upgrades to a websocket carrying the match feed as JSON frames. The hub
// subscription is taken before the upgrade completes, so nothing committed after the
// handshake is missed. A viewer that cannot keep up is disconnected and resyncs on reconnect.
func (h *Handler) StreamMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startRouteSpan(r, "httpapi.Handler.StreamMatch")
	defer span.End()

	matchID := strings.TrimSpace(r.PathValue("matchID"))
	if _, err := h.matchService.Get(ctx, matchID); err != nil {
		writeError(ctx, w, err)
		return
	}

	send := make(chan livesync.Notification, liveSendBuffer)
	overflow := make(chan struct{})
	var overflowed bool
	sub := h.live.Subscribe(matchID, livesync.Handlers{
		OnAny: func(n livesync.Notification) {
			if overflowed {
				return
			}
			select {
			case send <- n:
			default:
				overflowed = true
				close(overflow)
			}
		},
	})
	defer sub.Unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		h.logger.WarnContext(ctx, "live upgrade failed", "match_id", matchID, "error", err)
		return
	}
	defer conn.Close()

	logger := h.logger.With("match_id", matchID, "client_ip", resolveClientIP(ctx, r))
	logger.DebugContext(ctx, "live viewer connected", "subscribers", h.live.Subscribers(matchID))

	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		conn.SetReadLimit(liveMaxMessageSize)
		_ = conn.SetReadDeadline(time.Now().Add(livePongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(livePongWait))
		})
		for {
			// Viewers only listen; anything they send is discarded.
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-readDone:
			logger.DebugContext(ctx, "live viewer left")
			return
		case <-sub.Done():
			h.closeLive(conn, websocket.CloseTryAgainLater, "feed closed, resync")
			return
		case <-overflow:
			logger.WarnContext(ctx, "live viewer too slow, disconnecting")
			h.closeLive(conn, websocket.CloseTryAgainLater, "too slow, resync")
			return
		case n := <-send:
			if err := writeFrame(conn, n); err != nil {
				logger.DebugContext(ctx, "live write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}

func writeFrame(conn *websocket.Conn, n livesync.Notification) error {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if err := sonic.ConfigDefault.NewEncoder(buf).Encode(livesync.ToFrame(n)); err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
	return conn.WriteMessage(websocket.TextMessage, buf.B)
}

func (h *Handler) closeLive(conn *websocket.Conn, code int, reason string) {
	msg := websocket.FormatCloseMessage(code, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(liveWriteWait))
}
