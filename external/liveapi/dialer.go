package liveapi

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/gorilla/websocket"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
)

const (
	dialTimeout   = 10 * time.Second
	readWait      = 75 * time.Second
	controlWait   = 5 * time.Second
	maxFrameBytes = 1 << 20
)

// Dialer opens match feeds over the API's websocket endpoint. It satisfies livesync.Channel,
// so a livesync.Follower can run against a remote server exactly as it does against the hub.
type Dialer struct {
	baseURL string
	token   string
	dialer  *websocket.Dialer
	logger  *logging.Logger
}

func NewDialer(baseURL, token string, logger *logging.Logger) *Dialer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Dialer{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   strings.TrimSpace(token),
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: dialTimeout,
		},
		logger: logger.Named("liveapi.dialer"),
	}
}

func (d *Dialer) Open(ctx context.Context, matchID string, handlers livesync.Handlers) (livesync.Handle, error) {
	endpoint, err := liveURL(d.baseURL, matchID)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if d.token != "" {
		header.Set("Authorization", "Bearer "+d.token)
	}

	conn, resp, err := d.dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		if resp != nil {
			defer resp.Body.Close()
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
			return nil, crerr.Wrapf(decodeError(resp.StatusCode, raw), "open live feed %s", matchID)
		}
		return nil, crerr.Wrapf(err, "open live feed %s", matchID)
	}

	feed := &remoteFeed{
		conn:     conn,
		handlers: handlers,
		logger:   d.logger.With("match_id", matchID),
		done:     make(chan struct{}),
	}
	go feed.read()
	return feed, nil
}

type remoteFeed struct {
	conn     *websocket.Conn
	handlers livesync.Handlers
	logger   *logging.Logger
	done     chan struct{}
	once     sync.Once
}

func (f *remoteFeed) Done() <-chan struct{} {
	return f.done
}

func (f *remoteFeed) Unsubscribe() {
	f.once.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = f.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(controlWait))
		_ = f.conn.Close()
	})
}

// read delivers frames in arrival order on a single goroutine. Frames that fail to decode are
// turned into a resync so the follower refetches instead of silently missing a change.
func (f *remoteFeed) read() {
	defer close(f.done)
	defer f.once.Do(func() { _ = f.conn.Close() })

	f.conn.SetReadLimit(maxFrameBytes)
	_ = f.conn.SetReadDeadline(time.Now().Add(readWait))
	f.conn.SetPingHandler(func(data string) error {
		_ = f.conn.SetReadDeadline(time.Now().Add(readWait))
		err := f.conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(controlWait))
		if crerr.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, raw, err := f.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseTryAgainLater) {
				f.logger.Info("live feed closed by server", "error", err)
			} else if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				f.logger.Debug("live feed read ended", "error", err)
			}
			return
		}
		_ = f.conn.SetReadDeadline(time.Now().Add(readWait))

		n, err := livesync.DecodeFrame(raw)
		if err != nil {
			f.logger.Warn("dropping undecodable live frame", "error", err)
			f.handlers.Dispatch(livesync.Resync("", time.Now().UTC()))
			continue
		}
		f.handlers.Dispatch(n)
	}
}

func liveURL(baseURL, matchID string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", crerr.Wrapf(err, "parse base url %q", baseURL)
	}
	switch parsed.Scheme {
	case "https", "wss":
		parsed.Scheme = "wss"
	case "http", "ws", "":
		parsed.Scheme = "ws"
	default:
		return "", crerr.Newf("unsupported base url scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/v1/matches/" + strings.TrimSpace(matchID) + "/live"
	return parsed.String(), nil
}
