package liveapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/matchday-live/internal/console"
	"github.com/riskibarqy/matchday-live/internal/domain/match"
	"github.com/riskibarqy/matchday-live/internal/domain/matchevent"
	"github.com/riskibarqy/matchday-live/internal/domain/roster"
	"github.com/riskibarqy/matchday-live/internal/livesync"
	"github.com/riskibarqy/matchday-live/internal/platform/logging"
	"github.com/riskibarqy/matchday-live/internal/platform/resilience"
	"github.com/riskibarqy/matchday-live/internal/usecase"
)

const maxResponseBytes = 4 << 20

var errLiveAPITransient = crerr.New("matchday api transient failure")

var (
	_ console.Backend       = (*Client)(nil)
	_ console.RosterSource  = (*Client)(nil)
	_ livesync.StateFetcher = (*Client)(nil)
	_ livesync.Channel      = (*Dialer)(nil)
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client talks to the matchday HTTP API. It serves the operator console as its Backend and
// RosterSource, and viewers as a livesync.StateFetcher.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	flight     resilience.Group[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
		logger:     logger.Named("liveapi"),
		breaker:    resilience.NewCircuitBreakerFromConfig(cfg.CircuitBreaker),
	}
}

func (c *Client) GetMatch(ctx context.Context, matchID string) (match.Match, error) {
	var payload livesync.MatchPayload
	if err := c.get(ctx, matchPath(matchID, ""), &payload); err != nil {
		return match.Match{}, err
	}
	return payload.ToMatch(), nil
}

func (c *Client) ListEvents(ctx context.Context, matchID string) ([]matchevent.Event, error) {
	var payload []livesync.EventPayload
	if err := c.get(ctx, matchPath(matchID, "/events"), &payload); err != nil {
		return nil, err
	}
	out := make([]matchevent.Event, 0, len(payload))
	for _, item := range payload {
		out = append(out, item.ToEvent())
	}
	return out, nil
}

func (c *Client) ListByTeam(ctx context.Context, teamID string) ([]roster.Player, error) {
	var payload []struct {
		ID       string `json:"id"`
		TeamID   string `json:"team_id"`
		Name     string `json:"name"`
		Number   int    `json:"number"`
		Position string `json:"position"`
	}
	if err := c.get(ctx, "/v1/teams/"+url.PathEscape(strings.TrimSpace(teamID))+"/roster", &payload); err != nil {
		return nil, err
	}
	out := make([]roster.Player, 0, len(payload))
	for _, p := range payload {
		out = append(out, roster.Player{ID: p.ID, TeamID: p.TeamID, Name: p.Name, Number: p.Number, Position: p.Position})
	}
	return out, nil
}

func (c *Client) AppendEvent(ctx context.Context, draft matchevent.Event) (matchevent.Event, error) {
	body := map[string]any{
		"team_id":     draft.TeamID,
		"player_id":   draft.PlayerID,
		"player_name": draft.PlayerName,
		"type":        draft.Type,
		"message":     draft.Message,
		"timestamp":   draft.Timestamp,
	}
	if len(draft.Metadata) > 0 {
		body["metadata"] = draft.Metadata
	}

	var payload livesync.EventPayload
	if err := c.send(ctx, http.MethodPost, matchPath(draft.MatchID, "/events"), body, &payload); err != nil {
		return matchevent.Event{}, err
	}
	return payload.ToEvent(), nil
}

func (c *Client) UpdateScore(ctx context.Context, matchID string, side match.Slot, delta int) (int, error) {
	var payload struct {
		Score int `json:"score"`
	}
	body := map[string]any{"side": string(side), "delta": delta}
	if err := c.send(ctx, http.MethodPost, matchPath(matchID, "/score"), body, &payload); err != nil {
		return 0, err
	}
	return payload.Score, nil
}

func (c *Client) SetClock(ctx context.Context, matchID, clock string) error {
	return c.send(ctx, http.MethodPut, matchPath(matchID, "/clock"), map[string]any{"clock": clock}, nil)
}

func (c *Client) SetStatus(ctx context.Context, matchID string, status match.Status) (match.Match, error) {
	var payload livesync.MatchPayload
	if err := c.send(ctx, http.MethodPut, matchPath(matchID, "/status"), map[string]any{"status": string(status)}, &payload); err != nil {
		return match.Match{}, err
	}
	return payload.ToMatch(), nil
}

func (c *Client) Complete(ctx context.Context, matchID string) (string, error) {
	var payload struct {
		WinnerID string `json:"winner_id"`
	}
	if err := c.send(ctx, http.MethodPost, matchPath(matchID, "/complete"), nil, &payload); err != nil {
		return "", err
	}
	return payload.WinnerID, nil
}

// get coalesces identical concurrent reads, e.g. a resync racing a console refresh.
func (c *Client) get(ctx context.Context, path string, target any) error {
	raw, err, _ := c.flight.Do(path, func() ([]byte, error) {
		return c.do(ctx, http.MethodGet, path, nil)
	})
	if err != nil {
		return err
	}
	return decodeData(raw, target)
}

func (c *Client) send(ctx context.Context, method, path string, body any, target any) error {
	var encoded []byte
	if body != nil {
		var err error
		encoded, err = sonic.Marshal(body)
		if err != nil {
			return crerr.Wrap(err, "encode request body")
		}
	}
	raw, err := c.do(ctx, method, path, encoded)
	if err != nil {
		return err
	}
	if target == nil {
		return nil
	}
	return decodeData(raw, target)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var raw []byte
	err := c.breaker.Execute(func() error {
		var reqErr error
		raw, reqErr = c.execute(ctx, method, path, body)
		return reqErr
	}, isTransient)
	if err == nil {
		return raw, nil
	}
	if crerr.Is(err, resilience.ErrCircuitOpen) {
		c.logger.WarnContext(ctx, "matchday api circuit open", "method", method, "path", path)
		return nil, crerr.Wrap(usecase.ErrDependencyUnavailable, "matchday api is temporarily unavailable")
	}
	if isTransient(err) {
		c.logger.WarnContext(ctx, "matchday api request failed", "method", method, "path", path, "error", err)
		return nil, crerr.Wrapf(usecase.ErrDependencyUnavailable, "%s %s: %v", method, path, err)
	}
	return nil, err
}

func (c *Client) execute(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, crerr.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "send request"), errLiveAPITransient)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read response body"), errLiveAPITransient)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return raw, nil
	}
	return nil, decodeError(resp.StatusCode, raw)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}

func decodeData(raw []byte, target any) error {
	var env envelope
	if err := sonic.Unmarshal(raw, &env); err != nil {
		return crerr.Wrap(err, "decode response envelope")
	}
	if len(env.Data) == 0 {
		return crerr.New("response has no data")
	}
	if err := sonic.Unmarshal(env.Data, target); err != nil {
		return crerr.Wrap(err, "decode response data")
	}
	return nil
}

// decodeError turns the API's error envelope back into the usecase sentinel it was mapped from.
func decodeError(status int, raw []byte) error {
	var env envelope
	message := strings.TrimSpace(string(raw))
	reason := ""
	apiStatus := ""
	if err := sonic.Unmarshal(raw, &env); err == nil && env.Error != nil {
		message = env.Error.Message
		apiStatus = env.Error.Status
		if len(env.Error.Errors) > 0 {
			reason = env.Error.Errors[0].Reason
		}
	}

	var sentinel error
	switch {
	case apiStatus == "INVALID_ARGUMENT":
		sentinel = usecase.ErrValidation
	case apiStatus == "FAILED_PRECONDITION" && reason == "invalidTransition":
		sentinel = usecase.ErrInvalidTransition
	case apiStatus == "FAILED_PRECONDITION":
		sentinel = usecase.ErrInvalidState
	case apiStatus == "NOT_FOUND" || status == http.StatusNotFound:
		sentinel = usecase.ErrNotFound
	case apiStatus == "UNAUTHENTICATED" || status == http.StatusUnauthorized:
		sentinel = usecase.ErrUnauthorized
	case apiStatus == "PERMISSION_DENIED" || status == http.StatusForbidden:
		sentinel = usecase.ErrForbidden
	case apiStatus == "ABORTED":
		sentinel = usecase.ErrConflict
	case status >= http.StatusInternalServerError || status == http.StatusTooManyRequests:
		return crerr.Mark(crerr.Newf("api status=%d: %s", status, abbreviate(message)), errLiveAPITransient)
	default:
		return crerr.Newf("api status=%d: %s", status, abbreviate(message))
	}
	return fmt.Errorf("%w: %s", sentinel, abbreviate(message))
}

func isTransient(err error) bool {
	return crerr.Is(err, errLiveAPITransient)
}

func matchPath(matchID, suffix string) string {
	return "/v1/matches/" + url.PathEscape(strings.TrimSpace(matchID)) + suffix
}

func abbreviate(value string) string {
	const limit = 300
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
