// Package remote talks to the gradesync server: HTTP for document writes
// and a WebSocket feed for live updates of a user's custom systems.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/platform/timeouts"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
)

const defaultReconnectMin = 500 * time.Millisecond

// Client is a storage.RemoteStore backed by a gradesync server.
type Client struct {
	baseURL      *url.URL
	httpClient   *http.Client
	dialer       *websocket.Dialer
	logger       *slog.Logger
	reconnectMin time.Duration
	reconnectMax time.Duration
}

var _ storage.RemoteStore = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for document writes.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithLogger sets the logger for feed lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithReconnectBackoff bounds the delay between feed reconnects.
func WithReconnectBackoff(minDelay, maxDelay time.Duration) Option {
	return func(c *Client) {
		c.reconnectMin = minDelay
		c.reconnectMax = maxDelay
	}
}

// New builds a client for the server at baseURL (http or https).
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse remote url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("remote url %q must use http or https", baseURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("remote url %q has no host", baseURL)
	}
	c := &Client{
		baseURL:      parsed,
		httpClient:   &http.Client{Timeout: timeouts.RemoteRequest},
		dialer:       &websocket.Dialer{HandshakeTimeout: timeouts.FeedHandshake, Proxy: http.ProxyFromEnvironment},
		reconnectMin: defaultReconnectMin,
		reconnectMax: timeouts.FeedReconnectMax,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger)
	if c.reconnectMin <= 0 {
		c.reconnectMin = defaultReconnectMin
	}
	if c.reconnectMax < c.reconnectMin {
		c.reconnectMax = c.reconnectMin
	}
	return c, nil
}

// endpoint joins the escaped path onto the base URL.
func (c *Client) endpoint(scheme, path string) string {
	u := *c.baseURL
	if scheme != "" {
		u.Scheme = scheme
	}
	u.RawPath = u.EscapedPath() + path
	u.Path, _ = url.PathUnescape(u.RawPath)
	return u.String()
}

// ListSystems fetches the user's current systems.
func (c *Client) ListSystems(ctx context.Context, userID string) ([]storage.CustomGradeSystem, error) {
	var snapshot Snapshot
	if err := c.do(ctx, http.MethodGet, SystemsPath(userID), nil, &snapshot); err != nil {
		return nil, err
	}
	return snapshot.Systems, nil
}

// PutSystem creates or replaces one of the user's systems.
func (c *Client) PutSystem(ctx context.Context, userID string, system storage.CustomGradeSystem) error {
	if strings.TrimSpace(system.ID) == "" {
		return errors.New("system id is required")
	}
	body, err := json.Marshal(system)
	if err != nil {
		return fmt.Errorf("encode system: %w", err)
	}
	return c.do(ctx, http.MethodPut, SystemPath(userID, system.ID), body, nil)
}

// DeleteSystem removes one of the user's systems. Deleting a missing
// system succeeds.
func (c *Client) DeleteSystem(ctx context.Context, userID, systemID string) error {
	err := c.do(ctx, http.MethodDelete, SystemPath(userID, systemID), nil, nil)
	if apperrors.CodeOf(err) == apperrors.CodeNotFound {
		return nil
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint("", path), reader)
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload ErrorBody
	if err := json.Unmarshal(data, &payload); err == nil && payload.Code != "" {
		return apperrors.WithMetadata(apperrors.Code(payload.Code), payload.Message,
			map[string]string{"Status": fmt.Sprint(resp.StatusCode)})
	}
	code := apperrors.CodeUnknown
	if resp.StatusCode == http.StatusNotFound {
		code = apperrors.CodeNotFound
	}
	return apperrors.New(code, fmt.Sprintf("remote returned %s: %s", resp.Status, strings.TrimSpace(string(data))))
}

// Subscribe opens the user's feed and keeps it open, reconnecting with
// capped exponential backoff, until unsubscribe is called or ctx ends.
// Every snapshot is passed to onUpdate from the feed goroutine.
//
// unsubscribe blocks until the feed goroutine has exited. Called from
// inside onUpdate or onError it only cancels the feed and returns, and the
// goroutine exits once the callback does.
func (c *Client) Subscribe(ctx context.Context, userID string, onUpdate func([]storage.CustomGradeSystem), onError func(error)) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	var inCallback atomic.Bool
	update := func(systems []storage.CustomGradeSystem) {
		if onUpdate == nil {
			return
		}
		inCallback.Store(true)
		defer inCallback.Store(false)
		onUpdate(systems)
	}
	report := func(err error) {
		if onError == nil {
			return
		}
		inCallback.Store(true)
		defer inCallback.Store(false)
		onError(err)
	}

	go func() {
		defer close(done)
		delay := c.reconnectMin
		for {
			connected, err := c.stream(ctx, userID, update)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				report(err)
			}
			if connected {
				delay = c.reconnectMin
			}
			c.logger.DebugContext(ctx, "feed reconnecting", "user_id", userID, "delay", delay)
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
			delay = min(delay*2, c.reconnectMax)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if !inCallback.Load() {
				<-done
			}
		})
	}
}

// stream runs one feed connection until it fails or ctx ends. connected
// reports whether the handshake succeeded.
func (c *Client) stream(ctx context.Context, userID string, onUpdate func([]storage.CustomGradeSystem)) (connected bool, err error) {
	scheme := "ws"
	if c.baseURL.Scheme == "https" {
		scheme = "wss"
	}
	conn, resp, err := c.dialer.DialContext(ctx, c.endpoint(scheme, FeedPath(userID)), nil)
	if err != nil {
		if resp != nil {
			return false, fmt.Errorf("dial feed: %s: %w", resp.Status, err)
		}
		return false, fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()
	c.logger.InfoContext(ctx, "feed connected", "user_id", userID)

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	readWindow := 2 * timeouts.FeedPing
	_ = conn.SetReadDeadline(time.Now().Add(readWindow))
	conn.SetPingHandler(func(data string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readWindow))
		return conn.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(time.Second))
	})

	for {
		var msg Snapshot
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, fmt.Errorf("read feed: %w", err)
		}
		_ = conn.SetReadDeadline(time.Now().Add(readWindow))
		if msg.Type != MessageSnapshot {
			continue
		}
		if onUpdate != nil {
			onUpdate(msg.Systems)
		}
	}
}
