package server

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/louisbranch/boulderlog/internal/platform/id"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/platform/timeouts"
	"github.com/louisbranch/boulderlog/internal/services/grades/remote"
)

const (
	writeWait      = 10 * time.Second
	subscriberSend = 8
)

// Hub fans snapshots out to the feed connections of each user.
type Hub struct {
	upgrader     websocket.Upgrader
	metrics      *Metrics
	logger       *slog.Logger
	pingInterval time.Duration

	mu          sync.Mutex
	subscribers map[string]map[string]*subscriber
	closed      bool

	locksMu sync.Mutex
	locks   map[string]*userLock
}

// userLock orders the writes and snapshots of one user. refs counts the
// holders and waiters so idle locks can be dropped.
type userLock struct {
	mu   sync.Mutex
	refs int
}

type subscriber struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan remote.Snapshot
	done   chan struct{}
	once   sync.Once
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.done) })
}

// NewHub builds an empty hub.
func NewHub(metrics *Metrics, logger *slog.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		metrics:      metrics,
		logger:       logging.OrDiscard(logger),
		pingInterval: timeouts.FeedPing,
		subscribers:  make(map[string]map[string]*subscriber),
		locks:        make(map[string]*userLock),
	}
}

// LockUser serializes changes to userID's collection with the snapshots
// published for them. A writer holds it across the store write and its
// Publish so subscribers never receive an older set after a newer one.
func (h *Hub) LockUser(userID string) (unlock func()) {
	h.locksMu.Lock()
	l := h.locks[userID]
	if l == nil {
		l = &userLock{}
		h.locks[userID] = l
	}
	l.refs++
	h.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		h.locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(h.locks, userID)
		}
		h.locksMu.Unlock()
	}
}

// Serve upgrades the request and streams snapshots for userID until the
// peer goes away. The first frame comes from load, read under the user's
// lock together with registration so no Publish falls between them.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, userID string, load func() (remote.Snapshot, error)) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "upgrade feed connection", "user_id", userID, "error", err)
		return
	}
	subID, err := id.NewID()
	if err != nil {
		h.logger.ErrorContext(r.Context(), "allocate subscriber id", "error", err)
		_ = conn.Close()
		return
	}
	sub := &subscriber{
		id:     subID,
		userID: userID,
		conn:   conn,
		send:   make(chan remote.Snapshot, subscriberSend),
		done:   make(chan struct{}),
	}
	if !h.register(sub, load) {
		_ = conn.Close()
		return
	}
	h.logger.InfoContext(r.Context(), "feed subscriber joined", "user_id", userID, "subscriber_id", subID)

	go h.writePump(sub)
	h.readPump(sub)
}

func (h *Hub) register(sub *subscriber, load func() (remote.Snapshot, error)) bool {
	unlock := h.LockUser(sub.userID)
	defer unlock()
	initial, err := load()
	if err != nil {
		h.logger.Error("load initial feed snapshot", "user_id", sub.userID, "error", err)
		_ = sub.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "snapshot unavailable"), time.Now().Add(writeWait))
		return false
	}
	sub.send <- initial
	return h.add(sub)
}

func (h *Hub) add(sub *subscriber) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	subs := h.subscribers[sub.userID]
	if subs == nil {
		subs = make(map[string]*subscriber)
		h.subscribers[sub.userID] = subs
	}
	subs[sub.id] = sub
	h.metrics.subscribers.Inc()
	return true
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(sub)
}

// Callers hold h.mu.
func (h *Hub) removeLocked(sub *subscriber) {
	subs := h.subscribers[sub.userID]
	if _, ok := subs[sub.id]; !ok {
		return
	}
	delete(subs, sub.id)
	if len(subs) == 0 {
		delete(h.subscribers, sub.userID)
	}
	h.metrics.subscribers.Dec()
	sub.stop()
}

// Publish queues snapshot to every subscriber of userID. Subscribers whose
// queue is full are disconnected and will resync on reconnect.
func (h *Hub) Publish(userID string, snapshot remote.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, sub := range h.subscribers[userID] {
		select {
		case sub.send <- snapshot:
			h.metrics.broadcasts.Inc()
		default:
			h.metrics.dropped.Inc()
			h.logger.Warn("dropping slow feed subscriber", "user_id", userID, "subscriber_id", sub.id)
			h.removeLocked(sub)
		}
	}
}

// Subscribers returns the number of open feeds for userID.
func (h *Hub) Subscribers(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[userID])
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for _, subs := range h.subscribers {
		for _, sub := range subs {
			h.removeLocked(sub)
		}
	}
}

func (h *Hub) writePump(sub *subscriber) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = sub.conn.Close()
	}()
	for {
		select {
		case <-sub.done:
			_ = sub.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""), time.Now().Add(writeWait))
			return
		case snapshot := <-sub.send:
			_ = sub.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := sub.conn.WriteJSON(snapshot); err != nil {
				h.logger.Debug("write feed snapshot", "subscriber_id", sub.id, "error", err)
				h.remove(sub)
				return
			}
		case <-ticker.C:
			if err := sub.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.remove(sub)
				return
			}
		}
	}
}

// readPump drains client frames so control messages are processed and
// removes the subscriber once the connection fails.
func (h *Hub) readPump(sub *subscriber) {
	defer h.remove(sub)
	readWindow := 2 * h.pingInterval
	sub.conn.SetReadLimit(512)
	_ = sub.conn.SetReadDeadline(time.Now().Add(readWindow))
	sub.conn.SetPongHandler(func(string) error {
		return sub.conn.SetReadDeadline(time.Now().Add(readWindow))
	})
	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("feed connection closed", "subscriber_id", sub.id, "error", err)
			}
			return
		}
	}
}
