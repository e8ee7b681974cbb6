package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/services/grades/custom"
	"github.com/louisbranch/boulderlog/internal/services/grades/remote"
	gradesstorage "github.com/louisbranch/boulderlog/internal/services/grades/storage"
	"github.com/louisbranch/boulderlog/internal/services/gradesync/storage"
)

const maxBodyBytes = 1 << 20

// api serves the per-user grade system collection.
type api struct {
	store   storage.DocumentStore
	hub     *Hub
	metrics *Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHandler routes the REST API, the feed and /metrics.
func NewHandler(store storage.DocumentStore, hub *Hub, metrics *Metrics, logger *slog.Logger) http.Handler {
	a := &api{store: store, hub: hub, metrics: metrics, logger: logging.OrDiscard(logger), now: time.Now}

	mux := http.NewServeMux()
	a.route(mux, "GET /v1/users/{userID}/grade-systems", a.listSystems)
	a.route(mux, "GET /v1/users/{userID}/grade-systems/{systemID}", a.getSystem)
	a.route(mux, "PUT /v1/users/{userID}/grade-systems/{systemID}", a.putSystem)
	a.route(mux, "DELETE /v1/users/{userID}/grade-systems/{systemID}", a.deleteSystem)
	a.route(mux, "GET /v1/users/{userID}/feed", a.feed)
	mux.Handle("GET /metrics", metrics.Handler())
	return mux
}

func (a *api) route(mux *http.ServeMux, pattern string, handler http.HandlerFunc) {
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		handler(rec, r)
		a.metrics.requests.WithLabelValues(pattern, r.Method, strconv.Itoa(rec.status)).Inc()
	})
}

func (a *api) snapshot(r *http.Request, userID string) (remote.Snapshot, error) {
	docs, err := a.store.ListSystems(r.Context(), userID)
	if err != nil {
		return remote.Snapshot{}, err
	}
	systems := make([]gradesstorage.CustomGradeSystem, 0, len(docs))
	for _, doc := range docs {
		systems = append(systems, doc.System)
	}
	return remote.Snapshot{Type: remote.MessageSnapshot, UserID: userID, Systems: systems}, nil
}

func (a *api) listSystems(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	snapshot, err := a.snapshot(r, userID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (a *api) getSystem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	doc, err := a.store.GetSystem(r.Context(), userID, r.PathValue("systemID"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc.System)
}

func (a *api) putSystem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	systemID := strings.TrimSpace(r.PathValue("systemID"))

	var body gradesstorage.CustomGradeSystem
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		a.writeError(w, r, apperrors.Wrap(apperrors.CodeInvalidRequest, "decode grade system", err))
		return
	}
	if strings.TrimSpace(body.ID) == "" {
		body.ID = systemID
	}
	if strings.TrimSpace(body.ID) != systemID {
		a.writeError(w, r, apperrors.WithMetadata(apperrors.CodeCustomSystemInvalidID,
			"body id does not match path", map[string]string{"ID": body.ID}))
		return
	}
	system, err := custom.Normalize(body)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	system.Version = max(system.Version, 1)

	unlock := a.hub.LockUser(userID)
	defer unlock()
	if err := a.store.PutSystem(r.Context(), storage.SystemDocument{UserID: userID, System: system, UpdatedAt: a.now()}); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.metrics.writes.WithLabelValues("put").Inc()
	a.publish(r, userID)
	writeJSON(w, http.StatusOK, system)
}

func (a *api) deleteSystem(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	unlock := a.hub.LockUser(userID)
	defer unlock()
	if err := a.store.DeleteSystem(r.Context(), userID, r.PathValue("systemID")); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.metrics.writes.WithLabelValues("delete").Inc()
	a.publish(r, userID)
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) feed(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.userID(w, r)
	if !ok {
		return
	}
	a.hub.Serve(w, r, userID, func() (remote.Snapshot, error) {
		return a.snapshot(r, userID)
	})
}

// publish sends the user's current set. Callers hold the user's lock.
func (a *api) publish(r *http.Request, userID string) {
	snapshot, err := a.snapshot(r, userID)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "load snapshot for broadcast", "user_id", userID, "error", err)
		return
	}
	a.hub.Publish(userID, snapshot)
}

func (a *api) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.PathValue("userID"))
	if userID == "" {
		a.writeError(w, r, apperrors.New(apperrors.CodeIdentityMissing, "user id is required"))
		return "", false
	}
	return userID, true
}

func (a *api) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		err = apperrors.Wrap(apperrors.CodeNotFound, "grade system not found", err)
	}
	code := apperrors.CodeOf(err)
	status := code.HTTPStatus()
	if status >= http.StatusInternalServerError {
		a.logger.ErrorContext(r.Context(), "gradesync request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, remote.ErrorBody{
		Code:    string(code),
		Message: apperrors.LocalizedMessage(err, r.Header.Get("Accept-Language")),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// statusRecorder captures the response status for metrics. Hijack passes
// through so the feed can upgrade.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	r.status = http.StatusSwitchingProtocols
	return http.NewResponseController(r.ResponseWriter).Hijack()
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
