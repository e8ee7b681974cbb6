package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/services/grades/custom"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/remote"
	gradesstorage "github.com/louisbranch/boulderlog/internal/services/grades/storage"
	gradessqlite "github.com/louisbranch/boulderlog/internal/services/grades/storage/sqlite"
	gradesyncsqlite "github.com/louisbranch/boulderlog/internal/services/gradesync/storage/sqlite"
)

type testAPI struct {
	server *httptest.Server
	hub    *Hub
}

func newTestAPI(t *testing.T) testAPI {
	t.Helper()

	store, err := gradesyncsqlite.Open(filepath.Join(t.TempDir(), "gradesync.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	metrics := NewMetrics()
	hub := NewHub(metrics, nil)
	srv := httptest.NewServer(NewHandler(store, hub, metrics, nil))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		_ = store.Close()
	})
	return testAPI{server: srv, hub: hub}
}

func (a testAPI) do(t *testing.T, method, path string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encode body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := a.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func TestPutListGetDelete(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPut, remote.SystemPath("u1", "user-gym-colors"), gradesstorage.CustomGradeSystem{
		Name:   " Gym Colors ",
		Grades: []gradesstorage.CustomGrade{{Name: "Pink"}, {Name: "Blue"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	var stored gradesstorage.CustomGradeSystem
	if err := json.NewDecoder(resp.Body).Decode(&stored); err != nil {
		t.Fatalf("decode put: %v", err)
	}
	if stored.ID != "user-gym-colors" || stored.Name != "Gym Colors" || stored.Version != 1 {
		t.Fatalf("stored = %+v", stored)
	}

	resp = api.do(t, http.MethodGet, remote.SystemsPath("u1"), nil)
	var snapshot remote.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if snapshot.Type != remote.MessageSnapshot || len(snapshot.Systems) != 1 {
		t.Fatalf("snapshot = %+v", snapshot)
	}

	resp = api.do(t, http.MethodGet, remote.SystemPath("u1", "user-gym-colors"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}

	resp = api.do(t, http.MethodGet, remote.SystemsPath("u2"), nil)
	snapshot = remote.Snapshot{}
	if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
		t.Fatalf("decode other user: %v", err)
	}
	if len(snapshot.Systems) != 0 {
		t.Fatalf("documents leaked across users: %+v", snapshot.Systems)
	}

	resp = api.do(t, http.MethodDelete, remote.SystemPath("u1", "user-gym-colors"), nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", resp.StatusCode)
	}
	resp = api.do(t, http.MethodDelete, remote.SystemPath("u1", "user-gym-colors"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d, want 404", resp.StatusCode)
	}
}

func TestPutRejectsInvalidSystems(t *testing.T) {
	api := newTestAPI(t)

	tests := []struct {
		name     string
		systemID string
		body     gradesstorage.CustomGradeSystem
		code     apperrors.Code
	}{
		{"no grades", "user-x", gradesstorage.CustomGradeSystem{Name: "X"}, apperrors.CodeCustomSystemNoGrades},
		{"id mismatch", "user-x", gradesstorage.CustomGradeSystem{ID: "user-y", Name: "X", Grades: []gradesstorage.CustomGrade{{Name: "A"}}}, apperrors.CodeCustomSystemInvalidID},
		{"builtin", "vscale", gradesstorage.CustomGradeSystem{Name: "V", Grades: []gradesstorage.CustomGrade{{Name: "A"}}}, apperrors.CodeCustomSystemBuiltinID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := api.do(t, http.MethodPut, remote.SystemPath("u1", tt.systemID), tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			var body remote.ErrorBody
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error: %v", err)
			}
			if body.Code != string(tt.code) {
				t.Fatalf("code = %s, want %s", body.Code, tt.code)
			}
			if body.Message == "" {
				t.Fatal("expected a localized message")
			}
		})
	}
}

func TestGetMissingSystem(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodGet, remote.SystemPath("u1", "user-missing"), nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t)
	api.do(t, http.MethodGet, remote.SystemsPath("u1"), nil)

	resp := api.do(t, http.MethodGet, "/metrics", nil)
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(data), "gradesync_http_requests_total") {
		t.Fatalf("metrics missing request counter:\n%s", data)
	}
}

func TestFeedSyncsManagersAcrossDevices(t *testing.T) {
	api := newTestAPI(t)
	ctx := context.Background()

	newDevice := func() (*custom.Manager, *gradesystem.Registry) {
		store, err := gradessqlite.OpenInMemory()
		if err != nil {
			t.Fatalf("open local store: %v", err)
		}
		t.Cleanup(func() { _ = store.Close() })
		client, err := remote.New(api.server.URL, remote.WithReconnectBackoff(10*time.Millisecond, 50*time.Millisecond))
		if err != nil {
			t.Fatalf("new remote client: %v", err)
		}
		registry := gradesystem.NewRegistry()
		manager := custom.NewManager(registry, store,
			custom.WithRemote(client),
			custom.WithIdentity(custom.StaticIdentity("climber")),
		)
		return manager, registry
	}

	phone, _ := newDevice()
	tablet, tabletRegistry := newDevice()

	changes := make(chan []gradesystem.Definition, 8)
	unsubscribe := tablet.Subscribe(ctx, func(defs []gradesystem.Definition) { changes <- defs })
	defer unsubscribe()

	// Initial snapshot is empty.
	waitDefs(t, changes, func(defs []gradesystem.Definition) bool { return len(defs) == 0 })

	id, err := phone.UpsertCustomSystem(ctx, gradesstorage.CustomGradeSystem{
		Name:   "Gym Colors",
		Grades: []gradesstorage.CustomGrade{{Name: "Pink"}, {Name: "Blue"}, {Name: "Black"}},
	})
	if err != nil {
		t.Fatalf("upsert on phone: %v", err)
	}

	waitDefs(t, changes, func(defs []gradesystem.Definition) bool { return len(defs) == 1 && defs[0].ID == id })
	def, ok := tabletRegistry.Get(id)
	if !ok {
		t.Fatal("tablet registry missing pushed system")
	}
	if def.Grades[2].Label != "Black" || def.Grades[2].CanonicalValue != 2 {
		t.Fatalf("pushed grade = %+v", def.Grades[2])
	}

	if err := phone.RemoveCustomSystem(ctx, id); err != nil {
		t.Fatalf("remove on phone: %v", err)
	}
	waitDefs(t, changes, func(defs []gradesystem.Definition) bool { return len(defs) == 0 })
	if _, ok := tabletRegistry.Get(id); ok {
		t.Fatal("tablet registry still has removed system")
	}
}

func TestHubCloseDisconnectsSubscribers(t *testing.T) {
	api := newTestAPI(t)
	client, err := remote.New(api.server.URL)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	updates := make(chan []gradesstorage.CustomGradeSystem, 4)
	unsubscribe := client.Subscribe(context.Background(), "u1",
		func(systems []gradesstorage.CustomGradeSystem) { updates <- systems }, nil)
	defer unsubscribe()

	select {
	case <-updates:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for initial snapshot")
	}
	if n := api.hub.Subscribers("u1"); n != 1 {
		t.Fatalf("subscribers = %d, want 1", n)
	}
	api.hub.Close()
	if n := api.hub.Subscribers("u1"); n != 0 {
		t.Fatalf("subscribers after close = %d, want 0", n)
	}
}

func waitDefs(t *testing.T, changes <-chan []gradesystem.Definition, done func([]gradesystem.Definition) bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case defs := <-changes:
			if done(defs) {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for feed change")
		}
	}
}

func TestConcurrentPutsPublishLatestSetLast(t *testing.T) {
	api := newTestAPI(t)

	feedURL := "ws" + strings.TrimPrefix(api.server.URL, "http") + remote.FeedPath("u1")
	conn, _, err := websocket.DefaultDialer.Dial(feedURL, nil)
	if err != nil {
		t.Fatalf("dial feed: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var initial remote.Snapshot
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if len(initial.Systems) != 0 {
		t.Fatalf("initial systems = %d, want 0", len(initial.Systems))
	}

	const writers = 6
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id := fmt.Sprintf("user-wall-%d", i)
			body, _ := json.Marshal(gradesstorage.CustomGradeSystem{
				Name:   fmt.Sprintf("Wall %d", i),
				Grades: []gradesstorage.CustomGrade{{Name: "Easy"}, {Name: "Hard"}},
			})
			req, err := http.NewRequest(http.MethodPut, api.server.URL+remote.SystemPath("u1", id), bytes.NewReader(body))
			if err != nil {
				errs <- err
				return
			}
			resp, err := api.server.Client().Do(req)
			if err != nil {
				errs <- err
				return
			}
			_ = resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				errs <- fmt.Errorf("put %s: status %d", id, resp.StatusCode)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}

	var last remote.Snapshot
	for range writers {
		if err := conn.ReadJSON(&last); err != nil {
			t.Fatalf("read snapshot: %v", err)
		}
	}
	if len(last.Systems) != writers {
		t.Fatalf("last snapshot has %d systems, want %d", len(last.Systems), writers)
	}
}

func TestFeedPathDoesNotShadowSystemNamedFeed(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(t, http.MethodPut, remote.SystemPath("u1", "feed"), gradesstorage.CustomGradeSystem{
		Name:   "Feed",
		Grades: []gradesstorage.CustomGrade{{Name: "Low"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("put status = %d", resp.StatusCode)
	}
	resp = api.do(t, http.MethodGet, remote.SystemPath("u1", "feed"), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d", resp.StatusCode)
	}
	var got gradesstorage.CustomGradeSystem
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.ID != "feed" || got.Name != "Feed" {
		t.Fatalf("system = %+v", got)
	}
}
