// Package custom manages user-defined grade systems: it validates raw user
// input, keeps the local persisted list and the registry in step, and
// mirrors changes to the remote document feed on a best-effort basis.
package custom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	platformotel "github.com/louisbranch/boulderlog/internal/platform/otel"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// IdentityProvider reports the authenticated user, or "" when signed out.
type IdentityProvider interface {
	UserID() string
}

// StaticIdentity is a fixed IdentityProvider.
type StaticIdentity string

// UserID returns the identity as a string.
func (s StaticIdentity) UserID() string { return strings.TrimSpace(string(s)) }

// Manager owns the lifecycle of user-scope systems in a registry.
type Manager struct {
	registry *gradesystem.Registry
	store    storage.KeyValueStore
	remote   storage.RemoteStore
	identity IdentityProvider
	logger   *slog.Logger
	tracer   trace.Tracer

	// mu serializes read-modify-write cycles on the persisted list.
	mu sync.Mutex
}

// Option configures a Manager.
type Option func(*Manager)

// WithRemote mirrors writes to remote and enables Subscribe.
func WithRemote(remote storage.RemoteStore) Option {
	return func(m *Manager) { m.remote = remote }
}

// WithIdentity scopes the persisted list and remote calls to a user.
func WithIdentity(identity IdentityProvider) Option {
	return func(m *Manager) { m.identity = identity }
}

// WithLogger sets the logger for swallowed remote failures.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithTracer overrides the tracer used for manager spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(m *Manager) { m.tracer = tracer }
}

// NewManager builds a manager over registry and the local store.
func NewManager(registry *gradesystem.Registry, store storage.KeyValueStore, opts ...Option) *Manager {
	m := &Manager{registry: registry, store: store}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.OrDiscard(m.logger)
	if m.tracer == nil {
		m.tracer = platformotel.Tracer("boulderlog/grades/custom")
	}
	return m
}

func (m *Manager) userID() string {
	if m.identity == nil {
		return ""
	}
	return strings.TrimSpace(m.identity.UserID())
}

// listKey is the per-user key of the persisted list. Signed-out devices
// share the bare key.
func (m *Manager) listKey() string {
	if userID := m.userID(); userID != "" {
		return storage.CustomSystemsKey + "/" + userID
	}
	return storage.CustomSystemsKey
}

// CustomSystems returns the persisted list for the current identity.
func (m *Manager) CustomSystems(ctx context.Context) ([]storage.CustomGradeSystem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.load(ctx)
}

// load returns the persisted list. Malformed data reads as an empty list.
// Callers hold m.mu.
func (m *Manager) load(ctx context.Context) ([]storage.CustomGradeSystem, error) {
	key := m.listKey()
	raw, found, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load custom systems: %w", err)
	}
	if !found || strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var systems []storage.CustomGradeSystem
	if err := json.Unmarshal([]byte(raw), &systems); err != nil {
		m.logger.WarnContext(ctx, "discarding malformed custom system list", "key", key, "error", err)
		return nil, nil
	}
	return systems, nil
}

// Callers hold m.mu.
func (m *Manager) save(ctx context.Context, systems []storage.CustomGradeSystem) error {
	if systems == nil {
		systems = []storage.CustomGradeSystem{}
	}
	data, err := json.Marshal(systems)
	if err != nil {
		return fmt.Errorf("encode custom systems: %w", err)
	}
	if err := m.store.Set(ctx, m.listKey(), string(data)); err != nil {
		return fmt.Errorf("save custom systems: %w", err)
	}
	return nil
}

// UpsertCustomSystem validates input, replaces or appends it in the
// persisted list, registers it, and mirrors it remotely. It returns the
// system id. Changing the grade list of an existing system bumps its
// version. Remote failures are logged and never returned.
func (m *Manager) UpsertCustomSystem(ctx context.Context, input storage.CustomGradeSystem) (string, error) {
	ctx, span := m.tracer.Start(ctx, "custom.UpsertCustomSystem")
	defer span.End()

	system, err := Normalize(input)
	if err != nil {
		span.SetStatus(otelcodes.Error, err.Error())
		return "", err
	}
	span.SetAttributes(attribute.String("grade_system.id", system.ID))

	m.mu.Lock()
	systems, err := m.load(ctx)
	if err != nil {
		m.mu.Unlock()
		span.RecordError(err)
		return "", err
	}
	idx := slices.IndexFunc(systems, func(s storage.CustomGradeSystem) bool { return s.ID == system.ID })
	if idx >= 0 {
		prev := systems[idx]
		system.Version = max(prev.Version, 1)
		if !sameGrades(prev.Grades, system.Grades) {
			system.Version++
		}
		systems[idx] = system
	} else {
		system.Version = max(system.Version, 1)
		systems = append(systems, system)
	}
	if err := m.save(ctx, systems); err != nil {
		m.mu.Unlock()
		span.RecordError(err)
		return "", err
	}
	m.registry.Register(definitionOf(system))
	m.mu.Unlock()

	span.SetAttributes(attribute.Int("grade_system.version", system.Version))
	if userID := m.userID(); m.remote != nil && userID != "" {
		if err := m.remote.PutSystem(ctx, userID, system); err != nil {
			m.remoteFailed(ctx, span, "put", system.ID, err)
		}
	}
	return system.ID, nil
}

// RemoveCustomSystem drops id from the persisted list and the registry and
// mirrors the delete remotely. Unknown ids are not an error.
func (m *Manager) RemoveCustomSystem(ctx context.Context, id string) error {
	ctx, span := m.tracer.Start(ctx, "custom.RemoveCustomSystem")
	defer span.End()

	id = strings.TrimSpace(id)
	span.SetAttributes(attribute.String("grade_system.id", id))
	if id == "" {
		return apperrors.New(apperrors.CodeCustomSystemInvalidID, "custom system id is required")
	}
	if gradesystem.IsBuiltinID(id) {
		return apperrors.WithMetadata(apperrors.CodeCustomSystemBuiltinID,
			fmt.Sprintf("builtin system %q cannot be removed", id),
			map[string]string{"ID": id})
	}

	m.mu.Lock()
	systems, err := m.load(ctx)
	if err != nil {
		m.mu.Unlock()
		span.RecordError(err)
		return err
	}
	kept := slices.DeleteFunc(systems, func(s storage.CustomGradeSystem) bool { return s.ID == id })
	if err := m.save(ctx, kept); err != nil {
		m.mu.Unlock()
		span.RecordError(err)
		return err
	}
	m.registry.Unregister(id)
	m.mu.Unlock()

	if userID := m.userID(); m.remote != nil && userID != "" {
		if err := m.remote.DeleteSystem(ctx, userID, id); err != nil {
			m.remoteFailed(ctx, span, "delete", id, err)
		}
	}
	return nil
}

// LoadAndRegisterAll registers every persisted system for the current
// identity and returns how many were registered. Invalid entries are
// skipped.
func (m *Manager) LoadAndRegisterAll(ctx context.Context) (int, error) {
	ctx, span := m.tracer.Start(ctx, "custom.LoadAndRegisterAll")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	systems, err := m.load(ctx)
	if err != nil {
		span.RecordError(err)
		return 0, err
	}
	registered := m.registerAll(ctx, systems)
	span.SetAttributes(attribute.Int("grade_system.count", len(registered)))
	return len(registered), nil
}

// SwitchIdentity drops every user-scope system from the registry and loads
// the persisted list of the identity now reported by the provider.
func (m *Manager) SwitchIdentity(ctx context.Context) (int, error) {
	m.mu.Lock()
	m.clearUserSystems()
	m.mu.Unlock()
	return m.LoadAndRegisterAll(ctx)
}

// Subscribe attaches the remote feed for the current identity. Every push
// replaces all user-scope systems in the registry with the pushed set and
// persists it locally; onChange, when set, then receives the registered
// definitions. Feed errors are logged and leave the registry untouched.
// Without an identity or a remote the returned function is a no-op.
func (m *Manager) Subscribe(ctx context.Context, onChange func([]gradesystem.Definition)) (unsubscribe func()) {
	userID := m.userID()
	if m.remote == nil || userID == "" {
		return func() {}
	}
	onUpdate := func(systems []storage.CustomGradeSystem) {
		defs, err := m.replaceAll(ctx, systems)
		if err != nil {
			m.logger.WarnContext(ctx, "persist remote custom systems", "user_id", userID, "error", err)
		}
		if onChange != nil {
			onChange(defs)
		}
	}
	onError := func(err error) {
		m.logger.WarnContext(ctx, "custom system feed error", "user_id", userID, "error", err)
	}
	return m.remote.Subscribe(ctx, userID, onUpdate, onError)
}

// replaceAll clears then re-registers user systems from a remote push.
func (m *Manager) replaceAll(ctx context.Context, systems []storage.CustomGradeSystem) ([]gradesystem.Definition, error) {
	ctx, span := m.tracer.Start(ctx, "custom.ApplyRemoteUpdate")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearUserSystems()
	registered := m.registerAll(ctx, systems)

	kept := make([]storage.CustomGradeSystem, 0, len(registered))
	defs := make([]gradesystem.Definition, 0, len(registered))
	for _, system := range registered {
		kept = append(kept, system)
		defs = append(defs, definitionOf(system))
	}
	span.SetAttributes(attribute.Int("grade_system.count", len(defs)))
	if err := m.save(ctx, kept); err != nil {
		span.RecordError(err)
		return defs, err
	}
	return defs, nil
}

// registerAll registers every valid system and returns the normalized ones.
// Callers hold m.mu.
func (m *Manager) registerAll(ctx context.Context, systems []storage.CustomGradeSystem) []storage.CustomGradeSystem {
	registered := make([]storage.CustomGradeSystem, 0, len(systems))
	for _, raw := range systems {
		system, err := Normalize(raw)
		if err != nil {
			m.logger.WarnContext(ctx, "skipping invalid custom system", "id", raw.ID, "name", raw.Name, "code", apperrors.CodeOf(err))
			continue
		}
		m.registry.Register(definitionOf(system))
		registered = append(registered, system)
	}
	return registered
}

// Callers hold m.mu.
func (m *Manager) clearUserSystems() {
	for _, def := range m.registry.List() {
		if def.Scope == gradesystem.ScopeUser {
			m.registry.Unregister(def.ID)
		}
	}
}

func (m *Manager) remoteFailed(ctx context.Context, span trace.Span, op, id string, err error) {
	span.RecordError(err)
	span.AddEvent("remote_sync_failed", trace.WithAttributes(attribute.String("op", op)))
	m.logger.WarnContext(ctx, "remote custom system sync failed", "op", op, "id", id, "error", err)
}

// SelectedSystemID returns the id of the display system. Unset or no
// longer registered selections fall back to the registry default.
func (m *Manager) SelectedSystemID(ctx context.Context) string {
	raw, found, err := m.store.Get(ctx, storage.SelectedSystemKey)
	if err != nil {
		m.logger.WarnContext(ctx, "read selected grade system", "error", err)
	}
	if found {
		id := conversion.NormalizeSystemID(raw)
		if _, ok := m.registry.Get(id); ok {
			return id
		}
	}
	def, err := m.registry.Default()
	if err != nil {
		return ""
	}
	return def.ID
}

// SelectSystem persists id as the display system. Legacy short codes are
// normalized first; unregistered ids are rejected.
func (m *Manager) SelectSystem(ctx context.Context, id string) error {
	normalized := conversion.NormalizeSystemID(id)
	if _, ok := m.registry.Get(normalized); !ok {
		return apperrors.WithMetadata(apperrors.CodeGradeSystemNotFound,
			fmt.Sprintf("grade system %q is not registered", id),
			map[string]string{"ID": id})
	}
	if err := m.store.Set(ctx, storage.SelectedSystemKey, normalized); err != nil {
		return fmt.Errorf("save selected grade system: %w", err)
	}
	return nil
}
