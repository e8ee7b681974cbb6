package gradesystem

import (
	"slices"
	"strings"
	"sync"

	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
)

// ErrRegistryEmpty is returned by Default when no system is registered.
// Builtins are seeded on first access, so this only happens after every
// builtin was explicitly unregistered.
var ErrRegistryEmpty = apperrors.New(apperrors.CodeRegistryEmpty, "grade system registry is empty")

// Registry is the in-memory cache of every known grade system keyed by id.
//
// Builtins are seeded lazily, once, on first access. After that the cache
// changes only through Register and Unregister. Lookups return copies.
type Registry struct {
	seedOnce sync.Once
	mu       sync.RWMutex
	systems  map[string]Definition
	// builtinRank preserves seed order for Default and List.
	builtinRank map[string]int
}

// NewRegistry creates a registry. Builtin scales appear on first use.
func NewRegistry() *Registry {
	return &Registry{}
}

func (r *Registry) seed() {
	r.seedOnce.Do(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		builtins := Builtins()
		r.systems = make(map[string]Definition, len(builtins))
		r.builtinRank = make(map[string]int, len(builtins))
		for i, def := range builtins {
			r.systems[def.ID] = def
			r.builtinRank[def.ID] = i
		}
	})
}

// Get returns the system registered under id.
func (r *Registry) Get(id string) (Definition, bool) {
	r.seed()
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.systems[strings.TrimSpace(id)]
	if !ok {
		return Definition{}, false
	}
	return def.Clone(), true
}

// List returns every registered system: builtins in seed order, then user
// systems sorted by id.
func (r *Registry) List() []Definition {
	r.seed()
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Definition, 0, len(r.systems))
	for _, def := range r.systems {
		out = append(out, def.Clone())
	}
	slices.SortFunc(out, r.compare)
	return out
}

// Default returns the system flagged IsDefault, else the first builtin,
// else any registered system.
func (r *Registry) Default() (Definition, error) {
	systems := r.List()
	if len(systems) == 0 {
		return Definition{}, ErrRegistryEmpty
	}
	for _, def := range systems {
		if def.IsDefault {
			return def, nil
		}
	}
	return systems[0], nil
}

// Register inserts or replaces the system with def.ID. Last write wins.
// Ordering of the grades is not validated here.
func (r *Registry) Register(def Definition) {
	r.seed()
	id := strings.TrimSpace(def.ID)
	if id == "" {
		return
	}
	def.ID = id
	stored := def.Clone()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.systems[id] = stored
}

// Unregister removes the system with id. Missing ids are ignored.
func (r *Registry) Unregister(id string) {
	r.seed()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.systems, strings.TrimSpace(id))
}

// compare orders builtins (by seed rank) before user systems (by id).
// Callers hold r.mu.
func (r *Registry) compare(a, b Definition) int {
	rankA, builtinA := r.builtinRank[a.ID]
	rankB, builtinB := r.builtinRank[b.ID]
	builtinA = builtinA && a.IsBuiltin()
	builtinB = builtinB && b.IsBuiltin()
	switch {
	case builtinA && builtinB:
		return rankA - rankB
	case builtinA:
		return -1
	case builtinB:
		return 1
	default:
		return strings.Compare(a.ID, b.ID)
	}
}
