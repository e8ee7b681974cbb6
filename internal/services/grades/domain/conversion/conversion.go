// Package conversion bridges grade labels across systems through their
// canonical values.
//
// Every lookup miss (unknown system, unknown label, unmapped canonical
// value) is reported as a false second return, never as an error: grades
// are free text typed by climbers and must degrade to their raw label.
package conversion

import (
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/scale"
)

// Engine converts labels using the systems currently in a registry.
type Engine struct {
	registry *gradesystem.Registry
}

// NewEngine creates an engine over registry.
func NewEngine(registry *gradesystem.Registry) *Engine {
	return &Engine{registry: registry}
}

// Registry returns the registry the engine reads from.
func (e *Engine) Registry() *gradesystem.Registry {
	return e.registry
}

// NormalizeSystemID maps the legacy short codes stored in historical
// records ("V", "Font", "Fontainebleau") to registry ids. Any other value
// is returned trimmed.
func NormalizeSystemID(id string) string {
	trimmed := strings.TrimSpace(id)
	switch strings.ToLower(trimmed) {
	case "v", "v-scale", "hueco":
		return scale.VScaleID
	case "font", "fontainebleau", "fb":
		return scale.FontID
	}
	return trimmed
}

// System resolves a possibly-legacy system id in the registry.
func (e *Engine) System(systemID string) (gradesystem.Definition, bool) {
	return e.registry.Get(NormalizeSystemID(systemID))
}

// Lookup finds the entry for label in a system, matching the display label
// first, then the entry id, then any alias.
func (e *Engine) Lookup(systemID, label string) (gradesystem.GradeEntry, bool) {
	def, ok := e.System(systemID)
	if !ok {
		return gradesystem.GradeEntry{}, false
	}
	return lookupEntry(def, label)
}

func lookupEntry(def gradesystem.Definition, label string) (gradesystem.GradeEntry, bool) {
	label = strings.TrimSpace(label)
	if label == "" {
		return gradesystem.GradeEntry{}, false
	}
	for _, entry := range def.Grades {
		if entry.Label == label {
			return entry, true
		}
	}
	for _, entry := range def.Grades {
		if entry.ID == label {
			return entry, true
		}
	}
	for _, entry := range def.Grades {
		for _, alias := range entry.Aliases {
			if alias == label {
				return entry, true
			}
		}
	}
	return gradesystem.GradeEntry{}, false
}

// ToCanonical returns the canonical value of label in a system.
func (e *Engine) ToCanonical(systemID, label string) (int, bool) {
	entry, ok := e.Lookup(systemID, label)
	if !ok {
		return 0, false
	}
	return entry.CanonicalValue, true
}

// FromCanonical returns the entry of a system whose canonical value equals
// canonical exactly. There is no nearest-neighbour search.
func (e *Engine) FromCanonical(systemID string, canonical int) (gradesystem.GradeEntry, bool) {
	def, ok := e.System(systemID)
	if !ok {
		return gradesystem.GradeEntry{}, false
	}
	return entryForCanonical(def, canonical)
}

func entryForCanonical(def gradesystem.Definition, canonical int) (gradesystem.GradeEntry, bool) {
	for _, entry := range def.Grades {
		if entry.CanonicalValue == canonical {
			return entry, true
		}
	}
	return gradesystem.GradeEntry{}, false
}

// ConvertLabel converts label from one system to another. Identical systems
// short-circuit; any missing mapping returns label unchanged.
func (e *Engine) ConvertLabel(label, fromSystemID, toSystemID string) string {
	from := NormalizeSystemID(fromSystemID)
	to := NormalizeSystemID(toSystemID)
	if from == to {
		return label
	}
	canonical, ok := e.ToCanonical(from, label)
	if !ok {
		return label
	}
	entry, ok := e.FromCanonical(to, canonical)
	if !ok {
		return label
	}
	return entry.Label
}

// DetectSystem returns the first system, builtins first, that recognises
// label.
func (e *Engine) DetectSystem(label string) (gradesystem.Definition, bool) {
	for _, def := range e.registry.List() {
		if _, ok := lookupEntry(def, label); ok {
			return def, true
		}
	}
	return gradesystem.Definition{}, false
}

// ConvertGrade converts label into the target system, detecting which
// system the label belongs to. Unrecognised labels are returned unchanged.
func (e *Engine) ConvertGrade(label, toSystemID string) string {
	source, ok := e.DetectSystem(label)
	if !ok {
		return label
	}
	return e.ConvertLabel(label, source.ID, toSystemID)
}
