// Package storage declares the persistence contracts the grade core talks
// to: a local key-value store and a remote per-user document feed.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Keys under which the custom system manager persists its state.
const (
	// CustomSystemsKey holds the JSON list of user-defined systems.
	CustomSystemsKey = "grades.custom_systems"
	// SelectedSystemKey holds the id of the system grades are displayed in.
	SelectedSystemKey = "grades.selected_system"
)

// CustomGrade is one rung of a user-defined system, easiest first.
type CustomGrade struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Color string `json:"color,omitempty" yaml:"color,omitempty"`
}

// CustomGradeSystem is a user-defined grade system as entered by the user.
// It is both the element of the persisted local list and the remote
// document shape.
type CustomGradeSystem struct {
	// ID is derived from Name when empty.
	ID      string        `json:"id,omitempty" yaml:"id,omitempty"`
	Name    string        `json:"name" yaml:"name" validate:"required,max=64"`
	Version int           `json:"version,omitempty" yaml:"version,omitempty"`
	Grades  []CustomGrade `json:"grades" yaml:"grades" validate:"required,min=1,unique=Name,dive"`
}

// KeyValueStore persists string values under string keys. Get reports
// absence with found=false rather than an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// RemoteStore mirrors custom systems to a per-user remote collection.
type RemoteStore interface {
	PutSystem(ctx context.Context, userID string, system CustomGradeSystem) error
	DeleteSystem(ctx context.Context, userID, systemID string) error
	// Subscribe delivers the full current set on every change until the
	// returned function is called or ctx ends. Errors are reported to
	// onError and never end the subscription on their own.
	Subscribe(ctx context.Context, userID string, onUpdate func([]CustomGradeSystem), onError func(error)) (unsubscribe func())
}
