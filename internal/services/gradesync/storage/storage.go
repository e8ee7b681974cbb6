// Package storage defines persistence contracts for gradesync documents.
package storage

import (
	"context"
	"errors"
	"time"

	gradesstorage "github.com/louisbranch/boulderlog/internal/services/grades/storage"
)

// ErrNotFound indicates a requested document is missing.
var ErrNotFound = errors.New("record not found")

// SystemDocument is one user's custom grade system as stored remotely.
type SystemDocument struct {
	UserID    string
	System    gradesstorage.CustomGradeSystem
	UpdatedAt time.Time
}

// DocumentStore persists per-user grade system documents.
type DocumentStore interface {
	ListSystems(ctx context.Context, userID string) ([]SystemDocument, error)
	GetSystem(ctx context.Context, userID, systemID string) (SystemDocument, error)
	PutSystem(ctx context.Context, doc SystemDocument) error
	DeleteSystem(ctx context.Context, userID, systemID string) error
}
