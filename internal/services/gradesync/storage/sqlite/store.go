// Package sqlite provides a SQLite-backed gradesync document store.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/boulderlog/internal/platform/storage/sqlitemigrate"
	gradesstorage "github.com/louisbranch/boulderlog/internal/services/grades/storage"
	"github.com/louisbranch/boulderlog/internal/services/gradesync/storage"
	"github.com/louisbranch/boulderlog/internal/services/gradesync/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists grade system documents in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ storage.DocumentStore = (*Store)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite document store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// PutSystem inserts or replaces one document.
func (s *Store) PutSystem(ctx context.Context, doc storage.SystemDocument) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	userID := strings.TrimSpace(doc.UserID)
	systemID := strings.TrimSpace(doc.System.ID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}
	if systemID == "" {
		return fmt.Errorf("system id is required")
	}
	grades := doc.System.Grades
	if grades == nil {
		grades = []gradesstorage.CustomGrade{}
	}
	gradesJSON, err := json.Marshal(grades)
	if err != nil {
		return fmt.Errorf("encode grades: %w", err)
	}
	updatedAt := doc.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO grade_system_documents (
		   user_id,
		   system_id,
		   name,
		   version,
		   grades_json,
		   updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, system_id) DO UPDATE SET
		   name = excluded.name,
		   version = excluded.version,
		   grades_json = excluded.grades_json,
		   updated_at = excluded.updated_at`,
		userID,
		systemID,
		doc.System.Name,
		doc.System.Version,
		string(gradesJSON),
		toMillis(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("put grade system: %w", err)
	}
	return nil
}

// GetSystem returns one document.
func (s *Store) GetSystem(ctx context.Context, userID, systemID string) (storage.SystemDocument, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SystemDocument{}, err
	}
	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT user_id, system_id, name, version, grades_json, updated_at
		   FROM grade_system_documents
		  WHERE user_id = ? AND system_id = ?`,
		strings.TrimSpace(userID),
		strings.TrimSpace(systemID),
	)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SystemDocument{}, storage.ErrNotFound
		}
		return storage.SystemDocument{}, fmt.Errorf("get grade system: %w", err)
	}
	return doc, nil
}

// ListSystems returns every document of a user ordered by system id.
func (s *Store) ListSystems(ctx context.Context, userID string) ([]storage.SystemDocument, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT user_id, system_id, name, version, grades_json, updated_at
		   FROM grade_system_documents
		  WHERE user_id = ?
		  ORDER BY system_id`,
		strings.TrimSpace(userID),
	)
	if err != nil {
		return nil, fmt.Errorf("list grade systems: %w", err)
	}
	defer rows.Close()

	docs := make([]storage.SystemDocument, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan grade system: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate grade systems: %w", err)
	}
	return docs, nil
}

// DeleteSystem removes one document. Missing documents yield ErrNotFound.
func (s *Store) DeleteSystem(ctx context.Context, userID, systemID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM grade_system_documents WHERE user_id = ? AND system_id = ?`,
		strings.TrimSpace(userID),
		strings.TrimSpace(systemID),
	)
	if err != nil {
		return fmt.Errorf("delete grade system: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete grade system: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (storage.SystemDocument, error) {
	var doc storage.SystemDocument
	var gradesJSON string
	var updatedAt int64
	if err := row.Scan(
		&doc.UserID,
		&doc.System.ID,
		&doc.System.Name,
		&doc.System.Version,
		&gradesJSON,
		&updatedAt,
	); err != nil {
		return storage.SystemDocument{}, err
	}
	if err := json.Unmarshal([]byte(gradesJSON), &doc.System.Grades); err != nil {
		return storage.SystemDocument{}, fmt.Errorf("decode grades: %w", err)
	}
	doc.UpdatedAt = fromMillis(updatedAt)
	return doc, nil
}
