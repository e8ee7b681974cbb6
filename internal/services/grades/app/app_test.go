package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/boulderlog/internal/services/grades/domain/climb"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
	gradessqlite "github.com/louisbranch/boulderlog/internal/services/grades/storage/sqlite"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("BOULDERLOG_STORE_DRIVER", "")
	t.Setenv("BOULDERLOG_STORE_PATH", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != DriverSQLite {
		t.Fatalf("driver = %q, want sqlite", cfg.StoreDriver)
	}
	if cfg.StorePath != filepath.Join("data", "grades.db") {
		t.Fatalf("path = %q", cfg.StorePath)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BOULDERLOG_STORE_DRIVER", "Badger")
	t.Setenv("BOULDERLOG_STORE_PATH", "")
	t.Setenv("BOULDERLOG_USER_ID", "u1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.StoreDriver != DriverBadger || cfg.UserID != "u1" {
		t.Fatalf("config = %+v", cfg)
	}
	if cfg.StorePath != filepath.Join("data", "grades-badger") {
		t.Fatalf("path = %q", cfg.StorePath)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{StoreDriver: "etcd", StorePath: t.TempDir()}, nil)
	if err == nil {
		t.Fatal("expected unknown driver error")
	}
}

func TestOpenRejectsBadRemoteURL(t *testing.T) {
	cfg := Config{StorePath: filepath.Join(t.TempDir(), "grades.db"), RemoteURL: "ftp://nope"}
	if _, err := Open(context.Background(), cfg, nil); err == nil {
		t.Fatal("expected remote url error")
	}
}

func TestCustomSystemsSurviveReopen(t *testing.T) {
	for _, driver := range []string{DriverSQLite, DriverBadger} {
		t.Run(driver, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "store")
			cfg := Config{StoreDriver: driver, StorePath: path, UserID: "u1"}
			ctx := context.Background()

			core, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			id, err := core.Custom.UpsertCustomSystem(ctx, storage.CustomGradeSystem{
				Name:   "Gym Colors",
				Grades: []storage.CustomGrade{{Name: "Pink"}, {Name: "Blue"}, {Name: "Black"}},
			})
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if err := core.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}

			reopened, err := Open(ctx, cfg, nil)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer reopened.Close()
			if _, ok := reopened.Registry.Get(id); !ok {
				t.Fatalf("%s not registered after reopen", id)
			}
		})
	}
}

func TestCoreSharesOneRegistry(t *testing.T) {
	store, err := gradessqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	core, err := New(context.Background(), store, nil, "", nil)
	if err != nil {
		t.Fatalf("new core: %v", err)
	}
	defer core.Close()

	id, err := core.Custom.UpsertCustomSystem(context.Background(), storage.CustomGradeSystem{
		Name:   "Tape",
		Grades: []storage.CustomGrade{{Name: "Green"}, {Name: "Red"}},
	})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	attempt := climb.Attempt{Grade: "Red", Attempts: 2}
	core.Snapshots.Enrich(&attempt, id)
	if attempt.GradeSnapshot == nil || attempt.GradeSnapshot.OriginalSystemID != id {
		t.Fatalf("snapshot = %+v", attempt.GradeSnapshot)
	}

	got := core.Stats.BuildSessionStats([]climb.Attempt{attempt}, id)
	if got.MaxGrade != "Red" {
		t.Fatalf("max grade = %q, want Red", got.MaxGrade)
	}
}

func TestNewRequiresStore(t *testing.T) {
	if _, err := New(context.Background(), nil, nil, "", nil); err == nil {
		t.Fatal("expected missing store error")
	}
}
