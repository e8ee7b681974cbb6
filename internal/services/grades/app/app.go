// Package app wires the grade core: one registry shared by conversion,
// snapshots, stats, and the custom system manager, over the configured
// local store and optional remote feed.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/louisbranch/boulderlog/internal/platform/config"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/services/grades/custom"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/snapshot"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/stats"
	"github.com/louisbranch/boulderlog/internal/services/grades/remote"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
	gradesbadger "github.com/louisbranch/boulderlog/internal/services/grades/storage/badger"
	gradessqlite "github.com/louisbranch/boulderlog/internal/services/grades/storage/sqlite"
)

// Local store drivers.
const (
	DriverSQLite = "sqlite"
	DriverBadger = "badger"
)

// Config selects the local store and remote feed. Variables carry the
// BOULDERLOG_ prefix.
type Config struct {
	StoreDriver string `env:"STORE_DRIVER" envDefault:"sqlite"`
	// StorePath is a SQLite file or a Badger directory.
	StorePath string `env:"STORE_PATH"`
	// RemoteURL is the gradesync base URL; empty keeps the core offline.
	RemoteURL string `env:"REMOTE_URL"`
	UserID    string `env:"USER_ID"`
}

// LoadConfig reads Config from the environment and fills path defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnvPrefixed(&cfg); err != nil {
		return Config{}, err
	}
	return cfg.withDefaults(), nil
}

func (c Config) withDefaults() Config {
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	if c.StoreDriver == "" {
		c.StoreDriver = DriverSQLite
	}
	if strings.TrimSpace(c.StorePath) == "" {
		switch c.StoreDriver {
		case DriverBadger:
			c.StorePath = filepath.Join("data", "grades-badger")
		default:
			c.StorePath = filepath.Join("data", "grades.db")
		}
	}
	return c
}

// Core holds the wired grade components.
type Core struct {
	Registry  *gradesystem.Registry
	Engine    *conversion.Engine
	Snapshots *snapshot.Builder
	Stats     *stats.Aggregator
	Custom    *custom.Manager
	// Remote is nil when no RemoteURL is configured.
	Remote *remote.Client
	// UserID is the identity the manager is scoped to.
	UserID string

	store  storage.KeyValueStore
	logger *slog.Logger
}

// Open opens the local store and builds the core. Persisted custom systems
// are registered before it returns.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Core, error) {
	cfg = cfg.withDefaults()
	logger = logging.OrDiscard(logger)

	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	var remoteClient *remote.Client
	var remoteStore storage.RemoteStore
	if strings.TrimSpace(cfg.RemoteURL) != "" {
		remoteClient, err = remote.New(cfg.RemoteURL, remote.WithLogger(logger))
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		remoteStore = remoteClient
	}

	core, err := New(ctx, store, remoteStore, cfg.UserID, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	core.Remote = remoteClient
	return core, nil
}

// New builds a core over an already open store. remoteStore may be nil.
func New(ctx context.Context, store storage.KeyValueStore, remoteStore storage.RemoteStore, userID string, logger *slog.Logger) (*Core, error) {
	if store == nil {
		return nil, errors.New("local store is required")
	}
	logger = logging.OrDiscard(logger)
	userID = strings.TrimSpace(userID)

	registry := gradesystem.NewRegistry()
	engine := conversion.NewEngine(registry)
	opts := []custom.Option{
		custom.WithLogger(logger),
		custom.WithIdentity(custom.StaticIdentity(userID)),
	}
	if remoteStore != nil {
		opts = append(opts, custom.WithRemote(remoteStore))
	}
	manager := custom.NewManager(registry, store, opts...)

	n, err := manager.LoadAndRegisterAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load custom systems: %w", err)
	}
	logger.DebugContext(ctx, "grade core ready", "custom_systems", n, "user_id", userID)

	return &Core{
		Registry:  registry,
		Engine:    engine,
		Snapshots: snapshot.NewBuilder(engine),
		Stats:     stats.NewAggregator(engine),
		Custom:    manager,
		UserID:    userID,
		store:     store,
		logger:    logger,
	}, nil
}

// Close releases the local store.
func (c *Core) Close() error {
	if c == nil || c.store == nil {
		return nil
	}
	return c.store.Close()
}

func openStore(cfg Config, logger *slog.Logger) (storage.KeyValueStore, error) {
	switch cfg.StoreDriver {
	case DriverSQLite:
		if dir := filepath.Dir(cfg.StorePath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create storage dir: %w", err)
			}
		}
		store, err := gradessqlite.Open(cfg.StorePath)
		if err != nil {
			return nil, fmt.Errorf("open grades sqlite store: %w", err)
		}
		return store, nil
	case DriverBadger:
		store, err := gradesbadger.Open(gradesbadger.Config{Path: cfg.StorePath, SyncWrites: true, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("open grades badger store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
