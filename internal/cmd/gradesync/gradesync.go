// Package gradesync parses gradesync flags and launches the feed server.
package gradesync

import (
	"context"
	"flag"

	entrypoint "github.com/louisbranch/boulderlog/internal/platform/cmd"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	server "github.com/louisbranch/boulderlog/internal/services/gradesync/app"
)

const (
	defaultPort     = 8095
	defaultGRPCPort = 8096
)

// Config holds gradesync command configuration.
type Config struct {
	Port     int            `env:"BOULDERLOG_GRADESYNC_PORT" envDefault:"8095"`
	GRPCPort int            `env:"BOULDERLOG_GRADESYNC_GRPC_PORT" envDefault:"8096"`
	Log      logging.Config `envPrefix:"BOULDERLOG_"`
}

// ParseConfig parses environment and flags into Config. Flags bind to the
// config fields first, so explicit flags override the environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	fs.IntVar(&cfg.Port, "port", defaultPort, "The gradesync HTTP port")
	fs.IntVar(&cfg.GRPCPort, "grpc-port", defaultGRPCPort, "The gradesync gRPC health port")
	fs.StringVar(&cfg.Log.Level, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Log.Format, "log-format", "text", "Log format: text or json")
	if err := entrypoint.ParseConfigFromArgs(&cfg, fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the gradesync server.
func Run(ctx context.Context, cfg Config) error {
	logger := logging.New(cfg.Log).With("service", entrypoint.ServiceGradeSync)
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGradeSync, func(ctx context.Context) error {
		return server.Run(ctx, cfg.Port, cfg.GRPCPort, logger)
	})
}
