// Package gradectl implements the gradectl command tree: inspecting grade
// systems, converting labels, managing custom systems, and summarizing
// logged sessions from the terminal.
package gradectl

import (
	"context"
	"io"
	"log/slog"

	entrypoint "github.com/louisbranch/boulderlog/internal/platform/cmd"
	"github.com/louisbranch/boulderlog/internal/platform/config"
	"github.com/louisbranch/boulderlog/internal/platform/logging"
	"github.com/louisbranch/boulderlog/internal/services/grades/app"
	"github.com/spf13/cobra"
)

// runtime carries configuration shared by every subcommand.
type runtime struct {
	cfg    app.Config
	log    logging.Config
	out    io.Writer
	errOut io.Writer
	logger *slog.Logger
}

// Execute runs gradectl with args under the shared telemetry setup.
func Execute(ctx context.Context, args []string, out, errOut io.Writer) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceGradeCtl, func(ctx context.Context) error {
		root := NewRootCommand(out, errOut)
		root.SetArgs(args)
		return root.ExecuteContext(ctx)
	})
}

// NewRootCommand builds the command tree. Environment variables prefixed
// BOULDERLOG_ provide defaults; flags override them.
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	rt := &runtime{out: out, errOut: errOut}
	envCfg, envErr := app.LoadConfig()
	rt.cfg = envCfg
	if err := config.ParseEnvPrefixed(&rt.log); err != nil && envErr == nil {
		envErr = err
	}

	root := &cobra.Command{
		Use:           "gradectl",
		Short:         "Inspect, convert and summarize climbing grades",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if envErr != nil {
				return envErr
			}
			logCfg := rt.log
			logCfg.Output = rt.errOut
			rt.logger = logging.New(logCfg).With("service", entrypoint.ServiceGradeCtl)
			return nil
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&rt.cfg.StoreDriver, "store-driver", rt.cfg.StoreDriver, "Local store driver: sqlite or badger")
	flags.StringVar(&rt.cfg.StorePath, "store-path", rt.cfg.StorePath, "SQLite file or Badger directory")
	flags.StringVar(&rt.cfg.RemoteURL, "remote", rt.cfg.RemoteURL, "gradesync base URL")
	flags.StringVar(&rt.cfg.UserID, "user", rt.cfg.UserID, "User id for custom systems and sync")
	flags.StringVar(&rt.log.Level, "log-level", rt.log.Level, "Log level: debug, info, warn, error")

	root.AddCommand(
		newSystemsCommand(rt),
		newConvertCommand(rt),
		newCustomCommand(rt),
		newSelectCommand(rt),
		newStatsCommand(rt),
		newWatchCommand(rt),
	)
	return root
}

// withCore opens the grade core for the duration of fn.
func (rt *runtime) withCore(cmd *cobra.Command, fn func(ctx context.Context, core *app.Core) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	core, err := app.Open(ctx, rt.cfg, rt.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := core.Close(); err != nil {
			logging.OrDiscard(rt.logger).Warn("close grade store", "error", err)
		}
	}()
	return fn(ctx, core)
}
