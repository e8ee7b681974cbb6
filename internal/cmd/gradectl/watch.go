package gradectl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/app"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/gradesystem"
	"github.com/spf13/cobra"
)

func newWatchCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the remote feed and keep local custom systems in sync",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(rt.cfg.RemoteURL) == "" {
				return errors.New("watch requires --remote")
			}
			if strings.TrimSpace(rt.cfg.UserID) == "" {
				return errors.New("watch requires --user")
			}
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				unsubscribe := core.Custom.Subscribe(ctx, func(defs []gradesystem.Definition) {
					ids := make([]string, 0, len(defs))
					for _, def := range defs {
						ids = append(ids, fmt.Sprintf("%s@v%d", def.ID, def.Version))
					}
					fmt.Fprintf(rt.out, "synced %d custom systems: %s\n", len(defs), strings.Join(ids, " "))
				})
				defer unsubscribe()
				<-ctx.Done()
				return nil
			})
		},
	}
}
