package gradectl

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	apperrors "github.com/louisbranch/boulderlog/internal/platform/errors"
	"github.com/louisbranch/boulderlog/internal/services/grades/app"
	"github.com/louisbranch/boulderlog/internal/services/grades/domain/conversion"
	"github.com/spf13/cobra"
)

func newSystemsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "systems [ID]",
		Short: "List grade systems, or show the grades of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				if len(args) == 1 {
					return showSystem(rt, core, args[0])
				}
				return listSystems(ctx, rt, core)
			})
		},
	}
}

func listSystems(ctx context.Context, rt *runtime, core *app.Core) error {
	selected := core.Custom.SelectedSystemID(ctx)
	w := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSCOPE\tVERSION\tGRADES\tSELECTED")
	for _, def := range core.Registry.List() {
		mark := ""
		if def.ID == selected {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", def.ID, def.Name, def.Scope, def.Version, len(def.Grades), mark)
	}
	return w.Flush()
}

func showSystem(rt *runtime, core *app.Core, id string) error {
	def, ok := core.Engine.System(id)
	if !ok {
		return apperrors.WithMetadata(apperrors.CodeGradeSystemNotFound,
			fmt.Sprintf("grade system %q is not registered", id),
			map[string]string{"ID": conversion.NormalizeSystemID(id)})
	}
	fmt.Fprintf(rt.out, "%s (%s, v%d)\n", def.Name, def.ID, def.Version)
	w := tabwriter.NewWriter(rt.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ORDER\tLABEL\tCANONICAL\tALIASES\tCOLOR\tAPPROX")
	for _, entry := range def.Grades {
		approx := ""
		if entry.Approximate {
			approx = "~"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
			entry.DisplayOrder, entry.Label, entry.CanonicalValue, strings.Join(entry.Aliases, ","), entry.Color, approx)
	}
	return w.Flush()
}

func newConvertCommand(rt *runtime) *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "convert LABEL",
		Short: "Convert a grade label between systems",
		Long: `Convert a grade label between systems. Without --from the source
system is detected from the label. Without --to the selected display
system is used. Labels with no mapping are printed unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				target := to
				if strings.TrimSpace(target) == "" {
					target = core.Custom.SelectedSystemID(ctx)
				}
				var out string
				if strings.TrimSpace(from) == "" {
					out = core.Engine.ConvertGrade(args[0], target)
				} else {
					out = core.Engine.ConvertLabel(args[0], from, target)
				}
				fmt.Fprintln(rt.out, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "Source system id (V, Font, vscale, font, user-...)")
	cmd.Flags().StringVar(&to, "to", "", "Target system id")
	return cmd
}

func newSelectCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "select [ID]",
		Short: "Show or set the display grade system",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				if len(args) == 1 {
					if err := core.Custom.SelectSystem(ctx, args[0]); err != nil {
						return err
					}
				}
				fmt.Fprintln(rt.out, core.Custom.SelectedSystemID(ctx))
				return nil
			})
		},
	}
}
