package gradectl

import (
	"context"
	"fmt"
	"strings"

	"github.com/louisbranch/boulderlog/internal/services/grades/app"
	"github.com/louisbranch/boulderlog/internal/services/grades/storage"
	"github.com/spf13/cobra"
)

func newCustomCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "custom",
		Short: "Manage user-defined grade systems",
	}
	cmd.AddCommand(newCustomPutCommand(rt), newCustomRemoveCommand(rt), newCustomImportCommand(rt))
	return cmd
}

func newCustomPutCommand(rt *runtime) *cobra.Command {
	var id, name string
	var grades []string
	cmd := &cobra.Command{
		Use:     "put",
		Short:   "Create or replace a custom system",
		Example: `  gradectl custom put --name "Gym Colors" --grade Pink:#ff69b4 --grade Blue --grade Black`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			system := storage.CustomGradeSystem{ID: id, Name: name, Grades: parseGradeFlags(grades)}
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				return putSystems(ctx, rt, core, []storage.CustomGradeSystem{system})
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "System id; derived from the name when empty")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringArrayVar(&grades, "grade", nil, "Grade as Name or Name:color, easiest first; repeatable")
	return cmd
}

// parseGradeFlags splits "Name:color" values. Colors may contain ':' only
// after the first separator.
func parseGradeFlags(values []string) []storage.CustomGrade {
	grades := make([]storage.CustomGrade, 0, len(values))
	for _, value := range values {
		name, color, _ := strings.Cut(value, ":")
		grades = append(grades, storage.CustomGrade{Name: name, Color: color})
	}
	return grades
}

func newCustomRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"remove"},
		Short:   "Remove a custom system",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				if err := core.Custom.RemoveCustomSystem(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(rt.out, "removed %s\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}
}

func newCustomImportCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE",
		Short: "Create or replace custom systems from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			systems, err := readCustomSystems(args[0])
			if err != nil {
				return err
			}
			return rt.withCore(cmd, func(ctx context.Context, core *app.Core) error {
				return putSystems(ctx, rt, core, systems)
			})
		},
	}
}

func putSystems(ctx context.Context, rt *runtime, core *app.Core, systems []storage.CustomGradeSystem) error {
	for _, system := range systems {
		id, err := core.Custom.UpsertCustomSystem(ctx, system)
		if err != nil {
			return fmt.Errorf("save %q: %w", system.Name, err)
		}
		def, _ := core.Registry.Get(id)
		fmt.Fprintf(rt.out, "saved %s v%d (%d grades)\n", id, def.Version, len(def.Grades))
	}
	return nil
}
