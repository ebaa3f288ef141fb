package cli

import (
	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/usecase"
)

func validateCmd(_ *rootOpts) *cobra.Command {
	var workspace string
	var env string
	var only []string

	c := &cobra.Command{
		Use:   "validate",
		Short: "Validate the workspace, environment and step plan (no HTTP)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}

			uc := usecase.NewValidatePlan(ws.envs)
			names, err := uc.Execute(cmd.Context(), ws.cfg, ws.environment(env), only)
			if err != nil {
				return err
			}

			root := ws.root
			if root == "" {
				root = "(built-in defaults)"
			}
			cmd.Printf("Workspace: %s\n", root)
			cmd.Printf("Steps:     %d\n", len(names))
			cmd.Println("OK")
			return nil
		},
	}

	c.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	c.Flags().StringVarP(&env, "env", "e", "", "Environment name or path (optional; defaults to the workspace default env)")
	c.Flags().StringSliceVar(&only, "only", nil, "Validate only this selection of steps")
	return c
}
