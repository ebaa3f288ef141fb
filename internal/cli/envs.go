package cli

import (
	"errors"
	"path/filepath"

	"github.com/spf13/cobra"
)

func envsCmd(_ *rootOpts) *cobra.Command {
	var workspace string

	cmd := &cobra.Command{
		Use:   "envs",
		Short: "List the environments of a workspace",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := loadWorkspace(workspace)
			if err != nil {
				return err
			}
			if ws.root == "" {
				return errors.New("no workspace found (tip: run `parknet-e2e init`)")
			}

			refs, err := ws.envCatalog.ListEnvironments(ws.root)
			if err != nil {
				return err
			}

			if len(refs) == 0 {
				cmd.Println("(no environments found)")
				return nil
			}

			cmd.Printf("Workspace: %s\n", ws.root)
			cmd.Printf("Default:   %s\n\n", ws.cfg.Defaults.Environment)

			for _, r := range refs {
				rel, _ := filepath.Rel(ws.root, r.Path)
				cmd.Printf("- %s  (%s)\n", r.Name, rel)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&workspace, "workspace", "w", "", "Workspace root (optional; autodetected if omitted)")
	return cmd
}
