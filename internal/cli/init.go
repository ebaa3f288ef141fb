package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/infra/fsworkspace"
	"github.com/hextract/parking-net/internal/usecase"
)

func initCmd(_ *rootOpts) *cobra.Command {
	var force bool

	c := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a parknet-e2e workspace",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("invalid workspace path: %w", err)
			}

			if err := usecase.NewInitWorkspace(fsworkspace.NewInitializer()).Execute(root, force); err != nil {
				return err
			}

			cmd.Printf("Workspace initialized at %s\n", root)
			cmd.Println("Next: edit env/local.yaml, then run `parknet-e2e validate` and `parknet-e2e run`.")
			return nil
		},
	}

	c.Flags().BoolVar(&force, "force", false, "Overwrite existing files with the templates")
	return c
}
