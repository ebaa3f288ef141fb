package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hextract/parking-net/internal/domain"
	"github.com/hextract/parking-net/internal/usecase/steps"
)

func stepsCmd(_ *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "steps",
		Short: "List the step catalog in execution order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plan := steps.Catalog()
			if err := plan.Validate(); err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tSTEP\tREQUIRES\tPRODUCES\tDESCRIPTION")
			for i, s := range plan {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", i+1, s.Name, keys(s.Requires), keys(s.Produces), s.Description)
			}
			return tw.Flush()
		},
	}
}

func keys(in []domain.StateKey) string {
	if len(in) == 0 {
		return "-"
	}
	out := make([]string, 0, len(in))
	for _, k := range in {
		out = append(out, string(k))
	}
	return strings.Join(out, ",")
}
