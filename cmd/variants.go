package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gomanip/environment/mujoco/sawyer"
)

func variantsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "variants",
		Short: "List the task variants and simulator backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "variants:")
			for _, name := range sawyer.Variants() {
				fmt.Fprintf(out, "  %v\n", name)
			}
			fmt.Fprintln(out, "backends:")
			for _, name := range sawyer.Backends() {
				fmt.Fprintf(out, "  %v\n", name)
			}
			return nil
		},
	}
}
