package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/gomanip/environment/envconfig"
)

func taskCommand() *cobra.Command {
	var (
		env  string
		seed uint64
		n    int
	)
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Sample task instances of a variant as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			c := envconfig.Default(env)
			c.Seed = seed
			e, _, err := c.Create(log)
			if err != nil {
				return fmt.Errorf("task: %w", err)
			}
			defer e.Close()

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			for i := 0; i < n; i++ {
				t, err := e.SampleTask()
				if err != nil {
					return fmt.Errorf("task: %w", err)
				}
				if err := enc.Encode(t); err != nil {
					return fmt.Errorf("task: %w", err)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&env, "env", "", "task variant")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "sampling seed")
	cmd.Flags().IntVarP(&n, "num", "n", 1, "number of tasks")
	_ = cmd.MarkFlagRequired("env")
	return cmd
}
