package cmd

import (
	"fmt"

	"github.com/fogleman/gg"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gomanip/environment/envconfig"
)

func renderCommand() *cobra.Command {
	var (
		configPath string
		env        string
		out        string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the first frame of an episode to a PNG file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}

			c := envconfig.Default(env)
			if configPath != "" {
				if c, err = envconfig.Load(configPath); err != nil {
					return fmt.Errorf("render: %w", err)
				}
			}
			e, _, err := c.Create(log)
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			defer e.Close()

			img, err := e.Render()
			if err != nil {
				return fmt.Errorf("render: %w", err)
			}
			if err := gg.SavePNG(out, img); err != nil {
				return fmt.Errorf("render: %w", err)
			}
			log.Info("rendered frame", "file", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "",
		"environment configuration file, overrides --env")
	cmd.Flags().StringVar(&env, "env", "shelf-place", "task variant")
	cmd.Flags().StringVarP(&out, "out", "o", "frame.png", "output file")
	return cmd
}
