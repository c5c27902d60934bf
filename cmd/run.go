package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/samuelfneumann/gomanip/experiment"
	"github.com/samuelfneumann/gomanip/experiment/checkpointer"
	"github.com/samuelfneumann/gomanip/experiment/tracker"
	ts "github.com/samuelfneumann/gomanip/timestep"
	"github.com/samuelfneumann/gomanip/utils/progressbar"
)

const progressWidth = 40

func runCommand() *cobra.Command {
	var (
		outDir     string
		checkEvery int
		progress   bool
	)
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Run an experiment and save the returns, lengths and successes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := logger()
			if err != nil {
				return err
			}
			c, err := experiment.LoadConfig(args[0])
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("run: %w", err)
			}

			returns := tracker.NewReturn(filepath.Join(outDir, "return.bin"))
			trackers := []tracker.Tracker{
				returns,
				tracker.NewEpisodeLength(filepath.Join(outDir, "length.bin")),
				tracker.NewSuccess(filepath.Join(outDir, "success.bin")),
			}
			var check []checkpointer.Checkpointer
			if checkEvery > 0 {
				check = append(check, checkpointer.NewNStep(checkEvery, returns,
					checkpointer.FilenameEnumerator(0,
						filepath.Join(outDir, "return-"), ".bin")))
			}

			exp, env, err := c.CreateExp(log, trackers, check)
			if err != nil {
				return fmt.Errorf("run: %w", err)
			}
			defer env.Close()

			if online, ok := exp.(*experiment.Online); ok && progress {
				bar := progressbar.NewManualProgressBar(cmd.ErrOrStderr(),
					progressWidth, int(c.MaxSteps))
				defer bar.Close()
				online.OnStep(func(t ts.TimeStep) {
					if !t.First() {
						bar.Increment()
						bar.Display()
					}
				})
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			runErr := exp.Run(ctx)

			// Data of the finished episodes is saved even when interrupted
			if err := exp.Save(); err != nil {
				return fmt.Errorf("run: %w", err)
			}
			if runErr != nil && ctx.Err() == nil {
				return fmt.Errorf("run: %w", runErr)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "data", "output directory")
	cmd.Flags().IntVar(&checkEvery, "checkpoint-every", 0,
		"checkpoint the returns every n steps, 0 disables checkpoints")
	cmd.Flags().BoolVar(&progress, "progress", false, "display a progress bar")
	return cmd
}
