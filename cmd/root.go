// Package cmd implements the gomanip command line interface
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	logLevel string
}

var flags = &rootFlags{}

// logger returns the logger configured by the root flags
func logger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(flags.logLevel)); err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level})), nil
}

// RootCommand returns the gomanip command
func RootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gomanip",
		Short:         "Sawyer manipulation tasks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")

	cmd.AddCommand(
		variantsCommand(),
		taskCommand(),
		renderCommand(),
		runCommand(),
	)
	return cmd
}
