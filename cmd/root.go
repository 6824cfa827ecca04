// Package cmd implements the sdoc CLI commands.
package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/eykd/scenariodoc/internal/config"
	"github.com/eykd/scenariodoc/internal/logging"
)

// NewRootCmd creates the root sdoc command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sdoc",
		Short:         "sdoc - record test runs as browsable scenario documentation",
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		RunE:          rootRunE,
	}
	root.PersistentFlags().String("config", "", "config file (default: "+config.FileName+" if present)")
	root.PersistentFlags().String("log-level", "info", "log level: trace, debug, info, warn, error")
	root.PersistentFlags().String("log-format", logging.FormatText, "log format: text or json")

	root.AddCommand(NewInitCmd(newDefaultInitIO()))
	root.AddCommand(NewRecordCmd(newDefaultRecordIO()))
	root.AddCommand(NewInspectCmd(newDefaultInspectIO()))
	root.AddCommand(NewPublishCmd(newDefaultPublishIO()))
	return root
}

func rootRunE(cmd *cobra.Command, _ []string) error {
	return cmd.Help()
}

// newLogger builds the command's logger from the persistent log flags.
// Subcommands run on their own (as in tests) fall back to the defaults.
func newLogger(cmd *cobra.Command) (*logrus.Entry, error) {
	level, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")
	l, err := logging.New(cmd.ErrOrStderr(), level, format)
	if err != nil {
		return nil, err
	}
	return logrus.NewEntry(l).WithField("command", cmd.Name()), nil
}

// loadConfig reads the file named by --config with load.
func loadConfig(cmd *cobra.Command, load func(path string) (config.Config, error)) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
