package commands

import (
	"github.com/spf13/cobra"

	"github.com/user/tagrelease/internal/commands/cmdutil"
	"github.com/user/tagrelease/internal/commands/history"
	"github.com/user/tagrelease/internal/commands/run"
	"github.com/user/tagrelease/internal/commands/serve"
)

var globals = &cmdutil.Globals{}

var rootCmd = &cobra.Command{
	Use:           "tagrelease",
	Short:         "Tag-triggered package release orchestrator",
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globals.ConfigFile, "config", "c", "release.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&globals.Debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&globals.LogJSON, "log-json", false, "Write logs as JSON")

	rootCmd.AddCommand(run.NewCommand(globals))
	rootCmd.AddCommand(run.NewVerifyCommand(globals))
	rootCmd.AddCommand(serve.NewCommand(globals))
	rootCmd.AddCommand(history.NewCommand(globals))
}

func Execute() error {
	return rootCmd.Execute()
}
