package run

import (
	"github.com/spf13/cobra"

	"github.com/user/tagrelease/internal/commands/cmdutil"
)

// NewVerifyCommand runs the pipeline up to the dry run. It never fetches
// a write credential and never publishes.
func NewVerifyCommand(globals *cmdutil.Globals) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          "verify [tag...]",
		Short:        "Match, validate and dry-run tags without publishing",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), cmd.OutOrStdout(), globals, opts, args, false)
		},
	}

	opts.register(cmd)
	return cmd
}
