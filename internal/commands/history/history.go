package history

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/tagrelease/internal/commands/cmdutil"
	"github.com/user/tagrelease/internal/database"
)

func NewCommand(globals *cmdutil.Globals) *cobra.Command {
	var filter database.ListFilter
	var stages bool

	cmd := &cobra.Command{
		Use:          "history",
		Short:        "List recorded release attempts",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := globals.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.History.SQLitePath == "" {
				return errors.New("history is disabled: set history.sqlite_path in the config")
			}

			db, err := database.NewSQLiteDB(cfg.History.SQLitePath)
			if err != nil {
				return fmt.Errorf("initializing history database: %w", err)
			}
			store := database.NewStore(db)

			attempts, err := store.ListAttempts(cmd.Context(), filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(attempts) == 0 {
				fmt.Fprintln(out, "No release attempts recorded.")
				return nil
			}

			writeAttempts(out, attempts)

			if !stages {
				return nil
			}
			for _, a := range attempts {
				st, err := store.GetStages(cmd.Context(), a.ID)
				if err != nil {
					return err
				}
				writeStages(out, a, st)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&filter.Package, "package", "p", "", "Only show attempts for this package")
	cmd.Flags().StringVar(&filter.Status, "status", "", "Only show attempts with this status (succeeded, aborted, failed)")
	cmd.Flags().IntVarP(&filter.Limit, "limit", "n", 20, "Maximum number of attempts to show")
	cmd.Flags().BoolVar(&stages, "stages", false, "Print the stage log of every attempt")

	return cmd
}

func writeAttempts(out io.Writer, attempts []database.Attempt) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tTAG\tPACKAGE\tSTATUS\tSTAGE\tVERSION\tDETAILS")
	for _, a := range attempts {
		details := a.Kind
		if a.Note != "" && a.Status == "succeeded" {
			details = a.Note
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			time.Unix(a.StartedAt, 0).UTC().Format(time.RFC3339),
			a.Tag, dash(a.PackageName), a.Status, a.Stage, dash(a.Version), dash(details))
	}
	_ = tw.Flush()
}

func writeStages(out io.Writer, a database.Attempt, stages []database.AttemptStage) {
	fmt.Fprintf(out, "\n%s (%s)\n", a.Tag, a.ID)
	for _, s := range stages {
		fmt.Fprintf(out, "  %-12s %-8s %6dms  %s\n", s.Stage, s.Outcome, s.DurationMs, s.Message)
	}
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
