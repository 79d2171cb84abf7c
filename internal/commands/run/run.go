package run

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/user/tagrelease/internal/app"
	"github.com/user/tagrelease/internal/commands/cmdutil"
	"github.com/user/tagrelease/pkg/release"
)

type options struct {
	tags   []string
	repo   string
	sha    string
	root   string
	output string
}

func NewCommand(globals *cmdutil.Globals) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "run [tag...]",
		Short: "Verify, dry-run and publish the packages named by pushed tags",
		Long: `Runs one release attempt per tag: the tag is matched to a configured
package, checked against the manifest version, dry-run against the registry
and published only when every earlier stage succeeded.

Exit codes: 0 all attempts succeeded, 2 an attempt was aborted, 3 an attempt failed.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(cmd.Context(), cmd.OutOrStdout(), globals, opts, args, true)
		},
	}

	opts.register(cmd)
	return cmd
}

func (o *options) register(cmd *cobra.Command) {
	cmd.Flags().StringArrayVarP(&o.tags, "tag", "t", nil, "Tag to release (repeatable)")
	cmd.Flags().StringVar(&o.repo, "repo", "", "Repository the tags were pushed to (owner/name)")
	cmd.Flags().StringVar(&o.sha, "sha", "", "Commit the tags point at")
	cmd.Flags().StringVar(&o.root, "root", "", "Repository working tree (overrides config root)")
	cmd.Flags().StringVarP(&o.output, "output", "o", string(release.OutputOnFailure), "Stage log output: always or on-failure")
}

func execute(ctx context.Context, out io.Writer, globals *cmdutil.Globals, opts *options, args []string, publish bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	mode := release.OutputMode(opts.output)
	if mode != release.OutputAlways && mode != release.OutputOnFailure {
		return fmt.Errorf("invalid --output %q: must be always or on-failure", opts.output)
	}

	tags := append(append([]string{}, opts.tags...), args...)
	if len(tags) == 0 {
		return errors.New("at least one tag is required")
	}

	cfg, err := globals.LoadConfig()
	if err != nil {
		return err
	}

	root := opts.root
	if root == "" {
		root = cfg.RootDir()
	}

	a, err := app.New(cfg, root)
	if err != nil {
		return err
	}

	repo := opts.repo
	if repo == "" {
		repo = cfg.Repository
	}

	events := make([]release.Event, 0, len(tags))
	for _, tag := range tags {
		ev := release.Event{Tag: tag, Repository: repo, CommitSHA: opts.sha}
		events = append(events, a.ResolveCommit(ctx, ev))
	}

	results, err := a.Runner.RunAll(ctx, events, publish)
	if err != nil {
		return err
	}

	fmt.Fprint(out, release.FormatText(results, mode))

	if publish {
		a.Report(ctx, results)
	}

	if code := release.ExitCode(results); code != release.ExitSucceeded {
		return &app.ExitError{Code: code}
	}
	return nil
}
