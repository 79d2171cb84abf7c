package release_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/pkg/release"
)

func sampleResults() []*release.Result {
	ok := &release.Result{
		Status:  release.StatusSucceeded,
		Stage:   release.StatePublishing,
		Version: "2.3.0",
		Attempt: &release.Attempt{
			Event:      release.Event{Tag: "refs/tags/libfoo-v2.3.0"},
			Descriptor: &release.Descriptor{Package: release.Package{Name: "libfoo"}},
			Stages: []release.StageLog{
				{Stage: release.StateMatching, Outcome: release.OutcomeOK, Message: "matched package libfoo"},
			},
		},
	}
	failed := &release.Result{
		Status: release.StatusFailed,
		Stage:  release.StateDryRunning,
		Kind:   release.KindRegistryRejected,
		Reason: "registry rejected package: missing | license",
		Attempt: &release.Attempt{
			Event:      release.Event{Tag: "libbar-v1.0.0"},
			Descriptor: &release.Descriptor{Package: release.Package{Name: "libbar"}},
			Stages: []release.StageLog{
				{Stage: release.StateDryRunning, Outcome: release.OutcomeFailed, Message: "cargo exited 101"},
			},
		},
	}
	aborted := &release.Result{
		Status:  release.StatusAborted,
		Stage:   release.StateMatching,
		Kind:    release.KindNoMatch,
		Reason:  `no package matches tag: "docs-v1"`,
		Attempt: &release.Attempt{Event: release.Event{Tag: "docs-v1"}},
	}
	return []*release.Result{ok, failed, aborted}
}

func TestHeadline(t *testing.T) {
	results := sampleResults()

	require.Equal(t, "libfoo-v2.3.0: succeeded (2.3.0)", release.Headline(results[0]))
	require.Equal(t, "libbar-v1.0.0: failed at dry_running [RegistryRejected] registry rejected package: missing | license", release.Headline(results[1]))
	require.Equal(t, `docs-v1: aborted [NoMatch] no package matches tag: "docs-v1"`, release.Headline(results[2]))
}

func TestFormatText_OutputModes(t *testing.T) {
	results := sampleResults()

	onFailure := release.FormatText(results, release.OutputOnFailure)
	require.NotContains(t, onFailure, "matched package libfoo")
	require.Contains(t, onFailure, "cargo exited 101")

	always := release.FormatText(results, release.OutputAlways)
	require.Contains(t, always, "matched package libfoo")
}

func TestFormatMarkdown(t *testing.T) {
	msg := release.FormatMarkdown(sampleResults())

	require.Contains(t, msg, "| `libfoo-v2.3.0` | libfoo | ✅ succeeded | publishing | 2.3.0 | - |")
	require.Contains(t, msg, "- **libbar-v1.0.0** at `dry_running`: registry rejected package: missing | license")
	require.Contains(t, msg, "### Not released (2)")
	require.Contains(t, msg, "| `docs-v1` | - |")
}
