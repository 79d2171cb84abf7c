package release_test

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/pkg/credential"
	"github.com/user/tagrelease/pkg/release"
)

type descriptorNamed string

func (n descriptorNamed) Matches(x interface{}) bool {
	d, ok := x.(release.Descriptor)
	return ok && d.Name == string(n)
}

func (n descriptorNamed) String() string {
	return "descriptor named " + string(n)
}

func workspacePackages() []release.Package {
	return []release.Package{
		{Name: "lsp-positions", TagPrefix: "lsp-positions-v", VersionCheck: release.VersionCheckBlocking},
		{Name: "stack-graphs", TagPrefix: "stack-graphs-v", VersionCheck: release.VersionCheckBlocking, DependsOn: []string{"lsp-positions"}},
	}
}

func newRunner(f *fixture, packages []release.Package) *release.Runner {
	nop := zerolog.Nop()
	orch := release.NewOrchestrator(release.Options{
		Packages:    packages,
		Manifests:   f.manifests,
		Registry:    f.registry,
		Credentials: f.creds,
		Logger:      &nop,
	})
	return release.NewRunner(orch, 4)
}

func TestRunner_RunAll_PublishesDependenciesFirst(t *testing.T) {
	f, ctrl := newFixture(t)
	defer ctrl.Finish()

	f.manifests.EXPECT().DeclaredVersion(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p release.Package, _ string) (string, error) {
			if p.Name == "lsp-positions" {
				return "0.3.3", nil
			}
			return "0.12.0", nil
		}).Times(2)
	f.creds.EXPECT().FetchWriteCredential(gomock.Any(), gomock.Any()).Return(credential.New("test", "tok"), nil).Times(2)

	gomock.InOrder(
		f.registry.EXPECT().DryRun(gomock.Any(), descriptorNamed("lsp-positions"), gomock.Any()).Return(nil),
		f.registry.EXPECT().Publish(gomock.Any(), descriptorNamed("lsp-positions"), gomock.Any()).Return("0.3.3", nil),
		f.registry.EXPECT().DryRun(gomock.Any(), descriptorNamed("stack-graphs"), gomock.Any()).Return(nil),
		f.registry.EXPECT().Publish(gomock.Any(), descriptorNamed("stack-graphs"), gomock.Any()).Return("0.12.0", nil),
	)

	results, err := newRunner(f, workspacePackages()).RunAll(context.Background(), []release.Event{
		{Tag: "stack-graphs-v0.12.0"},
		{Tag: "lsp-positions-v0.3.3"},
	}, true)

	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "stack-graphs", results[0].Attempt.PackageName())
	require.Equal(t, release.StatusSucceeded, results[0].Status)
	require.Equal(t, "0.3.3", results[1].Version)
	require.Equal(t, 0, release.ExitCode(results))
}

func TestRunner_RunAll_DependencyFailureAbortsDependents(t *testing.T) {
	f, ctrl := newFixture(t)
	defer ctrl.Finish()

	f.manifests.EXPECT().DeclaredVersion(gomock.Any(), gomock.Any(), gomock.Any()).Return("0.3.3", nil)
	f.registry.EXPECT().DryRun(gomock.Any(), descriptorNamed("lsp-positions"), gomock.Any()).
		Return(fmt.Errorf("%w: invalid manifest", release.ErrRegistryRejected))

	results, err := newRunner(f, workspacePackages()).RunAll(context.Background(), []release.Event{
		{Tag: "lsp-positions-v0.3.3"},
		{Tag: "stack-graphs-v0.12.0"},
	}, true)

	require.NoError(t, err)
	require.Equal(t, release.StatusFailed, results[0].Status)
	require.Equal(t, release.StatusAborted, results[1].Status)
	require.Equal(t, release.KindDependencyFailed, results[1].Kind)
	require.Contains(t, results[1].Reason, "lsp-positions")
	require.Equal(t, release.ExitFailed, release.ExitCode(results))
}

func TestRunner_RunAll_UnmatchedAndDuplicateTags(t *testing.T) {
	f, ctrl := newFixture(t)
	defer ctrl.Finish()

	f.manifests.EXPECT().DeclaredVersion(gomock.Any(), gomock.Any(), gomock.Any()).Return("0.3.3", nil)
	f.registry.EXPECT().DryRun(gomock.Any(), descriptorNamed("lsp-positions"), gomock.Any()).Return(nil)

	results, err := newRunner(f, workspacePackages()).RunAll(context.Background(), []release.Event{
		{Tag: "lsp-positions-v0.3.3"},
		{Tag: "lsp-positions-v0.3.4"},
		{Tag: "unrelated-v1.0.0"},
	}, false)

	require.NoError(t, err)
	require.Equal(t, release.StatusSucceeded, results[0].Status)
	require.Equal(t, release.KindAmbiguousMatch, results[1].Kind)
	require.Equal(t, release.KindNoMatch, results[2].Kind)
	require.Equal(t, release.ExitAborted, release.ExitCode(results))
}

func TestRunner_RunAll_LogsUnmatchedTag(t *testing.T) {
	f, ctrl := newFixture(t)
	defer ctrl.Finish()

	var buf bytes.Buffer
	log := zerolog.New(&buf)
	orch := release.NewOrchestrator(release.Options{
		Packages:    workspacePackages(),
		Manifests:   f.manifests,
		Registry:    f.registry,
		Credentials: f.creds,
		Logger:      &log,
	})

	results, err := release.NewRunner(orch, 1).RunAll(context.Background(), []release.Event{{Tag: "unknown-v1.0.0"}}, true)

	require.NoError(t, err)
	require.Equal(t, release.KindNoMatch, results[0].Kind)
	require.Contains(t, buf.String(), "Tag does not select a package")
	require.Contains(t, buf.String(), `"tag":"unknown-v1.0.0"`)
}

func TestRunner_RunAll_Cycle(t *testing.T) {
	f, ctrl := newFixture(t)
	defer ctrl.Finish()

	packages := []release.Package{
		{Name: "a", TagPrefix: "a-v", VersionCheck: release.VersionCheckBlocking, DependsOn: []string{"b"}},
		{Name: "b", TagPrefix: "b-v", VersionCheck: release.VersionCheckBlocking, DependsOn: []string{"a"}},
	}

	_, err := newRunner(f, packages).RunAll(context.Background(), []release.Event{{Tag: "a-v1.0.0"}, {Tag: "b-v1.0.0"}}, true)

	require.ErrorIs(t, err, release.ErrDependencyCycle)
}
