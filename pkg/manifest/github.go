package manifest

import (
	"context"
	"errors"
	"fmt"

	"github.com/user/tagrelease/pkg/github"
	"github.com/user/tagrelease/pkg/release"
)

// GitHub reads manifests through the contents API at the event ref, so the
// declared version is the one the tag actually points to.
type GitHub struct {
	client *github.Client
	owner  string
	repo   string
}

func NewGitHub(client *github.Client, repository string) (*GitHub, error) {
	owner, repo, ok := github.SplitRepository(repository)
	if !ok {
		return nil, fmt.Errorf("repository must be owner/name, got %q", repository)
	}
	return &GitHub{client: client, owner: owner, repo: repo}, nil
}

func (g *GitHub) DeclaredVersion(ctx context.Context, pkg release.Package, ref string) (string, error) {
	return declaredVersion(ctx, func(ctx context.Context, rel string) ([]byte, error) {
		data, err := g.client.GetFileContent(ctx, g.owner, g.repo, rel, ref)
		if errors.Is(err, github.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s@%s", ErrNotFound, rel, ref)
		}
		return data, err
	}, pkg)
}
