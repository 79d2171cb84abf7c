package checkout

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/user/tagrelease/pkg/registry"
	"github.com/user/tagrelease/pkg/release"
)

// Git moves an existing clone to the commit a tag event points at.
type Git struct {
	dir      string
	remote   string
	executor registry.Executor
}

func NewGit(dir string) *Git {
	return NewGitWithExecutor(dir, registry.DefaultExecutor())
}

func NewGitWithExecutor(dir string, executor registry.Executor) *Git {
	return &Git{dir: dir, remote: "origin", executor: executor}
}

func (g *Git) Dir() string {
	return g.dir
}

// Checkout fetches tags and detaches the working tree at the event commit,
// falling back to the tag itself when the event carries no commit.
func (g *Git) Checkout(ctx context.Context, ev release.Event) error {
	target := ev.CommitSHA
	if target == "" {
		target = ev.RefOrTag()
	}

	steps := [][]string{
		{"git", "fetch", "--force", "--tags", g.remote},
		{"git", "checkout", "--force", "--detach", target},
	}
	for _, argv := range steps {
		out, err := g.executor.Run(ctx, g.dir, gitEnv(), argv)
		if err != nil {
			return fmt.Errorf("%s: %w: %s", strings.Join(argv[:2], " "), err, strings.TrimSpace(string(out)))
		}
	}
	return nil
}

func gitEnv() []string {
	return append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
}
