package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/user/tagrelease/pkg/credential"
	"github.com/user/tagrelease/pkg/release"
)

//go:generate mockgen -destination=mocks/executor_mock.go -package=mocks github.com/user/tagrelease/pkg/registry Executor

const maxReasonLen = 2000

// Executor runs argv in dir with exactly env as its environment.
type Executor interface {
	Run(ctx context.Context, dir string, env []string, argv []string) ([]byte, error)
}

type execExecutor struct{}

// DefaultExecutor runs commands with os/exec.
func DefaultExecutor() Executor {
	return execExecutor{}
}

func (execExecutor) Run(ctx context.Context, dir string, env []string, argv []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = env
	return cmd.CombinedOutput()
}

// Command publishes packages by running each registry's own CLI inside the
// package location. Tokens reach the tool only through its token variable.
type Command struct {
	tools    map[string]Tool
	executor Executor
	environ  func() []string
	root     string
}

func NewCommand(custom map[string]Tool) *Command {
	return NewCommandWithExecutor(custom, execExecutor{})
}

func NewCommandWithExecutor(custom map[string]Tool, executor Executor) *Command {
	tools := make(map[string]Tool, len(BuiltinTools)+len(custom))
	for name, t := range BuiltinTools {
		tools[name] = t
	}
	for name, t := range custom {
		tools[name] = t
	}
	return &Command{tools: tools, executor: executor, environ: os.Environ}
}

// SetRoot makes package locations relative to dir instead of the working
// directory.
func (c *Command) SetRoot(dir string) {
	c.root = dir
}

// SetEnviron replaces the base environment handed to every tool.
func (c *Command) SetEnviron(environ func() []string) {
	c.environ = environ
}

func (c *Command) Known(kind string) bool {
	_, ok := c.tools[kind]
	return ok
}

func (c *Command) DryRun(ctx context.Context, d release.Descriptor, scoped credential.Credential) error {
	tool, err := c.tool(d)
	if err != nil {
		return err
	}
	_, err = c.run(ctx, d, tool, tool.DryRun, scoped, nil)
	return err
}

func (c *Command) Publish(ctx context.Context, d release.Descriptor, cred credential.Credential) (string, error) {
	tool, err := c.tool(d)
	if err != nil {
		return "", err
	}
	if cred.IsZero() {
		return "", fmt.Errorf("%w: empty write credential for %s", release.ErrCredentialUnavailable, d.Name)
	}
	if _, err := c.run(ctx, d, tool, tool.Publish, cred, tool.AlreadyPublished); err != nil {
		return "", err
	}
	return d.DeclaredVersion, nil
}

func (c *Command) tool(d release.Descriptor) (Tool, error) {
	tool, ok := c.tools[d.Registry]
	if !ok {
		return Tool{}, fmt.Errorf("unknown registry %q for package %s", d.Registry, d.Name)
	}
	return tool, nil
}

// run classifies a failed tool. Already-published output only counts as such
// for publish; a dry run reporting it is a rejection.
func (c *Command) run(ctx context.Context, d release.Descriptor, tool Tool, argv []string, cred credential.Credential, alreadyPublished []string) ([]byte, error) {
	if len(argv) == 0 {
		return nil, fmt.Errorf("registry %q has no command configured", d.Registry)
	}

	output, err := c.executor.Run(ctx, filepath.Join(c.root, d.Location), c.env(tool, cred), argv)
	if err == nil {
		return output, nil
	}

	if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
		return output, fmt.Errorf("%w: %s exceeded its deadline", release.ErrTimeout, strings.Join(argv, " "))
	}

	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return output, fmt.Errorf("starting %s: %w", argv[0], err)
	}

	reason := summarize(output, err)
	switch {
	case containsAny(string(output), alreadyPublished):
		return output, fmt.Errorf("%w: %s", release.ErrAlreadyPublished, reason)
	case containsAny(string(output), networkPatterns):
		return output, fmt.Errorf("%w: %s", release.ErrNetwork, reason)
	default:
		return output, fmt.Errorf("%w: %s", release.ErrRegistryRejected, reason)
	}
}

// env strips any inherited token variable so a write token present in the
// process environment never reaches a dry run.
func (c *Command) env(tool Tool, cred credential.Credential) []string {
	base := c.environ()
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		if tool.TokenEnv != "" && strings.HasPrefix(kv, tool.TokenEnv+"=") {
			continue
		}
		env = append(env, kv)
	}
	if tool.TokenEnv != "" && !cred.IsZero() {
		env = append(env, tool.TokenEnv+"="+cred.Secret())
	}
	return env
}

func summarize(output []byte, err error) string {
	text := strings.TrimSpace(string(output))
	if text == "" {
		return err.Error()
	}
	if len(text) > maxReasonLen {
		text = "..." + text[len(text)-maxReasonLen:]
	}
	return fmt.Sprintf("%v: %s", err, text)
}
