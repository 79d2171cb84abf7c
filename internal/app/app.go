package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/user/tagrelease/internal/config"
	"github.com/user/tagrelease/internal/database"
	"github.com/user/tagrelease/internal/logger"
	"github.com/user/tagrelease/pkg/credential"
	"github.com/user/tagrelease/pkg/github"
	"github.com/user/tagrelease/pkg/manifest"
	"github.com/user/tagrelease/pkg/mattermost"
	"github.com/user/tagrelease/pkg/registry"
	"github.com/user/tagrelease/pkg/release"
)

// ExitError carries a process exit code out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// App wires the release pipeline from configuration.
type App struct {
	Config   *config.Config
	Runner   *release.Runner
	Registry *registry.Command
	Store    *database.Store
	Notifier *mattermost.Webhook

	github *github.Client
	log    *zerolog.Logger
}

// New builds the pipeline with package locations resolved under root.
func New(cfg *config.Config, root string) (*App, error) {
	a := &App{Config: cfg, log: logger.Get()}

	a.github = github.NewClient(cfg.Env(cfg.GitHub.TokenEnv))
	if cfg.GitHub.BaseURL != "" {
		a.github.SetBaseURL(cfg.GitHub.BaseURL)
	}

	manifests, err := a.manifests(root)
	if err != nil {
		return nil, err
	}

	a.Registry = registry.NewCommand(registryTools(cfg.Registries))
	a.Registry.SetRoot(root)

	var unknown []error
	for _, p := range cfg.Packages {
		if !a.Registry.Known(p.Registry) {
			unknown = append(unknown, fmt.Errorf("package %q: unknown registry %q", p.Name, p.Registry))
		}
	}
	if err := errors.Join(unknown...); err != nil {
		return nil, err
	}

	orch := release.NewOrchestrator(release.Options{
		Packages:    cfg.ReleasePackages(),
		Manifests:   manifests,
		Registry:    a.Registry,
		Credentials: a.credentials(),
		Timeout:     cfg.RegistryTimeout,
	})
	a.Runner = release.NewRunner(orch, cfg.Concurrency)

	if cfg.Notify.MattermostWebhookURL != "" {
		a.Notifier = mattermost.NewWebhook(cfg.Notify.MattermostWebhookURL)
		a.Notifier.SetIdentity(cfg.Notify.Username, cfg.Notify.Channel)
	}

	if cfg.History.SQLitePath != "" {
		db, err := database.NewSQLiteDB(cfg.History.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("initializing history database: %w", err)
		}
		a.Store = database.NewStore(db)
	}

	return a, nil
}

func (a *App) manifests(root string) (release.ManifestReader, error) {
	switch a.Config.Manifests.Source {
	case config.ManifestSourceGitHub:
		gh, err := manifest.NewGitHub(a.github, a.Config.Repository)
		if err != nil {
			return nil, fmt.Errorf("configuring GitHub manifests: %w", err)
		}
		return gh, nil
	default:
		return manifest.NewLocal(root), nil
	}
}

func (a *App) credentials() credential.Provider {
	c := a.Config.Credentials
	if c.Source == config.CredentialSourceOAuth2 {
		return credential.NewOAuth2(credential.OAuth2Config{
			TokenURL:     c.OAuth2.TokenURL,
			ClientID:     c.OAuth2.ClientID,
			ClientSecret: a.Config.Env(c.OAuth2.ClientSecretEnv),
			Scopes:       c.OAuth2.Scopes,
			DryRunScopes: c.OAuth2.DryRunScopes,
		})
	}
	return credential.NewEnv(c.TokenEnv, c.DryRunTokenEnv, a.Config.EnvFilePath())
}

func registryTools(custom map[string]config.RegistryConfig) map[string]registry.Tool {
	tools := make(map[string]registry.Tool, len(custom))
	for name, r := range custom {
		tools[name] = registry.Tool{
			DryRun:           r.DryRun,
			Publish:          r.Publish,
			TokenEnv:         r.TokenEnv,
			AlreadyPublished: r.AlreadyPublished,
		}
	}
	return tools
}

// ResolveCommit fills in the commit of events that lack one when the
// repository is hosted on GitHub. Failures leave the event unchanged.
func (a *App) ResolveCommit(ctx context.Context, ev release.Event) release.Event {
	if ev.CommitSHA != "" || a.Config.Repository == "" {
		return ev
	}
	owner, repo, ok := github.SplitRepository(a.Config.Repository)
	if !ok {
		return ev
	}

	sha, err := a.github.ResolveCommit(ctx, owner, repo, ev.RefOrTag())
	if err != nil {
		a.log.Debug().Err(err).Str("tag", ev.Tag).Msg("Could not resolve tag commit")
		return ev
	}
	ev.CommitSHA = sha
	return ev
}

// Report records results in history and posts them to Mattermost. Neither
// failure changes the outcome of the run.
func (a *App) Report(ctx context.Context, results []*release.Result) {
	if len(results) == 0 {
		return
	}

	if a.Store != nil {
		if err := a.Store.SaveResults(ctx, results); err != nil {
			a.log.Error().Err(err).Msg("Failed to record release history")
		}
	}

	if a.Notifier == nil {
		return
	}
	if a.Config.Notify.OnlyFailures && release.ExitCode(results) == release.ExitSucceeded {
		return
	}
	if err := a.Notifier.Send(ctx, mattermost.ReleaseMessage(results)); err != nil {
		a.log.Error().Err(err).Msg("Failed to post release summary to Mattermost")
	}
}
