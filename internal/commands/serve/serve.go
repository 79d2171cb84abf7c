package serve

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/user/tagrelease/internal/app"
	"github.com/user/tagrelease/internal/checkout"
	"github.com/user/tagrelease/internal/commands/cmdutil"
	"github.com/user/tagrelease/internal/config"
	"github.com/user/tagrelease/internal/logger"
	"github.com/user/tagrelease/internal/webhook"
	"github.com/user/tagrelease/pkg/release"
)

func NewCommand(globals *cmdutil.Globals) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Receive tag push webhooks and release the tagged packages",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := globals.LoadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Serve.Port = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides serve.port)")

	return cmd
}

func runServe(cfg *config.Config) error {
	root := cfg.RootDir()
	var git *checkout.Git
	if cfg.Serve.CheckoutDir != "" {
		git = checkout.NewGit(cfg.Serve.CheckoutDir)
		root = git.Dir()
		logger.Debug().Str("dir", root).Msg("Releasing from checkout")
	} else {
		logger.Warn().Str("root", root).Msg("No checkout_dir configured, releasing from the working tree as it is")
	}

	a, err := app.New(cfg, root)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var verifier webhook.TokenVerifier
	if cfg.Serve.OIDC.Issuer != "" {
		v, err := webhook.NewOIDCVerifier(ctx, cfg.Serve.OIDC.Issuer, cfg.Serve.OIDC.Audience)
		if err != nil {
			return err
		}
		verifier = v
		logger.Info().Str("issuer", cfg.Serve.OIDC.Issuer).Msg("Bearer token verification enabled")
	}

	secret := cfg.Env(cfg.Serve.WebhookSecretEnv)
	if secret == "" {
		logger.Warn().Str("env", cfg.Serve.WebhookSecretEnv).Msg("Webhook secret not set, signatures are not verified")
	}

	queue := webhook.NewQueue(cfg.Serve.QueueSize, processor(a, git))
	queue.Start(ctx)

	srv := webhook.NewServer(webhook.Options{
		Secret:   secret,
		Verifier: verifier,
		Queue:    queue,
		History:  historyLister(a),
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Serve.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info().
			Int("port", cfg.Serve.Port).
			Int("packages", len(cfg.Packages)).
			Bool("history", a.Store != nil).
			Bool("notify", a.Notifier != nil).
			Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	err = server.Shutdown(shutdownCtx)
	queue.Stop()
	return err
}

// processor checks out the pushed commit when a checkout is configured and
// releases the job's events.
func processor(a *app.App, git *checkout.Git) webhook.Processor {
	return func(ctx context.Context, job webhook.Job) {
		log := logger.Get().With().Str("job", job.ID).Logger()

		if git != nil && len(job.Events) > 0 {
			if err := git.Checkout(ctx, job.Events[0]); err != nil {
				log.Error().Err(err).Str("tag", job.Events[0].Tag).Msg("Checkout failed, skipping job")
				return
			}
		}

		results, err := a.Runner.RunAll(ctx, job.Events, true)
		if err != nil {
			log.Error().Err(err).Msg("Release run failed")
			return
		}

		for _, r := range results {
			log.Info().Msg(release.Headline(r))
		}
		a.Report(ctx, results)
	}
}

func historyLister(a *app.App) webhook.HistoryLister {
	if a.Store == nil {
		return nil
	}
	return a.Store
}
