package release

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/user/tagrelease/internal/logger"
	"github.com/user/tagrelease/pkg/credential"
)

//go:generate mockgen -destination=mocks/release_mock.go -package=mocks github.com/user/tagrelease/pkg/release Registry,ManifestReader

// ManifestReader returns the version a package's manifest declares at ref.
type ManifestReader interface {
	DeclaredVersion(ctx context.Context, pkg Package, ref string) (string, error)
}

// Registry is the package registry collaborator. DryRun must not change
// registry state; Publish must report an existing version with
// ErrAlreadyPublished.
type Registry interface {
	DryRun(ctx context.Context, d Descriptor, scoped credential.Credential) error
	Publish(ctx context.Context, d Descriptor, cred credential.Credential) (string, error)
}

const DefaultTimeout = 10 * time.Minute

type Options struct {
	Packages    []Package
	Manifests   ManifestReader
	Registry    Registry
	Credentials credential.Provider
	Timeout     time.Duration
	Logger      *zerolog.Logger
}

// Orchestrator drives one release attempt per event through
// matching, validation, dry run and publish. It keeps no state between runs.
type Orchestrator struct {
	packages    []Package
	manifests   ManifestReader
	registry    Registry
	credentials credential.Provider
	timeout     time.Duration
	log         *zerolog.Logger
}

func NewOrchestrator(opts Options) *Orchestrator {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = logger.Get()
	}
	return &Orchestrator{
		packages:    opts.Packages,
		manifests:   opts.Manifests,
		registry:    opts.Registry,
		credentials: opts.Credentials,
		timeout:     timeout,
		log:         log,
	}
}

// Run executes the full pipeline for ev.
func (o *Orchestrator) Run(ctx context.Context, ev Event) *Result {
	return o.run(ctx, ev, true)
}

// Verify executes the pipeline up to and including the dry run. The write
// credential is never fetched.
func (o *Orchestrator) Verify(ctx context.Context, ev Event) *Result {
	return o.run(ctx, ev, false)
}

func (o *Orchestrator) run(ctx context.Context, ev Event, publish bool) *Result {
	att := newAttempt(ev)

	start := time.Now()
	pkg, suffix, err := MatchTag(ev.Tag, o.packages)
	if err != nil {
		return o.unmatched(att, start, err)
	}
	att.log(StateMatching, OutcomeOK, start, "matched package "+pkg.Name)

	return o.runMatched(ctx, att, pkg, suffix, publish)
}

func (o *Orchestrator) unmatched(att *Attempt, start time.Time, err error) *Result {
	att.log(StateMatching, OutcomeFailed, start, err.Error())
	o.logger(att).Warn().Err(err).Msg("Tag does not select a package")
	return o.abort(att, StateMatching, err)
}

func (o *Orchestrator) runMatched(ctx context.Context, att *Attempt, pkg Package, suffix string, publish bool) *Result {
	att.Descriptor = &Descriptor{Package: pkg}
	log := o.logger(att)

	att.State = StateValidating
	start := time.Now()
	declared, err := o.manifests.DeclaredVersion(ctx, pkg, att.Event.RefOrTag())
	if err != nil {
		err = fmt.Errorf("reading manifest for %s: %w", pkg.Name, err)
		att.log(StateValidating, OutcomeFailed, start, err.Error())
		log.Error().Err(err).Msg("Manifest unreadable")
		return o.finish(att, &Result{
			Status: StatusFailed,
			Stage:  StateValidating,
			Kind:   KindManifestUnreadable,
			Reason: err.Error(),
		})
	}
	att.Descriptor.DeclaredVersion = NormalizeVersion(declared)

	v := ValidateVersion(suffix, declared)
	switch {
	case v.Passed:
		msg := "version " + v.TagVersion + " matches manifest"
		if v.Reason != "" {
			msg += "; " + v.Reason
		}
		att.log(StateValidating, OutcomeOK, start, msg)
	case pkg.VersionCheck == VersionCheckAdvisory:
		att.log(StateValidating, OutcomeWarning, start, v.Reason)
		log.Warn().
			Str("tag_version", v.TagVersion).
			Str("manifest_version", v.DeclaredVersion).
			Msg("Version mismatch ignored (advisory check)")
	default:
		att.log(StateValidating, OutcomeFailed, start, v.Reason)
		log.Warn().
			Str("tag_version", v.TagVersion).
			Str("manifest_version", v.DeclaredVersion).
			Msg("Version mismatch")
		return o.abort(att, StateValidating, fmt.Errorf("%w: %s", ErrVersionMismatch, v.Reason))
	}

	att.State = StateDryRunning
	start = time.Now()
	if err := o.dryRun(ctx, *att.Descriptor); err != nil {
		att.log(StateDryRunning, OutcomeFailed, start, err.Error())
		log.Error().Err(err).Msg("Dry run failed")
		return o.fail(att, StateDryRunning, err)
	}
	att.log(StateDryRunning, OutcomeOK, start, "dry run succeeded")
	log.Info().Msg("Dry run succeeded")

	if !publish {
		return o.finish(att, &Result{
			Status:  StatusSucceeded,
			Stage:   StateDryRunning,
			Version: v.TagVersion,
			Note:    "verify only; publish skipped",
		})
	}

	return o.publish(ctx, att)
}

func (o *Orchestrator) dryRun(ctx context.Context, d Descriptor) error {
	var scoped credential.Credential
	if sp, ok := o.credentials.(credential.ScopedProvider); ok {
		c, err := sp.FetchDryRunCredential(ctx, d.Name)
		if err != nil {
			return fmt.Errorf("fetching dry-run credential: %w", err)
		}
		scoped = c
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	err := timeoutAware(callCtx, o.registry.DryRun(callCtx, d, scoped))
	if errors.Is(err, ErrAlreadyPublished) {
		return fmt.Errorf("%w: dry run reported %v", ErrRegistryRejected, err)
	}
	return err
}

func (o *Orchestrator) publish(ctx context.Context, att *Attempt) *Result {
	log := o.logger(att)
	att.State = StatePublishing
	start := time.Now()

	if !att.reached(StateDryRunning, OutcomeOK) {
		err := errors.New("publish requested without a successful dry run in this attempt")
		att.log(StatePublishing, OutcomeFailed, start, err.Error())
		return o.fail(att, StatePublishing, err)
	}

	cred, err := o.credentials.FetchWriteCredential(ctx, att.Descriptor.Name)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrCredentialUnavailable, err)
		att.log(StatePublishing, OutcomeFailed, start, err.Error())
		log.Error().Err(err).Msg("Write credential unavailable")
		return o.fail(att, StatePublishing, err)
	}
	log.Debug().Object("credential", cred).Msg("Write credential fetched")

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	version, err := o.registry.Publish(callCtx, *att.Descriptor, cred)
	err = timeoutAware(callCtx, err)

	if version == "" {
		version = att.Descriptor.DeclaredVersion
	}

	switch {
	case err == nil:
		att.log(StatePublishing, OutcomeOK, start, "published "+version)
		log.Info().Str("version", version).Msg("Published")
		return o.finish(att, &Result{Status: StatusSucceeded, Stage: StatePublishing, Version: version})
	case errors.Is(err, ErrAlreadyPublished):
		note := fmt.Sprintf("version %s was already published: %v", version, err)
		att.log(StatePublishing, OutcomeNote, start, note)
		log.Info().Str("version", version).Msg("Version already published, nothing to do")
		return o.finish(att, &Result{
			Status:  StatusSucceeded,
			Stage:   StatePublishing,
			Kind:    KindAlreadyPublished,
			Version: version,
			Note:    note,
		})
	default:
		att.log(StatePublishing, OutcomeFailed, start, err.Error())
		log.Error().Err(err).Msg("Publish failed")
		return o.fail(att, StatePublishing, err)
	}
}

func (o *Orchestrator) abort(att *Attempt, stage State, err error) *Result {
	return o.finish(att, &Result{Status: StatusAborted, Stage: stage, Kind: Kind(err), Reason: err.Error()})
}

func (o *Orchestrator) fail(att *Attempt, stage State, err error) *Result {
	o.logger(att).Debug().Bool("transient", IsTransient(err)).Msg("Attempt failed")
	return o.finish(att, &Result{Status: StatusFailed, Stage: stage, Kind: Kind(err), Reason: err.Error()})
}

func (o *Orchestrator) finish(att *Attempt, r *Result) *Result {
	switch r.Status {
	case StatusSucceeded:
		att.State = StateSucceeded
	case StatusAborted:
		att.State = StateAborted
	default:
		att.State = StateFailed
	}
	att.FinishedAt = time.Now()
	r.Attempt = att

	o.logger(att).Info().
		Str("status", string(r.Status)).
		Str("stage", string(r.Stage)).
		Str("kind", string(r.Kind)).
		Str("version", r.Version).
		Msg("Release attempt finished")

	return r
}

func (o *Orchestrator) logger(att *Attempt) *zerolog.Logger {
	l := o.log.With().
		Str("attempt", att.ID).
		Str("tag", att.Event.Tag).
		Str("package", att.PackageName()).
		Logger()
	return &l
}

func newAttempt(ev Event) *Attempt {
	return &Attempt{
		ID:        uuid.New().String(),
		Event:     ev,
		State:     StateMatching,
		StartedAt: time.Now(),
	}
}

func (a *Attempt) log(stage State, outcome Outcome, start time.Time, message string) {
	a.Stages = append(a.Stages, StageLog{
		Stage:      stage,
		Outcome:    outcome,
		DurationMs: time.Since(start).Milliseconds(),
		Message:    message,
	})
}

func timeoutAware(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrTimeout) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}
