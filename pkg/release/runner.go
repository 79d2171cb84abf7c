package release

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// Runner releases several tags pushed together. Attempts for distinct
// packages share nothing and run concurrently within a dependency layer.
type Runner struct {
	orch        *Orchestrator
	concurrency int
}

func NewRunner(orch *Orchestrator, concurrency int) *Runner {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Runner{orch: orch, concurrency: concurrency}
}

type matched struct {
	index   int
	attempt *Attempt
	pkg     Package
	suffix  string
}

// RunAll returns one result per event, in event order. With publish false
// every attempt stops after its dry run.
func (r *Runner) RunAll(ctx context.Context, events []Event, publish bool) ([]*Result, error) {
	results := make([]*Result, len(events))
	byName := make(map[string]*matched)
	var pkgs []Package

	for i, ev := range events {
		att := newAttempt(ev)
		start := time.Now()

		pkg, suffix, err := MatchTag(ev.Tag, r.orch.packages)
		if err == nil {
			if prev, dup := byName[pkg.Name]; dup {
				err = fmt.Errorf("%w: tags %q and %q both target %s", ErrAmbiguousMatch, prev.attempt.Event.Tag, ev.Tag, pkg.Name)
			}
		}
		if err != nil {
			results[i] = r.orch.unmatched(att, start, err)
			continue
		}

		att.log(StateMatching, OutcomeOK, start, "matched package "+pkg.Name)
		byName[pkg.Name] = &matched{index: i, attempt: att, pkg: pkg, suffix: suffix}
		pkgs = append(pkgs, pkg)
	}

	order, err := PublishOrder(pkgs)
	if err != nil {
		return nil, fmt.Errorf("ordering packages: %w", err)
	}

	var mu sync.Mutex
	succeeded := make(map[string]bool)

	for _, layer := range Layers(order) {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)

		for _, name := range layer {
			m := byName[name]

			mu.Lock()
			blocked := r.blockedBy(m.pkg, byName, succeeded)
			mu.Unlock()

			if blocked != "" {
				err := fmt.Errorf("%w: %s did not succeed in this run", ErrDependencyFailed, blocked)
				m.attempt.Descriptor = &Descriptor{Package: m.pkg}
				m.attempt.log(StateMatching, OutcomeFailed, time.Now(), err.Error())
				results[m.index] = r.orch.abort(m.attempt, StateMatching, err)
				continue
			}

			g.Go(func() error {
				res := r.orch.runMatched(gctx, m.attempt, m.pkg, m.suffix, publish)

				mu.Lock()
				results[m.index] = res
				succeeded[m.pkg.Name] = res.Status == StatusSucceeded
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (r *Runner) blockedBy(pkg Package, inRun map[string]*matched, succeeded map[string]bool) string {
	for _, dep := range pkg.DependsOn {
		if _, ok := inRun[dep]; !ok {
			continue
		}
		if !succeeded[dep] {
			return dep
		}
	}
	return ""
}
