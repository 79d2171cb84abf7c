package release

import (
	"strings"
	"time"
)

type VersionCheck string

const (
	VersionCheckAdvisory VersionCheck = "advisory"
	VersionCheckBlocking VersionCheck = "blocking"
)

func (v VersionCheck) Valid() bool {
	return v == VersionCheckAdvisory || v == VersionCheckBlocking
}

// Package is one publishable unit as configured.
type Package struct {
	Name         string
	TagPrefix    string
	Location     string
	Manifest     string
	VersionCheck VersionCheck
	Registry     string
	DependsOn    []string
}

// Descriptor is a Package snapshot together with the version its manifest
// declares at the event ref. It is not modified after loading.
type Descriptor struct {
	Package
	DeclaredVersion string
}

// Event is a tag push.
type Event struct {
	Tag        string
	Repository string
	Ref        string
	CommitSHA  string
}

func (e Event) RefOrTag() string {
	if e.Ref != "" {
		return e.Ref
	}
	return "refs/tags/" + e.Tag
}

func (e Event) TagName() string {
	return strings.TrimPrefix(e.Tag, "refs/tags/")
}

type State string

const (
	StateMatching   State = "matching"
	StateValidating State = "validating"
	StateDryRunning State = "dry_running"
	StatePublishing State = "publishing"
	StateSucceeded  State = "succeeded"
	StateAborted    State = "aborted"
	StateFailed     State = "failed"
)

type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeWarning Outcome = "warning"
	OutcomeNote    Outcome = "note"
	OutcomeFailed  Outcome = "failed"
)

type StageLog struct {
	Stage      State
	Outcome    Outcome
	DurationMs int64
	Message    string
}

// Attempt is the mutable record of one event/package pipeline run.
type Attempt struct {
	ID         string
	Event      Event
	Descriptor *Descriptor
	State      State
	Stages     []StageLog
	StartedAt  time.Time
	FinishedAt time.Time
}

func (a *Attempt) PackageName() string {
	if a.Descriptor == nil {
		return ""
	}
	return a.Descriptor.Name
}

// reached reports whether the attempt logged the given stage with the given
// outcome.
func (a *Attempt) reached(stage State, outcome Outcome) bool {
	for _, s := range a.Stages {
		if s.Stage == stage && s.Outcome == outcome {
			return true
		}
	}
	return false
}

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusAborted   Status = "aborted"
	StatusFailed    Status = "failed"
)

const (
	ExitSucceeded = 0
	ExitAborted   = 2
	ExitFailed    = 3
)

// Result is the terminal outcome of an attempt.
type Result struct {
	Status  Status
	Stage   State
	Kind    ErrorKind
	Version string
	Reason  string
	Note    string
	Attempt *Attempt
}

func (r *Result) ExitCode() int {
	switch r.Status {
	case StatusSucceeded:
		return ExitSucceeded
	case StatusAborted:
		return ExitAborted
	default:
		return ExitFailed
	}
}

// ExitCode folds several results into one process exit code. Failed wins
// over aborted.
func ExitCode(results []*Result) int {
	code := ExitSucceeded
	for _, r := range results {
		switch r.ExitCode() {
		case ExitFailed:
			return ExitFailed
		case ExitAborted:
			code = ExitAborted
		}
	}
	return code
}
