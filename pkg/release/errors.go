package release

import (
	"context"
	"errors"

	"github.com/user/tagrelease/pkg/credential"
)

var (
	ErrNoMatch               = errors.New("no package matches tag")
	ErrAmbiguousMatch        = errors.New("tag matches more than one package")
	ErrVersionMismatch       = errors.New("tag version does not match manifest version")
	ErrRegistryRejected      = errors.New("registry rejected package")
	ErrTimeout               = errors.New("registry call timed out")
	ErrNetwork               = errors.New("registry unreachable")
	ErrAlreadyPublished      = errors.New("version already published")
	ErrCredentialUnavailable = errors.New("write credential unavailable")
	ErrDependencyFailed      = errors.New("dependency was not released")
)

type ErrorKind string

const (
	KindNone                  ErrorKind = ""
	KindNoMatch               ErrorKind = "NoMatch"
	KindAmbiguousMatch        ErrorKind = "AmbiguousMatch"
	KindVersionMismatch       ErrorKind = "VersionMismatch"
	KindRegistryRejected      ErrorKind = "RegistryRejected"
	KindTimeout               ErrorKind = "Timeout"
	KindNetworkError          ErrorKind = "NetworkError"
	KindAlreadyPublished      ErrorKind = "AlreadyPublished"
	KindCredentialUnavailable ErrorKind = "CredentialUnavailable"
	KindDependencyFailed      ErrorKind = "DependencyFailed"
	KindManifestUnreadable    ErrorKind = "ManifestUnreadable"
)

// Kind classifies an error returned by a stage or collaborator. Errors not
// carrying a known sentinel are treated as registry rejections.
func Kind(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNoMatch):
		return KindNoMatch
	case errors.Is(err, ErrAmbiguousMatch):
		return KindAmbiguousMatch
	case errors.Is(err, ErrVersionMismatch):
		return KindVersionMismatch
	case errors.Is(err, ErrAlreadyPublished):
		return KindAlreadyPublished
	case errors.Is(err, ErrCredentialUnavailable), errors.Is(err, credential.ErrUnavailable):
		return KindCredentialUnavailable
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, ErrNetwork):
		return KindNetworkError
	case errors.Is(err, ErrDependencyFailed):
		return KindDependencyFailed
	default:
		return KindRegistryRejected
	}
}

// IsTransient reports whether re-invoking the pipeline later could succeed
// without any change to the package.
func IsTransient(err error) bool {
	switch Kind(err) {
	case KindTimeout, KindNetworkError:
		return true
	default:
		return false
	}
}
