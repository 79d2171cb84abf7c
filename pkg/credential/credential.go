package credential

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
)

//go:generate mockgen -destination=mocks/provider_mock.go -package=mocks github.com/user/tagrelease/pkg/credential Provider,ScopedProvider

var ErrUnavailable = errors.New("credential unavailable")

const redacted = "[redacted]"

// Credential is an opaque registry token. Its value is only reachable through
// Secret; every printable form is redacted.
type Credential struct {
	source string
	secret string
}

func New(source, secret string) Credential {
	return Credential{source: source, secret: secret}
}

func (c Credential) Secret() string {
	return c.secret
}

func (c Credential) Source() string {
	return c.source
}

func (c Credential) IsZero() bool {
	return c.secret == ""
}

func (c Credential) String() string {
	return redacted
}

func (c Credential) GoString() string {
	return "credential.Credential{" + redacted + "}"
}

func (c Credential) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}

func (c Credential) MarshalZerologObject(e *zerolog.Event) {
	e.Str("source", c.source).Bool("present", !c.IsZero())
}

// Provider hands out the write credential for a package. Implementations
// must fetch on every call and never cache across calls.
type Provider interface {
	FetchWriteCredential(ctx context.Context, packageName string) (Credential, error)
}

// ScopedProvider is implemented by providers able to hand out a read-only
// token for registries whose dry-run mode needs one.
type ScopedProvider interface {
	FetchDryRunCredential(ctx context.Context, packageName string) (Credential, error)
}
