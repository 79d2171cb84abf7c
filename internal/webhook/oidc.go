package webhook

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

//go:generate mockgen -destination=mocks/token_verifier_mock.go -package=mocks github.com/user/tagrelease/internal/webhook TokenVerifier

// TokenVerifier checks a bearer token presented by the webhook caller.
type TokenVerifier interface {
	Verify(ctx context.Context, rawToken string) error
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers issuer and accepts ID tokens minted for
// audience, e.g. CI workload identity tokens.
func NewOIDCVerifier(ctx context.Context, issuer, audience string) (*OIDCVerifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("creating OIDC provider: %w", err)
	}

	return &OIDCVerifier{
		verifier: provider.Verifier(&oidc.Config{ClientID: audience}),
	}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, rawToken string) error {
	if _, err := v.verifier.Verify(ctx, rawToken); err != nil {
		return fmt.Errorf("verifying token: %w", err)
	}
	return nil
}
