package credential

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	DryRunScopes []string
}

// OAuth2 exchanges client credentials for a short-lived registry token on
// every fetch. The package name is sent as the "package" parameter so the
// issuer can scope the token.
type OAuth2 struct {
	cfg        OAuth2Config
	httpClient *http.Client
}

func NewOAuth2(cfg OAuth2Config) *OAuth2 {
	return &OAuth2{cfg: cfg}
}

func NewOAuth2WithHTTP(cfg OAuth2Config, httpClient *http.Client) *OAuth2 {
	return &OAuth2{cfg: cfg, httpClient: httpClient}
}

func (o *OAuth2) FetchWriteCredential(ctx context.Context, packageName string) (Credential, error) {
	return o.fetch(ctx, packageName, o.cfg.Scopes)
}

func (o *OAuth2) FetchDryRunCredential(ctx context.Context, packageName string) (Credential, error) {
	if len(o.cfg.DryRunScopes) == 0 {
		return Credential{}, nil
	}
	return o.fetch(ctx, packageName, o.cfg.DryRunScopes)
}

func (o *OAuth2) fetch(ctx context.Context, packageName string, scopes []string) (Credential, error) {
	cc := clientcredentials.Config{
		ClientID:       o.cfg.ClientID,
		ClientSecret:   o.cfg.ClientSecret,
		TokenURL:       o.cfg.TokenURL,
		Scopes:         scopes,
		EndpointParams: map[string][]string{"package": {packageName}},
	}

	if o.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, o.httpClient)
	}

	token, err := cc.Token(ctx)
	if err != nil {
		return Credential{}, fmt.Errorf("%w: exchanging client credentials: %v", ErrUnavailable, err)
	}
	if token.AccessToken == "" {
		return Credential{}, fmt.Errorf("%w: token endpoint returned an empty access token", ErrUnavailable)
	}

	return New("oauth2:"+o.cfg.ClientID, token.AccessToken), nil
}
