package credential

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultTokenEnv = "REGISTRY_TOKEN"

// Env resolves tokens from the process environment, falling back to an
// optional dotenv file. The variable name is a template where {{NAME}} is
// replaced by the package name in upper snake case.
type Env struct {
	tokenEnv       string
	dryRunTokenEnv string
	envFile        string
	lookup         func(string) (string, bool)
}

func NewEnv(tokenEnv, dryRunTokenEnv, envFile string) *Env {
	if tokenEnv == "" {
		tokenEnv = DefaultTokenEnv
	}
	return &Env{
		tokenEnv:       tokenEnv,
		dryRunTokenEnv: dryRunTokenEnv,
		envFile:        envFile,
		lookup:         os.LookupEnv,
	}
}

func NewEnvWithLookup(tokenEnv, dryRunTokenEnv string, lookup func(string) (string, bool)) *Env {
	e := NewEnv(tokenEnv, dryRunTokenEnv, "")
	e.lookup = lookup
	return e
}

func (e *Env) FetchWriteCredential(ctx context.Context, packageName string) (Credential, error) {
	return e.fetch(e.tokenEnv, packageName)
}

// FetchDryRunCredential returns a zero Credential when no scoped token
// variable is configured.
func (e *Env) FetchDryRunCredential(ctx context.Context, packageName string) (Credential, error) {
	if e.dryRunTokenEnv == "" {
		return Credential{}, nil
	}
	return e.fetch(e.dryRunTokenEnv, packageName)
}

func (e *Env) fetch(template, packageName string) (Credential, error) {
	name := VariableName(template, packageName)

	if value, ok := e.lookup(name); ok && strings.TrimSpace(value) != "" {
		return New("env:"+name, strings.TrimSpace(value)), nil
	}

	if e.envFile != "" {
		values, err := godotenv.Read(e.envFile)
		if err != nil && !os.IsNotExist(err) {
			return Credential{}, fmt.Errorf("reading env file %s: %w", e.envFile, err)
		}
		if value := strings.TrimSpace(values[name]); value != "" {
			return New("envfile:"+name, value), nil
		}
	}

	return Credential{}, fmt.Errorf("%w: %s is not set", ErrUnavailable, name)
}

func VariableName(template, packageName string) string {
	return strings.ReplaceAll(template, "{{NAME}}", envSafe(packageName))
}

func envSafe(name string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(name) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	return sb.String()
}
