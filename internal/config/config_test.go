package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/internal/config"
	"github.com/user/tagrelease/pkg/release"
)

const sampleConfig = `
repository: github/stack-graphs
concurrency: 2
registry_timeout: 5m
defaults:
  version_check: blocking
  registry: cargo
packages:
  - name: lsp-positions
    location: lsp-positions
  - name: stack-graphs
    location: stack-graphs
    depends_on: [lsp-positions]
  - name: tree-sitter-stack-graphs-typescript
    tag_prefix: ts-v
    location: languages/tree-sitter-stack-graphs-typescript
    version_check: advisory
notify:
  mattermost_webhook_url: https://mattermost.example.com/hooks/xxx
`

func TestParse_Success(t *testing.T) {
	cfg, err := config.Parse([]byte(sampleConfig))

	require.NoError(t, err)
	require.Equal(t, "github/stack-graphs", cfg.Repository)
	require.Equal(t, 2, cfg.Concurrency)
	require.Equal(t, 5*time.Minute, cfg.RegistryTimeout)
	require.Equal(t, config.CredentialSourceEnv, cfg.Credentials.Source)
	require.Equal(t, config.ManifestSourceLocal, cfg.Manifests.Source)
	require.Equal(t, "GITHUB_TOKEN", cfg.GitHub.TokenEnv)
	require.Equal(t, 8080, cfg.Serve.Port)

	pkgs := cfg.ReleasePackages()
	require.Len(t, pkgs, 3)
	require.Equal(t, release.Package{
		Name:         "lsp-positions",
		TagPrefix:    "lsp-positions-v",
		Location:     "lsp-positions",
		VersionCheck: release.VersionCheckBlocking,
		Registry:     "cargo",
	}, pkgs[0])
	require.Equal(t, []string{"lsp-positions"}, pkgs[1].DependsOn)
	require.Equal(t, "ts-v", pkgs[2].TagPrefix)
	require.Equal(t, release.VersionCheckAdvisory, pkgs[2].VersionCheck)
}

func TestParse_ValidationErrors(t *testing.T) {
	type tc struct {
		name    string
		yaml    string
		wantErr string
	}

	cases := []tc{
		{
			name:    "no packages",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\n",
			wantErr: "at least one package",
		},
		{
			name:    "version check never chosen",
			yaml:    "packages:\n  - name: libfoo\n    registry: cargo\n",
			wantErr: "version_check must be set",
		},
		{
			name:    "invalid version check",
			yaml:    "packages:\n  - name: libfoo\n    registry: cargo\n    version_check: strict\n",
			wantErr: `version_check "strict"`,
		},
		{
			name:    "duplicate prefix",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\npackages:\n  - {name: a, tag_prefix: v}\n  - {name: b, tag_prefix: v}\n",
			wantErr: `tag_prefix "v" already used by "a"`,
		},
		{
			name:    "duplicate name",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\npackages:\n  - {name: a}\n  - {name: a, tag_prefix: x-}\n",
			wantErr: "duplicate name",
		},
		{
			name:    "unknown dependency",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\npackages:\n  - {name: a, depends_on: [b]}\n",
			wantErr: `depends_on "b"`,
		},
		{
			name:    "github manifests without repository",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\nmanifests: {source: github}\npackages:\n  - {name: a}\n",
			wantErr: "requires repository",
		},
		{
			name:    "oauth2 without token url",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\ncredentials: {source: oauth2}\npackages:\n  - {name: a}\n",
			wantErr: "token_url and client_id",
		},
		{
			name:    "dry-run token variable is the write variable",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\ncredentials: {token_env: CARGO_REGISTRY_TOKEN, dry_run_token_env: CARGO_REGISTRY_TOKEN}\npackages:\n  - {name: a}\n",
			wantErr: "dry_run_token_env must differ from token_env (CARGO_REGISTRY_TOKEN)",
		},
		{
			name:    "dry-run token variable is the default write variable",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\ncredentials: {dry_run_token_env: REGISTRY_TOKEN}\npackages:\n  - {name: a}\n",
			wantErr: "dry_run_token_env must differ from token_env (REGISTRY_TOKEN)",
		},
		{
			name:    "dry-run scopes grant publish",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\ncredentials:\n  source: oauth2\n  oauth2: {token_url: https://auth.example.com/token, client_id: ci, scopes: [publish, read], dry_run_scopes: [read, publish]}\npackages:\n  - {name: a}\n",
			wantErr: "dry_run_scopes must differ from scopes",
		},
		{
			name:    "custom registry without commands",
			yaml:    "defaults: {version_check: blocking, registry: cargo}\nregistries: {pypi: {token_env: X}}\npackages:\n  - {name: a}\n",
			wantErr: `registry "pypi"`,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := config.Parse([]byte(c.yaml))

			require.Error(t, err)
			require.Contains(t, err.Error(), c.wantErr)
		})
	}
}

func TestParse_SeparateDryRunCredential(t *testing.T) {
	cfg, err := config.Parse([]byte(`
defaults: {version_check: blocking, registry: cargo}
credentials:
  token_env: CARGO_REGISTRY_TOKEN
  dry_run_token_env: CARGO_REGISTRY_READ_TOKEN
packages:
  - name: libfoo
`))

	require.NoError(t, err)
	require.Equal(t, "CARGO_REGISTRY_READ_TOKEN", cfg.Credentials.DryRunTokenEnv)
}

func TestLoad_ResolvesPathsAgainstConfigDir(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "release.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
root: repo
defaults: {version_check: blocking, registry: cargo}
credentials:
  env_file: secrets.env
packages:
  - name: libfoo
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "secrets.env"), []byte("TAGRELEASE_CONFIG_TEST_SECRET=from-file\n"), 0o600))

	cfg, err := config.Load(path)

	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "repo"), cfg.RootDir())
	require.Equal(t, filepath.Join(dir, "secrets.env"), cfg.EnvFilePath())
	require.Equal(t, "from-file", cfg.Env("TAGRELEASE_CONFIG_TEST_SECRET"))

	t.Setenv("TAGRELEASE_CONFIG_TEST_SECRET", "from-env")
	require.Equal(t, "from-env", cfg.Env("TAGRELEASE_CONFIG_TEST_SECRET"))
	require.Empty(t, cfg.Env(""))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.True(t, os.IsNotExist(err))
}
