package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/user/tagrelease/pkg/credential"
	"github.com/user/tagrelease/pkg/release"
)

type Config struct {
	Repository      string                    `yaml:"repository"`
	Root            string                    `yaml:"root"`
	Concurrency     int                       `yaml:"concurrency"`
	RegistryTimeout time.Duration             `yaml:"registry_timeout"`
	Defaults        Defaults                  `yaml:"defaults"`
	Packages        []PackageConfig           `yaml:"packages"`
	Registries      map[string]RegistryConfig `yaml:"registries"`
	Credentials     CredentialsConfig         `yaml:"credentials"`
	Manifests       ManifestsConfig           `yaml:"manifests"`
	GitHub          GitHubConfig              `yaml:"github"`
	Notify          NotifyConfig              `yaml:"notify"`
	History         HistoryConfig             `yaml:"history"`
	Serve           ServeConfig               `yaml:"serve"`

	dir string
}

type Defaults struct {
	VersionCheck string `yaml:"version_check"`
	Registry     string `yaml:"registry"`
}

type PackageConfig struct {
	Name         string   `yaml:"name"`
	TagPrefix    string   `yaml:"tag_prefix"`
	Location     string   `yaml:"location"`
	Manifest     string   `yaml:"manifest"`
	VersionCheck string   `yaml:"version_check"`
	Registry     string   `yaml:"registry"`
	DependsOn    []string `yaml:"depends_on"`
}

type RegistryConfig struct {
	DryRun           []string `yaml:"dry_run"`
	Publish          []string `yaml:"publish"`
	TokenEnv         string   `yaml:"token_env"`
	AlreadyPublished []string `yaml:"already_published"`
}

type CredentialsConfig struct {
	Source         string       `yaml:"source"`
	EnvFile        string       `yaml:"env_file"`
	TokenEnv       string       `yaml:"token_env"`
	DryRunTokenEnv string       `yaml:"dry_run_token_env"`
	OAuth2         OAuth2Config `yaml:"oauth2"`
}

type OAuth2Config struct {
	TokenURL        string   `yaml:"token_url"`
	ClientID        string   `yaml:"client_id"`
	ClientSecretEnv string   `yaml:"client_secret_env"`
	Scopes          []string `yaml:"scopes"`
	DryRunScopes    []string `yaml:"dry_run_scopes"`
}

type ManifestsConfig struct {
	Source string `yaml:"source"`
}

type GitHubConfig struct {
	TokenEnv string `yaml:"token_env"`
	BaseURL  string `yaml:"base_url"`
}

type NotifyConfig struct {
	MattermostWebhookURL string `yaml:"mattermost_webhook_url"`
	Username             string `yaml:"username"`
	Channel              string `yaml:"channel"`
	OnlyFailures         bool   `yaml:"only_failures"`
}

type HistoryConfig struct {
	SQLitePath string `yaml:"sqlite_path"`
}

type ServeConfig struct {
	Port             int        `yaml:"port"`
	WebhookSecretEnv string     `yaml:"webhook_secret_env"`
	CheckoutDir      string     `yaml:"checkout_dir"`
	QueueSize        int        `yaml:"queue_size"`
	OIDC             OIDCConfig `yaml:"oidc"`
}

type OIDCConfig struct {
	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
}

const (
	CredentialSourceEnv    = "env"
	CredentialSourceOAuth2 = "oauth2"
	ManifestSourceLocal    = "local"
	ManifestSourceGitHub   = "github"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.dir = filepath.Dir(path)

	return cfg, nil
}

// Parse decodes, applies defaults and validates a configuration document.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Concurrency <= 0 {
		c.Concurrency = 1
	}
	if c.RegistryTimeout <= 0 {
		c.RegistryTimeout = release.DefaultTimeout
	}
	if c.Credentials.Source == "" {
		c.Credentials.Source = CredentialSourceEnv
	}
	if c.Manifests.Source == "" {
		c.Manifests.Source = ManifestSourceLocal
	}
	if c.GitHub.TokenEnv == "" {
		c.GitHub.TokenEnv = "GITHUB_TOKEN"
	}
	if c.Serve.Port == 0 {
		c.Serve.Port = 8080
	}
	if c.Serve.WebhookSecretEnv == "" {
		c.Serve.WebhookSecretEnv = "WEBHOOK_SECRET"
	}
	if c.Serve.QueueSize <= 0 {
		c.Serve.QueueSize = 16
	}

	for i := range c.Packages {
		p := &c.Packages[i]
		if p.TagPrefix == "" && p.Name != "" {
			p.TagPrefix = release.DefaultTagPrefix(p.Name)
		}
		if p.Location == "" {
			p.Location = "."
		}
		if p.VersionCheck == "" {
			p.VersionCheck = c.Defaults.VersionCheck
		}
		if p.Registry == "" {
			p.Registry = c.Defaults.Registry
		}
	}
}

// Validate reports every problem at once. The version check policy has no
// implicit default: each package must get one from its own entry or from
// defaults.version_check.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Packages) == 0 {
		errs = append(errs, errors.New("at least one package must be configured"))
	}

	names := make(map[string]struct{})
	prefixes := make(map[string]string)
	for i, p := range c.Packages {
		label := fmt.Sprintf("packages[%d]", i)
		if p.Name != "" {
			label = fmt.Sprintf("package %q", p.Name)
		}

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", label))
		} else if _, dup := names[p.Name]; dup {
			errs = append(errs, fmt.Errorf("%s: duplicate name", label))
		}
		names[p.Name] = struct{}{}

		if other, dup := prefixes[p.TagPrefix]; dup && p.TagPrefix != "" {
			errs = append(errs, fmt.Errorf("%s: tag_prefix %q already used by %q", label, p.TagPrefix, other))
		}
		prefixes[p.TagPrefix] = p.Name

		if p.VersionCheck == "" {
			errs = append(errs, fmt.Errorf("%s: version_check must be set to advisory or blocking (here or in defaults)", label))
		} else if !release.VersionCheck(p.VersionCheck).Valid() {
			errs = append(errs, fmt.Errorf("%s: version_check %q must be advisory or blocking", label, p.VersionCheck))
		}

		if p.Registry == "" {
			errs = append(errs, fmt.Errorf("%s: registry is required (here or in defaults)", label))
		}
	}

	for i, p := range c.Packages {
		for _, dep := range p.DependsOn {
			if _, ok := names[dep]; !ok {
				errs = append(errs, fmt.Errorf("packages[%d]: depends_on %q is not a configured package", i, dep))
			}
		}
	}

	for name, r := range c.Registries {
		if len(r.DryRun) == 0 || len(r.Publish) == 0 {
			errs = append(errs, fmt.Errorf("registry %q: dry_run and publish commands are required", name))
		}
	}

	switch c.Credentials.Source {
	case CredentialSourceEnv:
		write := c.Credentials.TokenEnv
		if write == "" {
			write = credential.DefaultTokenEnv
		}
		if c.Credentials.DryRunTokenEnv == write {
			errs = append(errs, fmt.Errorf("credentials: dry_run_token_env must differ from token_env (%s)", write))
		}
	case CredentialSourceOAuth2:
		o := c.Credentials.OAuth2
		if o.TokenURL == "" || o.ClientID == "" {
			errs = append(errs, errors.New("credentials.oauth2: token_url and client_id are required"))
		}
		if len(o.DryRunScopes) > 0 && sameScopes(o.DryRunScopes, o.Scopes) {
			errs = append(errs, errors.New("credentials.oauth2: dry_run_scopes must differ from scopes"))
		}
	default:
		errs = append(errs, fmt.Errorf("credentials.source %q must be env or oauth2", c.Credentials.Source))
	}

	switch c.Manifests.Source {
	case ManifestSourceLocal:
	case ManifestSourceGitHub:
		if c.Repository == "" {
			errs = append(errs, errors.New("manifests.source github requires repository"))
		}
	default:
		errs = append(errs, fmt.Errorf("manifests.source %q must be local or github", c.Manifests.Source))
	}

	return errors.Join(errs...)
}

func sameScopes(a, b []string) bool {
	set := make(map[string]bool, len(a))
	for _, s := range a {
		set[s] = true
	}
	other := make(map[string]bool, len(b))
	for _, s := range b {
		if !set[s] {
			return false
		}
		other[s] = true
	}
	return len(other) == len(set)
}

// ReleasePackages converts the package entries.
func (c *Config) ReleasePackages() []release.Package {
	pkgs := make([]release.Package, 0, len(c.Packages))
	for _, p := range c.Packages {
		pkgs = append(pkgs, release.Package{
			Name:         p.Name,
			TagPrefix:    p.TagPrefix,
			Location:     p.Location,
			Manifest:     p.Manifest,
			VersionCheck: release.VersionCheck(p.VersionCheck),
			Registry:     p.Registry,
			DependsOn:    p.DependsOn,
		})
	}
	return pkgs
}

// RootDir is the repository working tree: root, resolved against the config
// file's directory when relative.
func (c *Config) RootDir() string {
	root := c.Root
	if root == "" {
		root = "."
	}
	if filepath.IsAbs(root) || c.dir == "" {
		return root
	}
	return filepath.Join(c.dir, root)
}

// EnvFilePath resolves credentials.env_file like RootDir.
func (c *Config) EnvFilePath() string {
	f := c.Credentials.EnvFile
	if f == "" || filepath.IsAbs(f) || c.dir == "" {
		return f
	}
	return filepath.Join(c.dir, f)
}

// Env looks a variable up in the process environment first and in the
// configured env file second.
func (c *Config) Env(name string) string {
	if name == "" {
		return ""
	}
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	if f := c.EnvFilePath(); f != "" {
		values, err := godotenv.Read(f)
		if err == nil {
			return strings.TrimSpace(values[name])
		}
	}
	return ""
}
