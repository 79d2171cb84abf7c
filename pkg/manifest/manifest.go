// Package manifest reads the version a package declares in its own
// manifest file.
package manifest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/user/tagrelease/pkg/release"
)

var (
	ErrNotFound      = errors.New("manifest not found")
	ErrNoVersion     = errors.New("manifest declares no version")
	ErrUnknownFormat = errors.New("unknown manifest format")
)

// Candidates are tried in order when a package does not name its manifest.
var Candidates = []string{"Cargo.toml", "package.json", "VERSION"}

// fetchFunc returns the content of a slash separated path relative to the
// repository root, or an error wrapping ErrNotFound.
type fetchFunc func(ctx context.Context, rel string) ([]byte, error)

func declaredVersion(ctx context.Context, fetch fetchFunc, pkg release.Package) (string, error) {
	dir := cleanDir(pkg.Location)

	names := Candidates
	if pkg.Manifest != "" {
		names = []string{pkg.Manifest}
	}

	for _, name := range names {
		rel := path.Join(dir, name)
		data, err := fetch(ctx, rel)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("fetching %s: %w", rel, err)
		}

		version, err := parse(path.Base(name), data)
		if errors.Is(err, errWorkspaceVersion) {
			return workspaceVersion(ctx, fetch, dir)
		}
		if err != nil {
			return "", fmt.Errorf("parsing %s: %w", rel, err)
		}
		return version, nil
	}

	return "", fmt.Errorf("%w in %s (tried %s)", ErrNotFound, dirOrRoot(dir), strings.Join(names, ", "))
}

var errWorkspaceVersion = errors.New("version inherited from workspace")

func parse(name string, data []byte) (string, error) {
	switch {
	case name == "Cargo.toml":
		return parseCargo(data)
	case name == "package.json":
		return parsePackageJSON(data)
	case name == "VERSION" || strings.HasSuffix(name, ".txt"):
		return nonEmpty(strings.TrimSpace(string(data)))
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownFormat, name)
	}
}

type cargoManifest struct {
	Package *struct {
		Version any `toml:"version"`
	} `toml:"package"`
	Workspace *struct {
		Package *struct {
			Version string `toml:"version"`
		} `toml:"package"`
	} `toml:"workspace"`
}

// parseCargo returns [package].version. A `version.workspace = true` entry
// yields errWorkspaceVersion.
func parseCargo(data []byte) (string, error) {
	var m cargoManifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", err
	}
	if m.Package == nil {
		return "", fmt.Errorf("%w: no [package] table", ErrNoVersion)
	}

	switch v := m.Package.Version.(type) {
	case string:
		return nonEmpty(v)
	case map[string]any:
		if inherit, _ := v["workspace"].(bool); inherit {
			return "", errWorkspaceVersion
		}
	}
	return "", ErrNoVersion
}

func parsePackageJSON(data []byte) (string, error) {
	var m struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return "", err
	}
	return nonEmpty(m.Version)
}

// workspaceVersion walks from dir towards the repository root looking for a
// Cargo.toml with [workspace.package].version.
func workspaceVersion(ctx context.Context, fetch fetchFunc, dir string) (string, error) {
	for current := path.Dir(dir); ; current = path.Dir(current) {
		rel := path.Join(current, "Cargo.toml")
		data, err := fetch(ctx, rel)
		switch {
		case errors.Is(err, ErrNotFound):
		case err != nil:
			return "", fmt.Errorf("fetching %s: %w", rel, err)
		default:
			var m cargoManifest
			if err := toml.Unmarshal(data, &m); err != nil {
				return "", fmt.Errorf("parsing %s: %w", rel, err)
			}
			if m.Workspace != nil {
				if m.Workspace.Package == nil {
					return "", fmt.Errorf("%w: %s has no [workspace.package] table", ErrNoVersion, rel)
				}
				return nonEmpty(m.Workspace.Package.Version)
			}
		}
		if current == "." || current == "/" {
			break
		}
	}
	return "", fmt.Errorf("%w: no workspace root above %s", ErrNoVersion, dirOrRoot(dir))
}

func nonEmpty(v string) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrNoVersion
	}
	return v, nil
}

func cleanDir(location string) string {
	dir := path.Clean(strings.ReplaceAll(location, "\\", "/"))
	if dir == "" || dir == "/" {
		return "."
	}
	return strings.TrimPrefix(dir, "/")
}

func dirOrRoot(dir string) string {
	if dir == "." {
		return "repository root"
	}
	return dir
}
