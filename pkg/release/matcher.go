package release

import (
	"fmt"
	"sort"
	"strings"
)

// MatchTag returns the single package whose tag prefix starts the tag,
// along with the version suffix that follows the prefix. A prefix equal to
// the whole tag does not match: the suffix must be non-empty.
func MatchTag(tag string, packages []Package) (Package, string, error) {
	tag = strings.TrimPrefix(strings.TrimSpace(tag), "refs/tags/")

	var matches []Package
	for _, p := range packages {
		prefix := p.TagPrefix
		if prefix == "" {
			continue
		}
		if strings.HasPrefix(tag, prefix) && len(tag) > len(prefix) {
			matches = append(matches, p)
		}
	}

	switch len(matches) {
	case 0:
		return Package{}, "", fmt.Errorf("%w: %q", ErrNoMatch, tag)
	case 1:
		return matches[0], strings.TrimPrefix(tag, matches[0].TagPrefix), nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.TagPrefix))
		}
		sort.Strings(names)
		return Package{}, "", fmt.Errorf("%w: %q matches %s", ErrAmbiguousMatch, tag, strings.Join(names, ", "))
	}
}

// DefaultTagPrefix is the "<name>-v" convention.
func DefaultTagPrefix(name string) string {
	return name + "-v"
}
