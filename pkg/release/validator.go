package release

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

type Validation struct {
	Passed          bool
	TagVersion      string
	DeclaredVersion string
	Reason          string
}

// NormalizeVersion trims whitespace and a single leading "v".
func NormalizeVersion(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		v = v[1:]
	}
	return v
}

// ValidateVersion compares the tag's version suffix with the manifest
// version. Equality is exact after normalization; semver precedence is not
// consulted, so "1.0.0+build" and "1.0.0" differ.
func ValidateVersion(tagVersion, declaredVersion string) Validation {
	tv := NormalizeVersion(tagVersion)
	dv := NormalizeVersion(declaredVersion)

	v := Validation{
		Passed:          tv != "" && tv == dv,
		TagVersion:      tv,
		DeclaredVersion: dv,
	}

	switch {
	case dv == "":
		v.Reason = "manifest declares no version"
	case !v.Passed:
		v.Reason = fmt.Sprintf("tag version %q != manifest version %q", tv, dv)
	case !semver.IsValid("v" + tv):
		v.Reason = fmt.Sprintf("version %q is not valid semver", tv)
	}

	return v
}
