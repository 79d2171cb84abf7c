package release_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/pkg/release"
)

func TestValidateVersion(t *testing.T) {
	type tc struct {
		name       string
		tagVersion string
		declared   string
		wantPassed bool
		wantReason string
	}

	cases := []tc{
		{name: "equal", tagVersion: "2.3.0", declared: "2.3.0", wantPassed: true},
		{name: "leading v on tag", tagVersion: "v2.3.0", declared: "2.3.0", wantPassed: true},
		{name: "whitespace in manifest", tagVersion: "2.3.0", declared: " 2.3.0\n", wantPassed: true},
		{name: "different patch", tagVersion: "2.3.0", declared: "2.3.1", wantReason: `tag version "2.3.0" != manifest version "2.3.1"`},
		{name: "no fuzzy compatibility", tagVersion: "2.3", declared: "2.3.0", wantReason: "!="},
		{name: "build metadata is not ignored", tagVersion: "1.0.0+build.1", declared: "1.0.0", wantReason: "!="},
		{name: "empty manifest version", tagVersion: "1.0.0", declared: "", wantReason: "manifest declares no version"},
		{name: "equal but not semver", tagVersion: "1.0.0.1", declared: "1.0.0.1", wantPassed: true, wantReason: "not valid semver"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			v := release.ValidateVersion(c.tagVersion, c.declared)

			require.Equal(t, c.wantPassed, v.Passed)
			if c.wantReason == "" {
				require.Empty(t, v.Reason)
			} else {
				require.Contains(t, v.Reason, c.wantReason)
			}
		})
	}
}

func TestNormalizeVersion(t *testing.T) {
	require.Equal(t, "1.2.3", release.NormalizeVersion(" v1.2.3 "))
	require.Equal(t, "1.2.3", release.NormalizeVersion("V1.2.3"))
	require.Equal(t, "v1.2.3", release.NormalizeVersion("vv1.2.3"))
}
