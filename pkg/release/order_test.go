package release_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/user/tagrelease/pkg/release"
)

func TestPublishOrder_Success(t *testing.T) {
	type tc struct {
		name     string
		packages []release.Package
		want     map[string]int
	}

	cases := []tc{
		{
			name:     "single package",
			packages: []release.Package{{Name: "lsp-positions"}},
			want:     map[string]int{"lsp-positions": 1},
		},
		{
			name: "linear dependency chain",
			packages: []release.Package{
				{Name: "lsp-positions"},
				{Name: "stack-graphs", DependsOn: []string{"lsp-positions"}},
				{Name: "tree-sitter-stack-graphs", DependsOn: []string{"stack-graphs"}},
			},
			want: map[string]int{"lsp-positions": 1, "stack-graphs": 2, "tree-sitter-stack-graphs": 3},
		},
		{
			name: "diamond dependency",
			packages: []release.Package{
				{Name: "core"},
				{Name: "a", DependsOn: []string{"core"}},
				{Name: "b", DependsOn: []string{"core"}},
				{Name: "cli", DependsOn: []string{"a", "b"}},
			},
			want: map[string]int{"core": 1, "a": 2, "b": 2, "cli": 3},
		},
		{
			name: "dependency outside the set is ignored",
			packages: []release.Package{
				{Name: "a", DependsOn: []string{"not-released-now"}},
			},
			want: map[string]int{"a": 1},
		},
		{
			name:     "empty",
			packages: nil,
			want:     map[string]int{},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			order, err := release.PublishOrder(c.packages)

			require.NoError(t, err)
			require.Equal(t, c.want, order)
		})
	}
}

func TestPublishOrder_Cycle(t *testing.T) {
	_, err := release.PublishOrder([]release.Package{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	})

	require.ErrorIs(t, err, release.ErrDependencyCycle)
}

func TestLayers(t *testing.T) {
	layers := release.Layers(map[string]int{"core": 1, "b": 2, "a": 2, "cli": 3})

	require.Equal(t, [][]string{{"core"}, {"a", "b"}, {"cli"}}, layers)
	require.Empty(t, release.Layers(map[string]int{}))
}
