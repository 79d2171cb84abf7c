package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/user/tagrelease/pkg/release"
)

// Local reads manifests from a checked-out working tree. The tree is
// expected to be at the event ref already, so ref is not consulted.
type Local struct {
	root string
}

func NewLocal(root string) *Local {
	if root == "" {
		root = "."
	}
	return &Local{root: root}
}

func (l *Local) DeclaredVersion(ctx context.Context, pkg release.Package, ref string) (string, error) {
	return declaredVersion(ctx, l.read, pkg)
}

func (l *Local) read(ctx context.Context, rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(rel)))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, rel)
	}
	return data, err
}
