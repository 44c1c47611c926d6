// Package bundle discovers .lnx application bundles under the recognized
// Applications directories and resolves which tiers the current process
// should reconcile.
package bundle

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/dotlnx-dev/dotlnx/internal/application/errors"
	"github.com/dotlnx-dev/dotlnx/internal/domain/entities"
)

// Suffix marks a directory as an application bundle.
const Suffix = ".lnx"

// Discover enumerates the immediate children of a tier's Applications
// directory and returns those that are .lnx directories, sorted by path so
// processing order is stable across platforms. One level of symbolic link is
// followed. A missing root yields an empty result, not an error.
func Discover(tier entities.Tier) ([]entities.Bundle, error) {
	root := tier.ApplicationsDir

	dirents, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperrors.NewIoError("list", root, err)
	}

	var out []entities.Bundle
	for _, d := range dirents {
		if !strings.HasSuffix(d.Name(), Suffix) {
			continue
		}
		path := filepath.Join(root, d.Name())
		info, err := os.Stat(path) // follows symlinks
		if err != nil || !info.IsDir() {
			continue
		}
		out = append(out, entities.Bundle{Path: path, Tier: tier})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// IsBundle reports whether path is a directory (or symlink to one) whose
// name carries the bundle suffix.
func IsBundle(path string) bool {
	if !strings.HasSuffix(filepath.Base(path), Suffix) {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
