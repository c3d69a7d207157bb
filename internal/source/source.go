// Package source resolves the build input into a game-data root: either a
// plain directory, or the contents of an archive mounted read-only for the
// duration of the build.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkgfoundry/ufs2pack/internal/archive"
	"github.com/pkgfoundry/ufs2pack/internal/metadata"
)

// ErrNoGameData means neither the input nor any of its immediate
// subdirectories carries the metadata marker.
var ErrNoGameData = fmt.Errorf("no game data found (missing %s)", metadata.RelPath)

// Root is a resolved source root. Close releases the backing archive mount
// when there is one; for plain directories it is a no-op. Always call Close,
// including on error paths after a successful Resolve.
type Root struct {
	Path     string
	FromArch bool

	mount *archive.Mount
}

// Close releases the backing mount, if any. Safe to call multiple times.
func (r *Root) Close() error {
	if r == nil || r.mount == nil {
		return nil
	}
	m := r.mount
	r.mount = nil
	return m.Close()
}

// Resolve locates the game-data root for input. Directories are searched
// in place; regular files are treated as archives and mounted first. When
// the root search fails after a mount, the mount is released before
// returning.
func Resolve(ctx context.Context, input string, opts archive.Options) (*Root, error) {
	fi, err := os.Stat(input)
	if err != nil {
		return nil, fmt.Errorf("input %q: %w", input, err)
	}

	if fi.IsDir() {
		root, err := findRoot(input)
		if err != nil {
			return nil, err
		}
		return &Root{Path: root}, nil
	}

	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("input %q is neither a directory nor an archive file", input)
	}

	m, err := archive.MountArchive(ctx, input, opts)
	if err != nil {
		return nil, fmt.Errorf("mount archive %q: %w", input, err)
	}

	root, err := findRoot(m.Point)
	if err != nil {
		m.Close()
		return nil, err
	}
	return &Root{Path: root, FromArch: true, mount: m}, nil
}

// findRoot returns dir itself when it carries the metadata marker, else the
// first (lexicographic) immediate subdirectory that does. Archives commonly
// wrap the game data in a single top-level folder, hence the one-level
// descent.
func findRoot(dir string) (string, error) {
	if metadata.Exists(dir) {
		return dir, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read %q: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	for _, name := range names {
		sub := filepath.Join(dir, name)
		if metadata.Exists(sub) {
			return sub, nil
		}
	}
	return "", fmt.Errorf("%w (searched %q and %d subdirectories)", ErrNoGameData, dir, len(names))
}
