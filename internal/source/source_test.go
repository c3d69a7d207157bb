package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkgfoundry/ufs2pack/internal/archive"
	"github.com/pkgfoundry/ufs2pack/internal/metadata"
)

func writeMarker(t *testing.T, root string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(root, "sce_sys"), 0o755); err != nil {
		t.Fatal(err)
	}
	doc := `{"titleId":"CUSA12345","localizedParameters":{"defaultLanguage":"en-US","en-US":{"titleName":"My Game!"}}}`
	if err := os.WriteFile(filepath.Join(root, metadata.RelPath), []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolve_DirectoryWithMarker(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir)

	r, err := Resolve(context.Background(), dir, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.Path != dir {
		t.Errorf("Path = %q, want %q", r.Path, dir)
	}
	if r.FromArch {
		t.Error("plain directory should not report FromArch")
	}
}

func TestResolve_MarkerInSubdirectory(t *testing.T) {
	dir := t.TempDir()
	// Two subdirectories; only the second (lexicographically) carries the
	// marker. An unrelated file must not confuse the search.
	if err := os.Mkdir(filepath.Join(dir, "aaa-extras"), 0o755); err != nil {
		t.Fatal(err)
	}
	game := filepath.Join(dir, "bbb-game")
	if err := os.Mkdir(game, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, game)
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := Resolve(context.Background(), dir, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if r.Path != game {
		t.Errorf("Path = %q, want %q", r.Path, game)
	}
}

func TestResolve_PrefersTopLevelMarker(t *testing.T) {
	dir := t.TempDir()
	writeMarker(t, dir)
	nested := filepath.Join(dir, "nested")
	if err := os.Mkdir(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	writeMarker(t, nested)

	r, err := Resolve(context.Background(), dir, archive.Options{})
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if r.Path != dir {
		t.Errorf("Path = %q, want the top-level root %q", r.Path, dir)
	}
}

func TestResolve_NoMarker(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "stuff"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := Resolve(context.Background(), dir, archive.Options{})
	if !errors.Is(err, ErrNoGameData) {
		t.Errorf("error = %v, want ErrNoGameData", err)
	}
}

func TestResolve_MissingInput(t *testing.T) {
	if _, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "gone"), archive.Options{}); err == nil {
		t.Error("expected error for missing input")
	}
}

func TestRootClose_NoMount(t *testing.T) {
	r := &Root{Path: "/somewhere"}
	if err := r.Close(); err != nil {
		t.Fatal(err)
	}
	var nilRoot *Root
	if err := nilRoot.Close(); err != nil {
		t.Fatal(err)
	}
}
