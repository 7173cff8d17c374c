package backend

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cmtx/internal/index/bleve"
	"cmtx/internal/index/sqlite"
	"cmtx/internal/index/store"
)

// Dir is the per-tree directory that holds report stores.
const Dir = ".cmtx"

// ErrPathKind is returned by Open when path exists but has the wrong shape
// for the backend: sqlite stores are files, bleve stores are directories.
var ErrPathKind = errors.New("store path does not match backend")

func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "sqlite"
	}
	switch name {
	case "sqlite", "sqlite3", "fts5":
		return "sqlite"
	case "bleve":
		return "bleve"
	default:
		return name
	}
}

func DefaultPath(root string, backend string) string {
	backend = NormalizeName(backend)
	switch backend {
	case "bleve":
		return filepath.Join(root, Dir, "report.bleve")
	default:
		return filepath.Join(root, Dir, "report.db")
	}
}

func NormalizePath(backend string, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	backend = NormalizeName(backend)
	if backend != "bleve" {
		return filepath.Clean(path)
	}

	clean := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(clean))
	if ext == "" {
		return clean + ".bleve"
	}
	if ext == ".db" {
		return strings.TrimSuffix(clean, filepath.Ext(clean)) + ".bleve"
	}
	return clean
}

func Open(backend string, path string) (store.Store, error) {
	backend = NormalizeName(backend)
	if backend != "sqlite" && backend != "bleve" {
		return nil, fmt.Errorf("unknown store backend: %s", backend)
	}
	if err := checkPath(backend, path); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(filepath.Clean(path)), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	if backend == "bleve" {
		return bleve.Open(path)
	}
	return sqlite.Open(path)
}

func checkPath(backend string, path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("store path is required")
	}
	fi, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if got := kindOf(fi); got != backend {
		return fmt.Errorf("%w: %s holds a %s store, not %s", ErrPathKind, path, got, backend)
	}
	return nil
}

func kindOf(fi fs.FileInfo) string {
	if fi.IsDir() {
		return "bleve"
	}
	return "sqlite"
}

// Location is one report store found by List.
type Location struct {
	Path    string
	Backend string
}

// List returns the report stores under root/Dir, sorted by path. A missing
// Dir yields no stores.
func List(root string) ([]Location, error) {
	entries, err := os.ReadDir(filepath.Join(root, Dir))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Location
	for _, e := range entries {
		name := e.Name()
		var want string
		switch strings.ToLower(filepath.Ext(name)) {
		case ".db":
			want = "sqlite"
		case ".bleve":
			want = "bleve"
		default:
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return nil, err
		}
		if kindOf(fi) != want {
			continue
		}
		out = append(out, Location{Path: filepath.Join(root, Dir, name), Backend: want})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
