package walk

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

type Options struct {
	// Extensions is the file-name suffix allow-list. Empty means every file.
	Extensions   []string
	IncludeGlobs []string
	ExcludeGlobs []string

	// RespectIgnore turns on the repository filters: hidden entries, .git
	// and node_modules, .gitignore and IgnoreFile patterns. Off by default,
	// so every matching file under root is listed.
	RespectIgnore bool

	// OnSkip, when set, is called for each directory or extension-matching
	// file dropped by the RespectIgnore filters.
	OnSkip func(rel string, isDir bool)
}

// ListFiles returns the slash-separated paths, relative to root, of every
// regular file under root that passes opts. The result is sorted.
func ListFiles(root string, opts Options) ([]string, error) {
	f, err := NewFilter(root, opts)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		if d.IsDir() {
			if f.ignored(rel, true) {
				f.skip(rel, true)
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !f.ShouldInclude(rel, false) {
			if HasExtension(d.Name(), opts.Extensions) && f.ignored(rel, false) {
				f.skip(rel, false)
			}
			return nil
		}

		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

func HasExtension(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func isDefaultSkippedDir(name string) bool {
	switch name {
	case ".git", "node_modules":
		return true
	default:
		return false
	}
}
