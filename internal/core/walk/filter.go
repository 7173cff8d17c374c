package walk

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

type Filter struct {
	opts Options
	ig   *ignoreMatcher
}

func NewFilter(root string, opts Options) (*Filter, error) {
	ig, err := loadIgnoreMatcher(root, opts.RespectIgnore)
	if err != nil {
		return nil, err
	}
	return &Filter{
		opts: opts,
		ig:   ig,
	}, nil
}

// ShouldInclude reports whether rel (relative to the filter root) survives
// the ignore rules and, for files, the extension and glob filters.
func (f *Filter) ShouldInclude(rel string, isDir bool) bool {
	if f == nil {
		return false
	}
	if f.ignored(rel, isDir) {
		return false
	}
	if isDir {
		return true
	}

	rel = filepath.ToSlash(rel)
	if !HasExtension(path.Base(rel), f.opts.Extensions) {
		return false
	}
	if len(f.opts.IncludeGlobs) > 0 && !anyGlobMatch(f.opts.IncludeGlobs, rel) {
		return false
	}
	if anyGlobMatch(f.opts.ExcludeGlobs, rel) {
		return false
	}
	return true
}

// ignored applies the RespectIgnore filters only.
func (f *Filter) ignored(rel string, isDir bool) bool {
	if !f.opts.RespectIgnore {
		return false
	}
	rel = filepath.ToSlash(rel)
	name := path.Base(rel)
	if isHidden(name) {
		return true
	}
	if isDir && isDefaultSkippedDir(name) {
		return true
	}
	return f.ig.isIgnored(rel, isDir)
}

func (f *Filter) skip(rel string, isDir bool) {
	if f.opts.OnSkip != nil {
		f.opts.OnSkip(filepath.ToSlash(rel), isDir)
	}
}

func anyGlobMatch(patterns []string, rel string) bool {
	for _, pat := range patterns {
		if matchesGlob(pat, rel) {
			return true
		}
	}
	return false
}

func matchesGlob(pattern string, rel string) bool {
	pat := strings.TrimSpace(pattern)
	if pat == "" {
		return false
	}
	pat = strings.ReplaceAll(pat, "\\", "/")
	rel = filepath.ToSlash(rel)

	// Support csv passed via -x "*.s,boot/*" when not using StringSliceVar.
	if strings.Contains(pat, ",") && !strings.Contains(pat, "{") {
		for _, piece := range strings.Split(pat, ",") {
			if matchesGlob(strings.TrimSpace(piece), rel) {
				return true
			}
		}
		return false
	}

	// Treat patterns without path separators as basename patterns.
	if !strings.Contains(pat, "/") {
		ok, _ := doublestar.Match(pat, path.Base(rel))
		return ok
	}

	ok, _ := doublestar.Match(pat, rel)
	return ok
}
