package walk

import (
	"bufio"
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	gitignore "github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFile holds extra gitignore-style patterns that only this tool honours.
const IgnoreFile = ".cmtxignore"

type ignoreMatcher struct {
	matcher gitignore.Matcher
}

func loadIgnoreMatcher(root string, respect bool) (*ignoreMatcher, error) {
	if !respect {
		return &ignoreMatcher{matcher: nil}, nil
	}

	patterns, err := gitignore.ReadPatterns(osfs.New(root), nil)
	if err != nil {
		return nil, err
	}
	extra, err := readToolIgnore(root)
	if err != nil {
		return nil, err
	}
	patterns = append(patterns, extra...)
	if len(patterns) == 0 {
		return &ignoreMatcher{matcher: nil}, nil
	}
	return &ignoreMatcher{matcher: gitignore.NewMatcher(patterns)}, nil
}

func readToolIgnore(root string) ([]gitignore.Pattern, error) {
	b, err := os.ReadFile(filepath.Join(root, IgnoreFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []gitignore.Pattern
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, gitignore.ParsePattern(line, nil))
	}
	return out, sc.Err()
}

func (m *ignoreMatcher) isIgnored(relPath string, isDir bool) bool {
	if m == nil || m.matcher == nil {
		return false
	}

	relPath = strings.Trim(filepath.ToSlash(relPath), "/")
	if relPath == "" {
		return false
	}
	return m.matcher.Match(strings.Split(relPath, "/"), isDir)
}
