//go:build treesitter && cgo

package treesitter

import (
	"path/filepath"
	"strings"

	"cmtx/internal/index/store"
)

type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func Enabled() bool { return true }

// Extract returns the /* */ comments of a C or C header file, in source order.
func (p *Provider) Extract(path string, src []byte) ([]store.CommentInput, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSpace(path)))
	switch ext {
	case ".c":
		return extractC(src)
	case ".h":
		// Prefer C++ for headers; it can usually parse C too.
		return extractCPP(src)
	default:
		return nil, ErrUnsupported
	}
}
