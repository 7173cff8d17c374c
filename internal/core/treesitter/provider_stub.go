//go:build !treesitter || !cgo

package treesitter

import (
	"cmtx/internal/index/store"
)

type Provider struct{}

func NewProvider() *Provider { return &Provider{} }

func Enabled() bool { return false }

func (p *Provider) Extract(path string, src []byte) ([]store.CommentInput, error) {
	return nil, ErrDisabled
}
