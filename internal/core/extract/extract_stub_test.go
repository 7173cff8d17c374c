//go:build !treesitter || !cgo

package extract

import (
	"bytes"
	"errors"
	"testing"

	"cmtx/internal/core/treesitter"
)

func TestRun_TreesitterEngineDisabled(t *testing.T) {
	root := fixture(t)

	opts := defaultOptions()
	opts.Engine = EngineTreesitter
	_, err := Run(root, &bytes.Buffer{}, opts)
	if !errors.Is(err, treesitter.ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
