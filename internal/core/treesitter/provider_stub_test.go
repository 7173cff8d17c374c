//go:build !treesitter || !cgo

package treesitter

import (
	"errors"
	"testing"
)

func TestStubReportsDisabled(t *testing.T) {
	if Enabled() {
		t.Fatal("stub build reports enabled")
	}
	_, err := NewProvider().Extract("a.c", []byte("/* x */"))
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("expected ErrDisabled, got %v", err)
	}
}
