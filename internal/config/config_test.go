package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseYAML(t *testing.T) {
	cfg, err := Parse([]byte(`
version: 1
source_root: ../src
extensions:
  asm: [".asm", ".S"]
exclude:
  - "kernel/media/**"
store:
  backend: bleve
`), false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.SourceRoot != "../src" {
		t.Fatalf("SourceRoot=%q", cfg.SourceRoot)
	}
	if diff := cmp.Diff([]string{".h", ".c"}, cfg.Extensions.C); diff != "" {
		t.Fatalf("C extensions (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{".asm", ".S"}, cfg.Extensions.Asm); diff != "" {
		t.Fatalf("asm extensions (-want +got):\n%s", diff)
	}
	if cfg.Store.Backend != "bleve" || len(cfg.Exclude) != 1 {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestParseJSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"respect_ignore": true, "include": ["**/*.c"]}`), true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !cfg.RespectIgnore || cfg.Version != 1 || cfg.Store.Backend != "sqlite" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil, false)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Fatalf("empty file should equal defaults (-want +got):\n%s", diff)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "sourceroot: x\n",
		"bad version":   "version: 2\n",
		"bad extension": "extensions:\n  c: [\"c\"]\n",
		"bad backend":   "store:\n  backend: redis\n",
		"wrong type":    "respect_ignore: yes please\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(src), false); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	if p, err := Find(dir); err != nil || p != "" {
		t.Fatalf("Find on empty dir: p=%q err=%v", p, err)
	}

	path := filepath.Join(dir, ".cmtx.yaml")
	if err := os.WriteFile(path, []byte("source_root: src\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	p, err := Find(dir)
	if err != nil || p != path {
		t.Fatalf("Find: p=%q err=%v", p, err)
	}
	cfg, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SourceRoot != "src" || cfg.Path != path {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoadReportsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	_ = os.WriteFile(path, []byte("version: 3\n"), 0o644)
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "bad.yaml") {
		t.Fatalf("err=%v", err)
	}
}
