package cmtxcli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cmtx/internal/index/store"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for rel, body := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	cmd.SetArgs(RewriteArgsForImplicitExtract(cmd, args))
	out, _, err := ExecuteForTest(cmd)
	return out, err
}

func TestExtract_PrintsCommentsBehindBanners(t *testing.T) {
	root := writeTree(t, map[string]string{
		"kernel/main.c": "int x; /* comment */\n",
		"boot/boot.asm": "mov ax, 1 ; set ax\n",
	})

	out, err := run(t, root)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	top := "\n" + strings.Repeat("=", 57) + "\n"
	bottom := "\n" + strings.Repeat("=", 59) + "\n"
	want := top + filepath.Join(root, "kernel", "main.c") + bottom + "/* comment */\n" +
		top + filepath.Join(root, "boot", "boot.asm") + bottom + "; set ax\n"
	if out != want {
		t.Fatalf("got %q\nwant %q", out, want)
	}
}

func TestExtract_RawMode(t *testing.T) {
	root := writeTree(t, map[string]string{"a.c": "int x;\n"})

	out, err := run(t, "--mode", "raw", root)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasSuffix(out, "\nint x;\n") {
		t.Fatalf("raw output: %q", out)
	}
}

func TestExtract_RecordRunsAndQuery(t *testing.T) {
	for _, backend := range []string{"sqlite", "bleve"} {
		t.Run(backend, func(t *testing.T) {
			root := writeTree(t, map[string]string{
				"include/tty.h": "/* tty\n * driver */\nvoid tty(void);\n",
				"kernel/main.c": "int x; /* comment */\n",
				"boot/boot.asm": "mov ax, 1 ; set ax\n",
			})
			db := filepath.Join(t.TempDir(), "report.db")

			out, err := run(t, "extract", root, "--record", "--store", backend, "-d", db)
			if err != nil {
				t.Fatalf("extract: %v", err)
			}
			if !contains(out, "recorded run ") || !contains(out, "(3 files, 3 comments)") {
				t.Fatalf("missing run summary: %q", out)
			}

			out, err = run(t, "runs", "--store", backend, "-d", db)
			if err != nil {
				t.Fatalf("runs: %v", err)
			}
			if !contains(out, "files=3 comments=3") || !contains(out, root) {
				t.Fatalf("runs output: %q", out)
			}

			out, err = run(t, "q", "driver", "--store", backend, "-d", db)
			if err != nil {
				t.Fatalf("q: %v", err)
			}
			if !strings.HasPrefix(out, "include/tty.h:1: ") {
				t.Fatalf("q output: %q", out)
			}

			out, err = run(t, "q", "ax", "--jsonl", "--store", backend, "-d", db)
			if err != nil {
				t.Fatalf("q --jsonl: %v", err)
			}
			if !contains(out, `"path":"boot/boot.asm"`) || !contains(out, `"lang":"asm"`) {
				t.Fatalf("q --jsonl output: %q", out)
			}
		})
	}
}

func TestQuery_NoRuns(t *testing.T) {
	db := filepath.Join(t.TempDir(), "report.db")
	_, err := run(t, "q", "x", "-d", db)
	if !errors.Is(err, store.ErrNoRuns) {
		t.Fatalf("expected ErrNoRuns, got %v", err)
	}
}

func TestQuery_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "report.db")
	if _, err := run(t, "q", "x", "--run", "01ARZ3NDEKTSV4RRFFQ69G5FAV", "-d", db); err == nil {
		t.Fatal("expected error")
	}
}

func TestExtract_MissingRootFails(t *testing.T) {
	if _, err := run(t, filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Fatal("expected error")
	}
}
