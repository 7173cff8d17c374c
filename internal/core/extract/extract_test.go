package extract

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cmtx/internal/index/sqlite"
	"cmtx/internal/index/store"
)

var (
	cExts   = []string{".h", ".c"}
	asmExts = []string{".asm", ".s"}
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func banner(root, rel string) string {
	return "\n" + strings.Repeat("=", 57) + "\n" +
		filepath.Join(root, filepath.FromSlash(rel)) + "\n" +
		strings.Repeat("=", 59) + "\n"
}

func fixture(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "kernel/main.c", "int x; /* comment */\n")
	writeFile(t, root, "include/tty.h", "/* tty\n * driver */\nvoid tty(void);\n")
	writeFile(t, root, "boot/boot.asm", "mov ax, 1 ; set ax\nret\n")
	writeFile(t, root, "README", "/* not scanned */\n")
	return root
}

func defaultOptions() Options {
	return Options{CExtensions: cExts, AsmExtensions: asmExts}
}

func TestRun_BannersAndOrder(t *testing.T) {
	root := fixture(t)

	var out bytes.Buffer
	stats, err := Run(root, &out, defaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := banner(root, "include/tty.h") + "/* tty\n * driver */\n" +
		banner(root, "kernel/main.c") + "/* comment */\n" +
		banner(root, "boot/boot.asm") + "; set ax\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if stats.Files != 3 || stats.Comments != 3 {
		t.Fatalf("stats=%+v", stats)
	}
}

func TestRun_BannerWidths(t *testing.T) {
	var out bytes.Buffer
	if err := writeBanner(&out, "src/a.c"); err != nil {
		t.Fatalf("writeBanner: %v", err)
	}
	lines := strings.Split(out.String(), "\n")
	if len(lines) != 5 || lines[0] != "" || lines[4] != "" {
		t.Fatalf("unexpected banner shape: %q", out.String())
	}
	if len(lines[1]) != 57 || len(lines[3]) != 59 || lines[2] != "src/a.c" {
		t.Fatalf("unexpected banner: %q", out.String())
	}
}

func TestRun_FileWithoutCommentsStillGetsBanner(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "empty.c", "int main(void) { return 0; }\n")

	var out bytes.Buffer
	if _, err := Run(root, &out, defaultOptions()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := out.String(), banner(root, "empty.c"); got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestRun_RawMode(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.c", "int x; /* c */\n")
	writeFile(t, root, "b.s", "nop\n")

	opts := defaultOptions()
	opts.Mode = ModeRaw
	var out bytes.Buffer
	stats, err := Run(root, &out, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := banner(root, "a.c") + "int x; /* c */\n" + banner(root, "b.s") + "nop\n"
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if stats.Bytes != int64(len("int x; /* c */\n")+len("nop\n")) {
		t.Fatalf("Bytes=%d", stats.Bytes)
	}
}

func TestRun_CRLFSourcesReadAsText(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.c", "/* one\r\n two */\r\nint x;\r\n")
	writeFile(t, root, "b.s", "nop ; set\r\nret\r\n")

	for _, mode := range []Mode{ModeComments, ModeRaw} {
		t.Run(string(mode), func(t *testing.T) {
			opts := defaultOptions()
			opts.Mode = mode
			var out bytes.Buffer
			if _, err := Run(root, &out, opts); err != nil {
				t.Fatalf("Run: %v", err)
			}
			want := banner(root, "a.c") + "/* one\n two */\n" + banner(root, "b.s") + "; set\n"
			if mode == ModeRaw {
				want = banner(root, "a.c") + "/* one\n two */\nint x;\n" + banner(root, "b.s") + "nop ; set\nret\n"
			}
			if diff := cmp.Diff(want, out.String()); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRun_Anomalies(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.c", "x */ y /* open")

	var out bytes.Buffer
	stats, err := Run(root, &out, defaultOptions())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Unterminated != 1 || stats.StrayCloses != 1 {
		t.Fatalf("stats=%+v", stats)
	}
	if !strings.HasSuffix(out.String(), "\n/* open") {
		t.Fatalf("unterminated body should be emitted: %q", out.String())
	}
}

func TestRun_SkipsEmptyPass(t *testing.T) {
	root := fixture(t)

	opts := defaultOptions()
	opts.AsmExtensions = nil
	var out bytes.Buffer
	stats, err := Run(root, &out, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Files != 2 || strings.Contains(out.String(), "boot.asm") {
		t.Fatalf("asm pass should be skipped: %q", out.String())
	}
}

func TestRun_RejectsBadOptions(t *testing.T) {
	root := t.TempDir()
	if _, err := Run("", &bytes.Buffer{}, defaultOptions()); err == nil {
		t.Fatal("expected error for empty root")
	}
	opts := defaultOptions()
	opts.Mode = "symbols"
	if _, err := Run(root, &bytes.Buffer{}, opts); err == nil {
		t.Fatal("expected error for unknown mode")
	}
	opts = defaultOptions()
	opts.Engine = "regex"
	if _, err := Run(root, &bytes.Buffer{}, opts); err == nil {
		t.Fatal("expected error for unknown engine")
	}
}

func TestRun_MissingRoot(t *testing.T) {
	_, err := Run(filepath.Join(t.TempDir(), "nope"), &bytes.Buffer{}, defaultOptions())
	if err == nil {
		t.Fatal("expected error")
	}
}

type collector struct {
	byPath map[string][]store.CommentInput
}

func (c *collector) AddComments(path string, comms []store.CommentInput) error {
	if c.byPath == nil {
		c.byPath = map[string][]store.CommentInput{}
	}
	c.byPath[path] = comms
	return nil
}

func TestRun_Recorder(t *testing.T) {
	root := fixture(t)

	rec := &collector{}
	opts := defaultOptions()
	opts.Recorder = rec
	if _, err := Run(root, &bytes.Buffer{}, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := map[string][]store.CommentInput{
		"include/tty.h": {{Kind: store.KindBlock, Lang: store.LangC, Text: "/* tty\n * driver */", SL: 1, EL: 2, Terminated: true}},
		"kernel/main.c": {{Kind: store.KindBlock, Lang: store.LangC, Text: "/* comment */", SL: 1, EL: 1, Terminated: true}},
		"boot/boot.asm": {{Kind: store.KindLine, Lang: store.LangAsm, Text: "; set ax", SL: 1, EL: 1, Terminated: true}},
	}
	if diff := cmp.Diff(want, rec.byPath); diff != "" {
		t.Fatalf("recorded mismatch (-want +got):\n%s", diff)
	}
}

func TestRun_RecordToSQLite(t *testing.T) {
	root := fixture(t)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "report.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	runID, err := store.NewRunID()
	if err != nil {
		t.Fatalf("run id: %v", err)
	}
	if err := st.BeginRun(runID, root); err != nil {
		t.Fatalf("begin: %v", err)
	}

	opts := defaultOptions()
	opts.Recorder = RecordTo(st, runID)
	stats, err := Run(root, &bytes.Buffer{}, opts)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if err := st.FinishRun(runID, stats.Files); err != nil {
		t.Fatalf("finish: %v", err)
	}

	run, err := st.LatestRun()
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if run.ID != runID || run.Files != 3 || run.Comments != 3 {
		t.Fatalf("run=%+v", run)
	}

	res, err := st.Search(runID, "driver", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(res.Comments) != 1 || res.Comments[0].Path != "include/tty.h" {
		t.Fatalf("search=%+v", res)
	}
}

type recordingExplain struct{ kv map[string]any }

func (r *recordingExplain) KV(key string, value any) {
	if r.kv == nil {
		r.kv = map[string]any{}
	}
	r.kv[key] = value
}

func (r *recordingExplain) Timer(string) func() { return func() {} }

func TestRun_Explain(t *testing.T) {
	root := fixture(t)

	ex := &recordingExplain{}
	opts := defaultOptions()
	opts.Explain = ex
	if _, err := Run(root, &bytes.Buffer{}, opts); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ex.kv["files.c"] != 2 || ex.kv["files.asm"] != 1 || ex.kv["comments"] != 3 {
		t.Fatalf("kv=%v", ex.kv)
	}
}
