package cmtxcli

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"cmtx/internal/index/store"
)

func sampleHits() []Hit {
	return hitsFrom([]store.Comment{
		{RunID: "r1", Path: "kernel/tty.c", Kind: store.KindBlock, Lang: store.LangC, Text: "/* tty\n * driver for vga */", SL: 9, EL: 10, Terminated: true},
		{RunID: "r1", Path: "boot/boot.asm", Kind: store.KindLine, Lang: store.LangAsm, Text: "; load the driver", SL: 3, EL: 3, Terminated: true, Snippet: "; load the <<driver>>"},
	})
}

func TestRenderJSONL(t *testing.T) {
	lines := RenderJSONL(sampleHits())
	for _, line := range strings.Split(strings.TrimSpace(lines), "\n") {
		var v map[string]any
		if err := json.Unmarshal([]byte(line), &v); err != nil {
			t.Fatalf("invalid json: %v (%s)", err, line)
		}
		if v["run"] != "r1" {
			t.Fatalf("run=%v", v["run"])
		}
	}
}

func TestRenderDefault(t *testing.T) {
	got := RenderDefault(sampleHits())
	want := "kernel/tty.c:9: /* tty\nboot/boot.asm:3: ; load the <<driver>>\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderShow_MarksMatchingLines(t *testing.T) {
	out := RenderShow(sampleHits()[:1], "Driver")
	if !contains(out, "kernel/tty.c:9 (9-10)") {
		t.Fatalf("missing header: %s", out)
	}
	if !contains(out, "   9| /* tty") {
		t.Fatalf("missing line 9: %s", out)
	}
	if !contains(out, "> 10|  * driver for vga */") {
		t.Fatalf("missing match marker on line 10: %s", out)
	}
}

func TestRenderRuns(t *testing.T) {
	out := RenderRuns(runsFrom([]store.Run{
		{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAV", Root: "/src", StartedAt: 0, FinishedAt: 5, Files: 2, Comments: 7},
		{ID: "01ARZ3NDEKTSV4RRFFQ69G5FAW", Root: "/src", StartedAt: 10},
	}))
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 {
		t.Fatalf("lines=%q", lines)
	}
	if !contains(lines[0], "1970-01-01T00:00:00Z") || !contains(lines[0], "files=2 comments=7") || !contains(lines[0], "done") {
		t.Fatalf("line 0: %q", lines[0])
	}
	if !contains(lines[1], "incomplete") {
		t.Fatalf("line 1: %q", lines[1])
	}
}
