package cmtxcli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"cmtx/internal/index/store"
	"cmtx/internal/model"
)

type Hit = model.Hit
type Range = model.Range
type RunInfo = model.RunInfo

func hitsFrom(comms []store.Comment) []Hit {
	out := make([]Hit, 0, len(comms))
	for _, c := range comms {
		out = append(out, Hit{
			Run:        c.RunID,
			Path:       c.Path,
			Kind:       c.Kind,
			Lang:       c.Lang,
			Range:      Range{SL: c.SL, EL: c.EL},
			Terminated: c.Terminated,
			Snippet:    c.Snippet,
			Text:       c.Text,
		})
	}
	return out
}

func runsFrom(runs []store.Run) []RunInfo {
	out := make([]RunInfo, 0, len(runs))
	for _, r := range runs {
		out = append(out, RunInfo(r))
	}
	return out
}

func RenderJSONL[T any](items []T) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	for _, item := range items {
		_ = enc.Encode(item)
	}
	return b.String()
}

func RenderDefault(hits []Hit) string {
	var b strings.Builder
	for _, h := range hits {
		_, _ = fmt.Fprintf(&b, "%s:%d: %s\n", h.Path, h.Range.SL, bestSnippet(h))
	}
	return b.String()
}

// RenderShow prints each comment in full, numbered from its first line. Lines
// containing keyword are marked with '>'.
func RenderShow(hits []Hit, keyword string) string {
	needle := strings.ToLower(strings.TrimSpace(keyword))

	var b strings.Builder
	for _, h := range hits {
		_, _ = fmt.Fprintf(&b, "%s:%d (%d-%d)\n", h.Path, h.Range.SL, h.Range.SL, h.Range.EL)

		lines := strings.Split(h.Text, "\n")
		width := len(strconv.Itoa(h.Range.SL + len(lines) - 1))
		for i, line := range lines {
			prefix := " "
			if needle != "" && strings.Contains(strings.ToLower(line), needle) {
				prefix = ">"
			}
			_, _ = fmt.Fprintf(&b, "%s %*d| %s\n", prefix, width, h.Range.SL+i, line)
		}
		_, _ = fmt.Fprintln(&b)
	}
	return b.String()
}

func RenderRuns(runs []RunInfo) string {
	var b strings.Builder
	for _, r := range runs {
		state := "done"
		if r.FinishedAt == 0 {
			state = "incomplete"
		}
		started := time.Unix(r.StartedAt, 0).UTC().Format(time.RFC3339)
		_, _ = fmt.Fprintf(&b, "%s  %s  %-10s  files=%d comments=%d  %s\n", r.ID, started, state, r.Files, r.Comments, r.Root)
	}
	return b.String()
}

func bestSnippet(h Hit) string {
	if s := strings.TrimSpace(h.Snippet); s != "" {
		return s
	}
	first, _, _ := strings.Cut(h.Text, "\n")
	return strings.TrimSpace(first)
}
