// Package scan extracts comment text from source files with small byte-level
// state machines.
//
// The machines are not lexers: they have no notion of string literals or of
// any comment syntax other than their own, and they accept any input.
package scan

import (
	"bytes"
	"errors"
	"io"
)

// Event reports delimiter transitions from a single Step.
type Event uint8

const (
	EventNone  Event = 0
	EventOpen  Event = 1 << 0
	EventClose Event = 1 << 1
)

func (e Event) Has(flag Event) bool { return e&flag != 0 }

// Machine is a per-file comment recognizer. Step consumes one byte, appends
// whatever must be echoed to out and returns the extended slice.
type Machine interface {
	Step(c byte, out []byte) ([]byte, Event)
	Reset()
	InComment() bool
}

// Comment is one recognized span. Text holds the echoed bytes without the
// trailing newline that ends every terminated span.
type Comment struct {
	Text       string
	StartLine  int
	EndLine    int
	Terminated bool
}

// Result counts what one Scan saw. BytesIn is measured after newline
// normalization.
type Result struct {
	Comments     int
	Unterminated bool
	StrayCloses  int
	BytesIn      int64
	BytesOut     int64
}

type Options struct {
	// OnComment receives each span as soon as it ends (or at EOF for an
	// unterminated one).
	OnComment func(Comment)
}

const readChunk = 32 * 1024

// Scan streams r through m and writes the echoed bytes to w. Line endings are
// read as text, see NormalizeNewlines. The machine is reset before the first
// byte, so no state carries over between calls.
func Scan(r io.Reader, w io.Writer, m Machine, opts Options) (Result, error) {
	if m == nil {
		return Result{}, errors.New("scan: machine is nil")
	}
	m.Reset()
	r = NormalizeNewlines(r)

	var (
		res   Result
		in    = make([]byte, readChunk)
		out   = make([]byte, 0, readChunk)
		line  = 1
		open  bool
		start int
		cur   []byte
		stray strayCloser
	)
	_, isBlock := m.(*Block)

	finish := func(terminated bool) {
		res.Comments++
		if opts.OnComment != nil {
			opts.OnComment(Comment{
				Text:       string(bytes.TrimSuffix(cur, []byte{'\n'})),
				StartLine:  start,
				EndLine:    line,
				Terminated: terminated,
			})
		}
		cur = cur[:0]
		open = false
	}

	for {
		n, rerr := r.Read(in)
		for _, c := range in[:n] {
			was := m.InComment()
			before := len(out)

			var ev Event
			out, ev = m.Step(c, out)

			if isBlock {
				stray.observe(c, was)
			}
			if ev.Has(EventOpen) {
				open = true
				start = line
			}
			if open {
				cur = append(cur, out[before:]...)
			}
			if ev.Has(EventClose) && open {
				finish(true)
			}
			if c == '\n' {
				line++
			}
		}
		res.BytesIn += int64(n)

		if len(out) > 0 {
			wn, werr := w.Write(out)
			res.BytesOut += int64(wn)
			if werr != nil {
				return res, werr
			}
			out = out[:0]
		}

		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return res, rerr
		}
	}

	if open {
		// A line comment on the last line may simply lack its newline; only
		// an open block comment is an anomaly.
		res.Unterminated = isBlock
		// Line numbers count the newline that ended the last line; an
		// unterminated span ends on the line that holds its last byte.
		if line > start && len(cur) > 0 && cur[len(cur)-1] == '\n' {
			line--
		}
		finish(false)
	}
	res.StrayCloses = stray.count
	return res, nil
}
