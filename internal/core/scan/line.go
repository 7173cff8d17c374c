package scan

// Line recognizes single-line comments that start at a marker byte and run
// through the end of the line. The marker and the terminating newline are
// both part of the emitted text.
type Line struct {
	marker byte
	in     bool
}

// NewLine returns a Line scanner for marker. Assembly sources use ';'.
func NewLine(marker byte) *Line {
	return &Line{marker: marker}
}

func (l *Line) Reset() { l.in = false }

func (l *Line) InComment() bool { return l.in }

func (l *Line) Step(c byte, out []byte) ([]byte, Event) {
	ev := EventNone
	if !l.in && c == l.marker {
		l.in = true
		ev = EventOpen
	}
	if !l.in {
		return out, ev
	}
	out = append(out, c)
	if c == '\n' {
		l.in = false
		ev = EventClose
	}
	return out, ev
}
