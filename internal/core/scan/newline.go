package scan

import "io"

// NormalizeNewlines returns a reader that turns "\r\n" and a lone '\r' into
// '\n', the way a text-mode read of the source does.
func NormalizeNewlines(r io.Reader) io.Reader {
	if nr, ok := r.(*newlineReader); ok {
		return nr
	}
	return &newlineReader{r: r}
}

type newlineReader struct {
	r         io.Reader
	pendingCR bool
}

func (n *newlineReader) Read(p []byte) (int, error) {
	for {
		k, err := n.r.Read(p)
		w := 0
		for _, c := range p[:k] {
			switch {
			case c == '\r':
				p[w] = '\n'
				w++
				n.pendingCR = true
			case c == '\n' && n.pendingCR:
				n.pendingCR = false
			default:
				p[w] = c
				w++
				n.pendingCR = false
			}
		}
		// A chunk holding only the '\n' of a split "\r\n" yields nothing;
		// read again rather than report an empty read.
		if w > 0 || k == 0 || err != nil {
			return w, err
		}
	}
}
