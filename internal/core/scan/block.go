package scan

// blockState is the position of the block scanner relative to a /* */ pair.
type blockState uint8

const (
	// outside: not in a comment, no pending delimiter.
	outside blockState = iota
	// sawSlash: not in a comment, previous byte was '/'. The slash is withheld
	// until the next byte confirms or denies an opener.
	sawSlash
	// inside: in a comment body.
	inside
	// sawAsterisk: in a comment, previous byte was '*'.
	sawAsterisk
	// insideSlash: in a comment, previous byte was '/'. A following '*' echoes
	// the slash a second time, as it would for an opener.
	insideSlash
)

// Block recognizes C-style /* */ comments one byte at a time.
//
// The opening slash is withheld until the following '*' confirms it, and the
// closing slash is emitted together with a synthetic newline. A stray */
// outside a comment produces nothing. The '*' of the opener can also begin
// the closer, so "/*/" is a complete comment, and the slash of a closer can
// begin the next opener, so "/* a */* b */" holds two comments. A "/*" inside
// an open comment does not nest; its slash is echoed twice, so
// "/* a /* b */" prints "/* a //* b */".
type Block struct {
	state blockState
}

func NewBlock() *Block { return &Block{} }

func (b *Block) Reset() { b.state = outside }

func (b *Block) InComment() bool {
	return b.state == inside || b.state == sawAsterisk || b.state == insideSlash
}

func (b *Block) Step(c byte, out []byte) ([]byte, Event) {
	switch b.state {
	case outside:
		if c == '/' {
			b.state = sawSlash
		}
		return out, EventNone

	case sawSlash:
		switch c {
		case '*':
			b.state = sawAsterisk
			return append(out, '/', '*'), EventOpen
		case '/':
			return out, EventNone
		default:
			b.state = outside
			return out, EventNone
		}

	case inside:
		switch c {
		case '*':
			b.state = sawAsterisk
		case '/':
			b.state = insideSlash
		}
		return append(out, c), EventNone

	case insideSlash:
		switch c {
		case '*':
			b.state = sawAsterisk
			return append(out, '/', '*'), EventNone
		case '/':
			return append(out, c), EventNone
		default:
			b.state = inside
			return append(out, c), EventNone
		}

	case sawAsterisk:
		switch c {
		case '/':
			b.state = sawSlash
			return append(out, '/', '\n'), EventClose
		case '*':
			return append(out, c), EventNone
		default:
			b.state = inside
			return append(out, c), EventNone
		}
	}
	return out, EventNone
}

// strayCloser tracks "*/" pairs seen outside a comment. It is kept apart from
// Block so the state machine only tracks delimiters.
type strayCloser struct {
	prevStar bool
	count    int
}

func (s *strayCloser) observe(c byte, wasInComment bool) {
	if wasInComment {
		s.prevStar = false
		return
	}
	if c == '/' && s.prevStar {
		s.count++
	}
	s.prevStar = c == '*'
}
