//go:build treesitter && cgo

package treesitter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"cmtx/internal/index/store"
)

// walkComments collects every block comment node under root. Line comments
// are dropped so the result lines up with the /* */ scanner.
func walkComments(root *tree_sitter.Node, src []byte) []store.CommentInput {
	var comms []store.CommentInput

	var walk func(n *tree_sitter.Node)
	walk = func(n *tree_sitter.Node) {
		if n == nil {
			return
		}
		if isCommentKind(n.Kind()) {
			if c, ok := makeBlockComment(n, src); ok {
				comms = append(comms, c)
			}
			return
		}
		for i := uint(0); i < n.NamedChildCount(); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return comms
}

func makeBlockComment(n *tree_sitter.Node, src []byte) (store.CommentInput, bool) {
	text := n.Utf8Text(src)
	if !strings.HasPrefix(text, "/*") {
		return store.CommentInput{}, false
	}
	sl, el := nodeLines1Based(n)
	return store.CommentInput{
		Kind:       store.KindBlock,
		Lang:       store.LangC,
		Text:       text,
		SL:         sl,
		EL:         el,
		Terminated: strings.HasSuffix(text, "*/") && len(text) >= 4,
	}, true
}
