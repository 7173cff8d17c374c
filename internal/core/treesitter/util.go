//go:build treesitter && cgo

package treesitter

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func nodeLines1Based(n *tree_sitter.Node) (sl, el int) {
	if n == nil {
		return 0, 0
	}
	sp := n.StartPosition()
	ep := n.EndPosition()

	sl = int(sp.Row) + 1
	el = int(ep.Row) + 1

	if ep.Column == 0 && el > sl {
		el--
	}
	if el < sl {
		el = sl
	}
	return sl, el
}

func isCommentKind(kind string) bool {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return false
	}
	return strings.Contains(kind, "comment")
}
