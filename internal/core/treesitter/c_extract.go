//go:build treesitter && cgo

package treesitter

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_c "github.com/tree-sitter/tree-sitter-c/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"

	"cmtx/internal/index/store"
)

func extractC(src []byte) ([]store.CommentInput, error) {
	return extractWith(tree_sitter.NewLanguage(tree_sitter_c.Language()), src)
}

func extractCPP(src []byte) ([]store.CommentInput, error) {
	return extractWith(tree_sitter.NewLanguage(tree_sitter_cpp.Language()), src)
}

func extractWith(lang *tree_sitter.Language, src []byte) ([]store.CommentInput, error) {
	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}

	tree := parser.Parse(src, nil)
	defer tree.Close()

	root := tree.RootNode()
	if root == nil {
		return nil, nil
	}
	return walkComments(root, src), nil
}
