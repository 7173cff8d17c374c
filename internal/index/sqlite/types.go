package sqlite

import "cmtx/internal/index/store"

type Run = store.Run
type Comment = store.Comment
type CommentInput = store.CommentInput
type SearchResult = store.SearchResult
