package bleve

import (
	"encoding/json"
	"time"
)

const (
	bucketRuns  = "runs"
	bucketFiles = "files"
)

type runMeta struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
	Files      int    `json:"files"`
	Comments   int    `json:"comments"`
}

type fileMeta struct {
	CommentCount int `json:"comment_count"`
}

func encodeJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

func decodeJSON(data []byte, target any) error {
	return json.Unmarshal(data, target)
}

func nowUnix() int64 {
	return time.Now().Unix()
}
