package model

type Range struct {
	SL int `json:"sl"`
	EL int `json:"el"`
}

// Hit is one comment returned by a search, as rendered by the CLI.
type Hit struct {
	Run        string `json:"run"`
	Path       string `json:"path"`
	Kind       string `json:"kind"`
	Lang       string `json:"lang"`
	Range      Range  `json:"range"`
	Terminated bool   `json:"terminated"`
	Snippet    string `json:"snippet,omitempty"`
	Text       string `json:"text"`
}

type RunInfo struct {
	ID         string `json:"id"`
	Root       string `json:"root"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
	Files      int    `json:"files"`
	Comments   int    `json:"comments"`
}
