package store

import "errors"

var ErrNoRuns = errors.New("no recorded runs")

const (
	KindBlock = "block"
	KindLine  = "line"

	LangC   = "c"
	LangAsm = "asm"
)

type Run struct {
	ID         string
	Root       string
	StartedAt  int64
	FinishedAt int64
	Files      int
	Comments   int
}

type CommentInput struct {
	Kind       string
	Lang       string
	Text       string
	SL         int
	EL         int
	Terminated bool
}

type Comment struct {
	RunID      string
	Path       string
	Seq        int
	Kind       string
	Lang       string
	Text       string
	SL         int
	EL         int
	Terminated bool
	Snippet    string
}

type SearchResult struct {
	Comments []Comment
	Backend  string
}

type Store interface {
	Close() error
	Backend() string

	BeginRun(id string, root string) error
	AddComments(runID string, path string, comms []CommentInput) error
	FinishRun(runID string, files int) error

	GetRun(runID string) (Run, error)
	LatestRun() (Run, error)
	ListRuns() ([]Run, error)

	ListComments(runID string, path string) ([]Comment, error)
	Search(runID string, keyword string, limit int) (SearchResult, error)
	CountComments(runID string) (int, error)
}

// WritePragmaApplier is implemented by stores that can be tuned for a bulk
// write before a recorded run.
type WritePragmaApplier interface {
	ApplyWritePragmas() error
}
