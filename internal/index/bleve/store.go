package bleve

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	bquery "github.com/blevesearch/bleve/v2/search/query"
	"go.etcd.io/bbolt"

	"cmtx/internal/index/store"
)

const docTypeComment = "comment"

type Store struct {
	mu       sync.Mutex
	path     string
	metaPath string
	idx      bleve.Index
	meta     *bbolt.DB
}

func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("dbPath is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, err
	}

	var idx bleve.Index
	if _, err := os.Stat(filepath.Join(path, "index_meta.json")); err == nil {
		idx, err = bleve.Open(path)
		if err != nil {
			return nil, err
		}
	} else {
		var err error
		idx, err = bleve.New(path, buildMapping())
		if err != nil {
			return nil, err
		}
	}

	metaPath := filepath.Join(path, "cmtx-meta.db")
	meta, err := bbolt.Open(metaPath, 0o600, nil)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	s := &Store{path: path, metaPath: metaPath, idx: idx, meta: meta}
	if err := s.ensureBuckets(); err != nil {
		_ = meta.Close()
		_ = idx.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	if s.idx != nil {
		_ = s.idx.Close()
	}
	if s.meta != nil {
		_ = s.meta.Close()
	}
	return nil
}

func (s *Store) Backend() string { return "bleve" }

func (s *Store) BeginRun(id string, root string) error {
	if s == nil || s.meta == nil {
		return fmt.Errorf("store is not open")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("runID is required")
	}

	return s.meta.Update(func(tx *bbolt.Tx) error {
		rb := mustBucket(tx, bucketRuns)
		fb := mustBucket(tx, bucketFiles)
		if _, err := fb.CreateBucketIfNotExists([]byte(id)); err != nil {
			return err
		}

		meta := runMeta{}
		if raw := rb.Get([]byte(id)); raw != nil {
			if err := decode(raw, &meta); err != nil {
				return err
			}
		}
		meta.ID = id
		meta.Root = strings.TrimSpace(root)
		if meta.StartedAt == 0 {
			meta.StartedAt = nowUnix()
		}
		return putRun(rb, meta)
	})
}

func (s *Store) FinishRun(runID string, files int) error {
	if s == nil || s.meta == nil {
		return fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("runID is required")
	}

	return s.meta.Update(func(tx *bbolt.Tx) error {
		rb := mustBucket(tx, bucketRuns)
		meta, err := getRun(rb, runID)
		if err != nil {
			return err
		}
		meta.FinishedAt = nowUnix()
		meta.Files = files
		return putRun(rb, meta)
	})
}

func (s *Store) GetRun(runID string) (store.Run, error) {
	if s == nil || s.meta == nil {
		return store.Run{}, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return store.Run{}, fmt.Errorf("runID is required")
	}

	var out store.Run
	err := s.meta.View(func(tx *bbolt.Tx) error {
		meta, err := getRun(mustBucket(tx, bucketRuns), runID)
		if err != nil {
			return err
		}
		out = meta.toRun()
		return nil
	})
	return out, err
}

func (s *Store) LatestRun() (store.Run, error) {
	if s == nil || s.meta == nil {
		return store.Run{}, fmt.Errorf("store is not open")
	}

	var out store.Run
	err := s.meta.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket([]byte(bucketRuns))
		if rb == nil {
			return store.ErrNoRuns
		}
		k, v := rb.Cursor().Last()
		if k == nil {
			return store.ErrNoRuns
		}
		meta := runMeta{}
		if err := decode(v, &meta); err != nil {
			return err
		}
		out = meta.toRun()
		return nil
	})
	return out, err
}

func (s *Store) ListRuns() ([]store.Run, error) {
	if s == nil || s.meta == nil {
		return nil, fmt.Errorf("store is not open")
	}

	var out []store.Run
	err := s.meta.View(func(tx *bbolt.Tx) error {
		rb := tx.Bucket([]byte(bucketRuns))
		if rb == nil {
			return nil
		}
		return rb.ForEach(func(_, v []byte) error {
			meta := runMeta{}
			if err := decode(v, &meta); err != nil {
				return err
			}
			out = append(out, meta.toRun())
			return nil
		})
	})
	return out, err
}

// AddComments replaces the comment documents recorded for path in runID.
func (s *Store) AddComments(runID string, path string, comms []store.CommentInput) error {
	if s == nil || s.idx == nil {
		return fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	path = filepath.ToSlash(path)
	if runID == "" {
		return fmt.Errorf("runID is required")
	}
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	old := fileMeta{}
	err := s.meta.View(func(tx *bbolt.Tx) error {
		if _, err := getRun(mustBucket(tx, bucketRuns), runID); err != nil {
			return err
		}
		fb := fileBucket(tx, runID)
		if fb == nil {
			return nil
		}
		raw := fb.Get([]byte(path))
		if raw == nil {
			return nil
		}
		return decode(raw, &old)
	})
	if err != nil {
		return err
	}

	batch := s.idx.NewBatch()
	deleteCommentDocs(batch, runID, path, old.CommentCount)
	indexComments(batch, runID, path, comms)
	if err := s.idx.Batch(batch); err != nil {
		return err
	}

	return s.meta.Update(func(tx *bbolt.Tx) error {
		fb := mustFileBucket(tx, runID)
		buf, err := encode(fileMeta{CommentCount: len(comms)})
		if err != nil {
			return err
		}
		if err := fb.Put([]byte(path), buf); err != nil {
			return err
		}

		rb := mustBucket(tx, bucketRuns)
		meta, err := getRun(rb, runID)
		if err != nil {
			return err
		}
		meta.Comments += len(comms) - old.CommentCount
		return putRun(rb, meta)
	})
}

func (s *Store) ListComments(runID string, path string) ([]store.Comment, error) {
	if s == nil || s.idx == nil {
		return nil, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	path = filepath.ToSlash(strings.TrimSpace(path))
	if runID == "" {
		return nil, fmt.Errorf("runID is required")
	}

	total, err := s.CountComments(runID)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return nil, nil
	}

	qs := []bquery.Query{
		termQuery("doc_type", docTypeComment),
		termQuery("run_id", runID),
	}
	if path != "" {
		qs = append(qs, termQuery("path", path))
	}

	req := bleve.NewSearchRequestOptions(bleve.NewConjunctionQuery(qs...), total, 0, false)
	req.Fields = commentFields
	req.SortBy([]string{"path", "seq"})

	res, err := s.idx.Search(req)
	if err != nil {
		return nil, err
	}

	out := make([]store.Comment, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, commentFromFields(runID, hit.Fields))
	}
	return out, nil
}

func (s *Store) Search(runID string, keyword string, limit int) (store.SearchResult, error) {
	if s == nil || s.idx == nil {
		return store.SearchResult{}, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	keyword = strings.TrimSpace(keyword)
	if runID == "" {
		return store.SearchResult{}, fmt.Errorf("runID is required")
	}
	if keyword == "" {
		return store.SearchResult{}, fmt.Errorf("keyword is required")
	}
	if limit <= 0 {
		limit = 50
	}

	baseQ := bleve.NewMatchQuery(keyword)
	baseQ.SetField("text")
	q := bleve.NewConjunctionQuery(
		baseQ,
		termQuery("run_id", runID),
		termQuery("doc_type", docTypeComment),
	)

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = commentFields
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.Fields = []string{"text"}
	req.SortBy([]string{"path", "seq"})

	res, err := s.idx.Search(req)
	if err != nil {
		return store.SearchResult{}, err
	}

	out := make([]store.Comment, 0, len(res.Hits))
	for _, hit := range res.Hits {
		c := commentFromFields(runID, hit.Fields)
		if frags := hit.Fragments["text"]; len(frags) > 0 {
			c.Snippet = normalizeSnippet(frags[0])
		}
		out = append(out, c)
	}
	return store.SearchResult{Comments: out, Backend: "bleve"}, nil
}

func (s *Store) CountComments(runID string) (int, error) {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return 0, fmt.Errorf("runID is required")
	}
	q := bleve.NewConjunctionQuery(
		termQuery("run_id", runID),
		termQuery("doc_type", docTypeComment),
	)
	req := bleve.NewSearchRequestOptions(q, 0, 0, false)
	req.SortBy(nil)
	res, err := s.idx.Search(req)
	if err != nil {
		return 0, err
	}
	return int(res.Total), nil
}

var commentFields = []string{"path", "seq", "kind", "lang", "text", "sl", "el", "terminated"}

func commentFromFields(runID string, fields map[string]any) store.Comment {
	c := store.Comment{RunID: runID}
	if v, ok := fields["path"].(string); ok {
		c.Path = v
	}
	if v, ok := toInt(fields["seq"]); ok {
		c.Seq = v
	}
	if v, ok := fields["kind"].(string); ok {
		c.Kind = v
	}
	if v, ok := fields["lang"].(string); ok {
		c.Lang = v
	}
	if v, ok := fields["text"].(string); ok {
		c.Text = v
	}
	if v, ok := toInt(fields["sl"]); ok {
		c.SL = v
	}
	if v, ok := toInt(fields["el"]); ok {
		c.EL = v
	}
	if v, ok := fields["terminated"].(bool); ok {
		c.Terminated = v
	}
	return c
}

func (m runMeta) toRun() store.Run {
	return store.Run{
		ID:         m.ID,
		Root:       m.Root,
		StartedAt:  m.StartedAt,
		FinishedAt: m.FinishedAt,
		Files:      m.Files,
		Comments:   m.Comments,
	}
}

func buildMapping() mapping.IndexMapping {
	idxMapping := bleve.NewIndexMapping()
	idxMapping.DefaultAnalyzer = "standard"

	doc := bleve.NewDocumentMapping()
	doc.Dynamic = false

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"
	keyword.Store = true
	keyword.Index = true
	keyword.DocValues = true

	text := bleve.NewTextFieldMapping()
	text.Analyzer = "standard"
	text.Store = true
	text.Index = true
	text.IncludeTermVectors = true

	num := bleve.NewNumericFieldMapping()
	num.Store = true
	num.Index = true
	num.DocValues = true

	flag := bleve.NewBooleanFieldMapping()
	flag.Store = true
	flag.Index = true

	doc.AddFieldMappingsAt("doc_type", keyword)
	doc.AddFieldMappingsAt("run_id", keyword)
	doc.AddFieldMappingsAt("path", keyword)
	doc.AddFieldMappingsAt("kind", keyword)
	doc.AddFieldMappingsAt("lang", keyword)
	doc.AddFieldMappingsAt("text", text)
	doc.AddFieldMappingsAt("seq", num)
	doc.AddFieldMappingsAt("sl", num)
	doc.AddFieldMappingsAt("el", num)
	doc.AddFieldMappingsAt("terminated", flag)

	idxMapping.DefaultMapping = doc
	return idxMapping
}

func termQuery(field string, value string) bquery.Query {
	q := bleve.NewTermQuery(value)
	q.SetField(field)
	return q
}

func indexComments(batch *bleve.Batch, runID string, path string, comms []store.CommentInput) {
	for i, comm := range comms {
		kind := strings.TrimSpace(comm.Kind)
		if kind == "" {
			kind = store.KindBlock
		}
		doc := map[string]any{
			"doc_type":   docTypeComment,
			"run_id":     runID,
			"path":       path,
			"seq":        i,
			"kind":       kind,
			"lang":       strings.TrimSpace(comm.Lang),
			"text":       comm.Text,
			"sl":         comm.SL,
			"el":         comm.EL,
			"terminated": comm.Terminated,
		}
		_ = batch.Index(commentDocID(runID, path, i), doc)
	}
}

func deleteCommentDocs(batch *bleve.Batch, runID string, path string, count int) {
	for i := 0; i < count; i++ {
		batch.Delete(commentDocID(runID, path, i))
	}
}

func commentDocID(runID string, path string, idx int) string {
	return fmt.Sprintf("comment|%s|%s|%d", runID, escapePath(path), idx)
}

func escapePath(path string) string {
	return strings.ReplaceAll(path, "|", "%7C")
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case int64:
		return int(t), true
	default:
		return 0, false
	}
}

func normalizeSnippet(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "<mark>", "<<")
	s = strings.ReplaceAll(s, "</mark>", ">>")
	return s
}

func (s *Store) ensureBuckets() error {
	return s.meta.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketRuns)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketFiles)); err != nil {
			return err
		}
		return nil
	})
}

func mustBucket(tx *bbolt.Tx, name string) *bbolt.Bucket {
	b := tx.Bucket([]byte(name))
	if b == nil && tx.Writable() {
		b, _ = tx.CreateBucketIfNotExists([]byte(name))
	}
	return b
}

func fileBucket(tx *bbolt.Tx, runID string) *bbolt.Bucket {
	fb := tx.Bucket([]byte(bucketFiles))
	if fb == nil {
		return nil
	}
	return fb.Bucket([]byte(runID))
}

func mustFileBucket(tx *bbolt.Tx, runID string) *bbolt.Bucket {
	fb := mustBucket(tx, bucketFiles)
	b, _ := fb.CreateBucketIfNotExists([]byte(runID))
	return b
}

var errRunNotFound = errors.New("run not found")

func getRun(rb *bbolt.Bucket, runID string) (runMeta, error) {
	if rb == nil {
		return runMeta{}, fmt.Errorf("%w: %s", errRunNotFound, runID)
	}
	raw := rb.Get([]byte(runID))
	if raw == nil {
		return runMeta{}, fmt.Errorf("%w: %s", errRunNotFound, runID)
	}
	meta := runMeta{}
	if err := decode(raw, &meta); err != nil {
		return runMeta{}, err
	}
	return meta, nil
}

func putRun(rb *bbolt.Bucket, meta runMeta) error {
	buf, err := encode(meta)
	if err != nil {
		return err
	}
	return rb.Put([]byte(meta.ID), buf)
}

var errDecode = errors.New("decode failed")

func decode(data []byte, target any) error {
	if len(data) == 0 {
		return errDecode
	}
	return decodeJSON(data, target)
}

func encode(v any) ([]byte, error) {
	return encodeJSON(v)
}
