package sqlite

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cmtx/internal/index/store"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	db     *sql.DB
	hasFTS bool
}

func Open(dbPath string) (*Store, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("dbPath is required")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", "file:"+dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Backend() string { return "sqlite" }

func (s *Store) HasFTS() bool { return s != nil && s.hasFTS }

func (s *Store) BeginRun(id string, root string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("runID is required")
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, root, started_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET root=excluded.root`,
		id,
		root,
		time.Now().Unix(),
	)
	return err
}

func (s *Store) FinishRun(runID string, files int) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return fmt.Errorf("runID is required")
	}

	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, files = ? WHERE id = ?`,
		time.Now().Unix(),
		files,
		runID,
	)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *Store) GetRun(runID string) (Run, error) {
	if s == nil || s.db == nil {
		return Run{}, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Run{}, fmt.Errorf("runID is required")
	}

	row := s.db.QueryRow(runSelect+` WHERE r.id = ? GROUP BY r.id`, runID)
	return scanRun(row)
}

func (s *Store) LatestRun() (Run, error) {
	if s == nil || s.db == nil {
		return Run{}, fmt.Errorf("store is not open")
	}
	row := s.db.QueryRow(runSelect + ` GROUP BY r.id ORDER BY r.id DESC LIMIT 1`)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, store.ErrNoRuns
	}
	return r, err
}

func (s *Store) ListRuns() ([]Run, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	rows, err := s.db.Query(runSelect + ` GROUP BY r.id ORDER BY r.id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ListComments(runID string, path string) ([]Comment, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, fmt.Errorf("runID is required")
	}
	path = filepath.ToSlash(strings.TrimSpace(path))

	q := `SELECT path, seq, kind, lang, sl, el, terminated, text
	      FROM comments WHERE run_id = ?`
	args := []any{runID}
	if path != "" {
		q += ` AND path = ?`
		args = append(args, path)
	}
	q += ` ORDER BY path, seq`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanComments(rows, runID)
}

func (s *Store) CountComments(runID string) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return 0, fmt.Errorf("runID is required")
	}
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(1) FROM comments WHERE run_id = ?`, runID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

const runSelect = `SELECT r.id, r.root, r.started_at, r.finished_at, r.files, COUNT(c.id)
	FROM runs r LEFT JOIN comments c ON c.run_id = r.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	if err := row.Scan(&r.ID, &r.Root, &r.StartedAt, &r.FinishedAt, &r.Files, &r.Comments); err != nil {
		return Run{}, err
	}
	return r, nil
}

func scanComments(rows *sql.Rows, runID string) ([]Comment, error) {
	var out []Comment
	for rows.Next() {
		c := Comment{RunID: runID}
		var terminated int
		if err := rows.Scan(&c.Path, &c.Seq, &c.Kind, &c.Lang, &c.SL, &c.EL, &terminated, &c.Text); err != nil {
			return nil, err
		}
		c.Terminated = terminated != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) init() error {
	if _, err := s.db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return err
	}
	if _, err := s.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return err
	}
	_, _ = s.db.Exec("PRAGMA journal_mode = WAL")

	if err := execStatements(s.db, schemaSQL); err != nil {
		return err
	}

	s.hasFTS = true
	if err := s.tryCreateFTS(); err != nil {
		s.hasFTS = false
	}

	return nil
}

func (s *Store) tryCreateFTS() error {
	// FTS is optional: if the driver/build does not support fts5 Search uses LIKE.
	stmts := []string{
		`CREATE VIRTUAL TABLE IF NOT EXISTS comments_fts
		 USING fts5(
		   text,
		   path UNINDEXED,
		   run_id UNINDEXED,
		   content='comments',
		   content_rowid='id'
		 )`,
		`CREATE TRIGGER IF NOT EXISTS comments_ai AFTER INSERT ON comments BEGIN
		   INSERT INTO comments_fts(rowid, text, path, run_id)
		   VALUES (new.id, new.text, new.path, new.run_id);
		 END`,
		`CREATE TRIGGER IF NOT EXISTS comments_ad AFTER DELETE ON comments BEGIN
		   INSERT INTO comments_fts(comments_fts, rowid, text, path, run_id)
		   VALUES('delete', old.id, old.text, old.path, old.run_id);
		 END`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func execStatements(db *sql.DB, sqlText string) error {
	if db == nil {
		return fmt.Errorf("db is nil")
	}
	sqlText = strings.ReplaceAll(sqlText, "\r\n", "\n")

	var cleaned strings.Builder
	for _, line := range strings.Split(sqlText, "\n") {
		trim := strings.TrimSpace(line)
		if trim == "" {
			continue
		}
		if strings.HasPrefix(trim, "--") {
			continue
		}
		cleaned.WriteString(line)
		cleaned.WriteString("\n")
	}

	parts := strings.Split(cleaned.String(), ";")
	for _, raw := range parts {
		stmt := strings.TrimSpace(raw)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt, err)
		}
	}
	return nil
}
