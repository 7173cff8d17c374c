package sqlite

import (
	"fmt"
	"strings"
)

func (s *Store) Search(runID string, keyword string, limit int) (SearchResult, error) {
	if s == nil || s.db == nil {
		return SearchResult{}, fmt.Errorf("store is not open")
	}
	runID = strings.TrimSpace(runID)
	keyword = strings.TrimSpace(keyword)
	if runID == "" {
		return SearchResult{}, fmt.Errorf("runID is required")
	}
	if keyword == "" {
		return SearchResult{}, fmt.Errorf("keyword is required")
	}
	if limit <= 0 {
		limit = 50
	}

	if s.hasFTS {
		res, err := s.searchFTS(runID, keyword, limit)
		if err == nil {
			return res, nil
		}
	}
	return s.searchLike(runID, keyword, limit)
}

func (s *Store) searchFTS(runID string, keyword string, limit int) (SearchResult, error) {
	rows, err := s.db.Query(
		`SELECT c.path, c.seq, c.kind, c.lang, c.sl, c.el, c.terminated, c.text,
		        snippet(comments_fts, 0, '<<', '>>', '...', 12)
		 FROM comments_fts
		 JOIN comments c ON c.id = comments_fts.rowid
		 WHERE comments_fts MATCH ? AND c.run_id = ?
		 ORDER BY c.path, c.seq
		 LIMIT ?`,
		ftsPhrase(keyword),
		runID,
		limit,
	)
	if err != nil {
		return SearchResult{}, err
	}
	defer rows.Close()

	var out []Comment
	for rows.Next() {
		c := Comment{RunID: runID}
		var terminated int
		if err := rows.Scan(&c.Path, &c.Seq, &c.Kind, &c.Lang, &c.SL, &c.EL, &terminated, &c.Text, &c.Snippet); err != nil {
			return SearchResult{}, err
		}
		c.Terminated = terminated != 0
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Comments: out, Backend: "sqlite-fts5"}, nil
}

func (s *Store) searchLike(runID string, keyword string, limit int) (SearchResult, error) {
	rows, err := s.db.Query(
		`SELECT path, seq, kind, lang, sl, el, terminated, text
		 FROM comments
		 WHERE run_id = ? AND text LIKE ? ESCAPE '\'
		 ORDER BY path, seq
		 LIMIT ?`,
		runID,
		"%"+escapeLike(keyword)+"%",
		limit,
	)
	if err != nil {
		return SearchResult{}, err
	}
	defer rows.Close()

	out, err := scanComments(rows, runID)
	if err != nil {
		return SearchResult{}, err
	}
	return SearchResult{Comments: out, Backend: "sqlite-like"}, nil
}

func ftsPhrase(keyword string) string {
	return `"` + strings.ReplaceAll(keyword, `"`, `""`) + `"`
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
