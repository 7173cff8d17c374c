package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"cmtx/internal/index/store"
)

// AddComments replaces the comments recorded for path in runID.
func (s *Store) AddComments(runID string, path string, comms []CommentInput) error {
	if s == nil || s.db == nil {
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

	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return err
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		_, _ = conn.ExecContext(ctx, "ROLLBACK")
	}()

	if _, err := conn.ExecContext(ctx, `DELETE FROM comments WHERE run_id = ? AND path = ?`, runID, path); err != nil {
		return err
	}

	stmt, err := conn.PrepareContext(ctx, `INSERT INTO comments(run_id,path,seq,kind,lang,sl,el,terminated,text) VALUES(?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range comms {
		kind := strings.TrimSpace(c.Kind)
		if kind == "" {
			kind = store.KindBlock
		}
		terminated := 0
		if c.Terminated {
			terminated = 1
		}
		if _, err := stmt.ExecContext(ctx, runID, path, i, kind, strings.TrimSpace(c.Lang), c.SL, c.EL, terminated, c.Text); err != nil {
			return err
		}
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return err
	}
	committed = true
	return nil
}
