package sqlite

import "testing"

func TestApplyWritePragmas_ReadBack(t *testing.T) {
	dbPath := t.TempDir() + "/report.db"
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if err := s.ApplyWritePragmas(); err != nil {
		t.Fatalf("apply: %v", err)
	}

	jm, _ := s.QueryPragma("journal_mode")
	if jm != "wal" {
		t.Fatalf("journal_mode=%q", jm)
	}

	fk, _ := s.QueryPragma("foreign_keys")
	if fk != "1" {
		t.Fatalf("foreign_keys=%q", fk)
	}
}

func TestQueryPragma_RejectsInjection(t *testing.T) {
	s, err := Open(t.TempDir() + "/report.db")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()

	if _, err := s.QueryPragma("journal_mode; DROP TABLE runs"); err == nil {
		t.Fatal("expected error")
	}
}
