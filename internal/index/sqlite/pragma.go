package sqlite

import (
	"fmt"
	"strings"
)

func (s *Store) ApplyWritePragmas() error {
	if s == nil || s.db == nil {
		return fmt.Errorf("store is not open")
	}

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) QueryPragma(name string) (string, error) {
	if s == nil || s.db == nil {
		return "", fmt.Errorf("store is not open")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("pragma name is required")
	}
	for _, r := range name {
		if r == '_' || (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			continue
		}
		return "", fmt.Errorf("invalid pragma name: %q", name)
	}

	var v any
	if err := s.db.QueryRow("PRAGMA " + name + ";").Scan(&v); err != nil {
		return "", err
	}
	return fmt.Sprint(pragmaValue(v)), nil
}

func pragmaValue(v any) any {
	switch vv := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(vv)
	default:
		return vv
	}
}
