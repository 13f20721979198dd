// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"fmt"
)

// migration is one additive column the current schema expects. Databases
// created before the column existed get it via ALTER TABLE; data is never
// dropped or rewritten.
type migration struct {
	table      string
	column     string
	definition string
}

var migrations = []migration{
	{"candidates", "pdf_exists", "INTEGER NOT NULL DEFAULT 0"},
	{"candidates", "group_no", "INTEGER NOT NULL DEFAULT 0"},
	{"reviews", "completed_at", "TEXT"},
}

// Migrate brings a pre-existing database up to the current schema by adding
// any missing columns. It returns a description of each change applied and
// is idempotent: a second run applies nothing.
func (s *Store) Migrate(ctx context.Context) ([]string, error) {
	var applied []string
	for _, m := range migrations {
		exists, err := s.columnExists(ctx, m.table, m.column)
		if err != nil {
			return applied, err
		}
		if exists {
			continue
		}
		stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", m.table, m.column, m.definition)
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return applied, fmt.Errorf("adding %s.%s: %w", m.table, m.column, err)
		}
		applied = append(applied, fmt.Sprintf("%s.%s", m.table, m.column))
	}
	return applied, nil
}

func (s *Store) columnExists(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?)`, table)
	if err != nil {
		return false, fmt.Errorf("inspecting table %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, fmt.Errorf("scanning column name: %w", err)
		}
		if name == column {
			return true, nil
		}
	}
	if err := rows.Err(); err != nil {
		return false, fmt.Errorf("inspecting table %s: %w", table, err)
	}
	return false, nil
}
