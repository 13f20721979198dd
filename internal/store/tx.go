// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/apathy-review/screenctl/pkg/types"
)

// Tx is one mutation transaction. All writes of a reconciliation or import
// run go through a single Tx: they commit together or not at all.
type Tx struct {
	tx *sql.Tx
	s  *Store
}

// Begin starts a mutation transaction.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	return &Tx{tx: tx, s: s}, nil
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Rollback aborts the transaction. Calling it after Commit is a no-op.
func (t *Tx) Rollback() error {
	err := t.tx.Rollback()
	if err == sql.ErrTxDone {
		return nil
	}
	return err
}

// SetFlag sets the flag for category c true on the candidate with pmid and
// bumps updated_at. Every other column is left untouched, including the
// other categories' flags and created_at. The record must already exist;
// creation is the caller's decision, not the adapter's.
func (t *Tx) SetFlag(ctx context.Context, pmid int64, c types.Category) error {
	column, err := flagColumn(c)
	if err != nil {
		return err
	}
	res, err := t.tx.ExecContext(ctx,
		`UPDATE candidates SET `+column+` = 1, updated_at = ? WHERE pmid = ?`,
		formatTimestamp(t.s.now()), pmid)
	if err != nil {
		return fmt.Errorf("setting %s flag on %d: %w", c, pmid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting %s flag on %d: %w", c, pmid, err)
	}
	if n == 0 {
		return fmt.Errorf("no candidate with pmid %d", pmid)
	}
	return nil
}

// Create inserts a new candidate with the given flags true and everything
// else at its zero default. created_at and updated_at are both set to now.
func (t *Tx) Create(ctx context.Context, pmid int64, flags types.FlagSet) error {
	now := formatTimestamp(t.s.now())
	_, err := t.tx.ExecContext(ctx,
		`INSERT INTO candidates (pmid, is_physical, is_brain, is_psycho, pdf_exists, group_no, created_at, updated_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		pmid, flags.Physical, flags.Brain, flags.Psycho, now, now)
	if err != nil {
		return fmt.Errorf("creating candidate %d: %w", pmid, err)
	}
	return nil
}

// SetPDFExists records full-text PDF availability for pmid and bumps
// updated_at. Used by the importer only.
func (t *Tx) SetPDFExists(ctx context.Context, pmid int64, exists bool) error {
	res, err := t.tx.ExecContext(ctx,
		`UPDATE candidates SET pdf_exists = ?, updated_at = ? WHERE pmid = ?`,
		exists, formatTimestamp(t.s.now()), pmid)
	if err != nil {
		return fmt.Errorf("setting pdf_exists on %d: %w", pmid, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting pdf_exists on %d: %w", pmid, err)
	}
	if n == 0 {
		return fmt.Errorf("no candidate with pmid %d", pmid)
	}
	return nil
}
