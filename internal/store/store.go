// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store is the query/mutation boundary over the screening SQLite
// database. Reads reflect committed state only; mutations happen on a Tx so
// the caller owns the transaction boundary and the created-vs-updated audit
// trail stays explicit.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/apathy-review/screenctl/pkg/types"
)

// Store manages the screening SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the screening database at cfg.Path and ensures the
// schema exists.
func Open(cfg types.StoreConfig) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("store path required")
	}
	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, now: time.Now}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetClock overrides the timestamp source. Tests use a fixed clock so
// created_at/updated_at assertions are deterministic.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS candidates (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid INTEGER NOT NULL UNIQUE,
			is_physical INTEGER NOT NULL DEFAULT 0,
			is_brain INTEGER NOT NULL DEFAULT 0,
			is_psycho INTEGER NOT NULL DEFAULT 0,
			pdf_exists INTEGER NOT NULL DEFAULT 0,
			group_no INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_candidates_pmid ON candidates(pmid)`,
		`CREATE TABLE IF NOT EXISTS reviews (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid INTEGER NOT NULL,
			category TEXT NOT NULL,
			reviewer_id INTEGER NOT NULL,
			decision TEXT NOT NULL DEFAULT 'pending',
			comment TEXT,
			completed_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_pmid ON reviews(pmid)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_category ON reviews(category)`,
		`CREATE TABLE IF NOT EXISTS extractions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			pmid INTEGER NOT NULL UNIQUE,
			citation TEXT,
			apathy_terms TEXT,
			target_condition TEXT,
			population_n TEXT,
			prevalence TEXT,
			intervention TEXT,
			confidence TEXT,
			needs_review INTEGER NOT NULL DEFAULT 0,
			updated_at TEXT
		)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// flagColumn maps a category to its candidates column. The enumeration is
// closed, so the column name never comes from user input.
func flagColumn(c types.Category) (string, error) {
	switch c {
	case types.CategoryPhysical:
		return "is_physical", nil
	case types.CategoryBrain:
		return "is_brain", nil
	case types.CategoryPsycho:
		return "is_psycho", nil
	}
	return "", fmt.Errorf("unknown category %q", c)
}

// IdentifiersWithFlag returns all PMIDs whose flag for c is true.
func (s *Store) IdentifiersWithFlag(ctx context.Context, c types.Category) (map[int64]struct{}, error) {
	column, err := flagColumn(c)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT pmid FROM candidates WHERE `+column+` = 1`)
	if err != nil {
		return nil, fmt.Errorf("querying %s candidates: %w", c, err)
	}
	defer rows.Close()

	pmids := make(map[int64]struct{})
	for rows.Next() {
		var pmid int64
		if err := rows.Scan(&pmid); err != nil {
			return nil, fmt.Errorf("scanning pmid: %w", err)
		}
		pmids[pmid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s candidates: %w", c, err)
	}
	return pmids, nil
}

// CountWithFlag runs the display-count query the screening application uses
// for its category tabs: the number of candidates with the flag for c true.
func (s *Store) CountWithFlag(ctx context.Context, c types.Category) (int, error) {
	column, err := flagColumn(c)
	if err != nil {
		return 0, err
	}
	var count int
	err = s.db.QueryRowContext(ctx, `SELECT count(id) FROM candidates WHERE `+column+` = 1`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting %s candidates: %w", c, err)
	}
	return count, nil
}

// FindByPMID returns the candidate record for pmid, or (nil, nil) when no
// record exists.
func (s *Store) FindByPMID(ctx context.Context, pmid int64) (*types.CandidateRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, pmid, is_physical, is_brain, is_psycho, pdf_exists, group_no, created_at, updated_at
		 FROM candidates WHERE pmid = ?`, pmid)

	var rec types.CandidateRecord
	var createdAt, updatedAt string
	err := row.Scan(&rec.ID, &rec.PMID, &rec.IsPhysical, &rec.IsBrain, &rec.IsPsycho,
		&rec.PDFExists, &rec.GroupNo, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying candidate %d: %w", pmid, err)
	}

	if rec.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, fmt.Errorf("candidate %d created_at: %w", pmid, err)
	}
	if rec.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, fmt.Errorf("candidate %d updated_at: %w", pmid, err)
	}
	return &rec, nil
}

// ReviewedPMIDs returns the distinct PMIDs with any review in category c.
func (s *Store) ReviewedPMIDs(ctx context.Context, c types.Category) (map[int64]struct{}, error) {
	return s.reviewPMIDs(ctx, c, "")
}

// PendingPMIDs returns the distinct PMIDs with a pending review in category c.
func (s *Store) PendingPMIDs(ctx context.Context, c types.Category) (map[int64]struct{}, error) {
	return s.reviewPMIDs(ctx, c, types.DecisionPending)
}

func (s *Store) reviewPMIDs(ctx context.Context, c types.Category, decision types.Decision) (map[int64]struct{}, error) {
	query := `SELECT DISTINCT pmid FROM reviews WHERE category = ?`
	args := []any{string(c)}
	if decision != "" {
		query += ` AND decision = ?`
		args = append(args, string(decision))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s reviews: %w", c, err)
	}
	defer rows.Close()

	pmids := make(map[int64]struct{})
	for rows.Next() {
		var pmid int64
		if err := rows.Scan(&pmid); err != nil {
			return nil, fmt.Errorf("scanning review pmid: %w", err)
		}
		pmids[pmid] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s reviews: %w", c, err)
	}
	return pmids, nil
}

// AddReview inserts a review row. The screening application records reviewer
// decisions through this; the reconciliation tools only ever read reviews.
func (s *Store) AddReview(ctx context.Context, rev types.Review) error {
	decision := rev.Decision
	if decision == "" {
		decision = types.DecisionPending
	}
	var completedAt any
	if rev.CompletedAt != nil {
		completedAt = formatTimestamp(*rev.CompletedAt)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (pmid, category, reviewer_id, decision, comment, completed_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rev.PMID, string(rev.Category), rev.ReviewerID, string(decision), rev.Comment,
		completedAt, formatTimestamp(s.now()),
	)
	if err != nil {
		return fmt.Errorf("inserting review for %d: %w", rev.PMID, err)
	}
	return nil
}

// AddExtraction inserts an auto-extraction stub for pmid. Owned by the
// extraction pipeline; present here so non-interference is observable.
func (s *Store) AddExtraction(ctx context.Context, pmid int64, citation string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO extractions (pmid, citation, updated_at) VALUES (?, ?, ?)`,
		pmid, citation, formatTimestamp(s.now()),
	)
	if err != nil {
		return fmt.Errorf("inserting extraction for %d: %w", pmid, err)
	}
	return nil
}

// ExtractionCitation returns the stored citation for pmid, or ("", nil) when
// no extraction row exists.
func (s *Store) ExtractionCitation(ctx context.Context, pmid int64) (string, error) {
	var citation sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT citation FROM extractions WHERE pmid = ?`, pmid).Scan(&citation)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying extraction %d: %w", pmid, err)
	}
	return citation.String, nil
}

// Reviews returns all reviews for pmid ordered by id.
func (s *Store) Reviews(ctx context.Context, pmid int64) ([]types.Review, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, pmid, category, reviewer_id, decision, COALESCE(comment, ''), completed_at, COALESCE(updated_at, '')
		 FROM reviews WHERE pmid = ? ORDER BY id`, pmid)
	if err != nil {
		return nil, fmt.Errorf("querying reviews for %d: %w", pmid, err)
	}
	defer rows.Close()

	var reviews []types.Review
	for rows.Next() {
		var rev types.Review
		var category, decision string
		var completedAt sql.NullString
		var updatedAt string
		if err := rows.Scan(&rev.ID, &rev.PMID, &category, &rev.ReviewerID, &decision,
			&rev.Comment, &completedAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning review: %w", err)
		}
		rev.Category = types.Category(category)
		rev.Decision = types.Decision(decision)
		if completedAt.Valid {
			t, err := parseTimestamp(completedAt.String)
			if err != nil {
				return nil, fmt.Errorf("review %d completed_at: %w", rev.ID, err)
			}
			rev.CompletedAt = &t
		}
		if updatedAt != "" {
			if rev.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
				return nil, fmt.Errorf("review %d updated_at: %w", rev.ID, err)
			}
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading reviews for %d: %w", pmid, err)
	}
	return reviews, nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}
