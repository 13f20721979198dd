// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package audit quantifies drift between category manifests and the
// candidate store. An audit is read-only: a nonzero missing or extra count
// is its expected output, not a failure.
package audit

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

// sampleSize caps the identifier samples embedded in the report artifact.
// Full missing lists go to the per-category CSV exports instead.
const sampleSize = 50

// CategoryReport holds the drift findings for one category.
type CategoryReport struct {
	Category types.Category `json:"category" yaml:"category"`

	CSVCount   int `json:"csv_count" yaml:"csv_count"`
	StoreCount int `json:"store_count" yaml:"store_count"`

	ReviewedCount int `json:"reviewed_count" yaml:"reviewed_count"`
	PendingCount  int `json:"pending_count" yaml:"pending_count"`

	MissingCount int `json:"missing_count" yaml:"missing_count"`
	ExtraCount   int `json:"extra_count" yaml:"extra_count"`

	// ReviewedAndMissing counts identifiers that already carry a review in
	// this category yet are missing the category flag. Anything above zero
	// means reviewers worked on items the candidate list no longer shows.
	ReviewedAndMissing int `json:"reviewed_and_missing" yaml:"reviewed_and_missing"`

	MissingSample []int64 `json:"missing_pmids_sample" yaml:"missing_pmids_sample"`
	ExtraSample   []int64 `json:"extra_pmids_sample" yaml:"extra_pmids_sample"`

	SkippedRows map[manifest.SkipReason]int `json:"skipped_rows,omitempty" yaml:"skipped_rows,omitempty"`

	// Missing and Extra are the full ordered identifier lists. They are
	// exported as CSV artifacts rather than embedded in the report.
	Missing []int64 `json:"-" yaml:"-"`
	Extra   []int64 `json:"-" yaml:"-"`
}

// Report is the consolidated result of one audit run.
type Report struct {
	RunID       string           `json:"run_id" yaml:"run_id"`
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	Database    string           `json:"database" yaml:"database"`
	Categories  []CategoryReport `json:"categories" yaml:"categories"`
}

// Category returns the report for c, or nil if the run did not cover it.
func (r *Report) Category(c types.Category) *CategoryReport {
	for i := range r.Categories {
		if r.Categories[i].Category == c {
			return &r.Categories[i]
		}
	}
	return nil
}

// Run audits every category that has a manifest, in canonical order, and
// writes a progress line per category to w. The store is never written.
func Run(ctx context.Context, st *store.Store, manifests map[types.Category]*manifest.Manifest, dbPath string, w io.Writer) (*Report, error) {
	report := &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Database:    dbPath,
	}

	for _, c := range types.Categories() {
		man := manifests[c]
		if man == nil {
			continue
		}

		cr, err := auditCategory(ctx, st, c, man)
		if err != nil {
			return nil, fmt.Errorf("auditing %s: %w", c, err)
		}
		report.Categories = append(report.Categories, cr)

		fmt.Fprintf(w, "%-10s csv=%d store=%d missing=%d extra=%d\n",
			c, cr.CSVCount, cr.StoreCount, cr.MissingCount, cr.ExtraCount)
		if cr.ReviewedAndMissing > 0 {
			fmt.Fprintf(w, "%-10s warning: %d reviewed identifiers missing the category flag\n",
				c, cr.ReviewedAndMissing)
		}
	}

	return report, nil
}

func auditCategory(ctx context.Context, st *store.Store, c types.Category, man *manifest.Manifest) (CategoryReport, error) {
	storeSet, err := st.IdentifiersWithFlag(ctx, c)
	if err != nil {
		return CategoryReport{}, err
	}
	reviewed, err := st.ReviewedPMIDs(ctx, c)
	if err != nil {
		return CategoryReport{}, err
	}
	pending, err := st.PendingPMIDs(ctx, c)
	if err != nil {
		return CategoryReport{}, err
	}

	missing := diff(man.PMIDs, storeSet)
	extra := diff(storeSet, man.PMIDs)

	reviewedAndMissing := 0
	for _, pmid := range missing {
		if _, ok := reviewed[pmid]; ok {
			reviewedAndMissing++
		}
	}

	return CategoryReport{
		Category:           c,
		CSVCount:           man.Count(),
		StoreCount:         len(storeSet),
		ReviewedCount:      len(reviewed),
		PendingCount:       len(pending),
		MissingCount:       len(missing),
		ExtraCount:         len(extra),
		ReviewedAndMissing: reviewedAndMissing,
		MissingSample:      sample(missing),
		ExtraSample:        sample(extra),
		SkippedRows:        skippedOrNil(man),
		Missing:            missing,
		Extra:              extra,
	}, nil
}

// diff returns a − b in ascending order.
func diff(a map[int64]struct{}, b map[int64]struct{}) []int64 {
	out := []int64{}
	for pmid := range a {
		if _, ok := b[pmid]; !ok {
			out = append(out, pmid)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func sample(pmids []int64) []int64 {
	if len(pmids) > sampleSize {
		pmids = pmids[:sampleSize]
	}
	// Copy so the sample does not alias the full list.
	out := make([]int64, len(pmids))
	copy(out, pmids)
	return out
}

func skippedOrNil(man *manifest.Manifest) map[manifest.SkipReason]int {
	if man.SkippedTotal() == 0 {
		return nil
	}
	return man.Skipped
}
