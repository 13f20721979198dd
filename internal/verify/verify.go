// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package verify re-runs the screening application's display-count query
// and compares it against manifest-derived expectations. Pure read; used as
// a post-reconciliation gate.
package verify

import (
	"context"
	"fmt"

	"github.com/apathy-review/screenctl/internal/audit"
	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

// Result compares expected and actual display counts for one category.
type Result struct {
	Category types.Category
	Expected int
	Actual   int
	Match    bool
}

// Run checks every category present in expected, in canonical order.
func Run(ctx context.Context, st *store.Store, expected map[types.Category]int) ([]Result, error) {
	var results []Result
	for _, c := range types.Categories() {
		want, ok := expected[c]
		if !ok {
			continue
		}
		got, err := st.CountWithFlag(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("verifying %s: %w", c, err)
		}
		results = append(results, Result{
			Category: c,
			Expected: want,
			Actual:   got,
			Match:    got == want,
		})
	}
	return results, nil
}

// AllMatch reports whether every category agreed.
func AllMatch(results []Result) bool {
	for _, r := range results {
		if !r.Match {
			return false
		}
	}
	return true
}

// ExpectedFromManifests derives expected counts from freshly loaded
// manifests.
func ExpectedFromManifests(manifests map[types.Category]*manifest.Manifest) map[types.Category]int {
	expected := make(map[types.Category]int)
	for c, man := range manifests {
		if man != nil {
			expected[c] = man.Count()
		}
	}
	return expected
}

// ExpectedFromReport derives expected counts from a prior audit artifact.
func ExpectedFromReport(path string) (map[types.Category]int, error) {
	report, err := audit.LoadReport(path)
	if err != nil {
		return nil, err
	}
	expected := make(map[types.Category]int)
	for _, cr := range report.Categories {
		expected[cr.Category] = cr.CSVCount
	}
	return expected, nil
}
