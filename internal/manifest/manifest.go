// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads category manifest CSVs into canonical PMID sets.
// Manifests are the external source of truth for category membership; a
// malformed row is counted and skipped, never fatal, while a missing file or
// a missing identifier column aborts the whole load.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/apathy-review/screenctl/pkg/types"
)

// ErrColumnMissing reports that the configured identifier column is absent
// from the manifest header.
var ErrColumnMissing = errors.New("identifier column not found")

// SkipReason classifies why a manifest row was excluded from the PMID set.
type SkipReason string

const (
	// SkipEmpty covers blank cells and the textual null spellings ("none",
	// "nan") that spreadsheet exports produce.
	SkipEmpty SkipReason = "empty"

	// SkipInvalid covers cells that do not parse as a whole number.
	SkipInvalid SkipReason = "invalid"

	// SkipNonPositive covers parsed values that are zero or negative.
	SkipNonPositive SkipReason = "nonpositive"
)

// Manifest is the deduplicated PMID set parsed from one category CSV,
// together with per-reason skip counts. It exists only for the duration of
// one audit/reconcile/verify run.
type Manifest struct {
	Path    string
	PMIDs   map[int64]struct{}
	Skipped map[SkipReason]int
}

// Count returns the number of valid, distinct identifiers.
func (m *Manifest) Count() int {
	return len(m.PMIDs)
}

// Contains reports whether pmid appears in the manifest.
func (m *Manifest) Contains(pmid int64) bool {
	_, ok := m.PMIDs[pmid]
	return ok
}

// Sorted returns the identifiers in ascending order.
func (m *Manifest) Sorted() []int64 {
	out := make([]int64, 0, len(m.PMIDs))
	for pmid := range m.PMIDs {
		out = append(out, pmid)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// SkippedTotal returns the number of rows excluded across all reasons.
func (m *Manifest) SkippedTotal() int {
	total := 0
	for _, n := range m.Skipped {
		total += n
	}
	return total
}

// Load parses the manifest at path. The identifier column is matched
// case-insensitively against cfg.IDColumn (default "pmid"). A missing file
// surfaces as an error satisfying errors.Is(err, fs.ErrNotExist); a missing
// column wraps ErrColumnMissing.
func Load(path string, cfg types.ManifestConfig) (*Manifest, error) {
	column := cfg.IDColumn
	if column == "" {
		column = types.DefaultIDColumn
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening manifest: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading manifest header %s: %w", path, err)
	}

	idx := -1
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		if strings.EqualFold(strings.TrimSpace(name), column) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%s: %w: %q", path, ErrColumnMissing, column)
	}

	m := &Manifest{
		Path:    path,
		PMIDs:   make(map[int64]struct{}),
		Skipped: make(map[SkipReason]int),
	}

	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading manifest %s: %w", path, err)
		}
		if idx >= len(record) {
			m.Skipped[SkipEmpty]++
			continue
		}
		pmid, skip := parsePMID(record[idx])
		if skip != "" {
			m.Skipped[skip]++
			continue
		}
		m.PMIDs[pmid] = struct{}{}
	}

	return m, nil
}

// parsePMID normalizes one raw cell to a canonical positive identifier.
// Decimal renderings such as "123.0" are accepted only when the value is a
// whole number, then truncated to an integer.
func parsePMID(raw string) (int64, SkipReason) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "none", "nan":
		return 0, SkipEmpty
	}

	var value int64
	if strings.Contains(raw, ".") {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, SkipInvalid
		}
		if f != math.Trunc(f) {
			return 0, SkipInvalid
		}
		value = int64(f)
	} else {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, SkipInvalid
		}
		value = n
	}

	if value <= 0 {
		return 0, SkipNonPositive
	}
	return value, ""
}
