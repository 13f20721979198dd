// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package reconcile repairs manifest/store drift additively. A run is
// planned first: the plan is the exact action list a mutating run would
// perform, so a dry-run preview and a subsequent apply over unchanged
// inputs report identical actions. Apply executes the plan inside one
// transaction; any failure rolls the whole run back.
package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/apathy-review/screenctl/internal/manifest"
	"github.com/apathy-review/screenctl/internal/store"
	"github.com/apathy-review/screenctl/pkg/types"
)

// ActionKind distinguishes flag repairs on existing records from record
// creation.
type ActionKind string

const (
	ActionCreate ActionKind = "create"
	ActionUpdate ActionKind = "update"
)

// Action is one planned mutation: set the category flag for PMID, creating
// the record first when none exists.
type Action struct {
	PMID     int64          `json:"pmid"`
	Category types.Category `json:"category"`
	Kind     ActionKind     `json:"kind"`
}

// Summary counts applied or planned actions for one category.
type Summary struct {
	Created int
	Updated int
}

// Total returns the number of actions in the summary.
func (s Summary) Total() int {
	return s.Created + s.Updated
}

// Options narrows a reconciliation run.
type Options struct {
	// Only restricts processing to these identifiers. Nil processes every
	// missing identifier.
	Only map[int64]struct{}
}

// Plan is the ordered action list for one reconciliation run.
type Plan struct {
	Actions []Action
}

// IsEmpty reports whether the plan contains no actions.
func (p *Plan) IsEmpty() bool {
	return len(p.Actions) == 0
}

// Counts aggregates the plan's actions per category.
func (p *Plan) Counts() map[types.Category]Summary {
	counts := make(map[types.Category]Summary)
	for _, a := range p.Actions {
		s := counts[a.Category]
		switch a.Kind {
		case ActionCreate:
			s.Created++
		case ActionUpdate:
			s.Updated++
		}
		counts[a.Category] = s
	}
	return counts
}

// TotalSummary aggregates the plan's actions across categories.
func (p *Plan) TotalSummary() Summary {
	var total Summary
	for _, s := range p.Counts() {
		total.Created += s.Created
		total.Updated += s.Updated
	}
	return total
}

// BuildPlan recomputes missing = manifest − store for each category (a stale
// audit artifact is never trusted) and decides, per missing identifier in
// ascending order, whether the repair is an UPDATE of an existing record or
// a CREATE. An identifier missing from several categories with no record at
// all yields one CREATE followed by UPDATEs for the later categories, since
// the record will exist by the time those actions run.
func BuildPlan(ctx context.Context, st *store.Store, manifests map[types.Category]*manifest.Manifest, opts Options) (*Plan, error) {
	plan := &Plan{}
	plannedCreate := make(map[int64]struct{})

	for _, c := range types.Categories() {
		man := manifests[c]
		if man == nil {
			continue
		}

		storeSet, err := st.IdentifiersWithFlag(ctx, c)
		if err != nil {
			return nil, fmt.Errorf("planning %s: %w", c, err)
		}

		for _, pmid := range man.Sorted() {
			if _, ok := storeSet[pmid]; ok {
				continue
			}
			if opts.Only != nil {
				if _, ok := opts.Only[pmid]; !ok {
					continue
				}
			}

			if _, ok := plannedCreate[pmid]; ok {
				plan.Actions = append(plan.Actions, Action{PMID: pmid, Category: c, Kind: ActionUpdate})
				continue
			}

			rec, err := st.FindByPMID(ctx, pmid)
			if err != nil {
				return nil, fmt.Errorf("planning %s: %w", c, err)
			}
			if rec != nil {
				plan.Actions = append(plan.Actions, Action{PMID: pmid, Category: c, Kind: ActionUpdate})
			} else {
				plan.Actions = append(plan.Actions, Action{PMID: pmid, Category: c, Kind: ActionCreate})
				plannedCreate[pmid] = struct{}{}
			}
		}
	}

	return plan, nil
}

// Apply executes the plan inside a single transaction and writes one
// progress line per category to w. On any failure the transaction is rolled
// back and zero changes reach the store.
func Apply(ctx context.Context, st *store.Store, plan *Plan, w io.Writer) (Summary, error) {
	if plan.IsEmpty() {
		fmt.Fprintln(w, "nothing to reconcile")
		return Summary{}, nil
	}

	tx, err := st.Begin(ctx)
	if err != nil {
		return Summary{}, err
	}
	defer tx.Rollback()

	for _, a := range plan.Actions {
		switch a.Kind {
		case ActionCreate:
			err = tx.Create(ctx, a.PMID, types.FlagSet{}.Set(a.Category))
		case ActionUpdate:
			err = tx.SetFlag(ctx, a.PMID, a.Category)
		default:
			err = fmt.Errorf("unknown action kind %q", a.Kind)
		}
		if err != nil {
			return Summary{}, fmt.Errorf("applying %s %s %d: %w", a.Kind, a.Category, a.PMID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, err
	}

	counts := plan.Counts()
	for _, c := range types.Categories() {
		if s, ok := counts[c]; ok {
			fmt.Fprintf(w, "%-10s created=%d updated=%d\n", c, s.Created, s.Updated)
		}
	}
	return plan.TotalSummary(), nil
}
