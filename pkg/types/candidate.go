// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// CandidateRecord is one row of the candidates table: a publication under
// consideration, identified by PMID, with independent category flags.
type CandidateRecord struct {
	ID   int64
	PMID int64

	IsPhysical bool
	IsBrain    bool
	IsPsycho   bool

	// PDFExists records whether a full-text PDF was present at import time.
	PDFExists bool

	// GroupNo is the reviewer group assignment; 0 means unassigned.
	GroupNo int

	// CreatedAt is set once at insertion. Reconciliation never changes it.
	CreatedAt time.Time

	// UpdatedAt is bumped whenever a category flag changes.
	UpdatedAt time.Time
}

// Flag returns the boolean for the named category.
func (r *CandidateRecord) Flag(c Category) bool {
	switch c {
	case CategoryPhysical:
		return r.IsPhysical
	case CategoryBrain:
		return r.IsBrain
	case CategoryPsycho:
		return r.IsPsycho
	}
	return false
}

// Flags returns the record's category flags as a FlagSet.
func (r *CandidateRecord) Flags() FlagSet {
	return FlagSet{Physical: r.IsPhysical, Brain: r.IsBrain, Psycho: r.IsPsycho}
}

// Decision is a reviewer's screening verdict for one candidate in one category.
type Decision string

const (
	DecisionPending Decision = "pending"
	DecisionInclude Decision = "include"
	DecisionExclude Decision = "exclude"
)

// Review is one row of the reviews table. Reviews are owned by the screening
// web application; the reconciliation tools read them for audit enrichment
// and must never mutate them.
type Review struct {
	ID         int64
	PMID       int64
	Category   Category
	ReviewerID int64
	Decision   Decision
	Comment    string

	// CompletedAt marks when the reviewer finished the item. It is
	// independent of Decision: a decision may be recorded before the
	// review is marked complete.
	CompletedAt *time.Time

	UpdatedAt time.Time
}
