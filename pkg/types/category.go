// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared domain types for the screening toolkit:
// the screening category enumeration, candidate and review records, and the
// configuration structs threaded explicitly into each component.
package types

import "fmt"

// Category identifies one of the three independent screening tracks. A
// candidate may belong to zero, one, or several categories at once.
type Category string

const (
	CategoryPhysical Category = "physical"
	CategoryBrain    Category = "brain"
	CategoryPsycho   Category = "psycho"
)

// Categories returns all screening categories in canonical order. Iteration
// over categories must use this order so that reports and plans are
// deterministic.
func Categories() []Category {
	return []Category{CategoryPhysical, CategoryBrain, CategoryPsycho}
}

// ParseCategory validates a category name. The enumeration is closed; any
// other name is an input error, not a new category.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategoryPhysical, CategoryBrain, CategoryPsycho:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q: use physical, brain, or psycho", s)
}

// FlagSet holds one boolean per category. It is the value type for candidate
// creation and for the importer's additive flag updates.
type FlagSet struct {
	Physical bool
	Brain    bool
	Psycho   bool
}

// Has reports whether the flag for c is set.
func (f FlagSet) Has(c Category) bool {
	switch c {
	case CategoryPhysical:
		return f.Physical
	case CategoryBrain:
		return f.Brain
	case CategoryPsycho:
		return f.Psycho
	}
	return false
}

// Set turns on the flag for c and returns the updated set.
func (f FlagSet) Set(c Category) FlagSet {
	switch c {
	case CategoryPhysical:
		f.Physical = true
	case CategoryBrain:
		f.Brain = true
	case CategoryPsycho:
		f.Psycho = true
	}
	return f
}

// Any reports whether at least one flag is set.
func (f FlagSet) Any() bool {
	return f.Physical || f.Brain || f.Psycho
}
