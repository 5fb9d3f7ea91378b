// Package filter decides which tree locations feed the cross-tree lenses.
//
// Inclusion is evaluated top-down. A category is included when listed (or
// when the category dimension is absent). A subcategory is excluded when
// listed in excludedSubcategories, otherwise included when its category is
// included or when it is listed itself. Subclasses follow the same rule one
// level down, inheriting from an included subcategory.
package filter

import "github.com/pbaille/superlinks/internal/domain"

// Evaluator answers inclusion queries for one filter.
type Evaluator struct {
	all           bool
	anyCategory   bool
	categories    set
	subcategories set
	subclasses    set
	exSubcats     set
	exSubclasses  set
}

// New compiles f. A nil or empty filter includes everything.
func New(f *domain.Filter) *Evaluator {
	if f.IsEmpty() {
		return &Evaluator{all: true}
	}
	return &Evaluator{
		anyCategory:   f.Categories == nil,
		categories:    newSet(f.Categories),
		subcategories: newSet(f.Subcategories),
		subclasses:    newSet(f.Subclasses),
		exSubcats:     newSet(f.ExcludedSubcategories),
		exSubclasses:  newSet(f.ExcludedSubclasses),
	}
}

// IncludesCategory reports whether the category is in scope.
func (e *Evaluator) IncludesCategory(categoryID string) bool {
	if e.all || e.anyCategory {
		return true
	}
	return e.categories.has(categoryID)
}

// IncludesSubcategory reports whether the subcategory is in scope.
func (e *Evaluator) IncludesSubcategory(categoryID, subcategoryID string) bool {
	if e.all {
		return true
	}
	key := domain.Location{Category: categoryID, Subcategory: subcategoryID}.String()
	if e.exSubcats.has(key) {
		return false
	}
	if e.IncludesCategory(categoryID) {
		return true
	}
	return e.subcategories.has(key)
}

// IncludesSubclass reports whether the subclass is in scope.
func (e *Evaluator) IncludesSubclass(categoryID, subcategoryID, subclassID string) bool {
	if e.all {
		return true
	}
	key := domain.Location{Category: categoryID, Subcategory: subcategoryID, Subclass: subclassID}.String()
	if e.exSubclasses.has(key) {
		return false
	}
	if e.IncludesSubcategory(categoryID, subcategoryID) {
		return true
	}
	return e.subclasses.has(key)
}

// Includes dispatches on the depth of loc.
func (e *Evaluator) Includes(loc domain.Location) bool {
	switch loc.Depth() {
	case 1:
		return e.IncludesCategory(loc.Category)
	case 2:
		return e.IncludesSubcategory(loc.Category, loc.Subcategory)
	case 3:
		return e.IncludesSubclass(loc.Category, loc.Subcategory, loc.Subclass)
	default:
		return false
	}
}

type set map[string]struct{}

func newSet(values []string) set {
	s := make(set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

func (s set) has(v string) bool {
	_, ok := s[v]
	return ok
}
