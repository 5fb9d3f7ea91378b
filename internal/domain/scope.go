package domain

// Scope is what the merge engine resolves. It is one of CategoryScope,
// SubcategoryScope, SubclassScope or CrossTreeScope.
type Scope interface {
	isScope()
}

// CategoryScope resolves the direct items of one category
type CategoryScope struct {
	CategoryID string
}

// SubcategoryScope resolves a subcategory and, flattened, its subclasses
type SubcategoryScope struct {
	CategoryID    string
	SubcategoryID string
}

// SubclassScope resolves the items of one subclass
type SubclassScope struct {
	CategoryID    string
	SubcategoryID string
	SubclassID    string
}

// CrossTreeKind distinguishes the synthetic lenses
type CrossTreeKind int

const (
	CrossTreeRandom CrossTreeKind = iota
	CrossTreeFavorites
)

// CrossTreeScope walks the whole filtered tree
type CrossTreeScope struct {
	Kind CrossTreeKind
}

func (CategoryScope) isScope()    {}
func (SubcategoryScope) isScope() {}
func (SubclassScope) isScope()    {}
func (CrossTreeScope) isScope()   {}

// Location returns the node addressed by a category scope.
func (s CategoryScope) Location() Location {
	return Location{Category: s.CategoryID}
}

// Location returns the node addressed by a subcategory scope.
func (s SubcategoryScope) Location() Location {
	return Location{Category: s.CategoryID, Subcategory: s.SubcategoryID}
}

// Location returns the node addressed by a subclass scope.
func (s SubclassScope) Location() Location {
	return Location{Category: s.CategoryID, Subcategory: s.SubcategoryID, Subclass: s.SubclassID}
}

// ScopeFor builds the node scope addressing loc.
func ScopeFor(loc Location) Scope {
	switch loc.Depth() {
	case 3:
		return SubclassScope{CategoryID: loc.Category, SubcategoryID: loc.Subcategory, SubclassID: loc.Subclass}
	case 2:
		return SubcategoryScope{CategoryID: loc.Category, SubcategoryID: loc.Subcategory}
	default:
		return CategoryScope{CategoryID: loc.Category}
	}
}

// LensKind enumerates the views a user can select
type LensKind int

const (
	LensCategory LensKind = iota
	LensSubcategory
	LensSubclass
	LensDailyRandom
	LensFavorites
	LensRawNotes
)

// String returns the kind name used in lens listings.
func (k LensKind) String() string {
	switch k {
	case LensCategory:
		return "category"
	case LensSubcategory:
		return "subcategory"
	case LensSubclass:
		return "subclass"
	case LensDailyRandom:
		return "random"
	case LensFavorites:
		return "favorites"
	case LensRawNotes:
		return "notes"
	default:
		return "unknown"
	}
}
