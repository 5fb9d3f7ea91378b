package selection

import "github.com/pbaille/superlinks/internal/domain"

// Quotas holds the default number of unpinned items per lens kind
type Quotas struct {
	Category    int
	Subcategory int
	Subclass    int
	Random      int
	Favorites   int
}

// DefaultQuotas mirror the maxItems the catalog generator writes.
func DefaultQuotas() Quotas {
	return Quotas{Category: 50, Subcategory: 50, Subclass: 50, Random: 20, Favorites: 50}
}

// For returns the quota for a lens kind; text-only lenses have none.
func (q Quotas) For(kind domain.LensKind) int {
	switch kind {
	case domain.LensCategory:
		return q.Category
	case domain.LensSubcategory:
		return q.Subcategory
	case domain.LensSubclass:
		return q.Subclass
	case domain.LensDailyRandom:
		return q.Random
	case domain.LensFavorites:
		return q.Favorites
	default:
		return 0
	}
}
