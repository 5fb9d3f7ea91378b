// Package lens holds the view state machine: which lens is selected, the
// per-lens "show all" toggles, and the resolve → select pipeline that turns
// a lens into records for a renderer.
package lens

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/superlinks/internal/domain"
)

// ErrUnknownLens is returned when a lens string cannot be parsed.
var ErrUnknownLens = errors.New("unknown lens")

// Names accepted for the synthetic lenses
const (
	RandomName    = "random"
	FavoritesName = "favorites"
	NotesName     = "notes"
)

// Lens identifies one view
type Lens struct {
	Kind     domain.LensKind
	Location domain.Location
}

// Random is the daily random lens
func Random() Lens { return Lens{Kind: domain.LensDailyRandom} }

// Favorites is the favorites lens
func Favorites() Lens { return Lens{Kind: domain.LensFavorites} }

// RawNotes is the text-only notes lens
func RawNotes() Lens { return Lens{Kind: domain.LensRawNotes} }

// At returns the node lens for loc.
func At(loc domain.Location) Lens {
	switch loc.Depth() {
	case 3:
		return Lens{Kind: domain.LensSubclass, Location: loc}
	case 2:
		return Lens{Kind: domain.LensSubcategory, Location: loc}
	default:
		return Lens{Kind: domain.LensCategory, Location: loc}
	}
}

// Parse reads "random", "favorites", "notes" or a location key.
func Parse(s string) (Lens, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case RandomName, "daily-random":
		return Random(), nil
	case FavoritesName:
		return Favorites(), nil
	case NotesName:
		return RawNotes(), nil
	}
	loc, err := domain.ParseLocation(s)
	if err != nil {
		return Lens{}, fmt.Errorf("%w: %v", ErrUnknownLens, err)
	}
	return At(loc), nil
}

// Key identifies the lens in the show-all table; it is also the string Parse
// accepts.
func (l Lens) Key() string {
	switch l.Kind {
	case domain.LensDailyRandom:
		return RandomName
	case domain.LensFavorites:
		return FavoritesName
	case domain.LensRawNotes:
		return NotesName
	default:
		return l.Location.String()
	}
}

// String returns the lens key.
func (l Lens) String() string { return l.Key() }

// Scope returns what the merge engine resolves for the lens. Raw notes have
// no scope.
func (l Lens) Scope() (domain.Scope, bool) {
	switch l.Kind {
	case domain.LensCategory, domain.LensSubcategory, domain.LensSubclass:
		return domain.ScopeFor(l.Location), true
	case domain.LensDailyRandom:
		return domain.CrossTreeScope{Kind: domain.CrossTreeRandom}, true
	case domain.LensFavorites:
		return domain.CrossTreeScope{Kind: domain.CrossTreeFavorites}, true
	default:
		return nil, false
	}
}

// Normalize maps a category lens that points at a synthetic category onto
// the synthetic lens it stands for.
func Normalize(tree domain.Tree, l Lens) Lens {
	if l.Kind != domain.LensCategory {
		return l
	}
	c, ok := tree.Category(l.Location.Category)
	if !ok {
		return l
	}
	switch {
	case c.IsRandom:
		return Random()
	case c.IsTextOnly:
		return RawNotes()
	default:
		return l
	}
}
