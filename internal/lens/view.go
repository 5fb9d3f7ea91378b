package lens

import (
	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/merge"
	"github.com/pbaille/superlinks/internal/overlay"
	"github.com/pbaille/superlinks/internal/selection"
)

// Default titles and icons for lenses the document does not describe
const (
	RandomTitle    = "Daily Random"
	RandomIcon     = "🌟"
	FavoritesTitle = "Favorites"
	FavoritesIcon  = "⭐"
	NotesTitle     = "Raw Notes"
	NotesIcon      = "🎬"
)

// View is what a renderer receives for one lens
type View struct {
	Lens     Lens            `json:"-"`
	Key      string          `json:"lens"`
	Kind     string          `json:"kind"`
	Title    string          `json:"title"`
	Icon     string          `json:"icon,omitempty"`
	TextOnly bool            `json:"textOnly,omitempty"`
	ShowAll  bool            `json:"showAll"`
	Quota    int             `json:"quota"`
	Items    []domain.Record `json:"items"`
	// Available counts unpinned items before the quota applied.
	Available int `json:"available"`
}

// Empty reports whether the lens renders its empty state.
func (v View) Empty() bool {
	return len(v.Items) == 0
}

// Viewer runs the resolve → select pipeline
type Viewer struct {
	Quotas  selection.Quotas
	Permute selection.Permuter
}

// Render resolves and selects l. Every call re-runs the whole pipeline, so
// calling it again is a refresh: a new random sample with pins preserved.
func (v Viewer) Render(tree domain.Tree, ov overlay.Overlay, l Lens, showAll bool) View {
	l = Normalize(tree, l)
	view := View{Lens: l, Key: l.Key(), Kind: l.Kind.String(), ShowAll: showAll, Items: []domain.Record{}}
	view.Title, view.Icon, view.Quota = v.describe(tree, l)

	scope, ok := l.Scope()
	if !ok {
		view.TextOnly = true
		return view
	}

	resolved := merge.Resolve(tree, ov, scope)
	res := selection.Select(resolved, ov.IsPinned, selection.Options{
		Quota:   view.Quota,
		ShowAll: showAll,
		Permute: v.Permute,
	})
	view.Available = res.Available
	for _, it := range res.Items {
		view.Items = append(view.Items, domain.Record{
			ID:       it.ID,
			Name:     it.Name,
			URL:      it.URL,
			Source:   it.Source,
			Pinned:   it.Pinned,
			Favorite: ov.IsFavorite(it.ID),
		})
	}
	return view
}

// describe returns title, icon and quota. A node's maxItems overrides the
// lens default quota.
func (v Viewer) describe(tree domain.Tree, l Lens) (string, string, int) {
	quota := v.Quotas.For(l.Kind)
	switch l.Kind {
	case domain.LensDailyRandom:
		if c, ok := tree.RandomCategory(); ok {
			return orDefault(c.Name, RandomTitle), orDefault(c.Icon, RandomIcon), override(quota, c.MaxItems)
		}
		return RandomTitle, RandomIcon, quota
	case domain.LensFavorites:
		return FavoritesTitle, FavoritesIcon, quota
	case domain.LensRawNotes:
		if c, ok := tree.TextOnlyCategory(); ok {
			return orDefault(c.Name, NotesTitle), orDefault(c.Icon, NotesIcon), 0
		}
		return NotesTitle, NotesIcon, 0
	}

	node, ok := tree.Node(l.Location)
	if !ok {
		return l.Location.String(), "", quota
	}
	return node.Names[len(node.Names)-1], node.Icon, override(quota, node.MaxItems)
}

func override(quota, maxItems int) int {
	if maxItems > 0 {
		return maxItems
	}
	return quota
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
