// Package merge reconciles the baseline tree with the user overlay.
//
// Effective attributes always come from the canonical overlay record for an
// id when one exists (see overlay.Index), and an id with a tombstone never
// surfaces. Both rules hold for every scope.
package merge

import (
	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/filter"
	"github.com/pbaille/superlinks/internal/overlay"
)

// Resolve returns the resolved items for scope, in baseline order followed
// by overlay additions.
func Resolve(tree domain.Tree, ov overlay.Overlay, scope domain.Scope) []domain.ResolvedItem {
	idx := ov.Index()

	var items []domain.ResolvedItem
	switch s := scope.(type) {
	case domain.CategoryScope:
		items = resolveNodes(tree, ov, idx, []domain.Location{s.Location()})
	case domain.SubcategoryScope:
		locs := []domain.Location{s.Location()}
		if sub, ok := tree.Subcategory(s.CategoryID, s.SubcategoryID); ok {
			for _, sc := range sub.Subclasses {
				locs = append(locs, domain.Location{Category: s.CategoryID, Subcategory: s.SubcategoryID, Subclass: sc.ID})
			}
		}
		items = resolveNodes(tree, ov, idx, locs)
	case domain.SubclassScope:
		items = resolveNodes(tree, ov, idx, []domain.Location{s.Location()})
	case domain.CrossTreeScope:
		items = resolveCrossTree(tree, ov, idx)
		if s.Kind == domain.CrossTreeFavorites {
			items = keep(items, func(it domain.ResolvedItem) bool { return ov.IsFavorite(it.ID) })
		}
	}

	// Tombstones go last so nothing reintroduces a deleted id.
	return keep(items, func(it domain.ResolvedItem) bool { return !ov.IsDeleted(it.ID) })
}

func resolveNodes(tree domain.Tree, ov overlay.Overlay, idx overlay.Index, locs []domain.Location) []domain.ResolvedItem {
	seen := make(map[int]bool)
	var out []domain.ResolvedItem
	var present []domain.Location

	for _, loc := range locs {
		node, ok := tree.Node(loc)
		if !ok {
			continue
		}
		present = append(present, loc)
		label := node.Label()
		for _, it := range node.Items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, domain.ResolvedItem{Item: apply(it, idx), Location: loc.String(), Source: label})
		}
	}

	baseline := tree.ItemIDs()
	for _, loc := range present {
		key := loc.String()
		for _, rec := range ov.Edits(key) {
			c, ok := idx.Lookup(rec.ID)
			if !ok || c.Location != key || seen[rec.ID] {
				continue
			}
			if !addable(rec.ID, baseline) {
				continue
			}
			seen[rec.ID] = true
			out = append(out, domain.ResolvedItem{Item: c.Item, Location: key, Source: sourceLabel(tree, c)})
		}
	}
	return out
}

func resolveCrossTree(tree domain.Tree, ov overlay.Overlay, idx overlay.Index) []domain.ResolvedItem {
	eval := filter.New(ov.Filter())
	seen := make(map[int]bool)
	var out []domain.ResolvedItem

	tree.Walk(func(n domain.Node, c domain.Category) {
		if c.Synthetic() || !eval.Includes(n.Location) {
			return
		}
		label := n.Label()
		key := n.Location.String()
		for _, it := range n.Items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			out = append(out, domain.ResolvedItem{Item: apply(it, idx), Location: key, Source: label})
		}
	})

	// The whole edit map applies, not just one scope: additions recorded
	// anywhere in the filtered tree join the pool.
	baseline := tree.ItemIDs()
	for _, key := range ov.Locations() {
		for _, rec := range ov.Edits(key) {
			c, ok := idx.Lookup(rec.ID)
			if !ok || c.Location != key || seen[rec.ID] || !addable(rec.ID, baseline) {
				continue
			}
			loc, err := domain.ParseLocation(key)
			if err != nil {
				continue
			}
			if cat, ok := tree.Category(loc.Category); ok && cat.Synthetic() {
				continue
			}
			if !eval.Includes(loc) {
				continue
			}
			seen[rec.ID] = true
			out = append(out, domain.ResolvedItem{Item: c.Item, Location: key, Source: sourceLabel(tree, c)})
		}
	}
	return out
}

// apply overwrites the display attributes of a baseline item with its
// canonical overlay record. The baseline pin flag is kept.
func apply(it domain.Item, idx overlay.Index) domain.Item {
	c, ok := idx.Lookup(it.ID)
	if !ok {
		return it
	}
	it.Name = c.Name
	it.URL = c.URL
	it.Note = c.Note
	return it
}

// addable reports whether an overlay record may surface at its own location:
// user-created items always, positive ids only when the baseline still has
// them (a dangling edit never surfaces).
func addable(id int, baseline map[int]struct{}) bool {
	if id < 0 {
		return true
	}
	_, ok := baseline[id]
	return ok
}

func sourceLabel(tree domain.Tree, c overlay.Canonical) string {
	if c.Source != "" {
		return c.Source
	}
	if label := tree.Label(c.Location); label != "" {
		return label
	}
	return domain.UnknownSource
}

func keep(items []domain.ResolvedItem, pred func(domain.ResolvedItem) bool) []domain.ResolvedItem {
	out := items[:0:0]
	for _, it := range items {
		if pred(it) {
			out = append(out, it)
		}
	}
	return out
}
