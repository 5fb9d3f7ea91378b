package merge

import (
	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/overlay"
)

// Report summarizes what Export folded into the new baseline.
type Report struct {
	Revision string `json:"revision"`
	Edited   int    `json:"edited"`
	Deleted  int    `json:"deleted"`
	// Added maps each user-created id to the positive id it was given.
	Added   map[int]int         `json:"added"`
	Orphans []overlay.Canonical `json:"orphans,omitempty"`
}

// Export reconciles tree and overlay into a document that can replace the
// baseline: edits applied, additions inserted with freshly minted positive
// ids, tombstoned items removed. Pins and favorites stay in the overlay. The
// input tree is not modified.
func Export(tree domain.Tree, ov overlay.Overlay, revision string) (domain.Tree, Report) {
	out := tree.Clone()
	out.Revision = revision
	idx := ov.Index()
	report := Report{Revision: revision, Added: make(map[int]int)}

	rewrite := func(items []domain.Item) []domain.Item {
		kept := items[:0]
		for _, it := range items {
			if ov.IsDeleted(it.ID) {
				report.Deleted++
				continue
			}
			if _, ok := idx.Lookup(it.ID); ok {
				it = apply(it, idx)
				report.Edited++
			}
			kept = append(kept, it)
		}
		return kept
	}
	for i := range out.Categories {
		c := &out.Categories[i]
		c.Items = rewrite(c.Items)
		for j := range c.Subcategories {
			s := &c.Subcategories[j]
			s.Items = rewrite(s.Items)
			for k := range s.Subclasses {
				s.Subclasses[k].Items = rewrite(s.Subclasses[k].Items)
			}
		}
	}

	baseline := tree.ItemIDs()
	next := tree.MaxItemID() + 1
	for _, key := range ov.Locations() {
		for _, rec := range ov.Edits(key) {
			c, ok := idx.Lookup(rec.ID)
			if !ok || c.Location != key || ov.IsDeleted(rec.ID) {
				continue
			}
			if rec.ID > 0 {
				if _, inBaseline := baseline[rec.ID]; !inBaseline {
					report.Orphans = append(report.Orphans, c)
				}
				continue
			}
			item := c.Item
			item.ID = next
			if !insert(&out, key, item) {
				report.Orphans = append(report.Orphans, c)
				continue
			}
			report.Added[rec.ID] = next
			next++
		}
	}
	return out, report
}

func insert(t *domain.Tree, key string, item domain.Item) bool {
	loc, err := domain.ParseLocation(key)
	if err != nil {
		return false
	}
	for i := range t.Categories {
		c := &t.Categories[i]
		if c.ID != loc.Category {
			continue
		}
		if loc.Depth() == 1 {
			c.Items = append(c.Items, item)
			return true
		}
		for j := range c.Subcategories {
			s := &c.Subcategories[j]
			if s.ID != loc.Subcategory {
				continue
			}
			if loc.Depth() == 2 {
				s.Items = append(s.Items, item)
				return true
			}
			for k := range s.Subclasses {
				if s.Subclasses[k].ID == loc.Subclass {
					s.Subclasses[k].Items = append(s.Subclasses[k].Items, item)
					return true
				}
			}
		}
	}
	return false
}
