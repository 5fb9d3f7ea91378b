package lens

import "github.com/pbaille/superlinks/internal/domain"

// Entry describes one selectable lens
type Entry struct {
	Lens  string `json:"lens"`
	Kind  string `json:"kind"`
	Title string `json:"title"`
	Icon  string `json:"icon,omitempty"`
	Depth int    `json:"depth"`
}

// Entries lists every lens of tree in navigation order: the synthetic lenses
// first, then each browsable node in document order.
func Entries(tree domain.Tree) []Entry {
	entry := func(l Lens, title, icon string, depth int) Entry {
		return Entry{Lens: l.Key(), Kind: l.Kind.String(), Title: title, Icon: icon, Depth: depth}
	}
	random := entry(Random(), RandomTitle, RandomIcon, 0)
	if c, ok := tree.RandomCategory(); ok {
		random.Title, random.Icon = orDefault(c.Name, RandomTitle), orDefault(c.Icon, RandomIcon)
	}
	out := []Entry{random, entry(Favorites(), FavoritesTitle, FavoritesIcon, 0)}
	if c, ok := tree.TextOnlyCategory(); ok {
		out = append(out, entry(RawNotes(), orDefault(c.Name, NotesTitle), orDefault(c.Icon, NotesIcon), 0))
	}
	tree.Walk(func(n domain.Node, c domain.Category) {
		if c.Synthetic() {
			return
		}
		out = append(out, entry(At(n.Location), n.Names[len(n.Names)-1], n.Icon, n.Location.Depth()))
	})
	return out
}
