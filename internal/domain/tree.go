package domain

import "strings"

// SourceSeparator joins node names in a source label
const SourceSeparator = " – "

// UnknownSource labels an item whose location cannot be resolved
const UnknownSource = "Unknown source"

// Tree is the baseline catalog document. It is read-only input: nothing in
// this module mutates a Tree in place.
type Tree struct {
	Revision   string     `json:"revision,omitempty" yaml:"revision,omitempty"`
	Categories []Category `json:"categories" yaml:"categories"`
}

// Node is a resolved view of one addressable tree node
type Node struct {
	Location Location
	Names    []string
	Icon     string
	MaxItems int
	Items    []Item
}

// Label returns the node's path label, e.g. "Tech – Reviews – Phones".
func (n Node) Label() string {
	return strings.Join(n.Names, SourceSeparator)
}

// Category finds a category by id.
func (t Tree) Category(id string) (Category, bool) {
	for _, c := range t.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}

// Subcategory finds a subcategory by its parent category id and own id.
func (t Tree) Subcategory(categoryID, subcategoryID string) (Subcategory, bool) {
	c, ok := t.Category(categoryID)
	if !ok {
		return Subcategory{}, false
	}
	for _, s := range c.Subcategories {
		if s.ID == subcategoryID {
			return s, true
		}
	}
	return Subcategory{}, false
}

// Subclass finds a subclass by its full path.
func (t Tree) Subclass(categoryID, subcategoryID, subclassID string) (Subclass, bool) {
	s, ok := t.Subcategory(categoryID, subcategoryID)
	if !ok {
		return Subclass{}, false
	}
	for _, sc := range s.Subclasses {
		if sc.ID == subclassID {
			return sc, true
		}
	}
	return Subclass{}, false
}

// Node resolves a location to the node it addresses.
func (t Tree) Node(loc Location) (Node, bool) {
	c, ok := t.Category(loc.Category)
	if !ok {
		return Node{}, false
	}
	if loc.Subcategory == "" {
		return Node{Location: loc, Names: []string{c.Name}, Icon: c.Icon, MaxItems: c.MaxItems, Items: c.Items}, true
	}
	s, ok := t.Subcategory(loc.Category, loc.Subcategory)
	if !ok {
		return Node{}, false
	}
	if loc.Subclass == "" {
		icon := s.Icon
		if icon == "" {
			icon = c.Icon
		}
		return Node{Location: loc, Names: []string{c.Name, s.Name}, Icon: icon, MaxItems: s.MaxItems, Items: s.Items}, true
	}
	sc, ok := t.Subclass(loc.Category, loc.Subcategory, loc.Subclass)
	if !ok {
		return Node{}, false
	}
	icon := sc.Icon
	if icon == "" {
		icon = s.Icon
	}
	if icon == "" {
		icon = c.Icon
	}
	return Node{Location: loc, Names: []string{c.Name, s.Name, sc.Name}, Icon: icon, MaxItems: sc.MaxItems, Items: sc.Items}, true
}

// Label returns the path label for a location key, or "" when it does not
// resolve.
func (t Tree) Label(key string) string {
	loc, err := ParseLocation(key)
	if err != nil {
		return ""
	}
	n, ok := t.Node(loc)
	if !ok {
		return ""
	}
	return n.Label()
}

// RandomCategory returns the category flagged isRandom, if any.
func (t Tree) RandomCategory() (Category, bool) {
	for _, c := range t.Categories {
		if c.IsRandom {
			return c, true
		}
	}
	return Category{}, false
}

// TextOnlyCategory returns the first category flagged isTextOnly, if any.
func (t Tree) TextOnlyCategory() (Category, bool) {
	for _, c := range t.Categories {
		if c.IsTextOnly {
			return c, true
		}
	}
	return Category{}, false
}

// Walk visits every node in document order.
func (t Tree) Walk(fn func(n Node, c Category)) {
	for _, c := range t.Categories {
		fn(Node{Location: Location{Category: c.ID}, Names: []string{c.Name}, Icon: c.Icon, MaxItems: c.MaxItems, Items: c.Items}, c)
		for _, s := range c.Subcategories {
			subLoc := Location{Category: c.ID, Subcategory: s.ID}
			fn(Node{Location: subLoc, Names: []string{c.Name, s.Name}, Icon: s.Icon, MaxItems: s.MaxItems, Items: s.Items}, c)
			for _, sc := range s.Subclasses {
				clsLoc := Location{Category: c.ID, Subcategory: s.ID, Subclass: sc.ID}
				fn(Node{Location: clsLoc, Names: []string{c.Name, s.Name, sc.Name}, Icon: sc.Icon, MaxItems: sc.MaxItems, Items: sc.Items}, c)
			}
		}
	}
}

// ItemIDs returns the set of every item id present in the tree.
func (t Tree) ItemIDs() map[int]struct{} {
	ids := make(map[int]struct{})
	t.Walk(func(n Node, _ Category) {
		for _, it := range n.Items {
			ids[it.ID] = struct{}{}
		}
	})
	return ids
}

// MaxItemID returns the largest item id in the tree (0 when empty).
func (t Tree) MaxItemID() int {
	highest := 0
	t.Walk(func(n Node, _ Category) {
		for _, it := range n.Items {
			if it.ID > highest {
				highest = it.ID
			}
		}
	})
	return highest
}

// CountItems returns the number of items in the tree.
func (t Tree) CountItems() int {
	count := 0
	t.Walk(func(n Node, _ Category) {
		count += len(n.Items)
	})
	return count
}

// Clone returns a deep copy of the tree.
func (t Tree) Clone() Tree {
	out := Tree{Revision: t.Revision, Categories: make([]Category, len(t.Categories))}
	for i, c := range t.Categories {
		c.Items = cloneItems(c.Items)
		subs := make([]Subcategory, len(c.Subcategories))
		for j, s := range c.Subcategories {
			s.Items = cloneItems(s.Items)
			classes := make([]Subclass, len(s.Subclasses))
			for k, sc := range s.Subclasses {
				sc.Items = cloneItems(sc.Items)
				classes[k] = sc
			}
			if s.Subclasses == nil {
				classes = nil
			}
			s.Subclasses = classes
			subs[j] = s
		}
		if c.Subcategories == nil {
			subs = nil
		}
		c.Subcategories = subs
		out.Categories[i] = c
	}
	return out
}

func cloneItems(items []Item) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	return out
}
