package domain

import "encoding/json"

// Item is a leaf link record. Positive ids belong to the baseline document,
// negative ids are reserved for items created locally.
type Item struct {
	ID     int    `json:"id" yaml:"id"`
	Name   string `json:"name" yaml:"name"`
	URL    string `json:"url" yaml:"url"`
	Note   string `json:"note,omitempty" yaml:"note,omitempty"`
	Pinned bool   `json:"pinned,omitempty" yaml:"pinned,omitempty"`
}

// UserCreated reports whether the item was created locally rather than
// authored in the baseline.
func (i Item) UserCreated() bool {
	return i.ID < 0
}

// UnmarshalJSON accepts the legacy "text" key as the note.
func (i *Item) UnmarshalJSON(data []byte) error {
	type plain Item
	var aux struct {
		plain
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*i = Item(aux.plain)
	if i.Note == "" {
		i.Note = aux.Text
	}
	return nil
}

// Category is a top-level node of the catalog tree
type Category struct {
	ID            string        `json:"id" yaml:"id"`
	Name          string        `json:"name" yaml:"name"`
	Icon          string        `json:"icon,omitempty" yaml:"icon,omitempty"`
	IsRandom      bool          `json:"isRandom,omitempty" yaml:"isRandom,omitempty"`
	IsTextOnly    bool          `json:"isTextOnly,omitempty" yaml:"isTextOnly,omitempty"`
	MaxItems      int           `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Items         []Item        `json:"items" yaml:"items"`
	Subcategories []Subcategory `json:"subcategories,omitempty" yaml:"subcategories,omitempty"`
}

// Synthetic reports whether the category stands for a synthetic lens
// (daily random or raw notes) rather than a browsable node.
func (c Category) Synthetic() bool {
	return c.IsRandom || c.IsTextOnly
}

// Subcategory is a node nested under a category
type Subcategory struct {
	ID         string     `json:"id" yaml:"id"`
	Name       string     `json:"name" yaml:"name"`
	Icon       string     `json:"icon,omitempty" yaml:"icon,omitempty"`
	MaxItems   int        `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Items      []Item     `json:"items" yaml:"items"`
	Subclasses []Subclass `json:"subclasses,omitempty" yaml:"subclasses,omitempty"`
}

// Subclass is the deepest node of the tree
type Subclass struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	Icon     string `json:"icon,omitempty" yaml:"icon,omitempty"`
	MaxItems int    `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	Items    []Item `json:"items" yaml:"items"`
}

// ResolvedItem is an item after overlay edits have been applied, tagged with
// where it was found.
type ResolvedItem struct {
	Item
	Location string `json:"location"`
	Source   string `json:"source"`
}

// Record is what a renderer receives for one selected item
type Record struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	URL      string `json:"url"`
	Source   string `json:"source,omitempty"`
	Pinned   bool   `json:"pinned"`
	Favorite bool   `json:"favorite"`
}
