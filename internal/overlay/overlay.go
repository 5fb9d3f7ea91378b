package overlay

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pbaille/superlinks/internal/domain"
)

// ErrInvalidItem is returned when an item cannot be recorded in the overlay.
var ErrInvalidItem = errors.New("invalid item")

// Record is one item copy kept under a location: either a user-created item
// (negative id) or a replacement for a baseline item (positive id).
type Record struct {
	domain.Item
	Source    string    `json:"source,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UnmarshalJSON decodes the item and the record metadata separately, since
// the embedded item's own decoder would otherwise swallow the whole object.
func (r *Record) UnmarshalJSON(data []byte) error {
	var item domain.Item
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	var meta struct {
		Source    string    `json:"source"`
		UpdatedAt time.Time `json:"updatedAt"`
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return err
	}
	*r = Record{Item: item, Source: meta.Source, UpdatedAt: meta.UpdatedAt}
	return nil
}

// Parts is the persisted form of an overlay, one field per slot.
type Parts struct {
	Pins      []int
	Favorites []int
	Deletions []int
	Edits     map[string][]Record
	Filter    *domain.Filter
}

// Overlay holds the user's annotations over the baseline. It is a value:
// every mutating method returns a new Overlay and leaves the receiver intact.
type Overlay struct {
	pins      idSet
	favorites idSet
	deletions idSet
	edits     map[string][]Record
	filter    *domain.Filter
}

// New builds an overlay from its persisted parts.
func New(p Parts) Overlay {
	o := Overlay{
		pins:      newIDSet(p.Pins),
		favorites: newIDSet(p.Favorites),
		deletions: newIDSet(p.Deletions),
		edits:     make(map[string][]Record, len(p.Edits)),
		filter:    p.Filter.Clone(),
	}
	for key, recs := range p.Edits {
		if len(recs) == 0 {
			continue
		}
		o.edits[key] = append([]Record(nil), recs...)
	}
	return o
}

// Parts returns the persisted form of the overlay.
func (o Overlay) Parts() Parts {
	return Parts{
		Pins:      o.pins.sorted(),
		Favorites: o.favorites.sorted(),
		Deletions: o.deletions.sorted(),
		Edits:     o.AllEdits(),
		Filter:    o.filter.Clone(),
	}
}

// IsPinned reports whether id is in the pin set.
func (o Overlay) IsPinned(id int) bool { return o.pins.has(id) }

// IsFavorite reports whether id is in the favorite set.
func (o Overlay) IsFavorite(id int) bool { return o.favorites.has(id) }

// IsDeleted reports whether id carries a tombstone.
func (o Overlay) IsDeleted(id int) bool { return o.deletions.has(id) }

// Pins returns the pinned ids in ascending order.
func (o Overlay) Pins() []int { return o.pins.sorted() }

// Favorites returns the favorite ids in ascending order.
func (o Overlay) Favorites() []int { return o.favorites.sorted() }

// Deletions returns the tombstoned ids in ascending order.
func (o Overlay) Deletions() []int { return o.deletions.sorted() }

// Filter returns a copy of the cross-tree filter (nil means include all).
func (o Overlay) Filter() *domain.Filter { return o.filter.Clone() }

// Edits returns a copy of the records kept under a location key.
func (o Overlay) Edits(key string) []Record {
	return append([]Record(nil), o.edits[key]...)
}

// AllEdits returns a copy of the whole edit map.
func (o Overlay) AllEdits() map[string][]Record {
	out := make(map[string][]Record, len(o.edits))
	for key, recs := range o.edits {
		out[key] = append([]Record(nil), recs...)
	}
	return out
}

// Locations returns the location keys that carry records, sorted.
func (o Overlay) Locations() []string {
	keys := make([]string, 0, len(o.edits))
	for key := range o.edits {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Pin adds id to the pin set.
func (o Overlay) Pin(id int) Overlay {
	o.pins = o.pins.with(id)
	return o
}

// Unpin removes id from the pin set.
func (o Overlay) Unpin(id int) Overlay {
	o.pins = o.pins.without(id)
	return o
}

// Favorite adds id to the favorite set.
func (o Overlay) Favorite(id int) Overlay {
	o.favorites = o.favorites.with(id)
	return o
}

// Unfavorite removes id from the favorite set.
func (o Overlay) Unfavorite(id int) Overlay {
	o.favorites = o.favorites.without(id)
	return o
}

// Delete tombstones id everywhere.
func (o Overlay) Delete(id int) Overlay {
	o.deletions = o.deletions.with(id)
	return o
}

// Restore lifts a tombstone.
func (o Overlay) Restore(id int) Overlay {
	o.deletions = o.deletions.without(id)
	return o
}

// SetFilter replaces the cross-tree filter. The "{}" filter is
// stored as nil.
func (o Overlay) SetFilter(f *domain.Filter) Overlay {
	if f.IsEmpty() {
		o.filter = nil
	} else {
		o.filter = f.Clone()
	}
	return o
}

// NextUserID returns the id the next user-created item receives.
func (o Overlay) NextUserID() int {
	lowest := 0
	for _, recs := range o.edits {
		for _, r := range recs {
			if r.ID < lowest {
				lowest = r.ID
			}
		}
	}
	return lowest - 1
}

// Add records a brand-new item under loc and returns it with its minted id.
func (o Overlay) Add(loc domain.Location, item domain.Item, source string, at time.Time) (Overlay, domain.Item, error) {
	item.ID = o.NextUserID()
	next, err := o.Put(loc, item, source, at)
	if err != nil {
		return o, domain.Item{}, err
	}
	return next, item, nil
}

// Put records item under loc, replacing any record with the same id at that
// location. It is how baseline items get edited and additions get amended.
func (o Overlay) Put(loc domain.Location, item domain.Item, source string, at time.Time) (Overlay, error) {
	if loc.Depth() == 0 {
		return o, fmt.Errorf("%w: empty location", ErrInvalidItem)
	}
	if item.ID == 0 {
		return o, fmt.Errorf("%w: id 0 is not assignable", ErrInvalidItem)
	}
	if strings.TrimSpace(item.URL) == "" {
		return o, fmt.Errorf("%w: url is required", ErrInvalidItem)
	}
	key := loc.String()
	rec := Record{Item: item, Source: source, UpdatedAt: at.UTC()}

	recs := append([]Record(nil), o.edits[key]...)
	replaced := false
	for i := range recs {
		if recs[i].ID == item.ID {
			recs[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		recs = append(recs, rec)
	}
	o.edits = o.copyEdits()
	o.edits[key] = recs
	return o, nil
}

// Reorder moves the records at loc into the order given by ids. Ids not
// recorded at loc are ignored and unlisted records keep their relative order
// after the listed ones.
func (o Overlay) Reorder(loc domain.Location, ids []int) Overlay {
	key := loc.String()
	current := o.edits[key]
	if len(current) == 0 {
		return o
	}
	byID := make(map[int]Record, len(current))
	for _, r := range current {
		byID[r.ID] = r
	}
	recs := make([]Record, 0, len(current))
	placed := make(map[int]bool, len(ids))
	for _, id := range ids {
		r, ok := byID[id]
		if !ok || placed[id] {
			continue
		}
		recs = append(recs, r)
		placed[id] = true
	}
	for _, r := range current {
		if !placed[r.ID] {
			recs = append(recs, r)
		}
	}
	o.edits = o.copyEdits()
	o.edits[key] = recs
	return o
}

func (o Overlay) copyEdits() map[string][]Record {
	out := make(map[string][]Record, len(o.edits)+1)
	for key, recs := range o.edits {
		out[key] = recs
	}
	return out
}
