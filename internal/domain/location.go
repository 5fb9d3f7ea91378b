package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Delimiter separates node ids in a location key
const Delimiter = ":"

// ErrInvalidLocation is returned for keys that do not address a tree node.
var ErrInvalidLocation = errors.New("invalid location")

// Location addresses a category, a subcategory or a subclass. Its String form
// is the join key between the tree and the overlay; equality is by key.
type Location struct {
	Category    string
	Subcategory string
	Subclass    string
}

// String returns the composite key, e.g. "tech:reviews:phones".
func (l Location) String() string {
	switch {
	case l.Subclass != "":
		return l.Category + Delimiter + l.Subcategory + Delimiter + l.Subclass
	case l.Subcategory != "":
		return l.Category + Delimiter + l.Subcategory
	default:
		return l.Category
	}
}

// Depth is 1 for a category, 2 for a subcategory and 3 for a subclass.
func (l Location) Depth() int {
	switch {
	case l.Subclass != "":
		return 3
	case l.Subcategory != "":
		return 2
	case l.Category != "":
		return 1
	default:
		return 0
	}
}

// Parent returns the enclosing location; a category is its own parent.
func (l Location) Parent() Location {
	switch l.Depth() {
	case 3:
		return Location{Category: l.Category, Subcategory: l.Subcategory}
	default:
		return Location{Category: l.Category}
	}
}

// Contains reports whether other is l or lies beneath it.
func (l Location) Contains(other Location) bool {
	if l.Category != other.Category {
		return false
	}
	if l.Subcategory != "" && l.Subcategory != other.Subcategory {
		return false
	}
	if l.Subclass != "" && l.Subclass != other.Subclass {
		return false
	}
	return true
}

// ParseLocation parses a composite key.
func ParseLocation(key string) (Location, error) {
	parts := strings.Split(key, Delimiter)
	if len(parts) > 3 {
		return Location{}, fmt.Errorf("%w: %q has more than three segments", ErrInvalidLocation, key)
	}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return Location{}, fmt.Errorf("%w: %q has an empty segment", ErrInvalidLocation, key)
		}
	}
	loc := Location{Category: parts[0]}
	if len(parts) > 1 {
		loc.Subcategory = parts[1]
	}
	if len(parts) > 2 {
		loc.Subclass = parts[2]
	}
	return loc, nil
}

// ValidNodeID reports whether id can be embedded in a location key.
func ValidNodeID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.Contains(id, Delimiter)
}
