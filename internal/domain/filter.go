package domain

// Filter selects which parts of the tree feed the cross-tree lenses. A nil
// *Filter, or one with every list nil, includes everything. A nil list means
// the dimension is absent; an empty non-nil list is present and empty.
type Filter struct {
	Categories            []string `json:"categories" yaml:"categories"`
	Subcategories         []string `json:"subcategories" yaml:"subcategories"`
	Subclasses            []string `json:"subclasses" yaml:"subclasses"`
	ExcludedSubcategories []string `json:"excludedSubcategories" yaml:"excludedSubcategories"`
	ExcludedSubclasses    []string `json:"excludedSubclasses" yaml:"excludedSubclasses"`
}

// IsEmpty reports whether the filter is the degenerate "{}" filter.
func (f *Filter) IsEmpty() bool {
	return f == nil || (f.Categories == nil &&
		f.Subcategories == nil &&
		f.Subclasses == nil &&
		f.ExcludedSubcategories == nil &&
		f.ExcludedSubclasses == nil)
}

// Clone returns a deep copy, preserving nil versus empty lists.
func (f *Filter) Clone() *Filter {
	if f == nil {
		return nil
	}
	return &Filter{
		Categories:            cloneStrings(f.Categories),
		Subcategories:         cloneStrings(f.Subcategories),
		Subclasses:            cloneStrings(f.Subclasses),
		ExcludedSubcategories: cloneStrings(f.ExcludedSubcategories),
		ExcludedSubclasses:    cloneStrings(f.ExcludedSubclasses),
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
