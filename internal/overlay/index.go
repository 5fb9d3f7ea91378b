package overlay

// Canonical is the winning record for one id together with the location key
// it was recorded under.
type Canonical struct {
	Record
	Location string `json:"location"`
	// Position is the record's index in its location's list.
	Position int `json:"position"`
}

// Index maps every recorded id to its canonical record.
type Index map[int]Canonical

// Index resolves, for every id present in the edit map, the record that
// wins: the latest UpdatedAt, ties going to the lexically greatest location
// key. Build it once per resolution pass.
func (o Overlay) Index() Index {
	idx := make(Index)
	for _, key := range o.Locations() {
		for pos, r := range o.edits[key] {
			cur, ok := idx[r.ID]
			if ok && cur.UpdatedAt.After(r.UpdatedAt) {
				continue
			}
			if ok && cur.UpdatedAt.Equal(r.UpdatedAt) && cur.Location > key {
				continue
			}
			idx[r.ID] = Canonical{Record: r, Location: key, Position: pos}
		}
	}
	return idx
}

// Lookup returns the canonical record for id.
func (idx Index) Lookup(id int) (Canonical, bool) {
	c, ok := idx[id]
	return c, ok
}
