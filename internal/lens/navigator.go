package lens

// Navigator tracks the selected lens and one show-all toggle per lens.
// Selecting a lens resets every other lens's toggle.
type Navigator struct {
	current  Lens
	selected bool
	showAll  map[string]bool
}

// Select makes l current. Its own show-all toggle survives; all others reset.
func (n *Navigator) Select(l Lens) {
	key := l.Key()
	keepAll := n.showAll[key]
	n.showAll = map[string]bool{}
	if keepAll {
		n.showAll[key] = true
	}
	n.current = l
	n.selected = true
}

// Current returns the selected lens.
func (n *Navigator) Current() (Lens, bool) {
	return n.current, n.selected
}

// ShowAll reports the toggle for l.
func (n *Navigator) ShowAll(l Lens) bool {
	return n.showAll[l.Key()]
}

// SetShowAll sets the toggle of the current lens.
func (n *Navigator) SetShowAll(on bool) {
	if !n.selected {
		return
	}
	if n.showAll == nil {
		n.showAll = map[string]bool{}
	}
	if on {
		n.showAll[n.current.Key()] = true
	} else {
		delete(n.showAll, n.current.Key())
	}
}

// ToggleShowAll flips the toggle of the current lens and returns its new value.
func (n *Navigator) ToggleShowAll() bool {
	on := !n.ShowAll(n.current)
	n.SetShowAll(on)
	return on && n.selected
}
