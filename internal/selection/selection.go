// Package selection turns a resolved item list into the bounded list a lens
// shows: pinned items first in resolution order, then a shuffled sample of
// the rest capped by the lens quota.
package selection

import (
	"math/rand"

	"github.com/pbaille/superlinks/internal/domain"
)

// Permuter reorders n elements through swap, with the rand.Shuffle contract.
type Permuter func(n int, swap func(i, j int))

// Shuffle is the default Permuter: a fresh uniform Fisher–Yates permutation
// on every call.
func Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// Identity leaves the order untouched.
func Identity(int, func(i, j int)) {}

// Options control one selection pass
type Options struct {
	Quota   int
	ShowAll bool
	// Permute defaults to Shuffle.
	Permute Permuter
}

// Selected is an item with its effective pin state
type Selected struct {
	domain.ResolvedItem
	Pinned bool
}

// Result is the outcome of a selection pass
type Result struct {
	Items []Selected
	// Available is the number of unpinned items before the quota applied.
	Available int
	Pinned    int
}

// Select partitions items by isPinned (or the baseline pin flag), shuffles
// the unpinned part and truncates it to the quota unless ShowAll is set.
func Select(items []domain.ResolvedItem, isPinned func(id int) bool, opts Options) Result {
	permute := opts.Permute
	if permute == nil {
		permute = Shuffle
	}

	var pinned, unpinned []Selected
	for _, it := range items {
		if it.Item.Pinned || (isPinned != nil && isPinned(it.ID)) {
			pinned = append(pinned, Selected{ResolvedItem: it, Pinned: true})
			continue
		}
		unpinned = append(unpinned, Selected{ResolvedItem: it})
	}

	permute(len(unpinned), func(i, j int) {
		unpinned[i], unpinned[j] = unpinned[j], unpinned[i]
	})

	available := len(unpinned)
	if !opts.ShowAll {
		quota := opts.Quota
		if quota < 0 {
			quota = 0
		}
		if len(unpinned) > quota {
			unpinned = unpinned[:quota]
		}
	}

	out := make([]Selected, 0, len(pinned)+len(unpinned))
	out = append(out, pinned...)
	out = append(out, unpinned...)
	return Result{Items: out, Available: available, Pinned: len(pinned)}
}
