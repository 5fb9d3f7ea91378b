package selection_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/selection"
)

func items(ids ...int) []domain.ResolvedItem {
	out := make([]domain.ResolvedItem, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.ResolvedItem{Item: domain.Item{ID: id, Name: "n", URL: "u"}})
	}
	return out
}

func pinSet(ids ...int) func(int) bool {
	set := map[int]bool{}
	for _, id := range ids {
		set[id] = true
	}
	return func(id int) bool { return set[id] }
}

func selectedIDs(r selection.Result) []int {
	out := make([]int, 0, len(r.Items))
	for _, it := range r.Items {
		out = append(out, it.ID)
	}
	return out
}

// reverse is a deterministic permuter
func reverse(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func TestQuotaOfOneFromTwo(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := selection.Select(items(1, 2), nil, selection.Options{Quota: 1})
		require.Len(t, r.Items, 1)
		assert.Contains(t, []int{1, 2}, r.Items[0].ID)
		assert.Equal(t, 2, r.Available)
	}
}

func TestPinnedAreNeverTruncated(t *testing.T) {
	for i := 0; i < 50; i++ {
		r := selection.Select(items(1, 2), pinSet(2), selection.Options{Quota: 1})
		require.Len(t, r.Items, 2)
		assert.Equal(t, 2, r.Items[0].ID)
		assert.True(t, r.Items[0].Pinned)
		assert.False(t, r.Items[1].Pinned)
	}
}

func TestBaselinePinFlag(t *testing.T) {
	in := items(1, 2, 3)
	in[2].Item.Pinned = true
	r := selection.Select(in, nil, selection.Options{Quota: 0})
	assert.Equal(t, []int{3}, selectedIDs(r))
	assert.True(t, r.Items[0].Pinned)
}

func TestPinnedKeepResolutionOrderAndPrecedeOthers(t *testing.T) {
	r := selection.Select(items(5, 4, 3, 2, 1), pinSet(1, 4), selection.Options{Quota: 10, Permute: reverse})
	assert.Equal(t, []int{4, 1, 2, 3, 5}, selectedIDs(r))

	seenUnpinned := false
	for _, it := range r.Items {
		if !it.Pinned {
			seenUnpinned = true
			continue
		}
		assert.False(t, seenUnpinned, "pinned item after an unpinned one")
	}
}

func TestShowAllKeepsEveryUnpinned(t *testing.T) {
	r := selection.Select(items(1, 2, 3, 4), pinSet(1), selection.Options{Quota: 1, ShowAll: true})
	assert.Len(t, r.Items, 4)
	assert.Equal(t, 3, r.Available)
	assert.Equal(t, 1, r.Pinned)
}

func TestZeroAndNegativeQuota(t *testing.T) {
	r := selection.Select(items(1, 2), pinSet(2), selection.Options{Quota: 0})
	assert.Equal(t, []int{2}, selectedIDs(r))

	r = selection.Select(items(1, 2), nil, selection.Options{Quota: -3})
	assert.Empty(t, r.Items)
}

func TestEmptyInput(t *testing.T) {
	r := selection.Select(nil, nil, selection.Options{Quota: 5})
	assert.Empty(t, r.Items)
	assert.NotNil(t, r.Items)
}

func TestDeterministicPermuterSubstitutesShuffle(t *testing.T) {
	r := selection.Select(items(1, 2, 3), nil, selection.Options{Quota: 2, Permute: selection.Identity})
	assert.Equal(t, []int{1, 2}, selectedIDs(r))
	r = selection.Select(items(1, 2, 3), nil, selection.Options{Quota: 2, Permute: reverse})
	assert.Equal(t, []int{3, 2}, selectedIDs(r))
}

func TestShuffleKeepsTheSet(t *testing.T) {
	r := selection.Select(items(1, 2, 3, 4, 5, 6), nil, selection.Options{ShowAll: true})
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, selectedIDs(r))
}

func TestQuotasFor(t *testing.T) {
	q := selection.Quotas{Category: 1, Subcategory: 2, Subclass: 3, Random: 4, Favorites: 5}
	assert.Equal(t, 1, q.For(domain.LensCategory))
	assert.Equal(t, 2, q.For(domain.LensSubcategory))
	assert.Equal(t, 3, q.For(domain.LensSubclass))
	assert.Equal(t, 4, q.For(domain.LensDailyRandom))
	assert.Equal(t, 5, q.For(domain.LensFavorites))
	assert.Equal(t, 0, q.For(domain.LensRawNotes))
}
