package merge_test

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/merge"
	"github.com/pbaille/superlinks/internal/overlay"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleTree() domain.Tree {
	return domain.Tree{Categories: []domain.Category{
		{ID: "daily-random", Name: "Daily", IsRandom: true, Items: []domain.Item{{ID: 90, Name: "never", URL: "u90"}}},
		{
			ID: "tech", Name: "Tech",
			Items: []domain.Item{{ID: 1, Name: "A", URL: "u1"}, {ID: 2, Name: "B", URL: "u2"}},
			Subcategories: []domain.Subcategory{
				{
					ID: "reviews", Name: "Reviews",
					Items: []domain.Item{{ID: 3, Name: "C", URL: "u3"}},
					Subclasses: []domain.Subclass{
						{ID: "phones", Name: "Phones", Items: []domain.Item{{ID: 4, Name: "D", URL: "u4"}}},
					},
				},
				{ID: "news", Name: "News", Items: []domain.Item{{ID: 5, Name: "E", URL: "u5"}}},
			},
		},
		{ID: "music", Name: "Music", Items: []domain.Item{{ID: 6, Name: "F", URL: "u6"}}},
		{ID: "raw-films", Name: "Raw", IsTextOnly: true, Items: []domain.Item{{ID: 91, Name: "never", URL: "u91"}}},
	}}
}

func ids(items []domain.ResolvedItem) []int {
	out := make([]int, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func put(t *testing.T, o overlay.Overlay, key string, item domain.Item, at time.Time) overlay.Overlay {
	t.Helper()
	loc, err := domain.ParseLocation(key)
	require.NoError(t, err)
	o, err = o.Put(loc, item, "", at)
	require.NoError(t, err)
	return o
}

func TestCategoryScopeIsExactNode(t *testing.T) {
	got := merge.Resolve(sampleTree(), overlay.Overlay{}, domain.CategoryScope{CategoryID: "tech"})
	assert.Equal(t, []int{1, 2}, ids(got))
	assert.Equal(t, "Tech", got[0].Source)
	assert.Equal(t, "tech", got[0].Location)
}

func TestSubcategoryScopeFlattensSubclasses(t *testing.T) {
	got := merge.Resolve(sampleTree(), overlay.Overlay{}, domain.SubcategoryScope{CategoryID: "tech", SubcategoryID: "reviews"})
	assert.Equal(t, []int{3, 4}, ids(got))
	assert.Equal(t, "Tech – Reviews – Phones", got[1].Source)
}

func TestSubclassScope(t *testing.T) {
	got := merge.Resolve(sampleTree(), overlay.Overlay{}, domain.SubclassScope{CategoryID: "tech", SubcategoryID: "reviews", SubclassID: "phones"})
	assert.Equal(t, []int{4}, ids(got))
}

func TestUnknownScopeIsEmpty(t *testing.T) {
	assert.Empty(t, merge.Resolve(sampleTree(), overlay.Overlay{}, domain.CategoryScope{CategoryID: "nope"}))
	assert.Empty(t, merge.Resolve(domain.Tree{}, overlay.Overlay{}, domain.CrossTreeScope{}))
}

func TestScopedEditsAndAdditions(t *testing.T) {
	o := put(t, overlay.Overlay{}, "tech", domain.Item{ID: 2, Name: "B-renamed", URL: "u2b", Note: "n"}, t0)
	o, added, err := o.Add(domain.Location{Category: "tech"}, domain.Item{Name: "new", URL: "u-new"}, "", t0)
	require.NoError(t, err)

	got := merge.Resolve(sampleTree(), o, domain.CategoryScope{CategoryID: "tech"})
	require.Equal(t, []int{1, 2, added.ID}, ids(got))
	assert.Equal(t, "B-renamed", got[1].Name)
	assert.Equal(t, "u2b", got[1].URL)
	assert.Equal(t, "n", got[1].Note)
	assert.Equal(t, "Tech", got[2].Source)
}

func TestEditFollowsIDAcrossLocations(t *testing.T) {
	// Recorded under a subclass, the edit still rewrites the category-level occurrence.
	o := put(t, overlay.Overlay{}, "tech:reviews:phones", domain.Item{ID: 1, Name: "A2", URL: "u1"}, t0)

	got := merge.Resolve(sampleTree(), o, domain.CategoryScope{CategoryID: "tech"})
	assert.Equal(t, "A2", got[0].Name)

	phones := merge.Resolve(sampleTree(), o, domain.SubclassScope{CategoryID: "tech", SubcategoryID: "reviews", SubclassID: "phones"})
	assert.Equal(t, []int{4, 1}, ids(phones), "a baseline item copied to another node also surfaces there")
}

func TestDeletionsHideEverywhere(t *testing.T) {
	o := overlay.Overlay{}.Delete(4)
	o = put(t, o, "tech:reviews", domain.Item{ID: 4, Name: "D2", URL: "u4"}, t0)

	scopes := []domain.Scope{
		domain.SubcategoryScope{CategoryID: "tech", SubcategoryID: "reviews"},
		domain.SubclassScope{CategoryID: "tech", SubcategoryID: "reviews", SubclassID: "phones"},
		domain.CrossTreeScope{Kind: domain.CrossTreeRandom},
		domain.CrossTreeScope{Kind: domain.CrossTreeFavorites},
	}
	o = o.Favorite(4)
	for _, s := range scopes {
		assert.NotContains(t, ids(merge.Resolve(sampleTree(), o, s)), 4)
	}
}

func TestDeletedAdditionIsHidden(t *testing.T) {
	o, added, err := overlay.Overlay{}.Add(domain.Location{Category: "music"}, domain.Item{Name: "x", URL: "ux"}, "", t0)
	require.NoError(t, err)
	o = o.Delete(added.ID)
	assert.Equal(t, []int{6}, ids(merge.Resolve(sampleTree(), o, domain.CategoryScope{CategoryID: "music"})))
}

func TestCrossTreeSkipsSyntheticCategories(t *testing.T) {
	got := merge.Resolve(sampleTree(), overlay.Overlay{}, domain.CrossTreeScope{Kind: domain.CrossTreeRandom})
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, ids(got))
}

func TestCrossTreeDeleteAndRename(t *testing.T) {
	tree := domain.Tree{Categories: []domain.Category{
		{ID: "tech", Name: "Tech", Items: []domain.Item{{ID: 1, Name: "A", URL: "u1"}, {ID: 2, Name: "B", URL: "u2"}}},
		{ID: "music", Name: "Music", Items: []domain.Item{{ID: 3, Name: "C", URL: "u3"}}},
	}}
	o := overlay.Overlay{}.Delete(1).SetFilter(&domain.Filter{Categories: []string{"tech"}})
	o = put(t, o, "tech", domain.Item{ID: 2, Name: "B-renamed", URL: "u2"}, t0)

	got := merge.Resolve(tree, o, domain.CrossTreeScope{Kind: domain.CrossTreeRandom})
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].ID)
	assert.Equal(t, "B-renamed", got[0].Name)
}

func TestCrossTreeHonorsExclusions(t *testing.T) {
	o := overlay.Overlay{}.SetFilter(&domain.Filter{
		Categories:            []string{"tech"},
		ExcludedSubcategories: []string{"tech:reviews"},
	})
	got := merge.Resolve(sampleTree(), o, domain.CrossTreeScope{Kind: domain.CrossTreeRandom})
	assert.ElementsMatch(t, []int{1, 2, 5}, ids(got))

	o = o.SetFilter(&domain.Filter{
		Categories:            []string{"tech"},
		ExcludedSubcategories: []string{"tech:reviews"},
		Subclasses:            []string{"tech:reviews:phones"},
	})
	got = merge.Resolve(sampleTree(), o, domain.CrossTreeScope{Kind: domain.CrossTreeRandom})
	assert.ElementsMatch(t, []int{1, 2, 4, 5}, ids(got))
}

func TestCrossTreeEditFromAnyLocation(t *testing.T) {
	o := put(t, overlay.Overlay{}, "music", domain.Item{ID: 3, Name: "C-edited", URL: "u3"}, t0)
	for _, it := range merge.Resolve(sampleTree(), o, domain.CrossTreeScope{Kind: domain.CrossTreeRandom}) {
		if it.ID == 3 {
			assert.Equal(t, "C-edited", it.Name)
			assert.Equal(t, "Tech – Reviews", it.Source, "baseline occurrence keeps its path label")
		}
	}
}

func TestCrossTreeAdditionSources(t *testing.T) {
	o := overlay.Overlay{}
	o, withSource, err := o.Add(domain.Location{Category: "music"}, domain.Item{Name: "s", URL: "us"}, "Imported", t0)
	require.NoError(t, err)
	o, byPath, err := o.Add(domain.Location{Category: "tech", Subcategory: "news"}, domain.Item{Name: "p", URL: "up"}, "", t0)
	require.NoError(t, err)
	o, unknown, err := o.Add(domain.Location{Category: "gone"}, domain.Item{Name: "g", URL: "ug"}, "", t0)
	require.NoError(t, err)

	sources := map[int]string{}
	for _, it := range merge.Resolve(sampleTree(), o, domain.CrossTreeScope{Kind: domain.CrossTreeRandom}) {
		sources[it.ID] = it.Source
	}
	assert.Equal(t, "Imported", sources[withSource.ID])
	assert.Equal(t, "Tech – News", sources[byPath.ID])
	assert.Equal(t, domain.UnknownSource, sources[unknown.ID])
}

func TestDanglingEditNeverSurfaces(t *testing.T) {
	o := put(t, overlay.Overlay{}, "tech", domain.Item{ID: 777, Name: "ghost", URL: "ug"}, t0).Pin(888)
	assert.NotContains(t, ids(merge.Resolve(sampleTree(), o, domain.CategoryScope{CategoryID: "tech"})), 777)
	assert.NotContains(t, ids(merge.Resolve(sampleTree(), o, domain.CrossTreeScope{})), 777)
}

func TestFavoritesScope(t *testing.T) {
	o := overlay.Overlay{}.Favorite(2).Favorite(6).Favorite(90)
	got := merge.Resolve(sampleTree(), o, domain.CrossTreeScope{Kind: domain.CrossTreeFavorites})
	assert.ElementsMatch(t, []int{2, 6}, ids(got))
}

func TestLatestRecordWinsAcrossLocations(t *testing.T) {
	o := put(t, overlay.Overlay{}, "tech", domain.Item{ID: 5, Name: "first", URL: "u5"}, t0)
	o = put(t, o, "music", domain.Item{ID: 5, Name: "second", URL: "u5"}, t0.Add(time.Hour))

	got := merge.Resolve(sampleTree(), o, domain.SubcategoryScope{CategoryID: "tech", SubcategoryID: "news"})
	require.Len(t, got, 1)
	assert.Equal(t, "second", got[0].Name)
}

func TestResolveIsStable(t *testing.T) {
	o := overlay.Overlay{}.Pin(1).Delete(3)
	first := merge.Resolve(sampleTree(), o, domain.CrossTreeScope{})
	second := merge.Resolve(sampleTree(), o, domain.CrossTreeScope{})
	assert.Equal(t, ids(first), ids(second))
}

func TestExport(t *testing.T) {
	tree := sampleTree()
	o := overlay.Overlay{}.Delete(1).Pin(2)
	o = put(t, o, "tech:reviews", domain.Item{ID: 3, Name: "C2", URL: "u3b", Note: "note"}, t0)
	o, a1, err := o.Add(domain.Location{Category: "music"}, domain.Item{Name: "M", URL: "um"}, "", t0)
	require.NoError(t, err)
	o, a2, err := o.Add(domain.Location{Category: "tech", Subcategory: "reviews", Subclass: "phones"}, domain.Item{Name: "P", URL: "up"}, "", t0)
	require.NoError(t, err)
	o, orphan, err := o.Add(domain.Location{Category: "gone"}, domain.Item{Name: "G", URL: "ug"}, "", t0)
	require.NoError(t, err)

	out, report := merge.Export(tree, o, "rev-1")

	assert.Equal(t, "rev-1", out.Revision)
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 1, report.Edited)
	assert.Equal(t, map[int]int{a1.ID: 92, a2.ID: 93}, report.Added, "minted in location key order")
	require.Len(t, report.Orphans, 1)
	assert.Equal(t, orphan.ID, report.Orphans[0].ID)

	tech, _ := out.Category("tech")
	assert.Equal(t, []domain.Item{{ID: 2, Name: "B", URL: "u2"}}, tech.Items)
	reviews, _ := out.Subcategory("tech", "reviews")
	assert.Equal(t, domain.Item{ID: 3, Name: "C2", URL: "u3b", Note: "note"}, reviews.Items[0])
	phones, _ := out.Subclass("tech", "reviews", "phones")
	assert.Equal(t, []domain.Item{{ID: 4, Name: "D", URL: "u4"}, {ID: 93, Name: "P", URL: "up"}}, phones.Items)

	if diff := cmp.Diff(sampleTree(), tree); diff != "" {
		t.Fatalf("export mutated its input (-want +got):\n%s", diff)
	}
}

func TestExportThenResolveMatches(t *testing.T) {
	o := overlay.Overlay{}.Delete(5)
	o = put(t, o, "tech", domain.Item{ID: 1, Name: "A2", URL: "u1"}, t0)
	exported, _ := merge.Export(sampleTree(), o, "r")

	want := merge.Resolve(sampleTree(), o, domain.CrossTreeScope{})
	got := merge.Resolve(exported, overlay.Overlay{}, domain.CrossTreeScope{})
	assert.Equal(t, ids(want), ids(got))
	for i := range want {
		assert.Equal(t, want[i].Name, got[i].Name)
	}
}
