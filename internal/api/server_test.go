package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/lens"
	"github.com/pbaille/superlinks/internal/selection"
	"github.com/pbaille/superlinks/internal/session"
	"github.com/pbaille/superlinks/internal/store"
)

type fixedTree domain.Tree

func (f fixedTree) Tree(context.Context) domain.Tree   { return domain.Tree(f) }
func (f fixedTree) Reload(context.Context) domain.Tree { return domain.Tree(f) }

func testTree() domain.Tree {
	return domain.Tree{Categories: []domain.Category{
		{ID: "daily-random", Name: "Daily", Icon: "🎲", IsRandom: true, Items: []domain.Item{}},
		{ID: "tech", Name: "Tech", Items: []domain.Item{
			{ID: 1, Name: "A", URL: "https://a"},
			{ID: 2, Name: "B", URL: "https://b"},
		}, Subcategories: []domain.Subcategory{
			{ID: "reviews", Name: "Reviews", Items: []domain.Item{{ID: 3, Name: "C", URL: "https://c"}}},
		}},
		{ID: "raw", Name: "Raw", IsTextOnly: true, Items: []domain.Item{}},
	}}
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "overlay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	sess, err := session.Open(context.Background(), session.Options{
		Catalog: fixedTree(testTree()),
		Store:   st,
		Quotas:  selection.Quotas{Category: 1, Subcategory: 5, Subclass: 5, Random: 5, Favorites: 5},
		Permute: selection.Identity,
		Now:     func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
	require.NoError(t, err)

	srv := httptest.NewServer(New(sess, "", []string{"http://localhost:3000"}, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func viewIDs(v lens.View) []int {
	out := make([]int, 0, len(v.Items))
	for _, r := range v.Items {
		out = append(out, r.ID)
	}
	return out
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp := do(t, srv, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestViewLensHonorsQuotaAndAll(t *testing.T) {
	srv := newTestServer(t)

	v := decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/tech", nil))
	assert.Equal(t, []int{1}, viewIDs(v))
	assert.Equal(t, 2, v.Available)

	v = decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/tech?all=true", nil))
	assert.Equal(t, []int{1, 2}, viewIDs(v))
	assert.True(t, v.ShowAll)

	resp := do(t, srv, http.MethodGet, "/lenses/a::b", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPinThenView(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPut, "/pins/2", nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	v := decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/tech", nil))
	assert.Equal(t, []int{2, 1}, viewIDs(v))
	assert.True(t, v.Items[0].Pinned)

	do(t, srv, http.MethodDelete, "/pins/2", nil)
	v = decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/tech", nil))
	assert.Equal(t, []int{1}, viewIDs(v))

	resp = do(t, srv, http.MethodPut, "/pins/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFavoritesAndDeletions(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPut, "/favorites/3", nil)
	do(t, srv, http.MethodPut, "/deletions/1", nil)

	v := decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/favorites", nil))
	assert.Equal(t, []int{3}, viewIDs(v))

	v = decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/random", nil))
	assert.Equal(t, []int{2, 3}, viewIDs(v))

	do(t, srv, http.MethodDelete, "/deletions/1", nil)
	v = decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/random", nil))
	assert.Equal(t, []int{1, 2, 3}, viewIDs(v))
}

func TestAddEditAndReorder(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/locations/tech:reviews/items", ItemRequest{Name: "N", URL: "https://n"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	first := decode[domain.Item](t, resp)
	assert.Equal(t, -1, first.ID)

	second := decode[domain.Item](t, do(t, srv, http.MethodPost, "/locations/tech:reviews/items", ItemRequest{Name: "M", URL: "https://m"}))
	assert.Equal(t, -2, second.ID)

	resp = do(t, srv, http.MethodPut, "/locations/tech:reviews/order", OrderRequest{IDs: []int{-2, -1}})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/locations/tech:reviews/items/3", ItemRequest{Name: "C2", URL: "https://c2"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	v := decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/tech:reviews", nil))
	assert.Equal(t, []int{3, -2, -1}, viewIDs(v))
	assert.Equal(t, "C2", v.Items[0].Name)
	assert.Equal(t, "Tech – Reviews", v.Items[1].Source)
}

func TestItemErrors(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodPost, "/locations/nope/items", ItemRequest{Name: "N", URL: "https://n"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPost, "/locations/tech/items", ItemRequest{Name: "N"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/locations/tech/items/42", ItemRequest{Name: "N", URL: "https://n"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, srv, http.MethodPut, "/locations/tech/items/1", ItemRequest{Name: "N"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFilterRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	f := decode[domain.Filter](t, do(t, srv, http.MethodGet, "/filter", nil))
	assert.True(t, f.IsEmpty())

	do(t, srv, http.MethodPut, "/filter", domain.Filter{Subcategories: []string{"tech:reviews"}, Categories: []string{}})
	f = decode[domain.Filter](t, do(t, srv, http.MethodGet, "/filter", nil))
	assert.Equal(t, []string{"tech:reviews"}, f.Subcategories)

	v := decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/random", nil))
	assert.Equal(t, []int{3}, viewIDs(v))

	resp := do(t, srv, http.MethodDelete, "/filter", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	v = decode[lens.View](t, do(t, srv, http.MethodGet, "/lenses/random", nil))
	assert.Len(t, v.Items, 3)
}

func TestSelectionFlow(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, srv, http.MethodGet, "/lenses/current", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	v := decode[lens.View](t, do(t, srv, http.MethodPost, "/lenses/tech/select", nil))
	assert.Len(t, v.Items, 1)

	v = decode[lens.View](t, do(t, srv, http.MethodPost, "/lenses/current/show-all", nil))
	assert.True(t, v.ShowAll)
	assert.Len(t, v.Items, 2)

	v = decode[lens.View](t, do(t, srv, http.MethodPost, "/lenses/current/refresh", nil))
	assert.True(t, v.ShowAll)
	assert.Equal(t, "tech", v.Key)

	v = decode[lens.View](t, do(t, srv, http.MethodPost, "/lenses/raw/select", nil))
	assert.Equal(t, "notes", v.Key)
	assert.True(t, v.TextOnly)
	assert.Empty(t, v.Items)
}

func TestListLenses(t *testing.T) {
	srv := newTestServer(t)
	entries := decode[[]lens.Entry](t, do(t, srv, http.MethodGet, "/lenses", nil))

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.Lens)
	}
	assert.Equal(t, []string{"random", "favorites", "notes", "tech", "tech:reviews"}, keys)
	assert.Equal(t, "Daily", entries[0].Title)
	assert.Equal(t, "🎲", entries[0].Icon)
	assert.Equal(t, 2, entries[4].Depth)
}

func TestExport(t *testing.T) {
	srv := newTestServer(t)
	do(t, srv, http.MethodPost, "/locations/tech/items", ItemRequest{Name: "N", URL: "https://n"})

	out := decode[ExportResponse](t, do(t, srv, http.MethodGet, "/export?revision=r7", nil))
	assert.Equal(t, "r7", out.Document.Revision)
	assert.Equal(t, map[int]int{-1: 4}, out.Report.Added)
	assert.Equal(t, 4, out.Document.CountItems())
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/pins/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
}
