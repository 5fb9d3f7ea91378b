// Package session holds one user's working state: the cached baseline tree,
// the overlay, and the lens navigator. Every overlay write is persisted
// before the new overlay replaces the old one, so a read that follows a
// successful write always observes it.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/lens"
	"github.com/pbaille/superlinks/internal/logging"
	"github.com/pbaille/superlinks/internal/merge"
	"github.com/pbaille/superlinks/internal/overlay"
	"github.com/pbaille/superlinks/internal/selection"
	"github.com/pbaille/superlinks/internal/store"
)

var (
	// ErrUnknownLocation is returned for locations absent from the tree.
	ErrUnknownLocation = errors.New("unknown location")
	// ErrUnknownItem is returned when an edit names an id that neither the
	// baseline nor an earlier addition carries.
	ErrUnknownItem = errors.New("unknown item")
)

// Persister stores overlay slots.
type Persister interface {
	LoadOverlay(ctx context.Context) (overlay.Overlay, []store.SlotError)
	SaveSlot(ctx context.Context, ov overlay.Overlay, slot store.Slot, action string) error
}

// TreeSource supplies the baseline tree.
type TreeSource interface {
	Tree(ctx context.Context) domain.Tree
	Reload(ctx context.Context) domain.Tree
}

// TitleFetcher looks up a page title for items added without a name.
type TitleFetcher interface {
	Title(ctx context.Context, rawURL string) (string, error)
}

// Options configure a session. Catalog and Store are required.
type Options struct {
	Catalog TreeSource
	Store   Persister
	Quotas  selection.Quotas
	Permute selection.Permuter
	Titles  TitleFetcher
	Logger  *zap.Logger
	Now     func() time.Time
}

// Session serializes all access to the tree, overlay and navigator.
type Session struct {
	mu      sync.Mutex
	catalog TreeSource
	store   Persister
	titles  TitleFetcher
	logger  *zap.Logger
	now     func() time.Time

	tree   domain.Tree
	ov     overlay.Overlay
	nav    lens.Navigator
	viewer lens.Viewer
}

// Open loads the tree and the overlay. Unreadable overlay slots are reset to
// their defaults and logged; they never fail the session.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Catalog == nil || opts.Store == nil {
		return nil, errors.New("open session: catalog and store are required")
	}
	s := &Session{
		catalog: opts.Catalog,
		store:   opts.Store,
		titles:  opts.Titles,
		logger:  logging.OrNop(opts.Logger),
		now:     opts.Now,
		viewer:  lens.Viewer{Quotas: opts.Quotas, Permute: opts.Permute},
	}
	if s.now == nil {
		s.now = time.Now
	}

	s.tree = s.catalog.Tree(ctx)
	ov, problems := s.store.LoadOverlay(ctx)
	for _, p := range problems {
		s.logger.Warn("overlay slot reset to default", zap.String("slot", string(p.Slot)), zap.Error(p.Err))
	}
	s.ov = ov
	s.logger.Debug("session opened",
		zap.Int("items", s.tree.CountItems()),
		zap.Int("pins", len(ov.Pins())),
		zap.Int("edited_locations", len(ov.Locations())))
	return s, nil
}

// Tree returns the cached baseline.
func (s *Session) Tree() domain.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Overlay returns the current overlay value.
func (s *Session) Overlay() overlay.Overlay {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ov
}

// ReplaceTree swaps the baseline, e.g. after the document changed on disk.
func (s *Session) ReplaceTree(tree domain.Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tree = tree
}

// Reload reads the document again through the catalog source.
func (s *Session) Reload(ctx context.Context) domain.Tree {
	tree := s.catalog.Reload(ctx)
	s.ReplaceTree(tree)
	s.logger.Info("catalog reloaded", zap.Int("items", tree.CountItems()))
	return tree
}

// Select makes l the current lens and renders it.
func (s *Session) Select(l lens.Lens) lens.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	l = lens.Normalize(s.tree, l)
	s.nav.Select(l)
	return s.viewer.Render(s.tree, s.ov, l, s.nav.ShowAll(l))
}

// Current returns the selected lens.
func (s *Session) Current() (lens.Lens, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nav.Current()
}

// Refresh re-runs the pipeline for the current lens: a new sample with pins
// kept in place.
func (s *Session) Refresh() (lens.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.nav.Current()
	if !ok {
		return lens.View{}, false
	}
	return s.viewer.Render(s.tree, s.ov, l, s.nav.ShowAll(l)), true
}

// ToggleShowAll flips show-all on the current lens and renders it.
func (s *Session) ToggleShowAll() (lens.View, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.nav.Current()
	if !ok {
		return lens.View{}, false
	}
	on := s.nav.ToggleShowAll()
	return s.viewer.Render(s.tree, s.ov, l, on), true
}

// View renders l without touching the navigator.
func (s *Session) View(l lens.Lens, showAll bool) lens.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewer.Render(s.tree, s.ov, l, showAll)
}

// Pin keeps id in its lens regardless of sampling.
func (s *Session) Pin(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotPins, fmt.Sprintf("pin %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Pin(id), nil
	})
}

// Unpin returns id to normal sampling.
func (s *Session) Unpin(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotPins, fmt.Sprintf("unpin %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Unpin(id), nil
	})
}

// Favorite adds id to the favorites lens.
func (s *Session) Favorite(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotFavorites, fmt.Sprintf("favorite %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Favorite(id), nil
	})
}

// Unfavorite removes id from the favorites lens.
func (s *Session) Unfavorite(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotFavorites, fmt.Sprintf("unfavorite %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Unfavorite(id), nil
	})
}

// Delete tombstones id until Restore.
func (s *Session) Delete(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotDeletions, fmt.Sprintf("delete %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Delete(id), nil
	})
}

// Restore lifts the tombstone on id.
func (s *Session) Restore(ctx context.Context, id int) error {
	return s.update(ctx, store.SlotDeletions, fmt.Sprintf("restore %d", id), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Restore(id), nil
	})
}

// Add records a new item at loc and returns it with its minted id. An item
// without a name gets the page title, or its URL when the lookup fails.
func (s *Session) Add(ctx context.Context, loc domain.Location, item domain.Item, source string) (domain.Item, error) {
	item.Name = strings.TrimSpace(item.Name)
	if item.Name == "" {
		item.Name = s.lookupTitle(ctx, item.URL)
	}

	var added domain.Item
	err := s.update(ctx, store.SlotEdits, "add at "+loc.String(), func(o overlay.Overlay) (overlay.Overlay, error) {
		if _, ok := s.tree.Node(loc); !ok {
			return o, fmt.Errorf("%w: %s", ErrUnknownLocation, loc)
		}
		next, it, err := o.Add(loc, item, source, s.now())
		added = it
		return next, err
	})
	return added, err
}

// Edit records item as the new version of its id at loc. Positive ids must
// exist in the baseline; negative ids must name an earlier addition.
func (s *Session) Edit(ctx context.Context, loc domain.Location, item domain.Item, source string) error {
	return s.update(ctx, store.SlotEdits, fmt.Sprintf("edit %d at %s", item.ID, loc), func(o overlay.Overlay) (overlay.Overlay, error) {
		if _, ok := s.tree.Node(loc); !ok {
			return o, fmt.Errorf("%w: %s", ErrUnknownLocation, loc)
		}
		switch {
		case item.ID > 0:
			if _, ok := s.tree.ItemIDs()[item.ID]; !ok {
				return o, fmt.Errorf("%w: %d", ErrUnknownItem, item.ID)
			}
		case item.ID < 0:
			if _, ok := o.Index().Lookup(item.ID); !ok {
				return o, fmt.Errorf("%w: %d", ErrUnknownItem, item.ID)
			}
		}
		return o.Put(loc, item, source, s.now())
	})
}

// Reorder sets the order of the records kept at loc.
func (s *Session) Reorder(ctx context.Context, loc domain.Location, ids []int) error {
	return s.update(ctx, store.SlotEdits, "reorder "+loc.String(), func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.Reorder(loc, ids), nil
	})
}

// SetFilter replaces the cross-tree filter; nil clears it.
func (s *Session) SetFilter(ctx context.Context, f *domain.Filter) error {
	return s.update(ctx, store.SlotFilter, "set filter", func(o overlay.Overlay) (overlay.Overlay, error) {
		return o.SetFilter(f), nil
	})
}

// Export reconciles the overlay into a new baseline document. An empty
// revision gets a fresh one.
func (s *Session) Export(revision string) (domain.Tree, merge.Report) {
	if revision == "" {
		revision = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	tree, report := merge.Export(s.tree, s.ov, revision)
	if len(report.Orphans) > 0 {
		s.logger.Warn("export dropped records without a location", zap.Int("orphans", len(report.Orphans)))
	}
	return tree, report
}

// update applies fn, persists the affected slot and only then publishes the
// new overlay. On any error the session is left unchanged.
func (s *Session) update(ctx context.Context, slot store.Slot, action string, fn func(overlay.Overlay) (overlay.Overlay, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.ov)
	if err != nil {
		return err
	}
	if err := s.store.SaveSlot(ctx, next, slot, action); err != nil {
		s.logger.Error("overlay write failed", zap.String("slot", string(slot)), zap.String("action", action), zap.Error(err))
		return fmt.Errorf("persist %s: %w", slot, err)
	}
	s.ov = next
	s.logger.Debug("overlay updated", zap.String("slot", string(slot)), zap.String("action", action))
	return nil
}

func (s *Session) lookupTitle(ctx context.Context, rawURL string) string {
	if s.titles == nil {
		return rawURL
	}
	title, err := s.titles.Title(ctx, rawURL)
	if err != nil || strings.TrimSpace(title) == "" {
		s.logger.Debug("title lookup failed", zap.String("url", rawURL), zap.Error(err))
		return rawURL
	}
	return title
}
