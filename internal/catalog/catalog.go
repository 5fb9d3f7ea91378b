// Package catalog reads the baseline document.
//
// A document is JSON, or YAML when its path ends in .yaml or .yml, and is
// read from a file or an http(s) URL. Nodes whose id cannot be addressed by
// a location and items without a positive id are dropped with a warning.
// Load absorbs every failure into an empty tree.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pbaille/superlinks/internal/domain"
	"github.com/pbaille/superlinks/internal/logging"
)

// ErrMalformed wraps documents that do not decode into a catalog tree.
var ErrMalformed = errors.New("malformed catalog document")

// Fetcher retrieves remote documents.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Format is a document encoding.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// FormatOf picks the encoding from a path or URL extension.
func FormatOf(src string) Format {
	if i := strings.IndexAny(src, "?#"); i >= 0 {
		src = src[:i]
	}
	switch strings.ToLower(path.Ext(src)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// IsRemote reports whether src is an http(s) URL.
func IsRemote(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// Read fetches and decodes src. The returned warnings describe nodes and
// items that were dropped during validation.
func Read(ctx context.Context, src string, f Fetcher) (domain.Tree, []string, error) {
	var data []byte
	var err error
	if IsRemote(src) {
		if f == nil {
			return domain.Tree{}, nil, fmt.Errorf("read catalog %s: no fetcher configured", src)
		}
		data, err = f.Fetch(ctx, src)
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return domain.Tree{}, nil, fmt.Errorf("read catalog %s: %w", src, err)
	}
	return Decode(data, FormatOf(src))
}

// Decode parses and validates a document.
func Decode(data []byte, format Format) (domain.Tree, []string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return domain.Tree{}, nil, fmt.Errorf("%w: empty document", ErrMalformed)
	}
	var tree domain.Tree
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &tree)
	default:
		err = json.Unmarshal(data, &tree)
	}
	if err != nil {
		return domain.Tree{}, nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	tree, warnings := Validate(tree)
	return tree, warnings, nil
}

// Validate drops what the rest of the system cannot address: node ids that
// are empty or contain the location delimiter, and items whose id is not a
// positive integer or repeats an id seen earlier.
func Validate(in domain.Tree) (domain.Tree, []string) {
	var warnings []string
	warn := func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	}
	seen := make(map[int]bool)
	items := func(where string, in []domain.Item) []domain.Item {
		out := make([]domain.Item, 0, len(in))
		for _, it := range in {
			switch {
			case it.ID <= 0:
				warn("%s: item %q has non-positive id %d", where, it.Name, it.ID)
			case seen[it.ID]:
				warn("%s: duplicate item id %d", where, it.ID)
			default:
				seen[it.ID] = true
				out = append(out, it)
			}
		}
		return out
	}

	out := domain.Tree{Revision: in.Revision, Categories: make([]domain.Category, 0, len(in.Categories))}
	for _, c := range in.Categories {
		if !domain.ValidNodeID(c.ID) {
			warn("category %q: invalid id %q", c.Name, c.ID)
			continue
		}
		cat := c
		cat.Items = items(c.ID, c.Items)
		cat.Subcategories = nil
		for _, s := range c.Subcategories {
			if !domain.ValidNodeID(s.ID) {
				warn("%s: subcategory %q has invalid id %q", c.ID, s.Name, s.ID)
				continue
			}
			sub := s
			sub.Items = items(c.ID+domain.Delimiter+s.ID, s.Items)
			sub.Subclasses = nil
			for _, sc := range s.Subclasses {
				if !domain.ValidNodeID(sc.ID) {
					warn("%s:%s: subclass %q has invalid id %q", c.ID, s.ID, sc.Name, sc.ID)
					continue
				}
				cls := sc
				cls.Items = items(domain.Location{Category: c.ID, Subcategory: s.ID, Subclass: sc.ID}.String(), sc.Items)
				sub.Subclasses = append(sub.Subclasses, cls)
			}
			cat.Subcategories = append(cat.Subcategories, sub)
		}
		out.Categories = append(out.Categories, cat)
	}
	return out, warnings
}

// Load reads src and never fails: any error is logged and yields an empty
// tree, so every lens renders its empty state.
func Load(ctx context.Context, src string, f Fetcher, logger *zap.Logger) domain.Tree {
	logger = logging.OrNop(logger)
	tree, warnings, err := Read(ctx, src, f)
	if err != nil {
		logger.Warn("catalog unavailable, using empty tree", zap.String("source", src), zap.Error(err))
		return domain.Tree{Categories: []domain.Category{}}
	}
	logSkipped(logger, src, warnings)
	logger.Debug("catalog loaded",
		zap.String("source", src),
		zap.Int("categories", len(tree.Categories)),
		zap.Int("items", tree.CountItems()))
	return tree
}

func logSkipped(logger *zap.Logger, src string, warnings []string) {
	for _, w := range warnings {
		logger.Warn("catalog entry skipped", zap.String("source", src), zap.String("reason", w))
	}
}
