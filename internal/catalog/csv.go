package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/pbaille/superlinks/internal/domain"
)

// Node defaults for imported documents
const (
	ImportMaxItems       = 50
	ImportRandomMaxItems = 20

	CategoryIcon    = "📁"
	SubcategoryIcon = "📂"
	SubclassIcon    = "📄"
)

// ImportOptions tune CSV conversion.
type ImportOptions struct {
	// Icons maps a node name to its icon; unmapped names get the level default.
	Icons map[string]string
}

type csvRow struct {
	link, category, class, subclass, text string
}

// ImportCSV converts a spreadsheet export into a catalog tree. Columns are
// link, category, class, subclass, text; the first row is a header. Rows
// without a link or a category are skipped.
func ImportCSV(r io.Reader, opts ImportOptions) (domain.Tree, error) {
	rd := csv.NewReader(r)
	rd.FieldsPerRecord = -1
	rd.LazyQuotes = true

	var rows []csvRow
	header := true
	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return domain.Tree{}, fmt.Errorf("read csv: %w", err)
		}
		if header {
			header = false
			continue
		}
		for len(rec) < 5 {
			rec = append(rec, "")
		}
		rows = append(rows, csvRow{
			link:     strings.Trim(strings.TrimSpace(rec[0]), `"`),
			category: strings.TrimSpace(rec[1]),
			class:    strings.TrimSpace(rec[2]),
			subclass: strings.TrimSpace(rec[3]),
			text:     cleanText(rec[4]),
		})
	}

	b := newBuilder(opts)
	nextID := 1
	for _, row := range rows {
		if row.link == "" || row.category == "" {
			continue
		}
		text := row.text
		if text == "" {
			text = row.link
		}
		item := domain.Item{
			ID:   nextID,
			Name: strings.ReplaceAll(text, "\n", " "),
			URL:  row.link,
			Note: text,
		}
		nextID++
		b.add(row, item)
	}
	return b.tree(), nil
}

// cleanText trims the field and collapses whitespace inside each line while
// keeping the line breaks.
func cleanText(s string) string {
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	return strings.Join(lines, "\n")
}

var lower = cases.Lower(language.Und)

// slug lowercases s and replaces separators so the result is a valid node id.
func slug(s string) string {
	return strings.NewReplacer(" ", "-", "/", "-", domain.Delimiter, "-").Replace(lower.String(s))
}

// idSet hands out sibling ids. Names that slug to the same id get a
// numeric suffix so siblings stay distinct.
type idSet map[string]bool

func (s idSet) claim(base string) string {
	id := base
	for n := 2; s[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	s[id] = true
	return id
}

type importSubcategory struct {
	node       domain.Subcategory
	subclasses map[string]*domain.Subclass
	ids        idSet
}

type importCategory struct {
	node          domain.Category
	subcategories map[string]*importSubcategory
	ids           idSet
}

type builder struct {
	opts       ImportOptions
	categories map[string]*importCategory
	ids        idSet
}

func newBuilder(opts ImportOptions) *builder {
	return &builder{
		opts:       opts,
		categories: make(map[string]*importCategory),
		ids:        idSet{"daily-random": true, "raw-films": true, "collection": true},
	}
}

func (b *builder) icon(name, fallback string) string {
	if icon, ok := b.opts.Icons[name]; ok && icon != "" {
		return icon
	}
	return fallback
}

func (b *builder) add(row csvRow, item domain.Item) {
	cat, ok := b.categories[row.category]
	if !ok {
		cat = &importCategory{
			node: domain.Category{
				ID:       b.ids.claim(slug(row.category)),
				Name:     row.category,
				Icon:     b.icon(row.category, CategoryIcon),
				MaxItems: ImportMaxItems,
				Items:    []domain.Item{},
			},
			subcategories: make(map[string]*importSubcategory),
			ids:           idSet{},
		}
		b.categories[row.category] = cat
	}
	if row.class == "" {
		cat.node.Items = append(cat.node.Items, item)
		return
	}

	sub, ok := cat.subcategories[row.class]
	if !ok {
		sub = &importSubcategory{
			node: domain.Subcategory{
				ID:       cat.ids.claim(cat.node.ID + "-" + slug(row.class)),
				Name:     row.class,
				Icon:     b.icon(row.class, SubcategoryIcon),
				MaxItems: ImportMaxItems,
				Items:    []domain.Item{},
			},
			subclasses: make(map[string]*domain.Subclass),
			ids:        idSet{},
		}
		cat.subcategories[row.class] = sub
	}
	if row.subclass == "" {
		sub.node.Items = append(sub.node.Items, item)
		return
	}

	cls, ok := sub.subclasses[row.subclass]
	if !ok {
		cls = &domain.Subclass{
			ID:       sub.ids.claim(sub.node.ID + "-" + slug(row.subclass)),
			Name:     row.subclass,
			Icon:     b.icon(row.subclass, SubclassIcon),
			MaxItems: ImportMaxItems,
			Items:    []domain.Item{},
		}
		sub.subclasses[row.subclass] = cls
	}
	cls.Items = append(cls.Items, item)
}

func (b *builder) tree() domain.Tree {
	cats := []domain.Category{{
		ID:       "daily-random",
		Name:     "Daily Random",
		Icon:     "🌟",
		IsRandom: true,
		MaxItems: ImportRandomMaxItems,
		Items:    []domain.Item{},
	}}

	for _, name := range sortedKeys(b.categories) {
		cat := b.categories[name]
		node := cat.node
		for _, subName := range sortedKeys(cat.subcategories) {
			sub := cat.subcategories[subName]
			subNode := sub.node
			for _, clsName := range sortedKeys(sub.subclasses) {
				subNode.Subclasses = append(subNode.Subclasses, *sub.subclasses[clsName])
			}
			node.Subcategories = append(node.Subcategories, subNode)
		}
		cats = append(cats, node)
	}

	cats = append(cats,
		domain.Category{
			ID:         "raw-films",
			Name:       "Raw Films",
			Icon:       "🎬",
			IsTextOnly: true,
			MaxItems:   ImportMaxItems,
			Items:      []domain.Item{},
		},
		domain.Category{
			ID:       "collection",
			Name:     "Collection",
			Icon:     "📚",
			MaxItems: ImportMaxItems,
			Items:    []domain.Item{},
		},
	)
	return domain.Tree{Categories: cats}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
