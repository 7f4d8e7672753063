package foundation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	_ "embed"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidCatalog = errors.New("invalid foundation catalog")

//go:embed data/foundations.json
var defaultCatalog []byte

//go:embed data/schema.json
var catalogSchema []byte

// Catalog is an immutable, ordered list of foundations.
type Catalog struct {
	foundations []Foundation
	index       map[string]int
}

// CategoryCount is the number of foundations that list a category.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from a JSON file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %q: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}

// Load validates the JSON document against the catalog schema, decodes it and
// checks every entry. Duplicate ids are rejected.
func Load(r io.Reader) (*Catalog, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	if err := validateSchema(raw); err != nil {
		return nil, err
	}

	var foundations []Foundation
	if err := json.Unmarshal(raw, &foundations); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidCatalog, err)
	}

	return New(foundations)
}

// New builds a catalog from already decoded entries.
func New(foundations []Foundation) (*Catalog, error) {
	c := &Catalog{
		foundations: make([]Foundation, 0, len(foundations)),
		index:       make(map[string]int, len(foundations)),
	}

	for _, f := range foundations {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
		}
		if _, ok := c.index[f.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate foundation id %q", ErrInvalidCatalog, f.ID)
		}
		c.index[f.ID] = len(c.foundations)
		c.foundations = append(c.foundations, f)
	}

	return c, nil
}

func validateSchema(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(catalogSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %s", ErrInvalidCatalog, strings.Join(errs, "; "))
	}

	return nil
}

// Len returns the number of foundations.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.foundations)
}

// All returns the foundations in catalog order. The slice is a copy.
func (c *Catalog) All() []Foundation {
	if c == nil {
		return nil
	}
	return append([]Foundation(nil), c.foundations...)
}

// ByID looks up a foundation by its id.
func (c *Catalog) ByID(id string) (Foundation, bool) {
	if c == nil {
		return Foundation{}, false
	}
	i, ok := c.index[strings.TrimSpace(id)]
	if !ok {
		return Foundation{}, false
	}
	return c.foundations[i], true
}

// CategoryCounts returns how many foundations list each category, most common first.
func (c *Catalog) CategoryCounts() []CategoryCount {
	if c == nil {
		return nil
	}

	counts := make(map[string]int)
	for _, f := range c.foundations {
		for _, category := range f.Categories {
			counts[strings.ToLower(strings.TrimSpace(category))]++
		}
	}

	out := make([]CategoryCount, 0, len(counts))
	for category, count := range counts {
		out = append(out, CategoryCount{Category: category, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Category < out[j].Category
	})

	return out
}
