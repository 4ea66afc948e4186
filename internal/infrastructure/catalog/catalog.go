// Package catalog loads the product catalog from its JSON source into an
// immutable in-memory index. The catalog is built once at startup and is
// never mutated afterwards, so it is safe for concurrent readers without
// locking.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/supportdesk/backend/internal/domain"
)

// Catalog is the immutable product index. It implements
// domain.CatalogRepository.
type Catalog struct {
	byName     map[string]domain.Product
	byCategory map[domain.Category][]string
	names      []string
}

// Load reads the catalog source file and builds the index. Any malformed
// record fails the whole load; the catalog is never partially populated.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	var records map[string]domain.Product
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
	}

	c := &Catalog{
		byName:     make(map[string]domain.Product, len(records)),
		byCategory: make(map[domain.Category][]string),
	}

	for key, product := range records {
		if err := validateRecord(key, product); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoad, err)
		}
		c.byName[product.Name] = product
		c.byCategory[product.Category] = append(c.byCategory[product.Category], product.Name)
		c.names = append(c.names, product.Name)
	}

	// JSON object order is not preserved by the decoder; sort for a
	// deterministic ordering within categories and across the catalog.
	sort.Strings(c.names)
	for cat := range c.byCategory {
		sort.Strings(c.byCategory[cat])
	}

	return c, nil
}

// validateRecord checks one source record for structural problems.
func validateRecord(key string, p domain.Product) error {
	if p.Name == "" {
		return fmt.Errorf("record %q has no name", key)
	}
	if key != p.Name {
		return fmt.Errorf("record key %q does not match product name %q", key, p.Name)
	}
	if !domain.ValidCategory(p.Category) {
		return fmt.Errorf("product %q has unknown category %q", p.Name, p.Category)
	}
	if p.Price <= 0 {
		return fmt.Errorf("product %q has invalid price %.2f", p.Name, p.Price)
	}
	return nil
}

// ByName looks up a product by its unique name.
func (c *Catalog) ByName(name string) (*domain.Product, error) {
	product, ok := c.byName[name]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &product, nil
}

// ByCategory returns every product in a category, in name order. An
// unknown or empty category yields an empty slice, not an error.
func (c *Catalog) ByCategory(category domain.Category) []domain.Product {
	names := c.byCategory[category]
	products := make([]domain.Product, 0, len(names))
	for _, name := range names {
		products = append(products, c.byName[name])
	}
	return products
}

// ProductsByCategory returns the category -> ordered product names mapping.
// The result is a copy; callers cannot mutate the index through it.
func (c *Catalog) ProductsByCategory() map[domain.Category][]string {
	out := make(map[domain.Category][]string, len(c.byCategory))
	for cat, names := range c.byCategory {
		out[cat] = append([]string(nil), names...)
	}
	return out
}

// All returns every product in the catalog in name order.
func (c *Catalog) All() []domain.Product {
	products := make([]domain.Product, 0, len(c.names))
	for _, name := range c.names {
		products = append(products, c.byName[name])
	}
	return products
}

// Size returns the number of products in the catalog.
func (c *Catalog) Size() int {
	return len(c.byName)
}
