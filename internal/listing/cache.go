package listing

import (
	"slices"
	"sync"

	"github.com/sefaaycicek/fakestore/internal/domain"
)

// Cache accumulates fetched products in fetch order. Duplicate IDs are kept.
type Cache struct {
	mu       sync.RWMutex
	products []domain.Product
}

func NewCache() *Cache {
	return &Cache{}
}

// Append adds products after the existing ones.
func (c *Cache) Append(products ...domain.Product) {
	c.mu.Lock()
	c.products = append(c.products, products...)
	c.mu.Unlock()
}

// Clear drops every product.
func (c *Cache) Clear() {
	c.mu.Lock()
	c.products = nil
	c.mu.Unlock()
}

// Snapshot returns a copy of the accumulated products.
func (c *Cache) Snapshot() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.products)
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.products)
}

// Annotate replaces every product with fn(product), in place.
func (c *Cache) Annotate(fn func(domain.Product) domain.Product) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.products {
		c.products[i] = fn(c.products[i])
	}
}
