package search

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/logger"
)

// CatalogIndex wraps an in-memory Bleve index of the wine catalog.
//
// Thread safety: All public methods are safe for concurrent use.
// Replace builds a new index and swaps it in under the write lock.
type CatalogIndex struct {
	index  bleve.Index
	logger *slog.Logger
	mu     sync.RWMutex
}

// NewCatalogIndex creates an empty in-memory index.
func NewCatalogIndex(log *slog.Logger) (*CatalogIndex, error) {
	if log == nil {
		log = logger.Discard()
	}
	index, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return nil, fmt.Errorf("create index: %w", err)
	}
	return &CatalogIndex{index: index, logger: log}, nil
}

// Replace indexes wines into a fresh index and swaps it in.
// Catalog order is preserved as each document's position.
func (c *CatalogIndex) Replace(wines []domain.Wine) error {
	next, err := bleve.NewMemOnly(buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	const batchSize = 500

	for i := 0; i < len(wines); i += batchSize {
		end := min(i+batchSize, len(wines))

		batch := next.NewBatch()
		for j := i; j < end; j++ {
			doc := WineToDocument(&wines[j], j)
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				next.Close()
				return fmt.Errorf("index wine %s: %w", doc.ID, err)
			}
		}
		if err := next.Batch(batch); err != nil {
			next.Close()
			return fmt.Errorf("execute batch: %w", err)
		}
	}

	c.mu.Lock()
	old := c.index
	c.index = next
	c.mu.Unlock()

	if err := old.Close(); err != nil {
		c.logger.Warn("failed to close previous index", "error", err)
	}
	c.logger.Debug("catalog index rebuilt", "wines", len(wines))
	return nil
}

// DocumentCount returns the number of indexed wines.
func (c *CatalogIndex) DocumentCount() (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.index.DocCount()
}

// Close closes the index and releases resources.
func (c *CatalogIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index.Close()
}
