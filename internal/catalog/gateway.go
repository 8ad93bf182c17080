// Package catalog is the remote data gateway: it reads wines and events from a
// local JSON file or an upstream REST API and validates every record it returns.
package catalog

import (
	"context"

	"github.com/kellerblick/storefront/internal/domain"
)

// Gateway fetches catalog data. Implementations never retry; retry policy
// belongs to the caller.
type Gateway interface {
	FetchProducts(ctx context.Context, params domain.ProductParams) (*domain.Page[domain.Wine], error)
	FetchEvents(ctx context.Context) ([]domain.Event, error)
	FetchProductFacets(ctx context.Context, params domain.ProductParams) (*domain.FacetSummary, error)
}

// HealthChecker is implemented by gateways that can report upstream health.
type HealthChecker interface {
	Health(ctx context.Context) error
}
