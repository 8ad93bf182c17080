// Package di provides dependency injection configuration for the storefront server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/di/providers"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/query"
	"github.com/kellerblick/storefront/internal/service"
	"github.com/kellerblick/storefront/internal/state"
	"github.com/kellerblick/storefront/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Persistence
	do.Provide(injector, providers.ProvideStorage)

	// Catalog
	do.Provide(injector, providers.ProvideSearchIndex)
	do.Provide(injector, providers.ProvideGateway)
	do.Provide(injector, providers.ProvideQueryCache)
	do.Provide(injector, providers.ProvideQueryClient)

	// Client state and services
	do.Provide(injector, providers.ProvideWishlist)
	do.Provide(injector, providers.ProvideBookings)
	do.Provide(injector, providers.ProvideUI)
	do.Provide(injector, providers.ProvideBookingService)

	// Streaming
	do.Provide(injector, providers.ProvideSSEManager)
	do.Provide(injector, providers.ProvideNotifier)

	// Workers
	do.Provide(injector, providers.ProvideCatalogWatcher)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services. Invocation order is dependency order,
// which do/v2 reverses on shutdown.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*validation.Validator](injector)

	if _, err := do.Invoke[*providers.StorageHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.GatewayHandle](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*query.Client](injector)

	_ = do.MustInvoke[*state.Wishlist](injector)
	_ = do.MustInvoke[*state.Bookings](injector)
	_ = do.MustInvoke[*state.UI](injector)
	_ = do.MustInvoke[*service.BookingService](injector)

	_ = do.MustInvoke[*providers.SSEManagerHandle](injector)
	_ = do.MustInvoke[*providers.NotifierHandle](injector)
	_ = do.MustInvoke[*providers.CatalogWatcherHandle](injector)

	_ = do.MustInvoke[*providers.HTTPServerHandle](injector)

	return nil
}
