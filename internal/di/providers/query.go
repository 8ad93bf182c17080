package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/query"
)

// cacheJanitorInterval is how often unobserved cache entries are pruned.
const cacheJanitorInterval = time.Minute

// QueryCacheHandle wraps the query cache and its janitor.
type QueryCacheHandle struct {
	*query.Cache
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *QueryCacheHandle) Shutdown() error {
	h.cancel()
	h.Wait()
	return nil
}

// ProvideQueryCache provides the keyed catalog cache.
func ProvideQueryCache(i do.Injector) (*QueryCacheHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	cache := query.NewCache(query.Options{GCTime: cfg.Cache.GCTime}, log.Component("query"))

	ctx, cancel := context.WithCancel(context.Background())
	cache.StartJanitor(ctx, cacheJanitorInterval)

	return &QueryCacheHandle{Cache: cache, cancel: cancel}, nil
}

// ProvideQueryClient provides the catalog query client.
func ProvideQueryClient(i do.Injector) (*query.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	cacheHandle := do.MustInvoke[*QueryCacheHandle](i)
	gatewayHandle := do.MustInvoke[*GatewayHandle](i)

	return query.NewClient(cacheHandle.Cache, gatewayHandle.Gateway, query.ClientOptions{
		ProductsStaleTime: cfg.Cache.ProductsStaleTime,
		FacetsStaleTime:   cfg.Cache.FacetsStaleTime,
		EventsStaleTime:   cfg.Cache.EventsStaleTime,
		PageSize:          cfg.Cache.PageSize,
	}, log.Component("query")), nil
}
