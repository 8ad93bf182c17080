package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/query"
)

// CatalogWatcherHandle stops the catalog file watcher on shutdown.
type CatalogWatcherHandle struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Shutdown implements do.Shutdownable.
func (h *CatalogWatcherHandle) Shutdown() error {
	h.cancel()
	<-h.done
	return nil
}

// ProvideCatalogWatcher reloads the file catalog on change, marks every cached
// catalog read stale and tells stream clients. It is a no-op for the http source
// or when CATALOG_WATCH is off.
func ProvideCatalogWatcher(i do.Injector) (*CatalogWatcherHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	gatewayHandle := do.MustInvoke[*GatewayHandle](i)
	client := do.MustInvoke[*query.Client](i)
	notifierHandle := do.MustInvoke[*NotifierHandle](i)

	ctx, cancel := context.WithCancel(context.Background())
	handle := &CatalogWatcherHandle{cancel: cancel, done: make(chan struct{})}

	if gatewayHandle.File == nil || !cfg.Catalog.Watch {
		close(handle.done)
		log.Info("Catalog watching disabled")
		return handle, nil
	}

	go func() {
		defer close(handle.done)
		err := gatewayHandle.File.Watch(ctx, func() {
			n := client.InvalidateCatalog()
			notifierHandle.CatalogReloaded(n)
			log.Info("Catalog reloaded", "invalidated_entries", n)
		})
		if err != nil {
			log.Error("Catalog watcher stopped", "error", err)
		}
	}()

	return handle, nil
}
