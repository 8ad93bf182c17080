package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/catalog"
	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/search"
	"github.com/kellerblick/storefront/internal/validation"
)

// SearchIndexHandle wraps the catalog index with shutdown capability.
type SearchIndexHandle struct {
	*search.CatalogIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the in-memory Bleve index behind the file gateway.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewCatalogIndex(log.Component("search"))
	if err != nil {
		return nil, err
	}
	return &SearchIndexHandle{CatalogIndex: index}, nil
}

// GatewayHandle holds the configured catalog gateway. File is set for the file source.
type GatewayHandle struct {
	catalog.Gateway
	File *catalog.FileGateway
}

// ProvideGateway provides the catalog gateway selected by CATALOG_SOURCE.
func ProvideGateway(i do.Injector) (*GatewayHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)
	decoder := catalog.NewDecoder(v)

	switch cfg.Catalog.Source {
	case "file":
		indexHandle := do.MustInvoke[*SearchIndexHandle](i)
		g, err := catalog.NewFileGateway(catalog.FileOptions{
			Path:    cfg.Catalog.Path,
			Latency: cfg.Catalog.Latency,
		}, decoder, indexHandle.CatalogIndex, log.Component("catalog"))
		if err != nil {
			return nil, err
		}
		docs, _ := indexHandle.DocumentCount()
		log.Info("Catalog loaded", "path", cfg.Catalog.Path, "wines", docs)
		return &GatewayHandle{Gateway: g, File: g}, nil

	case "http":
		g, err := catalog.NewHTTPGateway(catalog.HTTPOptions{BaseURL: cfg.Catalog.URL}, decoder, log.Component("catalog"))
		if err != nil {
			return nil, err
		}
		log.Info("Catalog upstream configured", "url", cfg.Catalog.URL)
		return &GatewayHandle{Gateway: g}, nil

	default:
		return nil, fmt.Errorf("unknown catalog source %q", cfg.Catalog.Source)
	}
}
