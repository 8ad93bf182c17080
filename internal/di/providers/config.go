// Package providers contains dependency injection providers for the storefront server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Kellerblick storefront",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"storage_driver", cfg.Storage.Driver,
		"catalog_source", cfg.Catalog.Source,
	)

	return log, nil
}

// ProvideValidator provides the shared struct validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
