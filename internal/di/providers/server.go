package providers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/api"
	"github.com/kellerblick/storefront/internal/config"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/query"
	"github.com/kellerblick/storefront/internal/service"
	"github.com/kellerblick/storefront/internal/sse"
	"github.com/kellerblick/storefront/internal/state"
)

// Per-IP budget for mutating requests.
const (
	writeRequestsPerMinute = 60
	writeBurst             = 20
)

// SSEManagerHandle wraps the SSE manager with its context for lifecycle management.
type SSEManagerHandle struct {
	*sse.Manager
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *SSEManagerHandle) Shutdown() error {
	h.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Manager.Shutdown(ctx)
}

// ProvideSSEManager provides the server-sent events manager.
func ProvideSSEManager(i do.Injector) (*SSEManagerHandle, error) {
	log := do.MustInvoke[*logger.Logger](i)

	manager := sse.NewManager(log.Component("sse"))

	ctx, cancel := context.WithCancel(context.Background())
	go manager.Start(ctx)

	log.Info("SSE manager started")

	return &SSEManagerHandle{
		Manager: manager,
		cancel:  cancel,
	}, nil
}

// NotifierHandle wraps the store-to-stream notifier.
type NotifierHandle struct {
	*service.Notifier
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (h *NotifierHandle) Shutdown() error {
	h.cancel()
	return nil
}

// ProvideNotifier provides the notifier forwarding store changes to SSE clients.
func ProvideNotifier(i do.Injector) (*NotifierHandle, error) {
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	wishlist := do.MustInvoke[*state.Wishlist](i)
	bookings := do.MustInvoke[*state.Bookings](i)
	ui := do.MustInvoke[*state.UI](i)
	log := do.MustInvoke[*logger.Logger](i)

	notifier := service.NewNotifier(sseHandle.Manager, wishlist, bookings, ui, log.Component("notifier"))

	ctx, cancel := context.WithCancel(context.Background())
	notifier.Start(ctx)

	return &NotifierHandle{Notifier: notifier, cancel: cancel}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideAPIServer provides the HTTP handler with every route registered.
func ProvideAPIServer(i do.Injector) (*api.Server, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storageHandle := do.MustInvoke[*StorageHandle](i)
	gatewayHandle := do.MustInvoke[*GatewayHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	notifierHandle := do.MustInvoke[*NotifierHandle](i)

	services := &api.Services{
		Query:    do.MustInvoke[*query.Client](i),
		Bookings: do.MustInvoke[*service.BookingService](i),
		Wishlist: do.MustInvoke[*state.Wishlist](i),
		UI:       do.MustInvoke[*state.UI](i),
	}

	sseHandler := sse.NewHandler(sseHandle.Manager, log.Component("sse"))
	sseHandler.SetInitialEvents(notifierHandle.InitialEvents)

	return api.NewServer(services, storageHandle.Storage, gatewayHandle.Gateway, sseHandler, sseHandle.Manager, api.Options{
		CORSOrigins:  cfg.Server.CORSOrigins,
		WriteLimiter: api.NewWriteLimiter(writeRequestsPerMinute, time.Minute, writeBurst),
	}, log.Component("api")), nil
}

// ProvideHTTPServer provides the HTTP server, listening in the background.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	handler := do.MustInvoke[*api.Server](i)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
