package service

import (
	"context"
	"log/slog"

	"github.com/kellerblick/storefront/internal/sse"
	"github.com/kellerblick/storefront/internal/state"
)

// Notifier forwards store changes to SSE clients.
type Notifier struct {
	sseManager *sse.Manager
	wishlist   *state.Wishlist
	bookings   *state.Bookings
	ui         *state.UI
	logger     *slog.Logger
}

// NewNotifier creates a new notifier.
func NewNotifier(sseManager *sse.Manager, wishlist *state.Wishlist, bookings *state.Bookings, ui *state.UI, logger *slog.Logger) *Notifier {
	return &Notifier{
		sseManager: sseManager,
		wishlist:   wishlist,
		bookings:   bookings,
		ui:         ui,
		logger:     logger,
	}
}

// Start subscribes to every store and forwards changes until ctx is done.
func (n *Notifier) Start(ctx context.Context) {
	wishlistUpdates, unsubWishlist := n.wishlist.Subscribe()
	bookingUpdates, unsubBookings := n.bookings.Subscribe()
	uiUpdates, unsubUI := n.ui.Subscribe()

	go func() {
		<-ctx.Done()
		unsubWishlist()
		unsubBookings()
		unsubUI()
	}()

	go sse.Forward(ctx, n.sseManager, wishlistUpdates, sse.NewWishlistChangedEvent)
	go sse.Forward(ctx, n.sseManager, bookingUpdates, bookingEvent)
	go sse.Forward(ctx, n.sseManager, uiUpdates, func(f state.UIFlags) sse.Event {
		return sse.NewUIChangedEvent(f.MenuOpen, f.FiltersOpen)
	})

	n.logger.Info("store notifications started")
}

// CatalogReloaded tells clients to refetch catalog data.
func (n *Notifier) CatalogReloaded(invalidated int) {
	n.sseManager.Emit(sse.NewCatalogReloadedEvent(invalidated))
}

// InitialEvents returns the current wishlist and UI state as events.
func (n *Notifier) InitialEvents() []sse.Event {
	flags := n.ui.Snapshot()
	return []sse.Event{
		sse.NewWishlistChangedEvent(n.wishlist.Items()),
		sse.NewUIChangedEvent(flags.MenuOpen, flags.FiltersOpen),
	}
}

func bookingEvent(c state.BookingChange) sse.Event {
	if c.Cancelled {
		return sse.NewBookingCancelledEvent(c.Booking)
	}
	return sse.NewBookingCreatedEvent(c.Booking)
}
