package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/query"
	"github.com/kellerblick/storefront/internal/service"
	"github.com/kellerblick/storefront/internal/state"
	"github.com/kellerblick/storefront/internal/validation"
)

// ProvideWishlist provides the persisted wishlist, rehydrated from storage.
func ProvideWishlist(i do.Injector) (*state.Wishlist, error) {
	storageHandle := do.MustInvoke[*StorageHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return state.NewWishlist(context.Background(), storageHandle.Storage, log.Component("wishlist")), nil
}

// ProvideBookings provides the persisted booking store, rehydrated from storage.
func ProvideBookings(i do.Injector) (*state.Bookings, error) {
	storageHandle := do.MustInvoke[*StorageHandle](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return state.NewBookings(context.Background(), storageHandle.Storage, v, log.Component("bookings")), nil
}

// ProvideUI provides the transient UI store.
func ProvideUI(i do.Injector) (*state.UI, error) {
	return state.NewUI(), nil
}

// ProvideBookingService provides the checkout service.
func ProvideBookingService(i do.Injector) (*service.BookingService, error) {
	client := do.MustInvoke[*query.Client](i)
	bookings := do.MustInvoke[*state.Bookings](i)
	v := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookingService(client, bookings, v, log.Component("checkout")), nil
}
