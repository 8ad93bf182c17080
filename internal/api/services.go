package api

import (
	"github.com/kellerblick/storefront/internal/query"
	"github.com/kellerblick/storefront/internal/service"
	"github.com/kellerblick/storefront/internal/state"
)

// Services groups the stores and services used by the API server.
type Services struct {
	Query    *query.Client           // Cached catalog reads
	Bookings *service.BookingService // Checkout and cancellation
	Wishlist *state.Wishlist
	UI       *state.UI
}
