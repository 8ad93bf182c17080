package state

import (
	"context"
	"errors"
	"testing"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/store"
	"github.com/kellerblick/storefront/internal/validation"
)

// failingStorage accepts reads from an inner storage and rejects every write.
type failingStorage struct {
	store.Storage
}

func (failingStorage) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func newBookings(t *testing.T, storage store.Storage, opts ...BookingsOption) *Bookings {
	t.Helper()
	return NewBookings(context.Background(), storage, validation.New(), logger.Discard(), opts...)
}

func kellerblickInput() domain.BookingInput {
	return domain.BookingInput{
		EventID:     "E1",
		EventTitle:  "Kellerblick",
		Date:        "2025-05-01",
		Time:        "18:00",
		Guests:      2,
		TotalAmount: 40,
	}
}
