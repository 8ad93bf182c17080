package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/logger"
	"github.com/kellerblick/storefront/internal/sse"
	"github.com/kellerblick/storefront/internal/state"
	"github.com/kellerblick/storefront/internal/store"
	"github.com/kellerblick/storefront/internal/validation"
)

type fakeEvents map[string]domain.Event

func (f fakeEvents) Event(_ context.Context, id string) (domain.Event, error) {
	e, ok := f[id]
	if !ok {
		return domain.Event{}, domainerrors.NotFoundf("event %s not found", id)
	}
	return e, nil
}

func testEvents() fakeEvents {
	return fakeEvents{
		"E1": {
			ID: "E1", Title: "Kellerblick", Date: "2025-05-01", Time: "18:00",
			Capacity: domain.Capacity{TotalSpots: 20, BookedSpots: 12}, PricePerPerson: 20,
			Category: domain.EventCategoryTasting,
		},
		"E2": {
			ID: "E2", Title: "Herbstdinner", Date: "2025-10-04", Time: "19:30",
			Capacity: domain.Capacity{TotalSpots: 30, BookedSpots: 30}, PricePerPerson: 85,
			Category: domain.EventCategoryDinner,
		},
	}
}

func setupBookingService(t *testing.T) (*BookingService, *state.Bookings) {
	t.Helper()
	v := validation.New()
	now := time.Date(2025, 4, 20, 9, 30, 0, 0, time.UTC)
	bookings := state.NewBookings(context.Background(), store.NewMemory(), v, logger.Discard(),
		state.WithClock(func() time.Time { return now }))
	return NewBookingService(testEvents(), bookings, v, logger.Discard()), bookings
}

func TestBookingService_BookKellerblick(t *testing.T) {
	svc, bookings := setupBookingService(t)

	booking, err := svc.Book(context.Background(), BookRequest{EventID: "E1", Guests: 2})
	require.NoError(t, err)

	assert.Equal(t, "Kellerblick", booking.EventTitle)
	assert.Equal(t, "2025-05-01", booking.Date)
	assert.Equal(t, "18:00", booking.Time)
	assert.Equal(t, 2, booking.Guests)
	assert.InDelta(t, 40.0, booking.TotalAmount, 0.001)
	assert.Equal(t, domain.BookingConfirmed, booking.Status)

	assert.Equal(t, []domain.Booking{booking}, bookings.ListByEvent("E1"))
	assert.Equal(t, 6, svc.AvailableSpots(testEvents()["E1"]))
}

func TestBookingService_BookRejects(t *testing.T) {
	tests := []struct {
		name string
		req  BookRequest
		want error
	}{
		{"unknown event", BookRequest{EventID: "E404", Guests: 1}, domainerrors.ErrNotFound},
		{"full event", BookRequest{EventID: "E2", Guests: 1}, domainerrors.ErrConflict},
		{"too many guests", BookRequest{EventID: "E1", Guests: 9}, domainerrors.ErrConflict},
		{"no guests", BookRequest{EventID: "E1", Guests: 0}, domainerrors.ErrValidation},
		{"missing event id", BookRequest{Guests: 1}, domainerrors.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, bookings := setupBookingService(t)

			_, err := svc.Book(context.Background(), tt.req)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, bookings.All())
		})
	}
}

func TestBookingService_CapacityCountsLocalBookings(t *testing.T) {
	svc, _ := setupBookingService(t)
	ctx := context.Background()

	first, err := svc.Book(ctx, BookRequest{EventID: "E1", Guests: 5})
	require.NoError(t, err)

	_, err = svc.Book(ctx, BookRequest{EventID: "E1", Guests: 4})
	require.ErrorIs(t, err, domainerrors.ErrConflict)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, map[string]int{"availableSpots": 3}, domainErr.Details)

	// Cancelling frees the spots again.
	_, found := svc.Cancel(ctx, first.ID)
	require.True(t, found)
	_, err = svc.Book(ctx, BookRequest{EventID: "E1", Guests: 8})
	require.NoError(t, err)
}

func TestBookingService_ConcurrentBookingsNeverOverbook(t *testing.T) {
	svc, bookings := setupBookingService(t)

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.Book(context.Background(), BookRequest{EventID: "E1", Guests: 3})
		}()
	}
	wg.Wait()

	assert.Len(t, bookings.ListByEvent("E1"), 2, "8 spots fit two bookings of 3")
}

func TestBookingService_CancelUnknownIsNoop(t *testing.T) {
	svc, bookings := setupBookingService(t)

	_, found := svc.Cancel(context.Background(), "NOPE0000")
	assert.False(t, found)
	assert.Empty(t, bookings.All())
}

func TestBookingService_GetAndList(t *testing.T) {
	svc, _ := setupBookingService(t)
	ctx := context.Background()

	a, err := svc.Book(ctx, BookRequest{EventID: "E1", Guests: 1})
	require.NoError(t, err)

	got, err := svc.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = svc.Get("NOPE0000")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)

	assert.Len(t, svc.List(""), 1)
	assert.Len(t, svc.List("E1"), 1)
	assert.Empty(t, svc.List("E2"))
}

func TestNotifier_ForwardsStoreChanges(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := sse.NewManager(logger.Discard())
	go manager.Start(ctx)

	svc, bookings := setupBookingService(t)
	wishlist := state.NewWishlist(ctx, store.NewMemory(), logger.Discard())
	ui := state.NewUI()

	n := NewNotifier(manager, wishlist, bookings, ui, logger.Discard())
	n.Start(ctx)

	client, err := manager.Connect()
	require.NoError(t, err)

	next := func() sse.Event {
		select {
		case e := <-client.EventChan:
			return e
		case <-time.After(time.Second):
			t.Fatal("no event forwarded")
			return sse.Event{}
		}
	}

	wishlist.Toggle(ctx, "w1")
	assert.Equal(t, sse.EventWishlistChanged, next().Type)

	booking, err := svc.Book(ctx, BookRequest{EventID: "E1", Guests: 2})
	require.NoError(t, err)
	e := next()
	assert.Equal(t, sse.EventBookingCreated, e.Type)
	assert.Equal(t, booking.ID, e.Data.(sse.BookingEventData).Booking.ID)

	svc.Cancel(ctx, booking.ID)
	assert.Equal(t, sse.EventBookingCancelled, next().Type)

	ui.ToggleMenu()
	assert.Equal(t, sse.UIEventData{MenuOpen: true}, next().Data)

	n.CatalogReloaded(3)
	assert.Equal(t, sse.CatalogEventData{InvalidatedEntries: 3}, next().Data)

	initial := n.InitialEvents()
	require.Len(t, initial, 2)
	assert.Equal(t, sse.WishlistEventData{Items: []string{"w1"}, Count: 1}, initial[0].Data)
}
