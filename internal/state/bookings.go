package state

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/id"
	"github.com/kellerblick/storefront/internal/store"
	"github.com/kellerblick/storefront/internal/validation"
)

// BookingsState is the persisted booking collection, newest first.
type BookingsState struct {
	Bookings []domain.Booking `json:"bookings"`
}

// BookingChange describes a booking mutation.
type BookingChange struct {
	Booking   domain.Booking
	Cancelled bool
}

// BookingsOption configures a Bookings store.
type BookingsOption func(*Bookings)

// WithClock sets the clock stamping createdAt.
func WithClock(now func() time.Time) BookingsOption {
	return func(b *Bookings) { b.now = now }
}

// WithCodeGenerator replaces the booking id generator.
func WithCodeGenerator(gen func(taken func(string) bool) (string, error)) BookingsOption {
	return func(b *Bookings) { b.newCode = gen }
}

// Bookings owns the booking collection. Bookings are never deleted.
type Bookings struct {
	mu        sync.Mutex
	bookings  []domain.Booking
	persist   *persister[BookingsState]
	hub       hub[BookingChange]
	validator *validation.Validator
	logger    *slog.Logger
	now       func() time.Time
	newCode   func(taken func(string) bool) (string, error)
}

// NewBookings creates a booking store and rehydrates it from storage.
func NewBookings(ctx context.Context, storage store.Storage, v *validation.Validator, logger *slog.Logger, opts ...BookingsOption) *Bookings {
	b := &Bookings{
		persist:   &persister[BookingsState]{storage: storage, key: BookingsKey, logger: logger},
		validator: v,
		logger:    logger,
		now:       time.Now,
		newCode:   id.BookingCode,
	}
	for _, opt := range opts {
		opt(b)
	}

	if st, ok := b.persist.load(ctx); ok {
		b.bookings = dedupeBookings(st.Bookings)
	}
	b.logger.Debug("bookings rehydrated", "count", len(b.bookings))
	return b
}

// Create validates input and prepends a confirmed booking with a fresh unique id.
func (b *Bookings) Create(ctx context.Context, input domain.BookingInput) (domain.Booking, error) {
	if err := b.validator.Validate(input); err != nil {
		return domain.Booking{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	code, err := b.newCode(b.takenLocked)
	if err != nil {
		return domain.Booking{}, fmt.Errorf("create booking: %w", err)
	}

	booking := domain.Booking{
		ID:          code,
		EventID:     input.EventID,
		EventTitle:  input.EventTitle,
		Date:        input.Date,
		Time:        input.Time,
		Guests:      input.Guests,
		TotalAmount: input.TotalAmount,
		Status:      domain.BookingConfirmed,
		CreatedAt:   b.now().UTC(),
	}

	next := make([]domain.Booking, 0, len(b.bookings)+1)
	next = append(next, booking)
	next = append(next, b.bookings...)
	b.commit(ctx, next, BookingChange{Booking: booking})

	b.logger.Info("booking created", "booking_id", booking.ID, "event_id", booking.EventID, "guests", booking.Guests)
	return booking, nil
}

// Cancel marks the booking cancelled. Unknown ids are a silent no-op.
// Returns the booking and whether it exists.
func (b *Bookings) Cancel(ctx context.Context, bookingID string) (domain.Booking, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	i := slices.IndexFunc(b.bookings, func(bk domain.Booking) bool { return bk.ID == bookingID })
	if i < 0 {
		return domain.Booking{}, false
	}
	if b.bookings[i].Status == domain.BookingCancelled {
		return b.bookings[i], true
	}

	next := slices.Clone(b.bookings)
	next[i].Status = domain.BookingCancelled
	b.commit(ctx, next, BookingChange{Booking: next[i], Cancelled: true})

	b.logger.Info("booking cancelled", "booking_id", bookingID)
	return next[i], true
}

// Get returns the booking with the given id.
func (b *Bookings) Get(bookingID string) (domain.Booking, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, bk := range b.bookings {
		if bk.ID == bookingID {
			return bk, true
		}
	}
	return domain.Booking{}, false
}

// ListByEvent returns the bookings for eventID in store order.
func (b *Bookings) ListByEvent(eventID string) []domain.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := []domain.Booking{}
	for _, bk := range b.bookings {
		if bk.EventID == eventID {
			out = append(out, bk)
		}
	}
	return out
}

// All returns every booking, newest first.
func (b *Bookings) All() []domain.Booking {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.bookings)
}

// Subscribe returns a channel receiving every booking change.
func (b *Bookings) Subscribe() (<-chan BookingChange, func()) {
	return b.hub.subscribe()
}

func (b *Bookings) takenLocked(code string) bool {
	return slices.ContainsFunc(b.bookings, func(bk domain.Booking) bool { return bk.ID == code })
}

// commit must be called with mu held.
func (b *Bookings) commit(ctx context.Context, next []domain.Booking, change BookingChange) {
	b.bookings = next
	b.persist.save(ctx, BookingsState{Bookings: next})
	b.hub.publish(change)
}

func dedupeBookings(in []domain.Booking) []domain.Booking {
	seen := make(map[string]bool, len(in))
	out := make([]domain.Booking, 0, len(in))
	for _, bk := range in {
		if bk.ID == "" || seen[bk.ID] {
			continue
		}
		seen[bk.ID] = true
		out = append(out, bk)
	}
	return out
}
