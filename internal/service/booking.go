package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/state"
	"github.com/kellerblick/storefront/internal/validation"
)

// EventLookup finds a catalog event by id.
type EventLookup interface {
	Event(ctx context.Context, id string) (domain.Event, error)
}

// BookRequest is a checkout request for an event.
type BookRequest struct {
	EventID string `json:"eventId" validate:"required"`
	Guests  int    `json:"guests" validate:"gte=1,lte=20"`
}

// BookingService turns checkout requests into bookings.
// The catalog's capacity is reduced by the guests of local, non-cancelled bookings.
type BookingService struct {
	events    EventLookup
	bookings  *state.Bookings
	validator *validation.Validator
	logger    *slog.Logger

	// Serializes the capacity check with the booking it admits.
	mu sync.Mutex
}

// NewBookingService creates a new booking service.
func NewBookingService(events EventLookup, bookings *state.Bookings, v *validation.Validator, logger *slog.Logger) *BookingService {
	return &BookingService{
		events:    events,
		bookings:  bookings,
		validator: v,
		logger:    logger,
	}
}

// Book creates a confirmed booking for req.Guests at the event.
// Unknown events are NOT_FOUND; full events or too many guests are CONFLICT.
func (s *BookingService) Book(ctx context.Context, req BookRequest) (domain.Booking, error) {
	if err := s.validator.Validate(req); err != nil {
		return domain.Booking{}, err
	}

	event, err := s.events.Event(ctx, req.EventID)
	if err != nil {
		return domain.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	available := s.AvailableSpots(event)
	if available == 0 {
		return domain.Booking{}, domainerrors.Conflictf("event %s is fully booked", event.ID)
	}
	if req.Guests > available {
		return domain.Booking{}, domainerrors.Conflictf("only %d spots left for event %s", available, event.ID).
			WithDetails(map[string]int{"availableSpots": available})
	}

	booking, err := s.bookings.Create(ctx, domain.BookingInput{
		EventID:     event.ID,
		EventTitle:  event.Title,
		Date:        event.Date,
		Time:        event.Time,
		Guests:      req.Guests,
		TotalAmount: event.PricePerPerson * float64(req.Guests),
	})
	if err != nil {
		return domain.Booking{}, err
	}

	s.logger.Info("event booked",
		"booking_id", booking.ID,
		"event_id", event.ID,
		"guests", booking.Guests,
		"total_amount", booking.TotalAmount,
		"spots_left", available-req.Guests)
	return booking, nil
}

// AvailableSpots returns the catalog's available spots minus guests of local
// bookings that are not cancelled.
func (s *BookingService) AvailableSpots(event domain.Event) int {
	held := 0
	for _, b := range s.bookings.ListByEvent(event.ID) {
		if !b.Cancelled() {
			held += b.Guests
		}
	}
	return max(event.Capacity.AvailableSpots()-held, 0)
}

// Cancel cancels a booking. Unknown ids are a no-op reported as found=false.
func (s *BookingService) Cancel(ctx context.Context, bookingID string) (domain.Booking, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bookings.Cancel(ctx, bookingID)
}

// Get returns a booking by id.
func (s *BookingService) Get(bookingID string) (domain.Booking, error) {
	b, ok := s.bookings.Get(bookingID)
	if !ok {
		return domain.Booking{}, domainerrors.NotFoundf("booking %s not found", bookingID)
	}
	return b, nil
}

// List returns the bookings of eventID, or every booking when eventID is empty.
func (s *BookingService) List(eventID string) []domain.Booking {
	if eventID == "" {
		return s.bookings.All()
	}
	return s.bookings.ListByEvent(eventID)
}
