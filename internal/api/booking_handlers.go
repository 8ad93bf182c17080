package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/domain"
	"github.com/kellerblick/storefront/internal/service"
)

func (s *Server) registerBookingRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBookings",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings",
		Summary:     "List bookings",
		Description: "Returns every booking, or those of one event",
		Tags:        []string{"Bookings"},
	}, s.handleListBookings)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createBooking",
		Method:        http.MethodPost,
		Path:          "/api/v1/bookings",
		Summary:       "Book an event",
		Description:   "Books guests for an event. Fails with CONFLICT when the event has too few spots left.",
		Tags:          []string{"Bookings"},
		DefaultStatus: http.StatusCreated,
	}, s.handleCreateBooking)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBooking",
		Method:      http.MethodGet,
		Path:        "/api/v1/bookings/{id}",
		Summary:     "Get booking",
		Description: "Returns a booking by ID",
		Tags:        []string{"Bookings"},
	}, s.handleGetBooking)

	huma.Register(s.api, huma.Operation{
		OperationID: "cancelBooking",
		Method:      http.MethodPost,
		Path:        "/api/v1/bookings/{id}/cancel",
		Summary:     "Cancel booking",
		Description: "Cancels a booking. An unknown ID is reported with found=false.",
		Tags:        []string{"Bookings"},
	}, s.handleCancelBooking)
}

// ListBookingsInput contains parameters for listing bookings.
type ListBookingsInput struct {
	EventID string `query:"eventId" doc:"Only bookings of this event"`
}

// ListBookingsOutput wraps the bookings for Huma.
type ListBookingsOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         []domain.Booking
}

// CreateBookingRequest is the request body for booking an event.
type CreateBookingRequest struct {
	EventID string `json:"eventId" doc:"Event to book"`
	Guests  int    `json:"guests" doc:"Number of guests (1-20)"`
}

// CreateBookingInput wraps the create booking request for Huma.
type CreateBookingInput struct {
	Body CreateBookingRequest
}

// BookingOutput wraps one booking for Huma.
type BookingOutput struct {
	Body domain.Booking
}

// BookingIDInput contains the booking ID path parameter.
type BookingIDInput struct {
	ID string `path:"id" doc:"Booking ID"`
}

// CancelBookingResponse is the outcome of a cancellation.
type CancelBookingResponse struct {
	Found   bool            `json:"found" doc:"Whether the booking existed"`
	Booking *domain.Booking `json:"booking,omitempty" doc:"The cancelled booking"`
}

// CancelBookingOutput wraps the cancellation outcome for Huma.
type CancelBookingOutput struct {
	Body CancelBookingResponse
}

func (s *Server) handleListBookings(_ context.Context, input *ListBookingsInput) (*ListBookingsOutput, error) {
	bookings := s.services.Bookings.List(input.EventID)
	if bookings == nil {
		bookings = []domain.Booking{}
	}
	return &ListBookingsOutput{CacheControl: CacheNoStore, Body: bookings}, nil
}

func (s *Server) handleCreateBooking(ctx context.Context, input *CreateBookingInput) (*BookingOutput, error) {
	booking, err := s.services.Bookings.Book(ctx, service.BookRequest{
		EventID: input.Body.EventID,
		Guests:  input.Body.Guests,
	})
	if err != nil {
		return nil, err
	}
	return &BookingOutput{Body: booking}, nil
}

func (s *Server) handleGetBooking(_ context.Context, input *BookingIDInput) (*BookingOutput, error) {
	booking, err := s.services.Bookings.Get(input.ID)
	if err != nil {
		return nil, err
	}
	return &BookingOutput{Body: booking}, nil
}

func (s *Server) handleCancelBooking(ctx context.Context, input *BookingIDInput) (*CancelBookingOutput, error) {
	booking, found := s.services.Bookings.Cancel(ctx, input.ID)
	if !found {
		return &CancelBookingOutput{Body: CancelBookingResponse{Found: false}}, nil
	}
	return &CancelBookingOutput{Body: CancelBookingResponse{Found: true, Booking: &booking}}, nil
}
