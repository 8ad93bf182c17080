package domain

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

// Booking statuses. The only transition exposed is to cancelled.
const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Booking is a reservation for an event. Event fields are denormalized at creation.
type Booking struct {
	ID          string        `json:"id"`
	EventID     string        `json:"eventId"`
	EventTitle  string        `json:"eventTitle"`
	Date        string        `json:"date"`
	Time        string        `json:"time"`
	Guests      int           `json:"guests"`
	TotalAmount float64       `json:"totalAmount"`
	Status      BookingStatus `json:"status"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// BookingInput carries the caller supplied fields of a new booking.
type BookingInput struct {
	EventID     string  `json:"eventId" validate:"required"`
	EventTitle  string  `json:"eventTitle" validate:"required"`
	Date        string  `json:"date" validate:"required,isodate"`
	Time        string  `json:"time" validate:"required,clock"`
	Guests      int     `json:"guests" validate:"gte=1"`
	TotalAmount float64 `json:"totalAmount" validate:"gte=0"`
}

// Cancelled reports whether the booking has been cancelled.
func (b *Booking) Cancelled() bool {
	return b.Status == BookingCancelled
}
