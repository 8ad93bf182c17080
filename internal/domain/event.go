package domain

import (
	"encoding/json"
	"time"
)

// EventCategory classifies an event.
type EventCategory string

// Event categories.
const (
	EventCategoryTasting  EventCategory = "tasting"
	EventCategoryDinner   EventCategory = "dinner"
	EventCategoryTour     EventCategory = "tour"
	EventCategoryFestival EventCategory = "festival"
	EventCategoryWorkshop EventCategory = "workshop"
)

// Event is a bookable winery event. It is read-only for the storefront.
type Event struct {
	ID             string        `json:"id" validate:"required"`
	Title          string        `json:"title" validate:"required"`
	Slug           string        `json:"slug"`
	Date           string        `json:"date" validate:"required,isodate"`
	Time           string        `json:"time" validate:"required,clock"`
	Location       string        `json:"location"`
	Description    string        `json:"description"`
	Capacity       Capacity      `json:"capacity"`
	PricePerPerson float64       `json:"pricePerPerson" validate:"gte=0"`
	Category       EventCategory `json:"category" validate:"required,oneof=tasting dinner tour festival workshop"`
}

// Capacity tracks the spots of an event.
type Capacity struct {
	TotalSpots  int `json:"totalSpots" validate:"gte=0"`
	BookedSpots int `json:"bookedSpots" validate:"gte=0"`
}

// IsFull reports whether no spots remain.
func (c Capacity) IsFull() bool {
	return c.BookedSpots >= c.TotalSpots
}

// AvailableSpots returns the number of spots left, never negative.
func (c Capacity) AvailableSpots() int {
	return max(c.TotalSpots-c.BookedSpots, 0)
}

// MarshalJSON includes the derived isFull and availableSpots fields.
func (c Capacity) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TotalSpots     int  `json:"totalSpots"`
		BookedSpots    int  `json:"bookedSpots"`
		IsFull         bool `json:"isFull"`
		AvailableSpots int  `json:"availableSpots"`
	}{c.TotalSpots, c.BookedSpots, c.IsFull(), c.AvailableSpots()})
}

// StartsAt combines Date and Time in loc.
func (e *Event) StartsAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(time.DateOnly+" 15:04", e.Date+" "+e.Time, loc)
}

// Upcoming reports whether the event starts after now.
func (e *Event) Upcoming(now time.Time) bool {
	start, err := e.StartsAt(now.Location())
	if err != nil {
		return false
	}
	return start.After(now)
}
