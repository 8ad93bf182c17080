// Package sse implements Server-Sent Events for live storefront updates:
// booking, wishlist, UI and catalog changes.
package sse

import (
	"strings"
	"time"

	"github.com/kellerblick/storefront/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventBookingCreated represents a booking creation event.
	EventBookingCreated EventType = "booking.created"
	// EventBookingCancelled represents a booking cancellation event.
	EventBookingCancelled EventType = "booking.cancelled"

	// EventWishlistChanged represents a wishlist mutation.
	EventWishlistChanged EventType = "wishlist.changed"

	// EventUIChanged represents a change of the transient UI flags.
	EventUIChanged EventType = "ui.changed"

	// EventCatalogReloaded is sent after the catalog source changed and the
	// query cache was invalidated.
	EventCatalogReloaded EventType = "catalog.reloaded"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Topic returns the part of the type before the dot ("booking" for "booking.created").
func (t EventType) Topic() string {
	topic, _, _ := strings.Cut(string(t), ".")
	return topic
}

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`
}

// BookingEventData is the data payload for booking events.
type BookingEventData struct {
	Booking domain.Booking `json:"booking"`
}

// WishlistEventData is the data payload for wishlist events.
type WishlistEventData struct {
	Items []string `json:"items"`
	Count int      `json:"count"`
}

// UIEventData is the data payload for UI events.
type UIEventData struct {
	MenuOpen    bool `json:"menuOpen"`
	FiltersOpen bool `json:"filtersOpen"`
}

// CatalogEventData is the data payload for catalog reload events.
type CatalogEventData struct {
	InvalidatedEntries int `json:"invalidatedEntries"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"serverTime"`
}

// NewBookingCreatedEvent creates a booking.created event.
func NewBookingCreatedEvent(b domain.Booking) Event {
	return Event{
		Type:      EventBookingCreated,
		Data:      BookingEventData{Booking: b},
		Timestamp: time.Now(),
	}
}

// NewBookingCancelledEvent creates a booking.cancelled event.
func NewBookingCancelledEvent(b domain.Booking) Event {
	return Event{
		Type:      EventBookingCancelled,
		Data:      BookingEventData{Booking: b},
		Timestamp: time.Now(),
	}
}

// NewWishlistChangedEvent creates a wishlist.changed event.
func NewWishlistChangedEvent(items []string) Event {
	if items == nil {
		items = []string{}
	}
	return Event{
		Type:      EventWishlistChanged,
		Data:      WishlistEventData{Items: items, Count: len(items)},
		Timestamp: time.Now(),
	}
}

// NewUIChangedEvent creates a ui.changed event.
func NewUIChangedEvent(menuOpen, filtersOpen bool) Event {
	return Event{
		Type:      EventUIChanged,
		Data:      UIEventData{MenuOpen: menuOpen, FiltersOpen: filtersOpen},
		Timestamp: time.Now(),
	}
}

// NewCatalogReloadedEvent creates a catalog.reloaded event.
func NewCatalogReloadedEvent(invalidated int) Event {
	return Event{
		Type:      EventCatalogReloaded,
		Data:      CatalogEventData{InvalidatedEntries: invalidated},
		Timestamp: time.Now(),
	}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{
		Type:      EventHeartbeat,
		Data:      HeartbeatEventData{ServerTime: now},
		Timestamp: now,
	}
}
