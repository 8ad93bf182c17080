package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/domain"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listEvents",
		Method:      http.MethodGet,
		Path:        "/api/v1/events",
		Summary:     "List events",
		Description: "Returns every winery event with the spots still bookable here",
		Tags:        []string{"Events"},
	}, s.handleListEvents)

	huma.Register(s.api, huma.Operation{
		OperationID: "getEvent",
		Method:      http.MethodGet,
		Path:        "/api/v1/events/{id}",
		Summary:     "Get event",
		Description: "Returns an event by ID",
		Tags:        []string{"Events"},
	}, s.handleGetEvent)
}

// EventResponse is a catalog event plus the spots left after local bookings.
type EventResponse struct {
	domain.Event
	RemainingSpots int `json:"remainingSpots" doc:"Catalog spots minus guests of bookings made here"`
}

// ListEventsOutput wraps the events for Huma.
type ListEventsOutput struct {
	CacheStatus string `header:"X-Cache-Status"`
	Body        []EventResponse
}

// GetEventInput contains parameters for getting an event.
type GetEventInput struct {
	ID string `path:"id" doc:"Event ID"`
}

// EventOutput wraps one event for Huma.
type EventOutput struct {
	Body EventResponse
}

func (s *Server) handleListEvents(ctx context.Context, _ *struct{}) (*ListEventsOutput, error) {
	res, err := s.services.Query.Events(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]EventResponse, 0, len(res.Data))
	for _, e := range res.Data {
		events = append(events, s.eventResponse(e))
	}

	return &ListEventsOutput{
		CacheStatus: string(res.Status),
		Body:        events,
	}, nil
}

func (s *Server) handleGetEvent(ctx context.Context, input *GetEventInput) (*EventOutput, error) {
	event, err := s.services.Query.Event(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &EventOutput{Body: s.eventResponse(event)}, nil
}

func (s *Server) eventResponse(e domain.Event) EventResponse {
	return EventResponse{
		Event:          e,
		RemainingSpots: s.services.Bookings.AvailableSpots(e),
	}
}
