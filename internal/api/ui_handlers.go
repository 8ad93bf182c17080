package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/state"
)

// UI flag names accepted in paths.
const (
	flagMenu    = "menu"
	flagFilters = "filters"
)

func (s *Server) registerUIRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "getUIFlags",
		Method:      http.MethodGet,
		Path:        "/api/v1/ui",
		Summary:     "Get UI flags",
		Description: "Returns the transient presentation flags. They reset on restart.",
		Tags:        []string{"UI"},
	}, s.handleGetUIFlags)

	huma.Register(s.api, huma.Operation{
		OperationID: "setUIFlag",
		Method:      http.MethodPut,
		Path:        "/api/v1/ui/{flag}",
		Summary:     "Set UI flag",
		Description: "Opens or closes the menu or the filter panel",
		Tags:        []string{"UI"},
	}, s.handleSetUIFlag)

	huma.Register(s.api, huma.Operation{
		OperationID: "toggleUIFlag",
		Method:      http.MethodPost,
		Path:        "/api/v1/ui/{flag}/toggle",
		Summary:     "Toggle UI flag",
		Description: "Flips the menu or the filter panel",
		Tags:        []string{"UI"},
	}, s.handleToggleUIFlag)
}

// UIFlagsOutput wraps the UI flags for Huma.
type UIFlagsOutput struct {
	Body state.UIFlags
}

// UIFlagInput contains the flag path parameter.
type UIFlagInput struct {
	Flag string `path:"flag" enum:"menu,filters" doc:"Flag name"`
}

// SetUIFlagRequest is the request body for setting a flag.
type SetUIFlagRequest struct {
	Open bool `json:"open" doc:"Whether the panel is open"`
}

// SetUIFlagInput wraps the set flag request for Huma.
type SetUIFlagInput struct {
	UIFlagInput
	Body SetUIFlagRequest
}

func (s *Server) handleGetUIFlags(_ context.Context, _ *struct{}) (*UIFlagsOutput, error) {
	return &UIFlagsOutput{Body: s.services.UI.Snapshot()}, nil
}

func (s *Server) handleSetUIFlag(_ context.Context, input *SetUIFlagInput) (*UIFlagsOutput, error) {
	var flags state.UIFlags
	switch input.Flag {
	case flagMenu:
		flags = s.services.UI.SetMenuOpen(input.Body.Open)
	case flagFilters:
		flags = s.services.UI.SetFiltersOpen(input.Body.Open)
	}
	return &UIFlagsOutput{Body: flags}, nil
}

func (s *Server) handleToggleUIFlag(_ context.Context, input *UIFlagInput) (*UIFlagsOutput, error) {
	var flags state.UIFlags
	switch input.Flag {
	case flagMenu:
		flags = s.services.UI.ToggleMenu()
	case flagFilters:
		flags = s.services.UI.ToggleFilters()
	}
	return &UIFlagsOutput{Body: flags}, nil
}
