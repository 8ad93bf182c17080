package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/catalog"
	"github.com/kellerblick/storefront/internal/store"
)

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	CacheControl string `header:"Cache-Control"`
	Body         HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"storage": s.checkStorage(ctx),
		"catalog": s.checkCatalog(ctx),
		"stream":  s.checkSSEManager(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch {
		case c.Status == statusUnhealthy:
			overall = statusUnhealthy
		case c.Status == statusDegraded && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		CacheControl: CacheNoStore,
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkStorage pings the persistence driver when it supports it.
func (s *Server) checkStorage(ctx context.Context) ComponentHealth {
	if s.storage == nil {
		return ComponentHealth{Status: statusDegraded, Message: "storage not configured"}
	}
	pinger, ok := s.storage.(store.Pinger)
	if !ok {
		return ComponentHealth{Status: statusHealthy, Message: "in-memory storage"}
	}
	return timed(func() error { return pinger.Ping(ctx) }, "storage unreachable")
}

// checkCatalog asks the gateway for its upstream state. An unreachable catalog
// degrades the server: cached data and local state are still served.
func (s *Server) checkCatalog(ctx context.Context) ComponentHealth {
	checker, ok := s.gateway.(catalog.HealthChecker)
	if !ok {
		return ComponentHealth{Status: statusHealthy}
	}
	h := timed(func() error { return checker.Health(ctx) }, "")
	if h.Status == statusUnhealthy {
		h.Status = statusDegraded
	}
	return h
}

// checkSSEManager reports the number of connected stream clients.
func (s *Server) checkSSEManager() ComponentHealth {
	if s.sseManager == nil {
		return ComponentHealth{Status: statusDegraded, Message: "stream not configured"}
	}
	return ComponentHealth{Status: statusHealthy, Message: formatClientCount(s.sseManager.ClientCount())}
}

func timed(check func() error, failure string) ComponentHealth {
	start := time.Now()
	err := check()
	latency := time.Since(start).String()
	if err != nil {
		msg := failure
		if msg == "" {
			msg = err.Error()
		}
		return ComponentHealth{Status: statusUnhealthy, Latency: latency, Message: msg}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency}
}

func formatClientCount(count int) string {
	switch count {
	case 0:
		return "no connected clients"
	case 1:
		return "1 connected client"
	default:
		return strconv.Itoa(count) + " connected clients"
	}
}
