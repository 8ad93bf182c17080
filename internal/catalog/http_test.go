package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/logger"
)

const productPageJSON = `{
	"content": [
		{"id": "w1", "name": "Grüner Veltliner", "price": 14.5, "category": "wine", "type": "white",
		 "description": "<p>Pfeffrig</p>", "images": ["/a.jpg"]}
	],
	"meta": {"page": 2, "limit": 1, "total": 3, "hasMore": true}
}`

func newTestHTTPGateway(t *testing.T, handler http.Handler, opts HTTPOptions) *HTTPGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts.BaseURL = server.URL + "/api/"
	if opts.RateLimit == 0 {
		opts.RateLimit = rate.Inf
	}
	g, err := NewHTTPGateway(opts, newTestDecoder(), logger.Discard())
	require.NoError(t, err)
	return g
}

func TestNewHTTPGateway_InvalidURL(t *testing.T) {
	for _, raw := range []string{"", "not a url", "/relative/path"} {
		_, err := NewHTTPGateway(HTTPOptions{BaseURL: raw}, newTestDecoder(), logger.Discard())
		assert.Error(t, err, raw)
	}
}

func TestHTTPGateway_FetchProducts(t *testing.T) {
	var (
		mu        sync.Mutex
		gotPath   string
		gotQuery  url.Values
		gotHeader http.Header
	)
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotPath, gotQuery, gotHeader = r.URL.Path, r.URL.Query(), r.Header.Clone()
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(productPageJSON))
	}), HTTPOptions{})

	page, err := g.FetchProducts(context.Background(), domain.ProductParams{
		Category: " Wine ", Tag: "bio", Page: 2, Limit: 1,
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "/api/products", gotPath)
	assert.Equal(t, "wine", gotQuery.Get("category"))
	assert.Equal(t, "bio", gotQuery.Get("tag"))
	assert.Equal(t, "2", gotQuery.Get("page"))
	assert.Equal(t, "1", gotQuery.Get("limit"))
	assert.False(t, gotQuery.Has("search"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
	_, err = uuid.Parse(gotHeader.Get("X-Request-ID"))
	assert.NoError(t, err)

	require.Len(t, page.Content, 1)
	assert.Equal(t, "Pfeffrig", page.Content[0].Description)
	assert.Equal(t, "gruner-veltliner", page.Content[0].Slug)
	assert.True(t, page.Meta.HasMore)
}

func TestHTTPGateway_FetchProductFacetsDropsPagination(t *testing.T) {
	var gotQuery url.Values
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/facets", r.URL.Path)
		gotQuery = r.URL.Query()
		_, _ = w.Write([]byte(`{"total": 2, "types": [{"value": "white", "count": 2}]}`))
	}), HTTPOptions{})

	facets, err := g.FetchProductFacets(context.Background(), domain.ProductParams{Type: "white", Page: 4})
	require.NoError(t, err)

	assert.Equal(t, 2, facets.Total)
	assert.Equal(t, "white", gotQuery.Get("type"))
	assert.False(t, gotQuery.Has("page"))
	assert.False(t, gotQuery.Has("limit"))
}

func TestHTTPGateway_FetchEvents(t *testing.T) {
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/events", r.URL.Path)
		_, _ = w.Write([]byte(`[{"id": "E1", "title": "Kellerblick", "date": "2025-05-01", "time": "18:00",
			"category": "tasting", "capacity": {"totalSpots": 20, "bookedSpots": 12}, "pricePerPerson": 20}]`))
	}), HTTPOptions{})

	events, err := g.FetchEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 8, events[0].Capacity.AvailableSpots())
}

func TestHTTPGateway_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		want   error
	}{
		{"not found", http.StatusNotFound, domainerrors.ErrNotFound},
		{"rate limited", http.StatusTooManyRequests, domainerrors.ErrRateLimited},
		{"server error", http.StatusBadGateway, domainerrors.ErrUnavailable},
		{"bad request", http.StatusBadRequest, domainerrors.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "nope", tt.status)
			}), HTTPOptions{})

			_, err := g.FetchEvents(context.Background())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestHTTPGateway_RejectsInvalidPayload(t *testing.T) {
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"content": [{"id": "w1", "name": "GV", "price": -1, "category": "wine", "type": "white"}],
			"meta": {"page": 1, "limit": 12, "total": 1}}`))
	}), HTTPOptions{})

	_, err := g.FetchProducts(context.Background(), domain.ProductParams{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
	assert.Contains(t, err.Error(), "invalid wine at index 0")
}

func TestHTTPGateway_CircuitBreakerOpens(t *testing.T) {
	var calls atomic.Int32
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), HTTPOptions{FailureThreshold: 3, OpenTimeout: time.Hour})

	ctx := context.Background()
	for range 3 {
		_, err := g.FetchEvents(ctx)
		assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
	}
	assert.Error(t, g.Health(ctx))

	_, err := g.FetchEvents(ctx)
	assert.ErrorIs(t, err, domainerrors.ErrUnavailable)
	assert.Equal(t, int32(3), calls.Load(), "open breaker must not reach upstream")
}

func TestHTTPGateway_ClientErrorsDoNotTripBreaker(t *testing.T) {
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}), HTTPOptions{FailureThreshold: 2})

	ctx := context.Background()
	for range 5 {
		_, err := g.FetchEvents(ctx)
		assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	}
	assert.NoError(t, g.Health(ctx))
}

func TestHTTPGateway_RateLimitHonoursContext(t *testing.T) {
	g := newTestHTTPGateway(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}), HTTPOptions{RateLimit: rate.Every(time.Hour), Burst: 1})

	_, err := g.FetchEvents(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = g.FetchEvents(ctx)
	assert.Error(t, err)
}
