package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
)

// maxBodySize bounds upstream responses.
const maxBodySize = 10 << 20

// HTTPOptions configures an HTTPGateway.
type HTTPOptions struct {
	BaseURL string
	Timeout time.Duration // per request (default: 10s)

	// Outbound rate limit (default: 10 requests per second, burst 20).
	RateLimit rate.Limit
	Burst     int

	// The breaker opens after FailureThreshold consecutive upstream failures
	// and lets a probe through after OpenTimeout (defaults: 5, 30s).
	FailureThreshold uint32
	OpenTimeout      time.Duration
}

func (o *HTTPOptions) setDefaults() {
	if o.Timeout == 0 {
		o.Timeout = 10 * time.Second
	}
	if o.RateLimit == 0 {
		o.RateLimit = rate.Limit(10)
	}
	if o.Burst == 0 {
		o.Burst = 20
	}
	if o.FailureThreshold == 0 {
		o.FailureThreshold = 5
	}
	if o.OpenTimeout == 0 {
		o.OpenTimeout = 30 * time.Second
	}
}

// HTTPGateway fetches the catalog from the upstream commerce API:
// GET {base}/products, GET {base}/products/facets and GET {base}/events.
type HTTPGateway struct {
	baseURL     *url.URL
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *gobreaker.CircuitBreaker
	decoder     *Decoder
	logger      *slog.Logger
}

var (
	_ Gateway       = (*HTTPGateway)(nil)
	_ HealthChecker = (*HTTPGateway)(nil)
)

// NewHTTPGateway creates a gateway for the API at opts.BaseURL.
func NewHTTPGateway(opts HTTPOptions, decoder *Decoder, logger *slog.Logger) (*HTTPGateway, error) {
	opts.setDefaults()

	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid catalog url %q", opts.BaseURL)
	}

	g := &HTTPGateway{
		baseURL:     base,
		httpClient:  &http.Client{Timeout: opts.Timeout},
		rateLimiter: rate.NewLimiter(opts.RateLimit, opts.Burst),
		decoder:     decoder,
		logger:      logger,
	}

	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "catalog-upstream",
		MaxRequests: 1,
		Timeout:     opts.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.FailureThreshold
		},
		// Client-side errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || !errors.Is(err, domainerrors.ErrUnavailable)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return g, nil
}

// FetchProducts fetches one page of wines.
func (g *HTTPGateway) FetchProducts(ctx context.Context, params domain.ProductParams) (*domain.Page[domain.Wine], error) {
	body, err := g.get(ctx, "/products", params.Normalize().Query())
	if err != nil {
		return nil, fmt.Errorf("fetch products: %w", err)
	}
	return g.decoder.DecodeProductPage(body)
}

// FetchEvents fetches every event.
func (g *HTTPGateway) FetchEvents(ctx context.Context) ([]domain.Event, error) {
	body, err := g.get(ctx, "/events", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch events: %w", err)
	}
	return g.decoder.DecodeEvents(body)
}

// FetchProductFacets fetches the facet summary for the filter part of params.
func (g *HTTPGateway) FetchProductFacets(ctx context.Context, params domain.ProductParams) (*domain.FacetSummary, error) {
	body, err := g.get(ctx, "/products/facets", params.Normalize().Filter().Query())
	if err != nil {
		return nil, fmt.Errorf("fetch facets: %w", err)
	}
	return g.decoder.DecodeFacets(body)
}

// Health reports an open breaker as unavailable.
func (g *HTTPGateway) Health(_ context.Context) error {
	if g.breaker.State() == gobreaker.StateOpen {
		return domainerrors.Unavailable("catalog upstream circuit open")
	}
	return nil
}

// get performs a rate limited GET through the circuit breaker.
func (g *HTTPGateway) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := g.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := g.breaker.Execute(func() (any, error) {
		return g.do(ctx, path, query)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "catalog upstream unavailable")
	}
	if err != nil {
		return nil, err
	}
	return body.([]byte), nil
}

func (g *HTTPGateway) do(ctx context.Context, path string, query url.Values) ([]byte, error) {
	u := *g.baseURL
	u.Path += path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "catalog upstream request failed")
	}
	defer resp.Body.Close()

	g.logger.Debug("catalog upstream request",
		"path", path,
		"status", resp.StatusCode,
		"request_id", requestID,
		"duration", time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "read catalog upstream response")
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, domainerrors.NotFoundf("catalog upstream %s not found", path)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, domainerrors.RateLimited("catalog upstream rate limited")
	case resp.StatusCode >= 500:
		return nil, domainerrors.Wrapf(errors.New(http.StatusText(resp.StatusCode)), domainerrors.CodeUnavailable,
			"catalog upstream returned %d", resp.StatusCode)
	default:
		return nil, domainerrors.Wrapf(errors.New(strings.TrimSpace(string(body))), domainerrors.CodeInternal,
			"catalog upstream rejected request with %d", resp.StatusCode)
	}
}
