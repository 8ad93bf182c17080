package query

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/kellerblick/storefront/internal/catalog"
	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/logger"
)

// Key prefixes.
const (
	ProductsPrefix = "products:"
	FacetsPrefix   = "facets:"
	EventsKey      = "events"
)

// ClientOptions configures a Client.
type ClientOptions struct {
	ProductsStaleTime time.Duration // default: 60s
	FacetsStaleTime   time.Duration // default: 5m
	EventsStaleTime   time.Duration // default: 60s
	PageSize          int           // default: domain.DefaultPageLimit
}

func (o *ClientOptions) setDefaults() {
	if o.ProductsStaleTime == 0 {
		o.ProductsStaleTime = 60 * time.Second
	}
	if o.FacetsStaleTime == 0 {
		o.FacetsStaleTime = 5 * time.Minute
	}
	if o.EventsStaleTime == 0 {
		o.EventsStaleTime = 60 * time.Second
	}
	if o.PageSize == 0 {
		o.PageSize = domain.DefaultPageLimit
	}
}

// Result is a typed cache read.
type Result[T any] struct {
	Data      T
	Status    Status
	FetchedAt time.Time
	Err       error // last fetch error, set when stale data is served after a failure
}

func resultOf[T any](snap Snapshot) Result[T] {
	data, _ := snap.Value.(T)
	return Result[T]{Data: data, Status: snap.Status, FetchedAt: snap.FetchedAt, Err: snap.Err}
}

// Client serves catalog reads through a Cache.
type Client struct {
	cache   *Cache
	gateway catalog.Gateway
	opts    ClientOptions
	logger  *slog.Logger
}

// NewClient creates a query client over gateway.
func NewClient(cache *Cache, gateway catalog.Gateway, opts ClientOptions, log *slog.Logger) *Client {
	opts.setDefaults()
	if log == nil {
		log = logger.Discard()
	}
	return &Client{
		cache:   cache,
		gateway: gateway,
		opts:    opts,
		logger:  log,
	}
}

// Cache returns the underlying cache.
func (c *Client) Cache() *Cache {
	return c.cache
}

// ProductsKey returns the cache key of the product list for params.
func (c *Client) ProductsKey(params domain.ProductParams) string {
	return ProductsPrefix + c.normalize(params).ListKey()
}

// FacetsKey returns the cache key of the facet summary for params.
// Page and limit do not take part.
func FacetsKey(params domain.ProductParams) string {
	return FacetsPrefix + params.Normalize().Filter().Key()
}

// Products returns the infinite query for params. Params.Page is ignored.
func (c *Client) Products(params domain.ProductParams) *InfiniteQuery {
	p := c.normalize(params)
	return &InfiniteQuery{
		client: c,
		key:    ProductsPrefix + p.ListKey(),
		params: p,
	}
}

// ProductFacets returns the facet summary for the filter part of params.
func (c *Client) ProductFacets(ctx context.Context, params domain.ProductParams) (Result[*domain.FacetSummary], error) {
	p := params.Normalize()
	snap, err := c.cache.Fetch(ctx, FacetsKey(p), c.opts.FacetsStaleTime, func(ctx context.Context) (any, error) {
		return c.gateway.FetchProductFacets(ctx, p)
	})
	return resultOf[*domain.FacetSummary](snap), err
}

// Events returns every event.
func (c *Client) Events(ctx context.Context) (Result[[]domain.Event], error) {
	snap, err := c.cache.Fetch(ctx, EventsKey, c.opts.EventsStaleTime, func(ctx context.Context) (any, error) {
		return c.gateway.FetchEvents(ctx)
	})
	return resultOf[[]domain.Event](snap), err
}

// Event looks up one event in the cached events collection.
func (c *Client) Event(ctx context.Context, id string) (domain.Event, error) {
	res, err := c.Events(ctx)
	if err != nil {
		return domain.Event{}, err
	}
	idx := slices.IndexFunc(res.Data, func(e domain.Event) bool { return e.ID == id })
	if idx < 0 {
		return domain.Event{}, domainerrors.NotFoundf("event %s not found", id)
	}
	return res.Data[idx], nil
}

// Invalidate marks every entry under prefix stale.
func (c *Client) Invalidate(prefix string) int {
	return c.cache.Invalidate(prefix)
}

// InvalidateCatalog marks every catalog entry stale.
func (c *Client) InvalidateCatalog() int {
	return c.cache.Invalidate(ProductsPrefix) + c.cache.Invalidate(FacetsPrefix) + c.cache.Invalidate(EventsKey)
}

func (c *Client) normalize(params domain.ProductParams) domain.ProductParams {
	if params.Limit == 0 {
		params.Limit = c.opts.PageSize
	}
	p := params.Normalize()
	p.Page = 0
	return p
}

// InfiniteData holds the loaded pages of a product list.
type InfiniteData struct {
	Pages       []*domain.Page[domain.Wine]
	HasNextPage bool
}

// Items flattens the loaded pages.
func (d *InfiniteData) Items() []domain.Wine {
	var items []domain.Wine
	for _, p := range d.Pages {
		items = append(items, p.Content...)
	}
	return items
}

// Total returns the total reported by the last loaded page.
func (d *InfiniteData) Total() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[len(d.Pages)-1].Meta.Total
}

func (d *InfiniteData) lastPage() int {
	if len(d.Pages) == 0 {
		return 0
	}
	return d.Pages[len(d.Pages)-1].Meta.Page
}

// InfiniteQuery is an incrementally loaded product list. All pages live in a
// single cache entry; a stale entry refetches every loaded page in order.
type InfiniteQuery struct {
	client *Client
	key    string
	params domain.ProductParams
}

// Key returns the query's cache key.
func (q *InfiniteQuery) Key() string {
	return q.key
}

// Params returns the normalized list params, without a page.
func (q *InfiniteQuery) Params() domain.ProductParams {
	return q.params
}

// Load returns the loaded pages, fetching the first page if nothing is cached.
func (q *InfiniteQuery) Load(ctx context.Context) (Result[*InfiniteData], error) {
	snap, err := q.client.cache.Fetch(ctx, q.key, q.client.opts.ProductsStaleTime, q.refetch)
	return resultOf[*InfiniteData](snap), err
}

// FetchNextPage loads the page after the last loaded one. When the last page
// reported no more results it returns false without calling the gateway.
func (q *InfiniteQuery) FetchNextPage(ctx context.Context) (Result[*InfiniteData], bool, error) {
	res, err := q.Load(ctx)
	if err != nil {
		return res, false, err
	}
	if res.Data == nil || !res.Data.HasNextPage {
		return res, false, nil
	}

	fetched := false
	snap, err := q.client.cache.Mutate(ctx, q.key, func(ctx context.Context, current Snapshot) (any, error) {
		data, _ := current.Value.(*InfiniteData)
		if data == nil || !data.HasNextPage {
			return nil, nil
		}

		page, err := q.client.gateway.FetchProducts(ctx, q.params.WithPage(data.lastPage()+1))
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", data.lastPage()+1, err)
		}
		fetched = true

		return &InfiniteData{
			Pages:       append(slices.Clone(data.Pages), page),
			HasNextPage: page.Meta.HasMore,
		}, nil
	})
	if err != nil {
		return resultOf[*InfiniteData](snap), false, err
	}
	return resultOf[*InfiniteData](snap), fetched, nil
}

// Page returns page n (1-based), loading earlier pages first as needed.
// The second return is false when the list ends before page n.
func (q *InfiniteQuery) Page(ctx context.Context, n int) (*domain.Page[domain.Wine], bool, error) {
	if n < 1 {
		n = 1
	}

	res, err := q.Load(ctx)
	for err == nil && res.Data != nil && len(res.Data.Pages) < n && res.Data.HasNextPage {
		res, _, err = q.FetchNextPage(ctx)
	}
	if err != nil {
		return nil, false, err
	}
	if res.Data == nil || len(res.Data.Pages) < n {
		return nil, false, nil
	}
	return res.Data.Pages[n-1], true, nil
}

// refetch loads pages 1..n where n is the number of pages currently loaded.
func (q *InfiniteQuery) refetch(ctx context.Context) (any, error) {
	want := 1
	if snap, ok := q.client.cache.Peek(q.key); ok {
		if data, _ := snap.Value.(*InfiniteData); data != nil && len(data.Pages) > 0 {
			want = len(data.Pages)
		}
	}

	data := &InfiniteData{}
	for page := 1; page <= want; page++ {
		p, err := q.client.gateway.FetchProducts(ctx, q.params.WithPage(page))
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}
		data.Pages = append(data.Pages, p)
		data.HasNextPage = p.Meta.HasMore
		if !p.Meta.HasMore {
			break
		}
	}
	return data, nil
}
