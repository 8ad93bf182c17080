package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/kellerblick/storefront/internal/domain"
)

func (s *Server) registerProductRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listProducts",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List wines",
		Description: "Returns one page of wines matching the filters. Pages are served from the query cache.",
		Tags:        []string{"Products"},
	}, s.handleListProducts)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProductFacets",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/facets",
		Summary:     "Product facets",
		Description: "Returns filter option counts for the wines matching the filters",
		Tags:        []string{"Products"},
	}, s.handleGetProductFacets)
}

// ProductFilterInput contains the filter query parameters shared by product routes.
type ProductFilterInput struct {
	Category string `query:"category" doc:"Category, e.g. wine"`
	Search   string `query:"search" doc:"Free text search over name, grape and description"`
	Tag      string `query:"tag" doc:"Tag, e.g. bio"`
	Type     string `query:"type" doc:"Wine type: red, white, rose, sparkling, dessert, orange"`
}

func (in ProductFilterInput) params() domain.ProductParams {
	return domain.ProductParams{Category: in.Category, Search: in.Search, Tag: in.Tag, Type: in.Type}
}

// ListProductsInput contains parameters for listing wines.
type ListProductsInput struct {
	ProductFilterInput
	Page  int `query:"page" default:"1" minimum:"1" doc:"1-based page number"`
	Limit int `query:"limit" minimum:"1" maximum:"100" doc:"Page size (default: server page size)"`
}

// ProductPageOutput wraps one page of wines for Huma.
type ProductPageOutput struct {
	CacheStatus  string `header:"X-Cache-Status"`
	CacheControl string `header:"Cache-Control"`
	Body         domain.Page[domain.Wine]
}

// FacetsInput contains parameters for the facet summary.
type FacetsInput struct {
	ProductFilterInput
}

// FacetsOutput wraps the facet summary for Huma.
type FacetsOutput struct {
	CacheStatus  string `header:"X-Cache-Status"`
	CacheControl string `header:"Cache-Control"`
	Body         *domain.FacetSummary
}

func (s *Server) handleListProducts(ctx context.Context, input *ListProductsInput) (*ProductPageOutput, error) {
	params := input.params()
	params.Limit = input.Limit

	q := s.services.Query.Products(params)

	page, ok, err := q.Page(ctx, input.Page)
	if err != nil {
		return nil, err
	}

	snap, _ := s.services.Query.Cache().Peek(q.Key())
	out := &ProductPageOutput{
		CacheStatus:  string(snap.Status),
		CacheControl: CacheCatalog,
	}

	if ok {
		out.Body = *page
		return out, nil
	}

	// Past the last page: an empty page keeps the list's total.
	total := 0
	if res, err := q.Load(ctx); err == nil && res.Data != nil {
		total = res.Data.Total()
	}
	out.Body = domain.Page[domain.Wine]{
		Content: []domain.Wine{},
		Meta: domain.PageMeta{
			Page:  input.Page,
			Limit: q.Params().Limit,
			Total: total,
		},
	}
	return out, nil
}

func (s *Server) handleGetProductFacets(ctx context.Context, input *FacetsInput) (*FacetsOutput, error) {
	res, err := s.services.Query.ProductFacets(ctx, input.params())
	if err != nil {
		return nil, err
	}

	return &FacetsOutput{
		CacheStatus:  string(res.Status),
		CacheControl: CacheCatalog,
		Body:         res.Data,
	}, nil
}
