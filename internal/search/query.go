package search

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kellerblick/storefront/internal/domain"
)

// facetSize caps the number of terms returned per facet.
const facetSize = 50

// PriceBand is one bucket of the price facet.
type PriceBand struct {
	Label string
	Min   *float64
	Max   *float64
}

func ptr(f float64) *float64 { return &f }

// PriceBands are the buckets of the price facet, cheapest first.
var PriceBands = []PriceBand{
	{Label: "under-15", Max: ptr(15)},
	{Label: "15-25", Min: ptr(15), Max: ptr(25)},
	{Label: "25-40", Min: ptr(25), Max: ptr(40)},
	{Label: "40-plus", Min: ptr(40)},
}

// Result is one page of matching wine ids.
type Result struct {
	IDs   []string
	Total int
}

// Search returns the ids of the wines matching filter on the given 1-based page.
// Without a search term results keep catalog order; with one they rank by score.
func (c *CatalogIndex) Search(ctx context.Context, filter domain.ProductFilter, page, limit int) (*Result, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(filter), limit, (page-1)*limit, false)
	if filter.Search == "" {
		req.SortBy([]string{"position"})
	} else {
		req.SortBy([]string{"-_score", "position"})
	}

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return &Result{IDs: ids, Total: int(res.Total)}, nil
}

// Facets counts the filter options among the wines matching filter.
func (c *CatalogIndex) Facets(ctx context.Context, filter domain.ProductFilter) (*domain.FacetSummary, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(buildQuery(filter), 0, 0, false)
	for _, field := range []string{"category", "type", "grape", "tags", "vintage"} {
		req.AddFacet(field, bleve.NewFacetRequest(field, facetSize))
	}
	priceFacet := bleve.NewFacetRequest("price", len(PriceBands))
	for _, band := range PriceBands {
		priceFacet.AddNumericRange(band.Label, band.Min, band.Max)
	}
	req.AddFacet("prices", priceFacet)

	res, err := c.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("execute facet search: %w", err)
	}

	summary := &domain.FacetSummary{
		Total:      int(res.Total),
		Categories: termCounts(res, "category"),
		Types:      termCounts(res, "type"),
		Grapes:     termCounts(res, "grape"),
		Tags:       termCounts(res, "tags"),
		Vintages:   termCounts(res, "vintage"),
		Prices:     make([]domain.PriceBucket, 0, len(PriceBands)),
	}

	counts := map[string]int{}
	if fr, ok := res.Facets["prices"]; ok {
		for _, nr := range fr.NumericRanges {
			counts[nr.Name] = nr.Count
		}
	}
	for _, band := range PriceBands {
		summary.Prices = append(summary.Prices, domain.PriceBucket{
			Label: band.Label,
			Min:   band.Min,
			Max:   band.Max,
			Count: counts[band.Label],
		})
	}

	return summary, nil
}

// termCounts returns a facet's terms by descending count, then value.
func termCounts(res *bleve.SearchResult, field string) []domain.FacetCount {
	out := []domain.FacetCount{}
	fr, ok := res.Facets[field]
	if !ok || fr.Terms == nil {
		return out
	}
	for _, term := range fr.Terms.Terms() {
		out = append(out, domain.FacetCount{Value: term.Term, Count: term.Count})
	}
	slices.SortFunc(out, func(a, b domain.FacetCount) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Value, b.Value)
	})
	return out
}

// buildQuery combines the filter into a conjunction. Empty fields match everything.
func buildQuery(filter domain.ProductFilter) query.Query {
	var queries []query.Query

	if filter.Search != "" {
		q := Fold(filter.Search)

		nameMatch := bleve.NewMatchQuery(q)
		nameMatch.SetField("name")
		nameMatch.SetBoost(3.0)
		nameMatch.SetOperator(query.MatchQueryOperatorAnd)

		textMatch := bleve.NewMatchQuery(q)
		textMatch.SetField("text")
		textMatch.SetOperator(query.MatchQueryOperatorAnd)

		textQueries := []query.Query{nameMatch, textMatch}

		// Prefix on a single word for type-ahead (minimum 2 chars).
		if words := strings.Fields(q); len(words) == 1 && len(words[0]) >= 2 {
			prefix := bleve.NewPrefixQuery(words[0])
			prefix.SetField("name")
			prefix.SetBoost(0.5)
			textQueries = append(textQueries, prefix)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	for field, value := range map[string]string{"category": filter.Category, "type": filter.Type, "tags": filter.Tag} {
		if value == "" {
			continue
		}
		tq := bleve.NewTermQuery(value)
		tq.SetField(field)
		queries = append(queries, tq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
