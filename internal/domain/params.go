package domain

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Pagination defaults for product queries.
const (
	DefaultPageLimit = 12
	MaxPageLimit     = 100
)

// ProductParams filters and paginates a product query. Zero values mean "any".
type ProductParams struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Type     string `json:"type,omitempty"`
	Page     int    `json:"page,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Normalize trims the filters, lowercases the enum-like ones and applies
// pagination defaults. The result is safe to use as a cache key component.
func (p ProductParams) Normalize() ProductParams {
	p.Category = strings.ToLower(strings.TrimSpace(p.Category))
	p.Tag = strings.ToLower(strings.TrimSpace(p.Tag))
	p.Type = strings.ToLower(strings.TrimSpace(p.Type))
	p.Search = strings.Join(strings.Fields(p.Search), " ")
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// WithPage returns a copy pointing at page.
func (p ProductParams) WithPage(page int) ProductParams {
	p.Page = page
	return p
}

// Filter returns the filter subset of the params. Page and limit are dropped.
func (p ProductParams) Filter() ProductFilter {
	return ProductFilter{Category: p.Category, Search: p.Search, Tag: p.Tag, Type: p.Type}
}

// ListKey identifies the paginated list these params belong to: every filter and
// the page size, but not the page.
func (p ProductParams) ListKey() string {
	n := p.Normalize()
	n.Page = 0
	b, _ := json.Marshal(n) //nolint:errcheck // plain struct of strings and ints
	return string(b)
}

// Query encodes the params as URL query values, omitting zero fields.
func (p ProductParams) Query() url.Values {
	q := url.Values{}
	f := p.Filter()
	for k, v := range f.Query() {
		q[k] = v
	}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// ProductFilter is the part of ProductParams that facets depend on.
type ProductFilter struct {
	Category string `json:"category,omitempty"`
	Search   string `json:"search,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Key renders the filter as a stable string. Field values never run into each
// other, so free text containing separators cannot collide across fields.
func (f ProductFilter) Key() string {
	b, _ := json.Marshal(f) //nolint:errcheck // plain struct of strings
	return string(b)
}

// Query encodes the filter as URL query values, omitting empty fields.
func (f ProductFilter) Query() url.Values {
	q := url.Values{}
	for k, v := range map[string]string{"category": f.Category, "search": f.Search, "tag": f.Tag, "type": f.Type} {
		if v != "" {
			q.Set(k, v)
		}
	}
	return q
}
