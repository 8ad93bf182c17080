package catalog

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/validation"
)

// ValidationError reports a malformed upstream payload. It is the source's
// fault, not the caller's, so it matches errors.ErrUnavailable.
type ValidationError struct {
	Record string            // "wine", "event", "page", "facets" or "catalog"
	Index  int               // position of the record, -1 when not applicable
	Fields map[string]string // field path -> problem
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("invalid ")
	b.WriteString(e.Record)
	if e.Index >= 0 {
		fmt.Fprintf(&b, " at index %d", e.Index)
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i, k := range keys {
		if i == 0 {
			b.WriteString(": ")
		} else {
			b.WriteString(", ")
		}
		if k == "" {
			b.WriteString(e.Fields[k])
		} else {
			b.WriteString(k + " " + e.Fields[k])
		}
	}
	return b.String()
}

// Unwrap lets errors.Is(err, errors.ErrUnavailable) match.
func (e *ValidationError) Unwrap() error {
	return domainerrors.ErrUnavailable
}

// Catalog is the document served by the file gateway.
type Catalog struct {
	Wines  []domain.Wine  `json:"wines"`
	Events []domain.Event `json:"events"`
}

// Decoder parses and validates gateway payloads.
type Decoder struct {
	v *validation.Validator
}

// NewDecoder creates a decoder using v.
func NewDecoder(v *validation.Validator) *Decoder {
	return &Decoder{v: v}
}

// DecodeCatalog parses a {"wines": [...], "events": [...]} document.
// Wine and event ids must be unique.
func (d *Decoder) DecodeCatalog(data []byte) (*Catalog, error) {
	var raw struct {
		Wines  []json.RawMessage `json:"wines"`
		Events []json.RawMessage `json:"events"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, syntaxError("catalog", -1, err)
	}

	wines, err := decodeEach(d, "wine", raw.Wines, normalizeWine)
	if err != nil {
		return nil, err
	}
	events, err := decodeEach(d, "event", raw.Events, normalizeEvent)
	if err != nil {
		return nil, err
	}

	if i, dup := firstDuplicate(wines, func(w domain.Wine) string { return w.ID }); dup {
		return nil, &ValidationError{Record: "wine", Index: i, Fields: map[string]string{"id": "is duplicated"}}
	}
	if i, dup := firstDuplicate(events, func(e domain.Event) string { return e.ID }); dup {
		return nil, &ValidationError{Record: "event", Index: i, Fields: map[string]string{"id": "is duplicated"}}
	}

	return &Catalog{Wines: wines, Events: events}, nil
}

// DecodeEvents parses a JSON array of events.
func (d *Decoder) DecodeEvents(data []byte) ([]domain.Event, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, syntaxError("event", -1, err)
	}
	return decodeEach(d, "event", raw, normalizeEvent)
}

// DecodeProductPage parses a {"content": [...], "meta": {...}} page of wines.
func (d *Decoder) DecodeProductPage(data []byte) (*domain.Page[domain.Wine], error) {
	var raw struct {
		Content []json.RawMessage `json:"content"`
		Meta    *struct {
			Page    int  `json:"page" validate:"gte=1"`
			Limit   int  `json:"limit" validate:"gte=0"`
			Total   int  `json:"total" validate:"gte=0"`
			HasMore bool `json:"hasMore"`
		} `json:"meta"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, syntaxError("page", -1, err)
	}
	if raw.Meta == nil {
		return nil, &ValidationError{Record: "page", Index: -1, Fields: map[string]string{"meta": "is required"}}
	}
	if fields := d.v.Fields(raw.Meta); fields != nil {
		return nil, &ValidationError{Record: "page", Index: -1, Fields: prefixed("meta.", fields)}
	}

	wines, err := decodeEach(d, "wine", raw.Content, normalizeWine)
	if err != nil {
		return nil, err
	}

	return &domain.Page[domain.Wine]{
		Content: wines,
		Meta: domain.PageMeta{
			Page:    raw.Meta.Page,
			Limit:   raw.Meta.Limit,
			Total:   raw.Meta.Total,
			HasMore: raw.Meta.HasMore,
		},
	}, nil
}

// DecodeFacets parses a facet summary.
func (d *Decoder) DecodeFacets(data []byte) (*domain.FacetSummary, error) {
	var summary domain.FacetSummary
	if err := json.Unmarshal(data, &summary); err != nil {
		return nil, syntaxError("facets", -1, err)
	}
	if summary.Total < 0 {
		return nil, &ValidationError{Record: "facets", Index: -1, Fields: map[string]string{"total": "must be greater than or equal to 0"}}
	}
	return &summary, nil
}

func decodeEach[T any](d *Decoder, record string, raw []json.RawMessage, normalize func(*T)) ([]T, error) {
	out := make([]T, 0, len(raw))
	for i, msg := range raw {
		var v T
		if err := json.Unmarshal(msg, &v); err != nil {
			return nil, syntaxError(record, i, err)
		}
		if fields := d.v.Fields(v); fields != nil {
			return nil, &ValidationError{Record: record, Index: i, Fields: fields}
		}
		normalize(&v)
		out = append(out, v)
	}
	return out, nil
}

func normalizeWine(w *domain.Wine) {
	w.Category = strings.ToLower(strings.TrimSpace(w.Category))
	w.Description = htmlToMarkdown(w.Description)
	if w.Slug == "" {
		w.Slug = Slugify(w.Name)
	}
}

func normalizeEvent(e *domain.Event) {
	e.Description = htmlToMarkdown(e.Description)
	if e.Slug == "" {
		e.Slug = Slugify(e.Title)
	}
}

func syntaxError(record string, index int, err error) *ValidationError {
	var typeErr *json.UnmarshalTypeError
	if domainerrors.As(err, &typeErr) && typeErr.Field != "" {
		return &ValidationError{Record: record, Index: index, Fields: map[string]string{
			typeErr.Field: "must be " + typeErr.Type.String(),
		}}
	}
	return &ValidationError{Record: record, Index: index, Fields: map[string]string{"": err.Error()}}
}

func prefixed(prefix string, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		out[prefix+k] = v
	}
	return out
}

func firstDuplicate[T any](items []T, key func(T) string) (int, bool) {
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		k := key(item)
		if seen[k] {
			return i, true
		}
		seen[k] = true
	}
	return 0, false
}
