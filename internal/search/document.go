// Package search indexes the wine catalog in an in-memory Bleve index for
// filtering, free-text search and facet counts.
package search

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kellerblick/storefront/internal/domain"
)

// WineDocument is the indexed form of a domain.Wine.
type WineDocument struct {
	ID       string
	Name     string // folded
	Text     string // folded name, grape, description and tags
	Category string
	Type     string
	Grape    string
	Tags     []string
	Vintage  int
	Price    float64
	Position int // catalog order
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *WineDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":       d.ID,
		"name":     d.Name,
		"text":     d.Text,
		"category": d.Category,
		"type":     d.Type,
		"price":    d.Price,
		"position": d.Position,
	}
	if d.Grape != "" {
		m["grape"] = d.Grape
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	if d.Vintage > 0 {
		m["vintage"] = strconv.Itoa(d.Vintage)
	}
	return m
}

// WineToDocument converts a wine at catalog position pos.
func WineToDocument(w *domain.Wine, pos int) *WineDocument {
	tags := make([]string, 0, len(w.Tags))
	for _, t := range w.Tags {
		tags = append(tags, strings.ToLower(t))
	}

	text := strings.Join([]string{w.Name, w.Grape, w.Description, strings.Join(w.Tags, " ")}, " ")

	return &WineDocument{
		ID:       w.ID,
		Name:     Fold(w.Name),
		Text:     Fold(text),
		Category: strings.ToLower(w.Category),
		Type:     string(w.Type),
		Grape:    w.Grape,
		Tags:     tags,
		Vintage:  w.Vintage,
		Price:    w.Price,
		Position: pos,
	}
}

// Fold lowercases s and strips diacritics so "Grüner" matches "gruner".
func Fold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}
