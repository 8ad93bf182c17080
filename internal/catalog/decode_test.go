package catalog

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kellerblick/storefront/internal/domain"
	domainerrors "github.com/kellerblick/storefront/internal/errors"
	"github.com/kellerblick/storefront/internal/validation"
)

func newTestDecoder() *Decoder {
	return NewDecoder(validation.New())
}

func TestDecodeCatalog(t *testing.T) {
	data, err := os.ReadFile("testdata/catalog.json")
	require.NoError(t, err)

	cat, err := newTestDecoder().DecodeCatalog(data)
	require.NoError(t, err)

	require.Len(t, cat.Wines, 3)
	require.Len(t, cat.Events, 2)

	gv := cat.Wines[0]
	assert.Equal(t, "gruner-veltliner-ried-kellerberg", gv.Slug)
	assert.Equal(t, "wine", gv.Category)
	assert.Equal(t, "Pfeffrig, **frisch** und lebendig.", gv.Description)
	require.NotNil(t, gv.Alcohol)
	assert.InDelta(t, 12.5, *gv.Alcohol, 0.001)

	assert.Equal(t, "zweigelt-reserve", cat.Wines[1].Slug)
	assert.Equal(t, "kellerblick", cat.Events[0].Slug)
	assert.True(t, cat.Events[1].Capacity.IsFull())
}

func TestDecodeCatalog_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{
			name:    "not json",
			payload: `{"wines": [`,
			wantErr: "invalid catalog",
		},
		{
			name:    "wrong field type",
			payload: `{"wines": [{"id": "w1", "name": "GV", "price": "cheap", "category": "wine", "type": "white"}]}`,
			wantErr: "invalid wine at index 0: price must be float64",
		},
		{
			name:    "unknown wine type",
			payload: `{"wines": [{"id": "w1", "name": "GV", "price": 10, "category": "wine", "type": "blue"}]}`,
			wantErr: "invalid wine at index 0: type must be one of",
		},
		{
			name:    "non-positive price",
			payload: `{"wines": [{"id": "w1", "name": "GV", "price": 0, "category": "wine", "type": "red"}]}`,
			wantErr: "price must be greater than 0",
		},
		{
			name:    "bad event date",
			payload: `{"events": [{"id": "E1", "title": "T", "date": "01.05.2025", "time": "18:00", "category": "tasting"}]}`,
			wantErr: "invalid event at index 0: date must be a date in YYYY-MM-DD format",
		},
		{
			name:    "negative capacity",
			payload: `{"events": [{"id": "E1", "title": "T", "date": "2025-05-01", "time": "18:00", "category": "tour", "capacity": {"totalSpots": -1}}]}`,
			wantErr: "capacity.totalSpots must be greater than or equal to 0",
		},
		{
			name: "duplicate wine id",
			payload: `{"wines": [
				{"id": "w1", "name": "A", "price": 10, "category": "wine", "type": "red"},
				{"id": "w1", "name": "B", "price": 12, "category": "wine", "type": "red"}]}`,
			wantErr: "invalid wine at index 1: id is duplicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestDecoder().DecodeCatalog([]byte(tt.payload))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.ErrorIs(t, err, domainerrors.ErrUnavailable)

			var vErr *ValidationError
			assert.ErrorAs(t, err, &vErr)
		})
	}
}

func TestDecodeProductPage(t *testing.T) {
	payload := `{
		"content": [{"id": "w1", "name": "GV", "price": 10, "category": "wine", "type": "white"}],
		"meta": {"page": 2, "limit": 1, "total": 3, "hasMore": true}
	}`

	page, err := newTestDecoder().DecodeProductPage([]byte(payload))
	require.NoError(t, err)

	assert.Len(t, page.Content, 1)
	assert.Equal(t, domain.PageMeta{Page: 2, Limit: 1, Total: 3, HasMore: true}, page.Meta)
}

func TestDecodeProductPage_Rejects(t *testing.T) {
	d := newTestDecoder()

	_, err := d.DecodeProductPage([]byte(`{"content": []}`))
	assert.ErrorContains(t, err, "meta is required")

	_, err = d.DecodeProductPage([]byte(`{"content": [], "meta": {"page": 0}}`))
	assert.ErrorContains(t, err, "meta.page must be greater than or equal to 1")
}

func TestDecodeEvents(t *testing.T) {
	events, err := newTestDecoder().DecodeEvents([]byte(`[
		{"id": "E1", "title": "Kellerblick", "date": "2025-05-01", "time": "18:00", "category": "tasting",
		 "capacity": {"totalSpots": 20, "bookedSpots": 20}, "pricePerPerson": 20}
	]`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].Capacity.IsFull())
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Grüner Veltliner":           "gruner-veltliner",
		"Blaufränkisch – Alte Reben": "blaufrankisch-alte-reben",
		"  Sekt/Brut 2021 ":          "sekt-brut-2021",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestHTMLToMarkdown(t *testing.T) {
	assert.Equal(t, "plain text", htmlToMarkdown("plain text"))
	assert.Equal(t, "", htmlToMarkdown(""))
	assert.Equal(t, "**kräftig**", htmlToMarkdown("<p><b>kräftig</b></p>"))
}
