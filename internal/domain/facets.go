package domain

// FacetCount is one option of a facet with the number of matching wines.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// PriceBucket counts wines in the half-open range [Min, Max). A nil bound is open.
type PriceBucket struct {
	Label string   `json:"label"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
	Count int      `json:"count"`
}

// FacetSummary aggregates the filter options available for a product query.
type FacetSummary struct {
	Total      int           `json:"total"`
	Categories []FacetCount  `json:"categories"`
	Types      []FacetCount  `json:"types"`
	Grapes     []FacetCount  `json:"grapes"`
	Tags       []FacetCount  `json:"tags"`
	Vintages   []FacetCount  `json:"vintages"`
	Prices     []PriceBucket `json:"prices"`
}
