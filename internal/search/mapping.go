package search

import (
	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// buildIndexMapping creates the Bleve mapping for wine documents.
//
// Text fields are folded before indexing and searched with the standard analyzer.
// Filter fields use the keyword analyzer so they match and facet exactly.
func buildIndexMapping() mapping.IndexMapping {
	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultAnalyzer = standard.Name

	docMapping := bleve.NewDocumentMapping()

	// --- Text fields ---

	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", nameFieldMapping)

	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = standard.Name
	textFieldMapping.Store = false
	docMapping.AddFieldMappingsAt("text", textFieldMapping)

	// --- Keyword fields (exact match, facetable) ---

	for _, field := range []string{"id", "category", "type", "grape", "tags", "vintage"} {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = keyword.Name
		fm.IncludeTermVectors = false
		docMapping.AddFieldMappingsAt(field, fm)
	}

	// --- Numeric fields (range facets, sorting) ---

	priceFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("price", priceFieldMapping)

	positionFieldMapping := bleve.NewNumericFieldMapping()
	docMapping.AddFieldMappingsAt("position", positionFieldMapping)

	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}
