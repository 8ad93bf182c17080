package api

// Cache-Control header values.
const (
	// Catalog data may be cached briefly by the browser; the server cache revalidates.
	CacheCatalog = "public, max-age=30"
	CacheNoStore = "no-store"
)

// CacheStatusHeader reports the query cache state of the entry that served a catalog read.
const CacheStatusHeader = "X-Cache-Status"
