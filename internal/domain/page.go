package domain

// PageMeta describes a page of a paginated collection.
type PageMeta struct {
	Page    int  `json:"page"`
	Limit   int  `json:"limit"`
	Total   int  `json:"total"`
	HasMore bool `json:"hasMore"`
}

// Page is one page of a paginated collection.
type Page[T any] struct {
	Content []T      `json:"content"`
	Meta    PageMeta `json:"meta"`
}

// NextPage returns the cursor of the following page, or false when this page is the last.
func (p *Page[T]) NextPage() (int, bool) {
	if !p.Meta.HasMore {
		return 0, false
	}
	return p.Meta.Page + 1, true
}

// Paginate slices items into the requested page. page is 1-based.
func Paginate[T any](items []T, page, limit int) Page[T] {
	start := min((page-1)*limit, len(items))
	end := min(start+limit, len(items))
	content := make([]T, end-start)
	copy(content, items[start:end])
	return Page[T]{
		Content: content,
		Meta: PageMeta{
			Page:    page,
			Limit:   limit,
			Total:   len(items),
			HasMore: end < len(items),
		},
	}
}
