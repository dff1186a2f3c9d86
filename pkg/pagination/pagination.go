package pagination

// DefaultLimit is the page size used when a caller passes no positive limit.
const DefaultLimit = 10

// NormalizeLimit falls back to DefaultLimit for non-positive limits. Positive
// limits pass through unchanged; upper bounds belong to the request boundary.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return limit
}

// Page is the resolved position of a numbered page inside a result set.
type Page struct {
	CurrentPage int
	TotalPages  int
	Total       int
	Limit       int
	// Offset is the index of the first row of the page.
	Offset int
}

// Resolve clamps page into [1, totalPages]. An empty result set resolves to
// page 1 of 0.
func Resolve(total, limit, page int) Page {
	limit = NormalizeLimit(limit)
	if total < 0 {
		total = 0
	}
	totalPages := (total + limit - 1) / limit
	current := page
	if current > totalPages {
		current = totalPages
	}
	if current < 1 {
		current = 1
	}
	return Page{
		CurrentPage: current,
		TotalPages:  totalPages,
		Total:       total,
		Limit:       limit,
		Offset:      (current - 1) * limit,
	}
}

// Result is one numbered page of items plus its position metadata.
type Result[T any] struct {
	Items       []T `json:"items"`
	CurrentPage int `json:"current_page"`
	TotalPages  int `json:"total_pages"`
	Total       int `json:"total"`
	Limit       int `json:"limit"`
}

// NewResult attaches page metadata to items.
func NewResult[T any](items []T, p Page) Result[T] {
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:       items,
		CurrentPage: p.CurrentPage,
		TotalPages:  p.TotalPages,
		Total:       p.Total,
		Limit:       p.Limit,
	}
}

// Slice paginates an in-memory, already ordered list.
func Slice[T any](all []T, limit, page int) Result[T] {
	p := Resolve(len(all), limit, page)
	end := p.Offset + p.Limit
	if end > len(all) {
		end = len(all)
	}
	if p.Offset >= end {
		return NewResult[T](nil, p)
	}
	items := make([]T, end-p.Offset)
	copy(items, all[p.Offset:end])
	return NewResult(items, p)
}

// Map converts the items of a page while keeping its metadata.
func Map[T, U any](in Result[T], fn func(T) U) Result[U] {
	out := make([]U, 0, len(in.Items))
	for _, item := range in.Items {
		out = append(out, fn(item))
	}
	return Result[U]{
		Items:       out,
		CurrentPage: in.CurrentPage,
		TotalPages:  in.TotalPages,
		Total:       in.Total,
		Limit:       in.Limit,
	}
}
