package orderview

import "fmt"

// DefaultPageSize is the number of rows per page.
const DefaultPageSize = 50

// Page is one page of a filtered list.
type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	Total      int `json:"total"`
}

// Paginate returns page of items. page is clamped to [1, TotalPages].
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = DefaultPageSize
	}

	total := len(items)
	totalPages := (total + size - 1) / size

	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
	}
}

// PageKey identifies the filtered set a page was taken from: the filter
// composition and the size of the source list.
func PageKey(fingerprint string, sourceLen int) string {
	return fmt.Sprintf("%s#%d", fingerprint, sourceLen)
}

// ResolvePage returns the page to show for requested. The page falls back to 1
// when the caller last saw a different filtered set than current; an empty
// previous key means the caller has seen nothing yet.
func ResolvePage(previous, current string, requested int) int {
	if previous != "" && previous != current {
		return 1
	}
	return max(requested, 1)
}
