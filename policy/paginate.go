package policy

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// DefaultPageSize is used when a caller asks for a non-positive page size.
const DefaultPageSize = 10

// Page describes one slice of a paginated listing.
type Page struct {
	Number      int   `json:"page"`
	Size        int   `json:"per_page"`
	NumPages    int   `json:"num_pages"`
	Total       int64 `json:"total"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// Paginate resolves the requested page against total results. Missing or
// non-numeric input yields the first page, out-of-range values are clamped
// to the nearest valid page, and an empty result is a single empty page.
func Paginate(total int64, requested string, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	numPages := int((total + int64(size) - 1) / int64(size))
	if numPages < 1 {
		numPages = 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(requested))
	if err != nil || n < 1 {
		n = 1
	}
	if n > numPages {
		n = numPages
	}
	return Page{
		Number:      n,
		Size:        size,
		NumPages:    numPages,
		Total:       total,
		HasNext:     n < numPages,
		HasPrevious: n > 1,
	}
}

// Offset is the number of rows before this page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// Scope limits a query to the rows of this page.
func (p Page) Scope(db *gorm.DB) *gorm.DB {
	return db.Offset(p.Offset()).Limit(p.Size)
}
