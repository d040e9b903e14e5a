// Package pagination derives page windows from a current page, a total
// count, and a page size. Everything here is pure.
package pagination

import "strconv"

// Item is one entry of a page number sequence: a page or an ellipsis.
type Item struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// String returns the page number, or "..." for an ellipsis.
func (i Item) String() string {
	if i.Ellipsis {
		return "..."
	}
	return strconv.Itoa(i.Page)
}

// maxFull is the largest page count rendered without an ellipsis.
const maxFull = 5

// PageNumbers returns the page links to render for the given position.
//
//	total <= 5          1 2 3 4 5
//	current <= 3        1 2 3 4 ... total
//	current >= total-2  1 ... total-3 total-2 total-1 total
//	otherwise           1 ... c-1 c c+1 ... total
func PageNumbers(current, total int) []Item {
	if total <= 0 {
		return nil
	}
	current = Clamp(current, total)

	if total <= maxFull {
		return pages(1, total)
	}

	gap := Item{Ellipsis: true}
	switch {
	case current <= 3:
		return append(pages(1, 4), gap, Item{Page: total})
	case current >= total-2:
		return append([]Item{{Page: 1}, gap}, pages(total-3, total)...)
	default:
		out := []Item{{Page: 1}, gap}
		out = append(out, pages(current-1, current+1)...)
		return append(out, gap, Item{Page: total})
	}
}

func pages(from, to int) []Item {
	out := make([]Item, 0, to-from+1)
	for p := from; p <= to; p++ {
		out = append(out, Item{Page: p})
	}
	return out
}

// TotalPages returns ceil(count / perPage).
func TotalPages(count, perPage int) int {
	if count <= 0 || perPage <= 0 {
		return 0
	}
	return (count + perPage - 1) / perPage
}

// Clamp keeps page within [1, totalPages]. With no pages it returns 1.
func Clamp(page, totalPages int) int {
	if totalPages > 0 && page > totalPages {
		return totalPages
	}
	if page < 1 {
		return 1
	}
	return page
}

// Offset returns the index of the first item on page.
func Offset(page, perPage int) int {
	if page < 1 || perPage <= 0 {
		return 0
	}
	return (page - 1) * perPage
}

// Window summarizes the pagination controls for one result page.
type Window struct {
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
	TotalCount int    `json:"total_count"`
	HasPrev    bool   `json:"has_prev"`
	HasNext    bool   `json:"has_next"`
	Numbers    []Item `json:"numbers"`
}

// NewWindow builds the controls for page given a total count and page size.
func NewWindow(page, totalCount, perPage int) Window {
	total := TotalPages(totalCount, perPage)
	page = Clamp(page, total)
	return Window{
		Page:       page,
		TotalPages: total,
		TotalCount: totalCount,
		HasPrev:    page > 1,
		HasNext:    page < total,
		Numbers:    PageNumbers(page, total),
	}
}
