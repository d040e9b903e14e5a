// Package filter holds the listing filter state and maps it into the
// property API's query vocabulary.
package filter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// All is the UI sentinel for "no constraint" on a filter dimension.
const All = "all"

// Status selects for-sale or for-rent listings.
type Status string

const (
	StatusAll  Status = "all"
	StatusSale Status = "sale"
	StatusRent Status = "rent"
)

// SaleType returns the API sale_type token, or "" when the status is all.
func (s Status) SaleType() string {
	switch s {
	case StatusSale:
		return "jual"
	case StatusRent:
		return "sewa"
	}
	return ""
}

// ParseStatus parses a UI status key. Empty means all.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusSale, "jual":
		return StatusSale, nil
	case StatusRent, "sewa":
		return StatusRent, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Sort is the API sort token.
type Sort string

const (
	SortNewest    Sort = "newest"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
)

// ParseSort maps a UI sort key to the API token. Unknown keys sort newest first.
func ParseSort(key string) Sort {
	switch strings.TrimSpace(key) {
	case "price-low", string(SortPriceAsc):
		return SortPriceAsc
	case "price-high", string(SortPriceDesc):
		return SortPriceDesc
	}
	return SortNewest
}

// Count is a minimum room count bucket ("1".."4+"). Zero means all.
type Count int

// ParseCount parses a room count bucket such as "3" or "4+".
func ParseCount(s string) (Count, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == All {
		return 0, nil
	}
	n, err := strconv.Atoi(strings.TrimSuffix(s, "+"))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid room count: %s", s)
	}
	return Count(n), nil
}

// Key returns the UI key for the bucket.
func (c Count) Key() string {
	if c <= 0 {
		return All
	}
	if c >= 4 {
		return "4+"
	}
	return strconv.Itoa(int(c))
}

// Fragment is the part of a filter state carried by a suggestion or a
// recent search. Applying it replaces the keyword and location.
type Fragment struct {
	Keyword  string `json:"keyword,omitempty"`
	Location string `json:"location,omitempty"`
}

// IsZero reports whether the fragment carries nothing.
func (f Fragment) IsZero() bool {
	return f.Keyword == "" && f.Location == ""
}

// State is the full set of UI filter selections on the listing page.
// Every dimension holds exactly one value; All means the dimension is omitted
// from the server query.
type State struct {
	Keyword      string `json:"keyword"`
	Status       Status `json:"status"`
	PropertyType string `json:"property_type"`
	Price        Range  `json:"price"`
	Bedrooms     Count  `json:"bedrooms"`
	Bathrooms    Count  `json:"bathrooms"`
	LandArea     Range  `json:"land_area"`
	Location     string `json:"location"`
	Sort         Sort   `json:"sort"`
	Page         int    `json:"page"`
}

// Default returns the state a listing page mounts with.
func Default() State {
	return State{
		Status:       StatusAll,
		PropertyType: All,
		Location:     All,
		Sort:         SortNewest,
		Page:         1,
	}
}

// Apply returns a copy of s with the fragment's keyword and location applied
// and the page reset to 1.
func (s State) Apply(f Fragment) State {
	s.Keyword = f.Keyword
	s.Location = All
	if f.Location != "" {
		s.Location = f.Location
	}
	s.Page = 1
	return s
}

// FromValues parses UI filter keys (keyword, status, type, price, bedrooms,
// bathrooms, land, location, sort, page) on top of the default state.
func FromValues(v url.Values) (State, error) {
	s := Default()
	s.Keyword = strings.TrimSpace(v.Get("keyword"))

	var err error
	if s.Status, err = ParseStatus(v.Get("status")); err != nil {
		return State{}, err
	}
	if t := strings.TrimSpace(v.Get("type")); t != "" {
		s.PropertyType = t
	}
	if s.Price, err = ParsePriceRange(v.Get("price")); err != nil {
		return State{}, err
	}
	if s.Bedrooms, err = ParseCount(v.Get("bedrooms")); err != nil {
		return State{}, err
	}
	if s.Bathrooms, err = ParseCount(v.Get("bathrooms")); err != nil {
		return State{}, err
	}
	if s.LandArea, err = ParseAreaRange(v.Get("land")); err != nil {
		return State{}, err
	}
	if loc := strings.TrimSpace(v.Get("location")); loc != "" {
		s.Location = loc
	}
	s.Sort = ParseSort(v.Get("sort"))

	if p := v.Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			return State{}, fmt.Errorf("page must be a positive integer")
		}
		s.Page = page
	}

	return s, nil
}

// isSet reports whether a string dimension carries a real value.
func isSet(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != All
}
