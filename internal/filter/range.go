package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Range is a named numeric bucket. The zero Range means all.
type Range struct {
	key string
	min int64
	max int64 // 0 = unbounded
}

// Key returns the UI key of the bucket, or All for the zero Range.
func (r Range) Key() string {
	if r.key == "" {
		return All
	}
	return r.key
}

// MarshalJSON encodes the range as its UI key.
func (r Range) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(r.Key())), nil
}

// IsAll reports whether the range places no constraint.
func (r Range) IsAll() bool { return r.key == "" }

// Min returns the lower bound.
func (r Range) Min() int64 { return r.min }

// Max returns the upper bound and whether the bucket has one.
func (r Range) Max() (int64, bool) { return r.max, r.max > 0 }

const billion = 1_000_000_000

// Price buckets in rupiah.
var (
	PriceUnder1B = Range{key: "0-1m", min: 0, max: 1 * billion}
	Price1To3B   = Range{key: "1-3m", min: 1 * billion, max: 3 * billion}
	Price3To5B   = Range{key: "3-5m", min: 3 * billion, max: 5 * billion}
	Price5To10B  = Range{key: "5-10m", min: 5 * billion, max: 10 * billion}
	PriceOver10B = Range{key: "10m+", min: 10 * billion}
)

// Land area buckets in square meters.
var (
	AreaUnder100  = Range{key: "0-100", min: 0, max: 100}
	Area100To200  = Range{key: "100-200", min: 100, max: 200}
	Area200To500  = Range{key: "200-500", min: 200, max: 500}
	Area500To1000 = Range{key: "500-1000", min: 500, max: 1000}
	AreaOver1000  = Range{key: "1000+", min: 1000}
)

// PriceRanges lists the price buckets in display order.
var PriceRanges = []Range{PriceUnder1B, Price1To3B, Price3To5B, Price5To10B, PriceOver10B}

// AreaRanges lists the land area buckets in display order.
var AreaRanges = []Range{AreaUnder100, Area100To200, Area200To500, Area500To1000, AreaOver1000}

// ParsePriceRange resolves a UI price key. Empty and "all" yield the zero Range.
func ParsePriceRange(key string) (Range, error) {
	return parseRange(key, PriceRanges, "price range")
}

// ParseAreaRange resolves a UI land area key. Empty and "all" yield the zero Range.
func ParseAreaRange(key string) (Range, error) {
	return parseRange(key, AreaRanges, "land area range")
}

func parseRange(key string, set []Range, what string) (Range, error) {
	key = strings.TrimSpace(key)
	if key == "" || key == All {
		return Range{}, nil
	}
	for _, r := range set {
		if r.key == key {
			return r, nil
		}
	}
	return Range{}, fmt.Errorf("invalid %s: %s", what, key)
}
