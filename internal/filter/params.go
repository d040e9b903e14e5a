package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// DefaultLimit is the number of listings per page.
const DefaultLimit = 12

// ServerParams is the projection of a State into the property API's query
// vocabulary. It is recomputed on every state change and never mutated.
type ServerParams struct {
	Page           int
	Limit          int
	Keyword        string
	SaleType       string
	PropertyTypeID string
	Regency        string
	MinPrice       *int64
	MaxPrice       *int64
	MinLandArea    *int64
	MaxLandArea    *int64
	Bedrooms       int
	Bathrooms      int
	Sort           Sort
}

// BuildServerParams maps a filter state into server query parameters.
// Dimensions left at All or empty are omitted; the server treats absence as
// no constraint.
func BuildServerParams(s State, limit int) ServerParams {
	if limit <= 0 {
		limit = DefaultLimit
	}
	page := s.Page
	if page < 1 {
		page = 1
	}

	p := ServerParams{
		Page:      page,
		Limit:     limit,
		SaleType:  s.Status.SaleType(),
		Bedrooms:  int(s.Bedrooms),
		Bathrooms: int(s.Bathrooms),
		Sort:      s.Sort,
	}
	if p.Sort == "" {
		p.Sort = SortNewest
	}

	if isSet(s.Keyword) {
		p.Keyword = strings.TrimSpace(s.Keyword)
	}
	if isSet(s.PropertyType) {
		p.PropertyTypeID = strings.TrimSpace(s.PropertyType)
	}
	if isSet(s.Location) {
		p.Regency = strings.TrimSpace(s.Location)
	}

	p.MinPrice, p.MaxPrice = bounds(s.Price)
	p.MinLandArea, p.MaxLandArea = bounds(s.LandArea)

	return p
}

func bounds(r Range) (*int64, *int64) {
	if r.IsAll() {
		return nil, nil
	}
	lo := r.Min()
	hi, ok := r.Max()
	if !ok {
		return &lo, nil
	}
	return &lo, &hi
}

// Values renders the parameters for GET /properties.
func (p ServerParams) Values() url.Values {
	v := p.CountValues()
	v.Set("page", strconv.Itoa(p.Page))
	v.Set("limit", strconv.Itoa(p.Limit))
	return v
}

// CountValues renders the same filters as Values without pagination, for
// GET /properties/count.
func (p ServerParams) CountValues() url.Values {
	v := url.Values{}
	setString(v, "keyword", p.Keyword)
	setString(v, "sale_type", p.SaleType)
	setString(v, "property_type_id", p.PropertyTypeID)
	setString(v, "regency", p.Regency)
	setInt64(v, "min_price", p.MinPrice)
	setInt64(v, "max_price", p.MaxPrice)
	setInt64(v, "min_land_area", p.MinLandArea)
	setInt64(v, "max_land_area", p.MaxLandArea)
	if p.Bedrooms > 0 {
		v.Set("bedrooms", strconv.Itoa(p.Bedrooms))
	}
	if p.Bathrooms > 0 {
		v.Set("bathrooms", strconv.Itoa(p.Bathrooms))
	}
	setString(v, "sort", string(p.Sort))
	return v
}

// Equal reports whether two parameter sets encode to the same query.
func (p ServerParams) Equal(o ServerParams) bool {
	return p.Values().Encode() == o.Values().Encode()
}

func setString(v url.Values, key, val string) {
	if val != "" {
		v.Set(key, val)
	}
}

func setInt64(v url.Values, key string, val *int64) {
	if val != nil {
		v.Set(key, strconv.FormatInt(*val, 10))
	}
}
