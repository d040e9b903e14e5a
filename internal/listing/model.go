// Package listing provides the property listing model and a client for the
// remote property API.
package listing

import "time"

// Property is a listing as returned by the property API.
type Property struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	SaleType       string     `json:"sale_type,omitempty"`
	PropertyTypeID *int64     `json:"property_type_id,omitempty"`
	Price          *int64     `json:"price,omitempty"`
	Bedrooms       *int64     `json:"bedrooms,omitempty"`
	Bathrooms      *int64     `json:"bathrooms,omitempty"`
	LandArea       *float64   `json:"land_area,omitempty"`
	BuildingArea   *float64   `json:"building_area,omitempty"`
	Address        string     `json:"address,omitempty"`
	District       string     `json:"district,omitempty"`
	Regency        string     `json:"regency,omitempty"`
	Province       string     `json:"province,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	PhotoURL       string     `json:"photo_url,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`

	// Favorited is set client side from the favorites API.
	Favorited bool `json:"favorited"`
}

// Location returns "Regency, Province" with empty parts dropped.
func (p Property) Location() string {
	switch {
	case p.Regency != "" && p.Province != "":
		return p.Regency + ", " + p.Province
	case p.Regency != "":
		return p.Regency
	}
	return p.Province
}

// Page is one page of listings. Total is nil when the API did not return an
// inline total and a count request is needed.
type Page struct {
	Items []Property `json:"items"`
	Total *int       `json:"total,omitempty"`
}

// MarkFavorites sets Favorited on every property whose ID is in ids.
func MarkFavorites(props []Property, ids []int64) {
	if len(ids) == 0 {
		return
	}
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	for i := range props {
		_, props[i].Favorited = set[props[i].ID]
	}
}
