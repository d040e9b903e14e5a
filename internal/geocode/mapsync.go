package geocode

// DefaultZoom is the zoom level used when flying to a resolved coordinate.
const DefaultZoom = 15

// MapView is the imperative surface of an interactive map.
type MapView interface {
	FlyTo(c Coordinate, zoom int)
	PlaceMarker(c Coordinate)
	RemoveMarker()
}

// MapSync reconciles a MapView with a desired coordinate. The view is only
// touched when the desired coordinate differs from the last one applied.
type MapSync struct {
	view    MapView
	zoom    int
	applied *Coordinate
}

// NewMapSync creates a synchronizer for view.
func NewMapSync(view MapView, zoom int) *MapSync {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &MapSync{view: view, zoom: zoom}
}

// Reconcile brings the view in line with desired. A nil desired coordinate
// removes the marker. It reports whether the view changed.
func (m *MapSync) Reconcile(desired *Coordinate) bool {
	switch {
	case desired == nil && m.applied == nil:
		return false
	case desired == nil:
		m.view.RemoveMarker()
		m.applied = nil
		return true
	case m.applied != nil && *m.applied == *desired:
		return false
	}

	c := *desired
	m.view.FlyTo(c, m.zoom)
	m.view.PlaceMarker(c)
	m.applied = &c
	return true
}

// MapState is an in-memory MapView. The HTTP layer returns it so a browser
// map can mirror the server-side state.
type MapState struct {
	Center *Coordinate `json:"center,omitempty"`
	Zoom   int         `json:"zoom,omitempty"`
	Marker *Coordinate `json:"marker,omitempty"`
}

// FlyTo recenters the map.
func (s *MapState) FlyTo(c Coordinate, zoom int) {
	s.Center = &c
	s.Zoom = zoom
}

// PlaceMarker creates the marker or moves it.
func (s *MapState) PlaceMarker(c Coordinate) {
	s.Marker = &c
}

// RemoveMarker drops the marker.
func (s *MapState) RemoveMarker() {
	s.Marker = nil
}
