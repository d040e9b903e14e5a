package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/geocode"
	"github.com/evcraddock/rumah-finder/internal/listing"
	"github.com/evcraddock/rumah-finder/internal/logging"
	"github.com/evcraddock/rumah-finder/internal/recent"
	"github.com/evcraddock/rumah-finder/internal/search"
	"github.com/evcraddock/rumah-finder/internal/suggest"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, msg string, code int) {
	apiJSON(w, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, `{"error":"encode failed"}`, http.StatusInternalServerError)
	}
}

// log returns the server logger tagged with the request ID.
func (s *Server) log(r *http.Request) *slog.Logger {
	return logging.FromContext(r.Context(), s.logger)
}

// decodeBody decodes a JSON request body, rejecting unknown fields.
func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// searchResponse is a listing page plus any fetch warning.
type searchResponse struct {
	search.Snapshot
	Warning string `json:"warning,omitempty"`
}

// apiSearch runs one listing query for the filter keys in the URL.
func (s *Server) apiSearch(w http.ResponseWriter, r *http.Request) {
	state, err := filter.FromValues(r.URL.Query())
	if err != nil {
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctrl := s.sess.NewSearch()
	defer ctrl.Close()
	ctrl.SetState(state)
	ctrl.Wait()

	snap := ctrl.Snapshot()
	resp := searchResponse{Snapshot: snap}
	if snap.Items == nil {
		resp.Items = []listing.Property{}
	}
	if snap.Err != nil {
		resp.Warning = "listings are temporarily unavailable"
	}
	apiJSON(w, resp, http.StatusOK)
}

func (s *Server) apiDirectory(w http.ResponseWriter, r *http.Request) {
	dir := s.sess.Directory()
	apiJSON(w, map[string]interface{}{
		"regencies": dir.Regencies(),
		"provinces": dir.Provinces(),
	}, http.StatusOK)
}

// apiSuggest builds suggestions for ?q=. An empty query also returns the
// recent searches as the first group.
func (s *Server) apiSuggest(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	out := s.sess.Suggestions().Build(r.Context(), q)

	if q == "" {
		entries, err := s.sess.Recents().List(r.Context())
		if err != nil {
			s.log(r).Warn("loading recent searches", "error", err)
		}
		out = suggest.WithRecent(out, entries)
	}
	if out.Groups == nil {
		out.Groups = []suggest.Group{}
	}
	apiJSON(w, out, http.StatusOK)
}

// commitRequest is a suggestion the user picked.
type commitRequest struct {
	Label    string          `json:"label"`
	Kind     string          `json:"kind"`
	Fragment filter.Fragment `json:"filter_params"`
}

func (s *Server) apiCommitSuggestion(w http.ResponseWriter, r *http.Request) {
	var req commitRequest
	if err := decodeBody(r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	req.Label = strings.TrimSpace(req.Label)
	if req.Label == "" {
		apiError(w, "label is required", http.StatusBadRequest)
		return
	}
	if req.Fragment.IsZero() {
		req.Fragment = filter.Fragment{Keyword: req.Label}
	}

	e := recent.Entry{Label: req.Label, Kind: req.Kind, Fragment: req.Fragment}
	if err := s.sess.Recents().Push(r.Context(), e); err != nil {
		s.log(r).Error("saving recent search", "error", err)
		apiError(w, "failed to save recent search", http.StatusInternalServerError)
		return
	}

	state := filter.Default().Apply(req.Fragment)
	apiJSON(w, map[string]interface{}{"filters": state}, http.StatusCreated)
}

func (s *Server) apiListRecent(w http.ResponseWriter, r *http.Request) {
	entries, err := s.sess.Recents().List(r.Context())
	if err != nil {
		s.log(r).Error("listing recent searches", "error", err)
		apiError(w, "failed to list recent searches", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []recent.Entry{}
	}
	apiJSON(w, map[string]interface{}{"data": entries}, http.StatusOK)
}

func (s *Server) apiClearRecent(w http.ResponseWriter, r *http.Request) {
	if err := s.sess.Recents().Clear(r.Context()); err != nil {
		s.log(r).Error("clearing recent searches", "error", err)
		apiError(w, "failed to clear recent searches", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// geocodeResponse is a resolved coordinate and the map state that mirrors it.
type geocodeResponse struct {
	geocode.Snapshot
	Geohash string            `json:"geohash,omitempty"`
	Map     *geocode.MapState `json:"map"`
}

func newGeocodeResponse(r *geocode.Resolver) geocodeResponse {
	view := &geocode.MapState{}
	geocode.NewMapSync(view, geocode.DefaultZoom).Reconcile(r.Snapshot().Coordinate)

	snap := r.Snapshot()
	resp := geocodeResponse{Snapshot: snap, Map: view}
	if snap.Coordinate != nil {
		resp.Geohash = snap.Coordinate.Geohash()
	}
	return resp
}

func (s *Server) apiDetect(w http.ResponseWriter, r *http.Request) {
	var addr geocode.Address
	if err := decodeBody(r, &addr); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	res := s.sess.NewResolver()
	_, err := res.Detect(r.Context(), addr)
	switch {
	case errors.Is(err, geocode.ErrMissingRegion):
		apiError(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, geocode.ErrNotFound):
		apiError(w, geocode.ErrNotFound.Error(), http.StatusNotFound)
		return
	case err != nil:
		s.log(r).Warn("geocoding failed", "error", err)
		apiError(w, "geocoding service unavailable", http.StatusBadGateway)
		return
	}

	apiJSON(w, newGeocodeResponse(res), http.StatusOK)
}

// manualRequest is a typed coordinate, a map click or a marker drag.
type manualRequest struct {
	Lat    *float64 `json:"lat"`
	Lon    *float64 `json:"lon"`
	Source string   `json:"source"`
}

func (s *Server) apiManual(w http.ResponseWriter, r *http.Request) {
	var req manualRequest
	if err := decodeBody(r, &req); err != nil {
		apiError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		apiError(w, "lat and lon are required", http.StatusBadRequest)
		return
	}

	res := s.sess.NewResolver()
	var err error
	switch geocode.Source(req.Source) {
	case "", geocode.SourceManual:
		_, err = res.SetManual(*req.Lat, *req.Lon)
	case geocode.SourceClick:
		_, err = res.Click(*req.Lat, *req.Lon)
	case geocode.SourceDrag:
		_, err = res.Drag(*req.Lat, *req.Lon)
	default:
		apiError(w, "source must be manual, click or drag", http.StatusBadRequest)
		return
	}
	if err != nil {
		apiError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	apiJSON(w, newGeocodeResponse(res), http.StatusOK)
}

// apiNear lists cached geocoding hits in the geohash cell ?geohash=.
func (s *Server) apiNear(w http.ResponseWriter, r *http.Request) {
	prefix := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("geohash")))
	if prefix == "" {
		apiError(w, "geohash is required", http.StatusBadRequest)
		return
	}

	places, err := s.sess.NearbyPlaces(r.Context(), prefix)
	if err != nil {
		s.log(r).Error("listing cached places", "error", err)
		apiError(w, "failed to list cached places", http.StatusInternalServerError)
		return
	}
	if places == nil {
		places = []geocode.Result{}
	}
	apiJSON(w, map[string]interface{}{"data": places}, http.StatusOK)
}
