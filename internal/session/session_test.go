package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/evcraddock/rumah-finder/internal/config"
	"github.com/evcraddock/rumah-finder/internal/filter"
	"github.com/evcraddock/rumah-finder/internal/geocode"
	"github.com/evcraddock/rumah-finder/internal/recent"
)

const sample = `{"data":{"property":[
	{"id":1,"title":"Rumah Dago","regency":"Kota Bandung","province":"Jawa Barat"},
	{"id":2,"title":"Villa Lembang","regency":"kota bandung","province":"Jawa Barat"},
	{"id":3,"title":"Kos Sleman","regency":"Sleman","province":"DI Yogyakarta"}
],"total":3}}`

func testConfig(t *testing.T, apiURL, geoURL string) config.Config {
	t.Helper()
	return config.Config{
		APIURL:       apiURL,
		GeocoderURL:  geoURL,
		UserAgent:    "rf-test",
		DBPath:       filepath.Join(t.TempDir(), "rumah.db"),
		PerPage:      12,
		SampleSize:   50,
		SearchDelay:  10 * time.Millisecond,
		SuggestDelay: 10 * time.Millisecond,
	}
}

func TestOpenBuildsDirectory(t *testing.T) {
	var sampled atomic.Value
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sampled.Store(r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(sample))
	}))
	defer api.Close()

	s, err := Open(context.Background(), testConfig(t, api.URL, "http://unused"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	}()

	if s.ID == "" {
		t.Error("expected session id")
	}
	if s.Directory() == nil {
		t.Fatal("directory must never be nil")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	dir, err := s.WaitDirectory(ctx)
	if err != nil {
		t.Fatalf("wait directory: %v", err)
	}
	if len(dir.Regencies()) != 2 {
		t.Errorf("regencies = %+v", dir.Regencies())
	}
	if got, _ := sampled.Load().(string); got != "50" {
		t.Errorf("sample limit = %q, want 50", got)
	}

	got := s.Suggestions().Build(ctx, "bandung")
	if len(got.Flat()) < 2 {
		t.Errorf("suggestions = %+v", got)
	}
}

func TestOpenSurvivesBootstrapFailure(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"down"}`, http.StatusBadGateway)
	}))
	defer api.Close()

	s, err := Open(context.Background(), testConfig(t, api.URL, "http://unused"), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()

	dir, err := s.WaitDirectory(context.Background())
	if err != nil {
		t.Fatalf("wait directory: %v", err)
	}
	if !dir.Empty() {
		t.Errorf("directory = %+v, want empty", dir)
	}
}

func TestSessionComponents(t *testing.T) {
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/favorites":
			_, _ = w.Write([]byte(`{"data":[3]}`))
		default:
			_, _ = w.Write([]byte(sample))
		}
	}))
	defer api.Close()

	var geoCalls atomic.Int32
	geo := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		geoCalls.Add(1)
		_, _ = w.Write([]byte(`[{"lat":"-7.716165","lon":"110.355537","display_name":"Sleman"}]`))
	}))
	defer geo.Close()

	s, err := Open(context.Background(), testConfig(t, api.URL, geo.URL), nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = s.Close() }()
	ctx := context.Background()

	ctrl := s.NewSearch()
	ctrl.Start()
	ctrl.Wait()
	snap := ctrl.Snapshot()
	ctrl.Close()
	if len(snap.Items) != 3 || !snap.Items[2].Favorited {
		t.Errorf("search snapshot = %+v", snap)
	}

	for i := 0; i < 2; i++ {
		r := s.NewResolver()
		res, err := r.Detect(ctx, geocode.Address{Regency: "Sleman", Province: "DI Yogyakarta"})
		if err != nil {
			t.Fatalf("detect: %v", err)
		}
		if res.Lat != -7.716165 {
			t.Errorf("lat = %v", res.Lat)
		}
	}
	if n := geoCalls.Load(); n != 1 {
		t.Errorf("geocoder calls = %d, want 1 (second served from cache)", n)
	}

	if err := s.Recents().Push(ctx, recent.Entry{Label: "Sleman", Fragment: filter.Fragment{Location: "Sleman"}}); err != nil {
		t.Fatalf("push recent: %v", err)
	}
	d := s.NewDropdown()
	d.Focus()
	d.Wait()
	v := d.View()
	d.Close()
	if len(v.Groups) == 0 || v.Groups[0].Items[0].Label != "Sleman" {
		t.Errorf("dropdown view = %+v", v)
	}
}
