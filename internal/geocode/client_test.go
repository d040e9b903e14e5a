package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientSearch(t *testing.T) {
	tests := []struct {
		name       string
		response   string
		statusCode int
		wantFound  bool
		wantLat    float64
		wantLon    float64
		wantErr    bool
	}{
		{
			name:       "top result",
			response:   `[{"lat":"-6.9147444","lon":"107.6098111","display_name":"Bandung, Jawa Barat, Indonesia"},{"lat":"0","lon":"0"}]`,
			statusCode: http.StatusOK,
			wantFound:  true,
			wantLat:    -6.914744,
			wantLon:    107.609811,
		},
		{
			name:       "no results",
			response:   `[]`,
			statusCode: http.StatusOK,
		},
		{
			name:       "server error",
			response:   `{}`,
			statusCode: http.StatusServiceUnavailable,
			wantErr:    true,
		},
		{
			name:       "bad latitude",
			response:   `[{"lat":"north","lon":"107.6"}]`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
		{
			name:       "invalid json",
			response:   `not json`,
			statusCode: http.StatusOK,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				if q.Get("q") != "Bandung, Jawa Barat" {
					t.Errorf("q = %q", q.Get("q"))
				}
				if q.Get("format") != "json" || q.Get("limit") != "1" || q.Get("countrycodes") != "id" {
					t.Errorf("unexpected params: %s", r.URL.RawQuery)
				}
				if r.Header.Get("User-Agent") != "rf-test" {
					t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
				}
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.response))
			}))
			defer server.Close()

			c := NewClient(WithSearchURL(server.URL), WithUserAgent("rf-test"))
			res, found, err := c.Search(context.Background(), "Bandung, Jawa Barat")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if !found {
				return
			}
			if res.Lat != tt.wantLat || res.Lon != tt.wantLon {
				t.Errorf("coordinate = %v,%v, want %v,%v", res.Lat, res.Lon, tt.wantLat, tt.wantLon)
			}
			if res.DisplayName == "" {
				t.Error("expected display name")
			}
		})
	}
}
