package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const googleOKBody = `{
  "status": "OK",
  "results": [{
    "formatted_address": "Bayswater NSW 2333, Australia",
    "place_id": "ChIJbayswater",
    "geometry": {
      "location": {"lat": -32.39, "lng": 150.95},
      "viewport": {
        "northeast": {"lat": -32.38, "lng": 150.96},
        "southwest": {"lat": -32.40, "lng": 150.94}
      }
    },
    "address_components": [
      {"long_name": "New South Wales", "types": ["administrative_area_level_1"]},
      {"long_name": "2333", "types": ["postal_code"]}
    ]
  }]
}`

func googleTestClient(t *testing.T, handler http.HandlerFunc) (*GoogleClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client := NewGoogleClient(GoogleConfig{
		APIKey:   "test-key",
		BaseURL:  srv.URL,
		Region:   "au",
		Language: "en",
	}, zap.NewNop())
	return client, srv
}

func TestGoogleGeocodeOK(t *testing.T) {
	t.Parallel()

	var gotQuery map[string][]string
	client, _ := googleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Write([]byte(googleOKBody))
	})

	r, err := client.Geocode(context.Background(), "Bayswater, NSW, Australia")
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, -32.39, r.Lat)
	assert.Equal(t, 150.95, r.Lon)
	assert.Equal(t, "Bayswater NSW 2333, Australia", r.FormattedAddress)
	assert.Equal(t, "ChIJbayswater", r.PlaceID)
	assert.Equal(t, "2333", r.Postcode)
	require.NotNil(t, r.BBoxSouth)
	assert.Equal(t, -32.40, *r.BBoxSouth)
	assert.Equal(t, -32.38, *r.BBoxNorth)
	assert.Equal(t, 150.94, *r.BBoxWest)
	assert.Equal(t, 150.96, *r.BBoxEast)

	assert.Equal(t, "Bayswater, NSW, Australia", gotQuery["address"][0])
	assert.Equal(t, "test-key", gotQuery["key"][0])
	assert.Equal(t, "au", gotQuery["region"][0])
	assert.Equal(t, "en", gotQuery["language"][0])
}

func TestGoogleGeocodeZeroResults(t *testing.T) {
	t.Parallel()

	client, _ := googleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "ZERO_RESULTS", "results": []}`))
	})

	r, err := client.Geocode(context.Background(), "nowhere at all")
	require.NoError(t, err, "ZERO_RESULTS is a definitive no-match, not an error")
	assert.Nil(t, r)
}

func TestGoogleGeocodeAPIError(t *testing.T) {
	t.Parallel()

	client, _ := googleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "OVER_QUERY_LIMIT", "error_message": "quota exceeded"}`))
	})

	_, err := client.Geocode(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OVER_QUERY_LIMIT")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGoogleGeocodeHTTPError(t *testing.T) {
	t.Parallel()

	client, _ := googleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.Geocode(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestGoogleGeocodeBoundsPreferredOverViewport(t *testing.T) {
	t.Parallel()

	body := `{
	  "status": "OK",
	  "results": [{
	    "geometry": {
	      "location": {"lat": 1, "lng": 2},
	      "viewport": {"northeast": {"lat": 9, "lng": 9}, "southwest": {"lat": -9, "lng": -9}},
	      "bounds": {"northeast": {"lat": 1.5, "lng": 2.5}, "southwest": {"lat": 0.5, "lng": 1.5}}
	    }
	  }]
	}`
	client, _ := googleTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(body))
	})

	r, err := client.Geocode(context.Background(), "q")
	require.NoError(t, err)
	require.NotNil(t, r.BBoxNorth)
	assert.Equal(t, 1.5, *r.BBoxNorth)
	assert.Equal(t, 0.5, *r.BBoxSouth)
}
