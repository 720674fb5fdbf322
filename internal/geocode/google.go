package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

const defaultGoogleBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleConfig configures the Google Geocoding API client.
type GoogleConfig struct {
	APIKey string
	// BaseURL overrides the API endpoint, for tests.
	BaseURL string
	// Region biases results ("au"); Language selects response language ("en").
	Region   string
	Language string
	// HTTPClient overrides the default client (10s timeout).
	HTTPClient *http.Client
}

// GoogleClient resolves queries against the Google Geocoding API.
type GoogleClient struct {
	cfg  GoogleConfig
	http *http.Client
	log  *zap.Logger
}

func NewGoogleClient(cfg GoogleConfig, log *zap.Logger) *GoogleClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGoogleBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &GoogleClient{cfg: cfg, http: client, log: log}
}

type googleResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []googleResult `json:"results"`
}

type googleResult struct {
	FormattedAddress  string            `json:"formatted_address"`
	PlaceID           string            `json:"place_id"`
	Geometry          googleGeometry    `json:"geometry"`
	AddressComponents []googleComponent `json:"address_components"`
}

type googleGeometry struct {
	Location googlePoint `json:"location"`
	Viewport *googleBox  `json:"viewport"`
	Bounds   *googleBox  `json:"bounds"`
}

type googlePoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type googleBox struct {
	Northeast googlePoint `json:"northeast"`
	Southwest googlePoint `json:"southwest"`
}

type googleComponent struct {
	LongName string   `json:"long_name"`
	Types    []string `json:"types"`
}

// Geocode resolves query. ZERO_RESULTS is a definitive no-match (nil, nil);
// any other non-OK status is an error so it is not cached.
func (c *GoogleClient) Geocode(ctx context.Context, query string) (*Result, error) {
	q := url.Values{}
	q.Set("address", query)
	q.Set("key", c.cfg.APIKey)
	if c.cfg.Region != "" {
		q.Set("region", c.cfg.Region)
	}
	if c.cfg.Language != "" {
		q.Set("language", c.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("geocode: build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocode: http %d: %s", resp.StatusCode, body)
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("geocode: decode response: %w", err)
	}

	switch parsed.Status {
	case "OK":
	case "ZERO_RESULTS":
		return nil, nil
	default:
		return nil, fmt.Errorf("geocode: api status %s: %s", parsed.Status, parsed.ErrorMessage)
	}
	if len(parsed.Results) == 0 {
		return nil, nil
	}

	best := parsed.Results[0]
	out := &Result{
		Lat:              best.Geometry.Location.Lat,
		Lon:              best.Geometry.Location.Lng,
		FormattedAddress: best.FormattedAddress,
		PlaceID:          best.PlaceID,
	}

	for _, comp := range best.AddressComponents {
		for _, t := range comp.Types {
			if t == "postal_code" {
				out.Postcode = comp.LongName
			}
		}
	}

	// Bounds are tighter than the viewport when present.
	box := best.Geometry.Bounds
	if box == nil {
		box = best.Geometry.Viewport
	}
	if box != nil {
		out.BBoxSouth = ptr(box.Southwest.Lat)
		out.BBoxNorth = ptr(box.Northeast.Lat)
		out.BBoxWest = ptr(box.Southwest.Lng)
		out.BBoxEast = ptr(box.Northeast.Lng)
	}
	return out, nil
}

func ptr(f float64) *float64 { return &f }
