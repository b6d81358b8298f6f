package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/vendorseo/internal/telemetry"
)

const (
	shopPattern  = "clothes|boutique|jewelry|fashion|tailor|shoes"
	placePattern = "suburb|quarter|neighbourhood|market"
)

// OverpassElement is one OSM element from an `out center` query.
type OverpassElement struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat,omitempty"`
	Lon    float64           `json:"lon,omitempty"`
	Center *OverpassCenter   `json:"center,omitempty"`
	Tags   map[string]string `json:"tags,omitempty"`
}

type OverpassCenter struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type overpassResponse struct {
	Elements []OverpassElement `json:"elements"`
}

// OverpassConfig holds configuration for the Overpass client.
type OverpassConfig struct {
	URL     string
	Timeout time.Duration
}

// OverpassClient runs Overpass QL queries.
type OverpassClient struct {
	up  *upstream
	url string
}

// NewOverpassClient creates an Overpass client.
func NewOverpassClient(cfg *OverpassConfig, metrics *telemetry.Metrics) *OverpassClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &OverpassClient{
		up:  newUpstream("overpass", timeout, metrics),
		url: cfg.URL,
	}
}

// Query posts query as the `data` form field and returns the elements.
func (c *OverpassClient) Query(ctx context.Context, query string) ([]OverpassElement, error) {
	resp, err := c.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetFormData(map[string]string{"data": query}).Post(c.url)
	})
	if err != nil {
		return nil, err
	}

	var out overpassResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	return out.Elements, nil
}

// ShopQuery finds fashion-related shops within radius metres of the point.
func ShopQuery(lat, lon float64, radius int) string {
	return aroundQuery("shop", shopPattern, lat, lon, radius)
}

// PlaceQuery finds named suburbs, quarters, neighbourhoods and markets within
// radius metres of the point.
func PlaceQuery(lat, lon float64, radius int) string {
	return aroundQuery("place", placePattern, lat, lon, radius)
}

func aroundQuery(key, pattern string, lat, lon float64, radius int) string {
	around := fmt.Sprintf("(around:%d,%s,%s)", radius,
		strconv.FormatFloat(lat, 'f', -1, 64), strconv.FormatFloat(lon, 'f', -1, 64))
	filter := fmt.Sprintf(`["%s"~"%s"]`, key, pattern)
	return "[out:json][timeout:25];\n(\n" +
		"  node" + filter + around + ";\n" +
		"  way" + filter + around + ";\n" +
		"  relation" + filter + around + ";\n" +
		");\nout center;"
}
