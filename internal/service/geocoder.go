package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/vendorseo/internal/domain"
	"github.com/timmy/vendorseo/internal/logger"
	"github.com/timmy/vendorseo/internal/telemetry"
)

// GeocoderConfig holds configuration for the Nominatim geocoder.
type GeocoderConfig struct {
	BaseURL   string
	Country   string
	UserAgent string
	Timeout   time.Duration
}

// Geocoder resolves a city name to coordinates via a Nominatim-compatible API.
type Geocoder struct {
	up      *upstream
	baseURL string
	country string
}

// NewGeocoder creates a geocoder.
func NewGeocoder(cfg *GeocoderConfig, metrics *telemetry.Metrics) *Geocoder {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	country := cfg.Country
	if country == "" {
		country = "nigeria"
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "vendorseo/1.0"
	}

	up := newUpstream("nominatim", timeout, metrics)
	up.client.SetHeader("User-Agent", userAgent)
	up.client.SetHeader("Accept", "application/json")

	return &Geocoder{
		up:      up,
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		country: country,
	}
}

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve returns the top match for city, or nil when the service has no match.
// Transport failures, non-2xx responses and unusable bodies are *LookupError.
func (g *Geocoder) Resolve(ctx context.Context, city string) (*domain.EnrichedLocation, error) {
	ctx = logger.WithField(ctx, logger.FieldCity, city)
	start := time.Now()

	resp, err := g.up.do(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetQueryParams(map[string]string{
			"city":           city,
			"country":        g.country,
			"format":         "json",
			"addressdetails": "1",
			"extratags":      "1",
			"limit":          "1",
		}).Get(g.baseURL + "/search")
	})
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) {
			return nil, &LookupError{City: city, StatusCode: status.StatusCode, Err: err}
		}
		return nil, &LookupError{City: city, Err: err}
	}

	var places []nominatimPlace
	if err := json.Unmarshal(resp.Body(), &places); err != nil {
		return nil, &LookupError{City: city, Err: fmt.Errorf("decode geocoder response: %w", err)}
	}
	if len(places) == 0 {
		logger.With(logger.Fields{logger.FieldUpstream: "nominatim"}).
			WithDuration(time.Since(start).Milliseconds()).
			Info(ctx, "No geocoding match")
		return nil, nil
	}

	lat, err := parseCoordinate(places[0].Lat)
	if err != nil {
		return nil, &LookupError{City: city, Err: fmt.Errorf("latitude: %w", err)}
	}
	lon, err := parseCoordinate(places[0].Lon)
	if err != nil {
		return nil, &LookupError{City: city, Err: fmt.Errorf("longitude: %w", err)}
	}

	logger.With(logger.Fields{logger.FieldUpstream: "nominatim"}).
		WithDuration(time.Since(start).Milliseconds()).
		Debug(ctx, "Resolved %s to %s", city, places[0].DisplayName)

	return &domain.EnrichedLocation{
		City:          city,
		DisplayName:   places[0].DisplayName,
		Lat:           lat,
		Lon:           lon,
		Neighborhoods: []string{},
	}, nil
}

func parseCoordinate(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite coordinate %q", s)
	}
	return v, nil
}
