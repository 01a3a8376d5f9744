// Package geocode resolves free-text applicant locations to coordinates.
package geocode

import (
	"context"
	"log/slog"
	"strings"

	"googlemaps.github.io/maps"
)

// Geocoder resolves a location. It never fails: an unknown place or a
// service error yields zero coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, location string) (lat, lng float64)
}

// Google geocodes with the Google Maps Geocoding API.
type Google struct {
	client *maps.Client
	logger *slog.Logger
}

var _ Geocoder = (*Google)(nil)

// NewGoogle creates a Google geocoder for apiKey.
func NewGoogle(apiKey string, logger *slog.Logger, opts ...maps.ClientOption) (*Google, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &Google{client: client, logger: logger}, nil
}

// Geocode returns the coordinates of the first match.
func (g *Google) Geocode(ctx context.Context, location string) (float64, float64) {
	location = strings.TrimSpace(location)
	if location == "" {
		return 0, 0
	}
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: location})
	if err != nil {
		g.logger.Warn("could not geocode location", "location", location, "error", err)
		return 0, 0
	}
	if len(results) == 0 {
		g.logger.Warn("no geocoding result for location", "location", location)
		return 0, 0
	}
	loc := results[0].Geometry.Location
	return loc.Lat, loc.Lng
}

// Nop never resolves anything. It is used when no API key is configured.
type Nop struct{}

// Geocode returns zero coordinates.
func (Nop) Geocode(context.Context, string) (float64, float64) { return 0, 0 }
