package geocoding

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/UnknownOlympus/asclepius/internal/models"
	"googlemaps.github.io/maps"
)

// GoogleProvider geocodes addresses with the Google Maps Geocoding API.
type GoogleProvider struct {
	client GoogleAPIClient
	log    *slog.Logger
}

// GoogleAPIClient is the subset of *maps.Client used for geocoding.
type GoogleAPIClient interface {
	Geocode(ctx context.Context, r *maps.GeocodingRequest) ([]maps.GeocodingResult, error)
}

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client GoogleAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Geocode returns the location of the first result Google reports for address.
func (gp *GoogleProvider) Geocode(ctx context.Context, address string) (models.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coordinate{}, ErrEmptyAddress
	}

	gp.log.DebugContext(ctx, "Geocoding using Google Maps", "address", address)

	results, err := gp.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to geocode address: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinate{}, ErrEmptyResponse
	}

	loc := results[0].Geometry.Location
	coord := models.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	if err = coord.Validate(); err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidCoords, err)
	}

	return coord, nil
}
