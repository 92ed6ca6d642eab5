// Package geocoding resolves a free-form address typed by the user into the
// coordinate a nearby search starts from.
package geocoding

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

// Provider is an interface that defines a method for geocoding an address.
// The Geocode method takes a context and an address string as input,
// and returns the corresponding coordinate and an error if any occurs.
type Provider interface {
	Geocode(ctx context.Context, address string) (models.Coordinate, error)
}

// HTTPClient defines the interface for making HTTP requests.
// This allows for easy mocking in tests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Common errors shared by geocoding providers.
var (
	ErrEmptyAddress  = errors.New("geocoder got empty address")
	ErrEmptyResponse = errors.New("geocoder returned empty response")
	ErrInvalidCoords = errors.New("geocoder returned invalid coordinates")
)
