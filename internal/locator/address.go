package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/asclepius/internal/geocoding"
	"github.com/UnknownOlympus/asclepius/internal/models"
)

// AddressLocator resolves an address the user typed instead of sharing a fix.
type AddressLocator struct {
	geocoder geocoding.Provider
	address  string
	log      *slog.Logger
}

// NewAddressLocator creates a locator for a single address.
func NewAddressLocator(geocoder geocoding.Provider, address string, log *slog.Logger) *AddressLocator {
	return &AddressLocator{geocoder: geocoder, address: address, log: log}
}

// Acquire geocodes the address. Any geocoder failure other than cancellation
// is reported as ErrLocationUnavailable.
func (al *AddressLocator) Acquire(ctx context.Context) (models.Coordinate, error) {
	coord, err := al.geocoder.Geocode(ctx, al.address)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.Coordinate{}, err
		}
		al.log.WarnContext(ctx, "Failed to geocode search address", "address", al.address, "error", err)
		return models.Coordinate{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	return coord, nil
}
