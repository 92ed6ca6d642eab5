package models

import (
	"errors"
	"fmt"
)

// Category is the kind of facility a search looks for. Values follow the
// provider's place type vocabulary.
type Category string

const (
	CategoryHospital        Category = "hospital"
	CategoryPharmacy        Category = "pharmacy"
	CategoryDoctor          Category = "doctor"
	CategoryDentist         Category = "dentist"
	CategoryPhysiotherapist Category = "physiotherapist"
)

const (
	// DefaultRadiusMeters matches the radius the mobile client has always searched with.
	DefaultRadiusMeters = 8000
	// DefaultCategory is used when the caller does not pick one.
	DefaultCategory = CategoryHospital
	// MaxRadiusMeters is the largest radius nearby search providers accept.
	MaxRadiusMeters = 50000
)

// ErrInvalidQuery is returned when a search query cannot be sent to a provider.
var ErrInvalidQuery = errors.New("invalid search query")

// ParseCategory converts a raw string into a known Category.
func ParseCategory(raw string) (Category, error) {
	switch c := Category(raw); c {
	case CategoryHospital, CategoryPharmacy, CategoryDoctor, CategoryDentist, CategoryPhysiotherapist:
		return c, nil
	default:
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidQuery, raw)
	}
}

// SearchQuery describes a single nearby search. It is built once per
// invocation and never mutated.
type SearchQuery struct {
	Origin       Coordinate `json:"origin"`
	RadiusMeters int        `json:"radius_meters"`
	Category     Category   `json:"category"`
}

// Validate checks the query before it reaches a provider.
func (q SearchQuery) Validate() error {
	if err := q.Origin.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidQuery, err)
	}
	if q.RadiusMeters <= 0 || q.RadiusMeters > MaxRadiusMeters {
		return fmt.Errorf("%w: radius must be in (0, %d], got %d", ErrInvalidQuery, MaxRadiusMeters, q.RadiusMeters)
	}
	if _, err := ParseCategory(string(q.Category)); err != nil {
		return err
	}

	return nil
}
