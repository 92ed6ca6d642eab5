package models

import (
	"errors"
	"fmt"
)

// ErrInvalidDetailPayload marks a detail record that lacks a required field.
// It is recoverable: the record is dropped and the search continues.
var ErrInvalidDetailPayload = errors.New("invalid detail payload")

// Candidate is a minimal search hit that still needs enrichment.
type Candidate struct {
	ID       string // ID is the provider-assigned place identifier.
	NameHint string // NameHint is the name from the search payload, if any.
	Vicinity string // Vicinity is the short address from the search payload, if any.
}

// FacilityDetail is the full record returned by a detail lookup.
type FacilityDetail struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Address    string      `json:"address"`
	Phone      *string     `json:"phone,omitempty"`
	Rating     *float64    `json:"rating,omitempty"`
	Coordinate *Coordinate `json:"coordinate"`
}

// Validate returns ErrInvalidDetailPayload when name, address or coordinate is
// missing, or when the optional rating is outside [0, 5].
func (d FacilityDetail) Validate() error {
	switch {
	case d.Name == "":
		return fmt.Errorf("%w: %s: missing name", ErrInvalidDetailPayload, d.ID)
	case d.Address == "":
		return fmt.Errorf("%w: %s: missing address", ErrInvalidDetailPayload, d.ID)
	case d.Coordinate == nil:
		return fmt.Errorf("%w: %s: missing coordinate", ErrInvalidDetailPayload, d.ID)
	}

	if err := d.Coordinate.Validate(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidDetailPayload, d.ID, err)
	}
	if d.Rating != nil && (*d.Rating < 0 || *d.Rating > 5) {
		return fmt.Errorf("%w: %s: rating %.1f out of range", ErrInvalidDetailPayload, d.ID, *d.Rating)
	}

	return nil
}

// EnrichedFacility is a valid detail record with its distance from the search origin.
type EnrichedFacility struct {
	FacilityDetail

	DistanceKm    float64 `json:"distance_km"`
	DirectionsURL string  `json:"directions_url"`
}

// SearchResult is ordered ascending by DistanceKm and holds unique ids.
type SearchResult []EnrichedFacility
