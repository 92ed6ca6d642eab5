package places

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/UnknownOlympus/asclepius/internal/models"
	"googlemaps.github.io/maps"
)

// PlacesAPIClient is the subset of *maps.Client used by GoogleProvider.
type PlacesAPIClient interface {
	NearbySearch(ctx context.Context, r *maps.NearbySearchRequest) (maps.PlacesSearchResponse, error)
	PlaceDetails(ctx context.Context, r *maps.PlaceDetailsRequest) (maps.PlaceDetailsResult, error)
}

// GoogleProvider searches and enriches facilities with the Google Places API.
type GoogleProvider struct {
	client PlacesAPIClient
	log    *slog.Logger
}

var googleDetailFields = []maps.PlaceDetailsFieldMask{
	maps.PlaceDetailsFieldMaskPlaceID,
	maps.PlaceDetailsFieldMaskName,
	maps.PlaceDetailsFieldMaskFormattedAddress,
	maps.PlaceDetailsFieldMaskFormattedPhoneNumber,
	maps.PlaceDetailsFieldMaskRatings,
	maps.PlaceDetailsFieldMaskGeometry,
}

// NewGoogleProvider wraps an already configured Google Maps client.
func NewGoogleProvider(client PlacesAPIClient, log *slog.Logger) *GoogleProvider {
	return &GoogleProvider{client: client, log: log}
}

// Search issues one Nearby Search request. ZERO_RESULTS yields an empty,
// non-nil slice.
func (gp *GoogleProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchProvider, err)
	}

	gp.log.DebugContext(ctx, "Searching nearby places using Google Maps",
		"origin", query.Origin.String(), "radius", query.RadiusMeters, "category", query.Category)

	resp, err := gp.client.NearbySearch(ctx, &maps.NearbySearchRequest{
		Location: &maps.LatLng{Lat: query.Origin.Latitude, Lng: query.Origin.Longitude},
		Radius:   uint(query.RadiusMeters),
		Type:     maps.PlaceType(query.Category),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: nearby search: %w", ErrSearchProvider, err)
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for idx, r := range resp.Results {
		if r.PlaceID == "" {
			return nil, fmt.Errorf("%w: result %d has no place_id", ErrSearchProvider, idx)
		}
		candidates = append(candidates, models.Candidate{ID: r.PlaceID, NameHint: r.Name, Vicinity: r.Vicinity})
	}

	gp.log.DebugContext(ctx, "Nearby search finished", "candidates", len(candidates))

	return candidates, nil
}

// FetchDetail requests the detail record of one place.
func (gp *GoogleProvider) FetchDetail(ctx context.Context, id string) (models.FacilityDetail, error) {
	res, err := gp.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: id,
		Fields:  googleDetailFields,
	})
	if err != nil {
		return models.FacilityDetail{}, fmt.Errorf("%w: %s: %w", ErrDetailFetch, id, err)
	}

	detail := models.FacilityDetail{
		ID:      id,
		Name:    res.Name,
		Address: res.FormattedAddress,
	}
	if detail.Address == "" {
		detail.Address = res.Vicinity
	}
	if res.FormattedPhoneNumber != "" {
		phone := res.FormattedPhoneNumber
		detail.Phone = &phone
	}
	if res.Rating > 0 {
		rating := float64(res.Rating)
		detail.Rating = &rating
	}
	// Google leaves geometry zeroed when the field is absent.
	if loc := res.Geometry.Location; loc.Lat != 0 || loc.Lng != 0 {
		detail.Coordinate = &models.Coordinate{Latitude: loc.Lat, Longitude: loc.Lng}
	}

	if err = detail.Validate(); err != nil {
		return models.FacilityDetail{}, err
	}

	return detail, nil
}
