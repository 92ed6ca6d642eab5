// Package places talks to the external place search and place detail
// services. A search returns lightweight candidates; a detail lookup turns one
// candidate into a full facility record.
package places

import (
	"context"
	"errors"
	"net/http"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

// Searcher finds candidate facilities around an origin.
type Searcher interface {
	Search(ctx context.Context, query models.SearchQuery) ([]models.Candidate, error)
}

// DetailFetcher loads the full record of a single candidate.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, id string) (models.FacilityDetail, error)
}

// Provider is a place service that supports both operations.
type Provider interface {
	Searcher
	DetailFetcher
}

// HTTPClient defines the interface for making HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

var (
	// ErrSearchProvider is fatal to a search: without candidates there is nothing to enrich.
	ErrSearchProvider = errors.New("search provider error")
	// ErrDetailFetch only affects the candidate it was raised for.
	ErrDetailFetch = errors.New("detail fetch error")
)

// Provider status values shared by the Google Places API and compatible services.
const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// DetailFields lists exactly the fields a detail request asks for.
var DetailFields = []string{
	"place_id",
	"name",
	"formatted_address",
	"formatted_phone_number",
	"rating",
	"geometry",
}
