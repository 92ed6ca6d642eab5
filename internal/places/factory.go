package places

import (
	"errors"
	"fmt"
	"log/slog"

	"googlemaps.github.io/maps"
)

// ProviderType represents the type of place provider.
type ProviderType string

const (
	// ProviderTypeGoogle uses the Google Places API through the official client.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeHTTP uses configurable Places-compatible REST endpoints.
	ProviderTypeHTTP ProviderType = "http"
)

// ProviderConfig holds configuration for creating a place provider.
type ProviderConfig struct {
	Type           ProviderType // Type of provider to create
	SearchEndpoint string       // Search endpoint (HTTP provider)
	DetailEndpoint string       // Detail endpoint (HTTP provider)
	APIKey         string       // API key sent with every request
	RateLimit      int          // Requests per second, 0 disables limiting
	Logger         *slog.Logger // Logger for the provider
}

// NewProvider creates a place provider based on the provided configuration.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.APIKey == "" {
		return nil, errors.New("API key is required for place provider")
	}

	switch config.Type {
	case ProviderTypeGoogle:
		return newGoogleProvider(config)
	case ProviderTypeHTTP:
		if config.SearchEndpoint == "" || config.DetailEndpoint == "" {
			return nil, errors.New("search and detail endpoints are required for HTTP provider")
		}
		return NewHTTPProvider(
			config.SearchEndpoint, config.DetailEndpoint, config.APIKey, config.RateLimit, config.Logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported place provider type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (Provider, error) {
	clientOpts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
	}
	if config.RateLimit > 0 {
		clientOpts = append(clientOpts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
