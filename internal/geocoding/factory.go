package geocoding

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"googlemaps.github.io/maps"
)

// ProviderType names the geocoder behind address searches.
type ProviderType string

const (
	// ProviderTypeNone disables address searches.
	ProviderTypeNone ProviderType = "none"
	// ProviderTypeGoogle geocodes with the Google Maps Geocoding API.
	ProviderTypeGoogle ProviderType = "google"
	// ProviderTypeNominatim geocodes with the public OpenStreetMap instance.
	ProviderTypeNominatim ProviderType = "nominatim"
)

const defaultRequestTimeout = 10 * time.Second

// ProviderConfig selects and configures the address geocoder.
type ProviderConfig struct {
	Type      ProviderType  // Type of geocoder, empty means none
	APIKey    string        // Google only
	RateLimit int           // Google requests per second, 0 disables limiting
	Timeout   time.Duration // Per request, defaults to 10s
	Logger    *slog.Logger  // Logger for the geocoder
}

// NewProvider returns the geocoder named by config.Type. A nil Provider with a
// nil error means address searches are disabled. Nominatim ignores RateLimit
// and always stays at one request per second.
func NewProvider(config ProviderConfig) (Provider, error) {
	if config.Timeout <= 0 {
		config.Timeout = defaultRequestTimeout
	}

	switch config.Type {
	case "", ProviderTypeNone:
		return nil, nil
	case ProviderTypeGoogle:
		if config.APIKey == "" {
			return nil, errors.New("API key is required for Google geocoder")
		}
		return newGoogleProvider(config)
	case ProviderTypeNominatim:
		return NewNominatimProvider(config.Timeout, config.Logger), nil
	default:
		return nil, fmt.Errorf("unsupported geocoder type: %s", config.Type)
	}
}

func newGoogleProvider(config ProviderConfig) (*GoogleProvider, error) {
	opts := []maps.ClientOption{
		maps.WithAPIKey(config.APIKey),
		maps.WithHTTPClient(&http.Client{Timeout: config.Timeout}),
	}
	if config.RateLimit > 0 {
		opts = append(opts, maps.WithRateLimit(config.RateLimit))
	}

	client, err := maps.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return NewGoogleProvider(client, config.Logger), nil
}
