package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/models"
	"golang.org/x/time/rate"
)

// NominatimBaseURL is the public OpenStreetMap search endpoint.
const NominatimBaseURL = "https://nominatim.openstreetmap.org/search"

// User-Agent MUST identify the application per Nominatim usage policy:
// https://operations.osmfoundation.org/policies/nominatim/
const nominatimUserAgent = "Asclepius-Facility-Finder/1.0 (https://github.com/UnknownOlympus/asclepius)"

// nominatimInterval is the fair use ceiling of the public instance.
const nominatimInterval = time.Second

// NominatimProvider implements the Provider interface using OpenStreetMap's Nominatim API.
type NominatimProvider struct {
	client  HTTPClient
	limiter *rate.Limiter
	baseURL string
	log     *slog.Logger
}

type nominatimResponse struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// NewNominatimProvider creates a new Nominatim geocoding provider limited to
// one request per second. timeout bounds each HTTP request.
func NewNominatimProvider(timeout time.Duration, log *slog.Logger) *NominatimProvider {
	return NewNominatimProviderWithClient(
		&http.Client{Timeout: timeout},
		rate.NewLimiter(rate.Every(nominatimInterval), 1),
		log,
	)
}

// NewNominatimProviderWithClient creates a Nominatim provider with a custom HTTP client.
// A nil limiter disables rate limiting.
func NewNominatimProviderWithClient(client HTTPClient, limiter *rate.Limiter, log *slog.Logger) *NominatimProvider {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 0)
	}

	return &NominatimProvider{
		client:  client,
		limiter: limiter,
		baseURL: NominatimBaseURL,
		log:     log,
	}
}

// Geocode converts an address to a coordinate using the top Nominatim match.
func (np *NominatimProvider) Geocode(ctx context.Context, address string) (models.Coordinate, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return models.Coordinate{}, ErrEmptyAddress
	}

	np.log.DebugContext(ctx, "Geocoding using Nominatim", "address", address)

	if err := np.limiter.Wait(ctx); err != nil {
		return models.Coordinate{}, fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL, err := url.Parse(np.baseURL)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to parse base URL: %w", err)
	}

	query := reqURL.Query()
	query.Set("q", address)
	query.Set("format", "json")
	query.Set("limit", "1")
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := np.client.Do(req)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to execute geocoding request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		np.log.ErrorContext(ctx, "Nominatim API error", "status", resp.StatusCode, "body", string(body))
		return models.Coordinate{}, fmt.Errorf("nominatim API returned status %d: %s", resp.StatusCode, string(body))
	}

	var results []nominatimResponse
	if err = json.Unmarshal(body, &results); err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to decode nominatim response: %w", err)
	}
	if len(results) == 0 {
		return models.Coordinate{}, ErrEmptyResponse
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: invalid latitude: %s", ErrInvalidCoords, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: invalid longitude: %s", ErrInvalidCoords, results[0].Lon)
	}

	coord := models.Coordinate{Latitude: lat, Longitude: lon}
	if err = coord.Validate(); err != nil {
		return models.Coordinate{}, fmt.Errorf("%w: %w", ErrInvalidCoords, err)
	}

	return coord, nil
}
