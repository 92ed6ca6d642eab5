package places

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

// HTTPProvider talks to any service exposing Places-shaped search and detail
// endpoints. Endpoints and key are injected, never hard-coded.
type HTTPProvider struct {
	client         HTTPClient
	searchEndpoint string
	detailEndpoint string
	apiKey         string
	log            *slog.Logger
	limiter        *rate.Limiter
}

type searchResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
	} `json:"results"`
}

type detailResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Result       *struct {
		Name                 string   `json:"name"`
		FormattedAddress     string   `json:"formatted_address"`
		Vicinity             string   `json:"vicinity"`
		FormattedPhoneNumber string   `json:"formatted_phone_number"`
		Rating               *float64 `json:"rating"`
		Geometry             *struct {
			Location *struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"result"`
}

// NewHTTPProvider creates a provider with its own HTTP client and a limiter
// allowing rateLimit requests per second. A non-positive rateLimit disables limiting.
func NewHTTPProvider(searchEndpoint, detailEndpoint, apiKey string, rateLimit int, log *slog.Logger) *HTTPProvider {
	const timeout = 10

	limiter := rate.NewLimiter(rate.Inf, 0)
	if rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(rateLimit), rateLimit)
	}

	return NewHTTPProviderWithClient(
		&http.Client{Timeout: timeout * time.Second},
		searchEndpoint, detailEndpoint, apiKey, limiter, log,
	)
}

// NewHTTPProviderWithClient allows injecting a custom HTTP client and limiter.
func NewHTTPProviderWithClient(
	client HTTPClient,
	searchEndpoint, detailEndpoint, apiKey string,
	limiter *rate.Limiter,
	log *slog.Logger,
) *HTTPProvider {
	return &HTTPProvider{
		client:         client,
		searchEndpoint: searchEndpoint,
		detailEndpoint: detailEndpoint,
		apiKey:         apiKey,
		log:            log,
		limiter:        limiter,
	}
}

// Search issues one request to the search endpoint.
func (hp *HTTPProvider) Search(ctx context.Context, query models.SearchQuery) ([]models.Candidate, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchProvider, err)
	}

	params := url.Values{}
	params.Set("location", query.Origin.String())
	params.Set("radius", strconv.Itoa(query.RadiusMeters))
	params.Set("type", string(query.Category))

	var resp searchResponse
	if err := hp.get(ctx, hp.searchEndpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchProvider, err)
	}

	switch resp.Status {
	case statusOK, statusZeroResults:
	default:
		return nil, fmt.Errorf("%w: status %s: %s", ErrSearchProvider, resp.Status, resp.ErrorMessage)
	}

	candidates := make([]models.Candidate, 0, len(resp.Results))
	for idx, r := range resp.Results {
		if r.PlaceID == "" {
			hp.log.ErrorContext(ctx, "Search result without place id", "index", idx, "name", r.Name)
			return nil, fmt.Errorf("%w: result %d has no place_id", ErrSearchProvider, idx)
		}
		candidates = append(candidates, models.Candidate{ID: r.PlaceID, NameHint: r.Name, Vicinity: r.Vicinity})
	}

	hp.log.DebugContext(ctx, "Nearby search finished", "candidates", len(candidates))

	return candidates, nil
}

// FetchDetail issues one request to the detail endpoint for id.
func (hp *HTTPProvider) FetchDetail(ctx context.Context, id string) (models.FacilityDetail, error) {
	params := url.Values{}
	params.Set("place_id", id)
	params.Set("fields", strings.Join(DetailFields, ","))

	var resp detailResponse
	if err := hp.get(ctx, hp.detailEndpoint, params, &resp); err != nil {
		return models.FacilityDetail{}, fmt.Errorf("%w: %s: %w", ErrDetailFetch, id, err)
	}
	if resp.Status != statusOK {
		return models.FacilityDetail{}, fmt.Errorf("%w: %s: status %s: %s",
			ErrDetailFetch, id, resp.Status, resp.ErrorMessage)
	}
	if resp.Result == nil {
		return models.FacilityDetail{}, fmt.Errorf("%w: %s: missing result", models.ErrInvalidDetailPayload, id)
	}

	res := resp.Result
	detail := models.FacilityDetail{
		ID:      id,
		Name:    res.Name,
		Address: res.FormattedAddress,
		Rating:  res.Rating,
	}
	if detail.Address == "" {
		detail.Address = res.Vicinity
	}
	if res.FormattedPhoneNumber != "" {
		phone := res.FormattedPhoneNumber
		detail.Phone = &phone
	}
	if res.Geometry != nil && res.Geometry.Location != nil {
		detail.Coordinate = &models.Coordinate{
			Latitude:  res.Geometry.Location.Lat,
			Longitude: res.Geometry.Location.Lng,
		}
	}

	if err := detail.Validate(); err != nil {
		return models.FacilityDetail{}, err
	}

	return detail, nil
}

func (hp *HTTPProvider) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := hp.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	reqURL, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("failed to parse endpoint: %w", err)
	}

	query := reqURL.Query()
	for k, v := range params {
		query[k] = v
	}
	query.Set("key", hp.apiKey)
	reqURL.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hp.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		hp.log.ErrorContext(ctx, "Place provider API error", "status", resp.StatusCode, "body", string(body))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(body))
	}

	if err = json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
