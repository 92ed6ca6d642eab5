package geocoding_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/geocoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockHTTPClient is a mock implementation of HTTPClient for testing.
type mockHTTPClient struct {
	doFunc func(req *http.Request) (*http.Response, error)
}

func (m *mockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	return m.doFunc(req)
}

func respond(status int, body string) func(*http.Request) (*http.Response, error) {
	return func(_ *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(bytes.NewBufferString(body)),
		}, nil
	}
}

func TestNominatimProvider_Geocode(t *testing.T) {
	ctx := t.Context()
	logger := slog.Default()

	t.Run("successful geocoding", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				assert.Equal(t, http.MethodGet, req.Method)
				assert.Contains(t, req.URL.String(), geocoding.NominatimBaseURL)
				assert.Equal(t, "MG Road, Bengaluru", req.URL.Query().Get("q"))
				assert.Equal(t, "json", req.URL.Query().Get("format"))
				assert.Equal(t, "1", req.URL.Query().Get("limit"))
				assert.Contains(t, req.Header.Get("User-Agent"), "Asclepius")

				return respond(http.StatusOK, `[{"lat":"12.9756","lon":"77.6066"}]`)(req)
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, nil, logger)
		coord, err := provider.Geocode(ctx, "MG Road, Bengaluru")

		require.NoError(t, err)
		assert.InEpsilon(t, 12.9756, coord.Latitude, 0.0001)
		assert.InEpsilon(t, 77.6066, coord.Longitude, 0.0001)
	})

	tests := []struct {
		name    string
		doFunc  func(*http.Request) (*http.Response, error)
		wantIs  error
		wantMsg string
	}{
		{
			name:   "empty response from API",
			doFunc: respond(http.StatusOK, `[]`),
			wantIs: geocoding.ErrEmptyResponse,
		},
		{
			name:    "HTTP error status",
			doFunc:  respond(http.StatusTooManyRequests, `{"error":"Rate limit exceeded"}`),
			wantMsg: "nominatim API returned status 429",
		},
		{
			name:    "invalid JSON response",
			doFunc:  respond(http.StatusOK, `invalid json`),
			wantMsg: "failed to decode nominatim response",
		},
		{
			name:    "invalid latitude in response",
			doFunc:  respond(http.StatusOK, `[{"lat":"invalid","lon":"77.6"}]`),
			wantIs:  geocoding.ErrInvalidCoords,
			wantMsg: "invalid latitude",
		},
		{
			name:    "invalid longitude in response",
			doFunc:  respond(http.StatusOK, `[{"lat":"12.9","lon":"invalid"}]`),
			wantIs:  geocoding.ErrInvalidCoords,
			wantMsg: "invalid longitude",
		},
		{
			name:   "latitude out of range",
			doFunc: respond(http.StatusOK, `[{"lat":"95","lon":"77.6"}]`),
			wantIs: geocoding.ErrInvalidCoords,
		},
		{
			name: "HTTP client returns error",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
			wantIs:  assert.AnError,
			wantMsg: "failed to execute geocoding request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := geocoding.NewNominatimProviderWithClient(&mockHTTPClient{doFunc: tt.doFunc}, nil, logger)

			_, err := provider.Geocode(ctx, "some address")

			require.Error(t, err)
			if tt.wantIs != nil {
				require.ErrorIs(t, err, tt.wantIs)
			}
			if tt.wantMsg != "" {
				assert.Contains(t, err.Error(), tt.wantMsg)
			}
		})
	}

	t.Run("empty address skips request", func(t *testing.T) {
		mockClient := &mockHTTPClient{
			doFunc: func(_ *http.Request) (*http.Response, error) {
				t.Fatal("request must not be sent")
				return nil, nil
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, nil, logger)
		_, err := provider.Geocode(ctx, "")

		require.ErrorIs(t, err, geocoding.ErrEmptyAddress)
	})

	t.Run("context cancellation", func(t *testing.T) {
		newCtx, cancel := context.WithCancel(context.Background())
		cancel()

		mockClient := &mockHTTPClient{
			doFunc: func(req *http.Request) (*http.Response, error) {
				return nil, req.Context().Err()
			},
		}

		provider := geocoding.NewNominatimProviderWithClient(mockClient, nil, logger)
		_, err := provider.Geocode(newCtx, "some address")

		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestNominatimProvider_RateLimit(t *testing.T) {
	calls := 0
	mockClient := &mockHTTPClient{
		doFunc: func(req *http.Request) (*http.Response, error) {
			calls++
			return respond(http.StatusOK, `[{"lat":"12.9756","lon":"77.6066"}]`)(req)
		},
	}
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	provider := geocoding.NewNominatimProviderWithClient(mockClient, limiter, slog.Default())

	_, err := provider.Geocode(t.Context(), "MG Road, Bengaluru")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(t.Context(), 50*time.Millisecond)
	defer cancel()

	_, err = provider.Geocode(ctx, "Indiranagar, Bengaluru")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit wait")
	assert.Equal(t, 1, calls)
}

func TestNewNominatimProvider(t *testing.T) {
	provider := geocoding.NewNominatimProvider(time.Second, slog.Default())

	require.NotNil(t, provider)
}
