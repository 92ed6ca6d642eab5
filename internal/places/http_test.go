package places_test

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/internal/places"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const (
	searchEndpoint = "https://places.example.test/nearbysearch/json"
	detailEndpoint = "https://places.example.test/details/json"
	apiKey         = "test-api-key"
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

func newHTTPProvider(doFunc func(*http.Request) (*http.Response, error)) *places.HTTPProvider {
	return places.NewHTTPProviderWithClient(
		&mockHTTPClient{doFunc: doFunc},
		searchEndpoint, detailEndpoint, apiKey,
		rate.NewLimiter(rate.Inf, 0),
		slog.Default(),
	)
}

func TestHTTPProvider_Search(t *testing.T) {
	ctx := t.Context()

	t.Run("successful search", func(t *testing.T) {
		provider := newHTTPProvider(func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, http.MethodGet, req.Method)
			assert.True(t, strings.HasPrefix(req.URL.String(), searchEndpoint))
			assert.Equal(t, "12.971600,77.594600", req.URL.Query().Get("location"))
			assert.Equal(t, "8000", req.URL.Query().Get("radius"))
			assert.Equal(t, "hospital", req.URL.Query().Get("type"))
			assert.Equal(t, apiKey, req.URL.Query().Get("key"))
			assert.Equal(t, "application/json", req.Header.Get("Accept"))

			return respond(http.StatusOK, `{"status":"OK","results":[
				{"place_id":"A","name":"City Hospital","vicinity":"MG Road"},
				{"place_id":"C","name":"Apollo"}
			]}`)(req)
		})

		candidates, err := provider.Search(ctx, hospitalQuery)

		require.NoError(t, err)
		assert.Equal(t, []models.Candidate{
			{ID: "A", NameHint: "City Hospital", Vicinity: "MG Road"},
			{ID: "C", NameHint: "Apollo"},
		}, candidates)
	})

	t.Run("zero results", func(t *testing.T) {
		provider := newHTTPProvider(respond(http.StatusOK, `{"status":"ZERO_RESULTS","results":[]}`))

		candidates, err := provider.Search(ctx, hospitalQuery)

		require.NoError(t, err)
		require.NotNil(t, candidates)
		assert.Empty(t, candidates)
	})

	failures := []struct {
		name    string
		doFunc  func(*http.Request) (*http.Response, error)
		wantMsg string
	}{
		{
			name:    "provider status denied",
			doFunc:  respond(http.StatusOK, `{"status":"REQUEST_DENIED","error_message":"bad key"}`),
			wantMsg: "status REQUEST_DENIED: bad key",
		},
		{
			name:    "non-2xx",
			doFunc:  respond(http.StatusServiceUnavailable, `upstream down`),
			wantMsg: "provider returned status 503",
		},
		{
			name: "result without place id",
			doFunc: respond(http.StatusOK, `{"status":"OK","results":[
				{"place_id":"A","name":"City Hospital"},
				{"place_id":"","name":"Ghost"}
			]}`),
			wantMsg: "result 1 has no place_id",
		},
		{
			name:    "malformed payload",
			doFunc:  respond(http.StatusOK, `{"status":`),
			wantMsg: "failed to decode response",
		},
		{
			name: "network failure",
			doFunc: func(_ *http.Request) (*http.Response, error) {
				return nil, assert.AnError
			},
			wantMsg: "failed to execute request",
		},
	}

	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			candidates, err := newHTTPProvider(tt.doFunc).Search(ctx, hospitalQuery)

			require.Nil(t, candidates)
			require.ErrorIs(t, err, places.ErrSearchProvider)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}

	t.Run("cancelled while waiting for the limiter", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		provider := places.NewHTTPProviderWithClient(
			&mockHTTPClient{doFunc: respond(http.StatusOK, `{"status":"OK"}`)},
			searchEndpoint, detailEndpoint, apiKey,
			rate.NewLimiter(1, 1),
			slog.Default(),
		)

		_, err := provider.Search(cctx, hospitalQuery)

		require.ErrorIs(t, err, places.ErrSearchProvider)
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestHTTPProvider_FetchDetail(t *testing.T) {
	ctx := t.Context()

	t.Run("full detail", func(t *testing.T) {
		provider := newHTTPProvider(func(req *http.Request) (*http.Response, error) {
			assert.True(t, strings.HasPrefix(req.URL.String(), detailEndpoint))
			assert.Equal(t, "A", req.URL.Query().Get("place_id"))
			assert.Equal(t,
				"place_id,name,formatted_address,formatted_phone_number,rating,geometry",
				req.URL.Query().Get("fields"))
			assert.Equal(t, apiKey, req.URL.Query().Get("key"))

			return respond(http.StatusOK, `{"status":"OK","result":{
				"name":"City Hospital",
				"formatted_address":"1 MG Road, Bengaluru",
				"formatted_phone_number":"080 1234 5678",
				"rating":4.2,
				"geometry":{"location":{"lat":12.98,"lng":77.60}}
			}}`)(req)
		})

		detail, err := provider.FetchDetail(ctx, "A")

		require.NoError(t, err)
		assert.Equal(t, "City Hospital", detail.Name)
		assert.Equal(t, "1 MG Road, Bengaluru", detail.Address)
		require.NotNil(t, detail.Phone)
		assert.Equal(t, "080 1234 5678", *detail.Phone)
		require.NotNil(t, detail.Rating)
		assert.InDelta(t, 4.2, *detail.Rating, 0.001)
		assert.Equal(t, &models.Coordinate{Latitude: 12.98, Longitude: 77.60}, detail.Coordinate)
	})

	t.Run("zero rating is kept", func(t *testing.T) {
		provider := newHTTPProvider(respond(http.StatusOK, `{"status":"OK","result":{
			"name":"New Clinic","vicinity":"Indiranagar","rating":0,
			"geometry":{"location":{"lat":12.97,"lng":77.64}}}}`))

		detail, err := provider.FetchDetail(ctx, "N")

		require.NoError(t, err)
		assert.Equal(t, "Indiranagar", detail.Address)
		require.NotNil(t, detail.Rating)
		assert.Zero(t, *detail.Rating)
	})

	invalid := []struct {
		name string
		body string
	}{
		{name: "missing result", body: `{"status":"OK"}`},
		{name: "missing name", body: `{"status":"OK","result":{"formatted_address":"x","geometry":{"location":{"lat":1,"lng":1}}}}`},
		{name: "missing address", body: `{"status":"OK","result":{"name":"x","geometry":{"location":{"lat":1,"lng":1}}}}`},
		{name: "missing geometry", body: `{"status":"OK","result":{"name":"x","formatted_address":"y"}}`},
		{name: "missing location", body: `{"status":"OK","result":{"name":"x","formatted_address":"y","geometry":{}}}`},
		{name: "rating out of range", body: `{"status":"OK","result":{"name":"x","formatted_address":"y","rating":7,"geometry":{"location":{"lat":1,"lng":1}}}}`},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newHTTPProvider(respond(http.StatusOK, tt.body)).FetchDetail(ctx, "X")

			require.ErrorIs(t, err, models.ErrInvalidDetailPayload)
			require.NotErrorIs(t, err, places.ErrDetailFetch)
		})
	}

	t.Run("not found status", func(t *testing.T) {
		_, err := newHTTPProvider(respond(http.StatusOK, `{"status":"NOT_FOUND"}`)).FetchDetail(ctx, "X")

		require.ErrorIs(t, err, places.ErrDetailFetch)
	})

	t.Run("server error", func(t *testing.T) {
		_, err := newHTTPProvider(respond(http.StatusInternalServerError, `boom`)).FetchDetail(ctx, "X")

		require.ErrorIs(t, err, places.ErrDetailFetch)
		assert.Contains(t, err.Error(), "provider returned status 500")
	})
}
