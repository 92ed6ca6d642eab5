// Package api exposes the nearby facility search over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/geocoding"
	"github.com/UnknownOlympus/asclepius/internal/locator"
	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/internal/service"
	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is the nginx convention for a request the client
// abandoned before a response was ready.
const statusClientClosedRequest = 499

var errMissingCoordinate = errors.New("lat and lng must be given together")

// Finder runs a nearby search.
type Finder interface {
	FindNearby(ctx context.Context, req service.Request) service.Response
}

// Defaults are applied when a request omits radius or category.
type Defaults struct {
	RadiusMeters  int
	Category      models.Category
	LocateTimeout time.Duration
}

// Handler serves the facility endpoints.
type Handler struct {
	log      *slog.Logger
	finder   Finder
	geocoder geocoding.Provider
	defaults Defaults
}

// NewHandler creates a Handler. geocoder may be nil, in which case requests
// carrying an address are rejected.
func NewHandler(log *slog.Logger, finder Finder, geocoder geocoding.Provider, defaults Defaults) *Handler {
	return &Handler{log: log, finder: finder, geocoder: geocoder, defaults: defaults}
}

// Register mounts the handler's routes on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/facilities/nearby", h.findNearby)
}

type nearbyResponse struct {
	SearchID   string              `json:"search_id,omitempty"`
	Outcome    models.Outcome      `json:"outcome"`
	Facilities models.SearchResult `json:"facilities"`
	Error      string              `json:"error,omitempty"`
}

func (h *Handler) findNearby(ctx *gin.Context) {
	req, err := h.parseRequest(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, nearbyResponse{
			Outcome:    models.OutcomeInvalidRequest,
			Facilities: models.SearchResult{},
			Error:      err.Error(),
		})
		return
	}

	resp := h.finder.FindNearby(ctx.Request.Context(), req)

	body := nearbyResponse{
		SearchID:   resp.SearchID.String(),
		Outcome:    resp.Outcome,
		Facilities: resp.Facilities,
	}
	if body.Facilities == nil {
		body.Facilities = models.SearchResult{}
	}
	if resp.Err != nil {
		body.Error = userMessage(resp.Outcome)
	}

	ctx.JSON(StatusFor(resp.Outcome), body)
}

func (h *Handler) parseRequest(ctx *gin.Context) (service.Request, error) {
	req := service.Request{RadiusMeters: h.defaults.RadiusMeters, Category: h.defaults.Category}

	if raw := ctx.Query("radius"); raw != "" {
		radius, err := strconv.Atoi(raw)
		if err != nil {
			return req, errors.New("radius must be an integer number of meters")
		}
		req.RadiusMeters = radius
	}

	if raw := ctx.Query("category"); raw != "" {
		category, err := models.ParseCategory(raw)
		if err != nil {
			return req, err
		}
		req.Category = category
	}

	loc, err := h.locatorFor(ctx)
	if err != nil {
		return req, err
	}
	req.Locator = loc

	return req, nil
}

// locatorFor picks an address locator when the client typed an address and a
// device locator backed by the client's report otherwise.
func (h *Handler) locatorFor(ctx *gin.Context) (locator.Locator, error) {
	if address := strings.TrimSpace(ctx.Query("address")); address != "" {
		if h.geocoder == nil {
			return nil, errors.New("address search is not enabled")
		}
		return locator.NewAddressLocator(h.geocoder, address, h.log), nil
	}

	source := locator.RequestPositionSource{
		Permission: locator.ParsePermission(ctx.Query("permission")),
	}

	rawLat, rawLng := ctx.Query("lat"), ctx.Query("lng")
	switch {
	case rawLat == "" && rawLng == "":
	case rawLat == "" || rawLng == "":
		return nil, errMissingCoordinate
	default:
		lat, err := strconv.ParseFloat(rawLat, 64)
		if err != nil {
			return nil, errors.New("lat must be a number")
		}
		lng, err := strconv.ParseFloat(rawLng, 64)
		if err != nil {
			return nil, errors.New("lng must be a number")
		}
		source.Position = &models.Coordinate{Latitude: lat, Longitude: lng}
	}

	return locator.NewDeviceLocator(source, h.defaults.LocateTimeout, h.log), nil
}

// StatusFor maps an outcome onto the HTTP status the endpoint answers with.
func StatusFor(outcome models.Outcome) int {
	switch outcome {
	case models.OutcomeOK, models.OutcomeEmptyResult:
		return http.StatusOK
	case models.OutcomeLocationDenied:
		return http.StatusForbidden
	case models.OutcomeLocationUnavailable:
		return http.StatusUnprocessableEntity
	case models.OutcomeSearchFailed:
		return http.StatusBadGateway
	case models.OutcomeCancelled:
		return statusClientClosedRequest
	case models.OutcomeInvalidRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func userMessage(outcome models.Outcome) string {
	switch outcome {
	case models.OutcomeLocationDenied:
		return "location permission was not granted"
	case models.OutcomeLocationUnavailable:
		return "current location could not be determined"
	case models.OutcomeSearchFailed:
		return "facility search is temporarily unavailable"
	case models.OutcomeCancelled:
		return "search was cancelled"
	case models.OutcomeInvalidRequest:
		return "search parameters are invalid"
	default:
		return "unexpected error"
	}
}
