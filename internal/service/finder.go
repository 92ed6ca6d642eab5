// Package service runs the nearby facility pipeline end to end and tags every
// run with an outcome the presentation layer can render.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/enrich"
	"github.com/UnknownOlympus/asclepius/internal/locator"
	"github.com/UnknownOlympus/asclepius/internal/metrics"
	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/internal/places"
	"github.com/UnknownOlympus/asclepius/internal/repository"
	"github.com/google/uuid"
)

// Request is one "find facilities near me" action.
type Request struct {
	Locator      locator.Locator
	RadiusMeters int
	Category     models.Category
}

// Response is the result handed to the presentation layer. Facilities is
// empty for every outcome except OutcomeOK.
type Response struct {
	SearchID   uuid.UUID           `json:"search_id"`
	Outcome    models.Outcome      `json:"outcome"`
	Facilities models.SearchResult `json:"facilities"`
	Err        error               `json:"-"`
}

// Enricher is the part of enrich.Coordinator used by the finder.
type Enricher interface {
	RunWithReport(
		ctx context.Context,
		origin models.Coordinate,
		candidates []models.Candidate,
	) (models.SearchResult, enrich.Report, error)
}

// FacilityFinder wires location, search and enrichment together. It holds no
// state between searches.
type FacilityFinder struct {
	log          *slog.Logger
	searcher     places.Searcher
	enricher     Enricher
	recorder     repository.Interface
	metrics      *metrics.Metrics
	providerName string
	timeout      time.Duration
}

// NewFacilityFinder creates a FacilityFinder. recorder may be nil, in which case
// telemetry is not stored. timeout bounds the candidate search request; zero
// leaves it bounded only by ctx.
func NewFacilityFinder(
	log *slog.Logger,
	searcher places.Searcher,
	enricher Enricher,
	recorder repository.Interface,
	metrics *metrics.Metrics,
	providerName string,
	timeout time.Duration,
) *FacilityFinder {
	return &FacilityFinder{
		log:          log,
		searcher:     searcher,
		enricher:     enricher,
		recorder:     recorder,
		metrics:      metrics,
		providerName: providerName,
		timeout:      timeout,
	}
}

// FindNearby acquires the caller's position, searches around it and enriches
// the candidates. Location and search failures end the run early; per
// candidate failures only shrink the result.
func (ff *FacilityFinder) FindNearby(ctx context.Context, req Request) Response {
	startTime := time.Now()
	resp := Response{SearchID: uuid.New(), Facilities: models.SearchResult{}}
	record := models.SearchRecord{ID: resp.SearchID, CreatedAt: startTime.UTC()}

	log := ff.log.With("search_id", resp.SearchID)

	defer func() {
		record.Outcome = resp.Outcome
		record.Duration = time.Since(startTime)
		ff.finish(ctx, log, record)
	}()

	origin, err := req.Locator.Acquire(ctx)
	if err != nil {
		resp.Outcome, resp.Err = Classify(err), err
		log.InfoContext(ctx, "Location step failed", "outcome", resp.Outcome, "error", err)
		return resp
	}

	query := models.SearchQuery{Origin: origin, RadiusMeters: req.RadiusMeters, Category: req.Category}
	record.Query = query
	if err = query.Validate(); err != nil {
		resp.Outcome, resp.Err = models.OutcomeInvalidRequest, err
		log.InfoContext(ctx, "Rejected search query", "error", err)
		return resp
	}

	searchStart := time.Now()
	candidates, err := ff.search(ctx, query)
	ff.metrics.RequestSeconds.WithLabelValues(ff.providerName, "search").Observe(time.Since(searchStart).Seconds())
	if err != nil {
		resp.Outcome, resp.Err = Classify(err), err
		// A provider that outlives the search timeout is a provider failure,
		// not a user cancellation.
		if resp.Outcome == models.OutcomeCancelled && ctx.Err() == nil {
			resp.Outcome = models.OutcomeSearchFailed
		}
		log.ErrorContext(ctx, "Candidate search failed", "outcome", resp.Outcome, "error", err)
		return resp
	}
	record.Candidates = len(candidates)

	result, report, err := ff.enricher.RunWithReport(ctx, origin, candidates)
	record.Drops = report.Drops
	if err != nil {
		resp.Outcome, resp.Err = Classify(err), err
		log.InfoContext(ctx, "Enrichment did not complete", "outcome", resp.Outcome, "error", err)
		return resp
	}
	record.Enriched = len(result)

	if len(result) == 0 {
		resp.Outcome = models.OutcomeEmptyResult
		return resp
	}

	resp.Outcome, resp.Facilities = models.OutcomeOK, result
	ff.metrics.ResultSize.Observe(float64(len(result)))

	return resp
}

// search bounds the candidate search with the finder's timeout. Location has
// its own deadline and every detail lookup is bounded by the enricher.
func (ff *FacilityFinder) search(ctx context.Context, query models.SearchQuery) ([]models.Candidate, error) {
	if ff.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ff.timeout)
		defer cancel()
	}

	return ff.searcher.Search(ctx, query)
}

func (ff *FacilityFinder) finish(ctx context.Context, log *slog.Logger, record models.SearchRecord) {
	ff.metrics.Searches.WithLabelValues(string(record.Outcome)).Inc()
	log.InfoContext(ctx, "Search finished",
		"outcome", record.Outcome,
		"candidates", record.Candidates,
		"enriched", record.Enriched,
		"duration", record.Duration,
	)

	if ff.recorder == nil {
		return
	}

	// The caller may already be gone; telemetry is written regardless.
	if err := ff.recorder.RecordSearch(context.WithoutCancel(ctx), record); err != nil {
		log.ErrorContext(ctx, "Failed to store search record", "error", err)
	}
}

// Classify maps a pipeline error onto the outcome shown to the user.
func Classify(err error) models.Outcome {
	switch {
	case err == nil:
		return models.OutcomeOK
	case errors.Is(err, locator.ErrPermissionDenied):
		return models.OutcomeLocationDenied
	case errors.Is(err, locator.ErrLocationUnavailable):
		return models.OutcomeLocationUnavailable
	case errors.Is(err, enrich.ErrCancelled),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return models.OutcomeCancelled
	case errors.Is(err, models.ErrInvalidQuery):
		return models.OutcomeInvalidRequest
	default:
		return models.OutcomeSearchFailed
	}
}
