package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/geo"
	"github.com/UnknownOlympus/asclepius/internal/metrics"
	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/internal/places"
)

// ErrCancelled is returned when the caller gave up before enrichment settled.
var ErrCancelled = errors.New("enrichment cancelled")

// Report describes what happened to every candidate of one run.
type Report struct {
	Candidates int
	Enriched   int
	Drops      []models.Drop
}

// Coordinator fans detail lookups out across candidates and assembles the
// surviving facilities ordered by distance.
type Coordinator struct {
	fetcher      places.DetailFetcher
	providerName string
	concurrency  int
	timeout      time.Duration
	metrics      *metrics.Metrics
	log          *slog.Logger
}

// NewCoordinator creates a Coordinator. concurrency caps the number of
// simultaneous detail lookups; zero means one goroutine per candidate.
// timeout bounds each lookup on its own, a lookup that runs past it is
// dropped as fetch_failed. Zero leaves lookups bounded only by ctx.
func NewCoordinator(
	log *slog.Logger,
	fetcher places.DetailFetcher,
	providerName string,
	metrics *metrics.Metrics,
	concurrency int,
	timeout time.Duration,
) *Coordinator {
	return &Coordinator{
		fetcher:      fetcher,
		providerName: providerName,
		concurrency:  concurrency,
		timeout:      timeout,
		metrics:      metrics,
		log:          log,
	}
}

// Run enriches candidates and returns them sorted by distance from origin.
func (c *Coordinator) Run(
	ctx context.Context,
	origin models.Coordinate,
	candidates []models.Candidate,
) (models.SearchResult, error) {
	result, _, err := c.RunWithReport(ctx, origin, candidates)
	return result, err
}

// RunWithReport is Run that also reports why candidates were dropped.
//
// Every candidate is fetched concurrently and the call returns only after all
// fetches have settled. Failed fetches and invalid payloads are dropped. An
// empty result is valid. The only error is ErrCancelled, in which case no
// facilities are returned even if some lookups had already succeeded.
func (c *Coordinator) RunWithReport(
	ctx context.Context,
	origin models.Coordinate,
	candidates []models.Candidate,
) (models.SearchResult, Report, error) {
	report := Report{Candidates: len(candidates)}
	if len(candidates) == 0 {
		return models.SearchResult{}, report, nil
	}

	c.log.DebugContext(ctx, "Enriching candidates", "candidates", len(candidates), "concurrency", c.concurrency)

	settled := SettleAll(ctx, candidates, c.concurrency, c.fetch)

	if err := ctx.Err(); err != nil {
		c.log.InfoContext(ctx, "Enrichment cancelled", "candidates", len(candidates), "error", err)
		return nil, report, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	type slot struct {
		facility models.EnrichedFacility
		index    int
	}

	// A duplicate id is ranked by its first occurrence in candidates, whether
	// or not that occurrence was the one that succeeded.
	firstIndex := make(map[string]int, len(candidates))
	for idx, candidate := range candidates {
		if _, seen := firstIndex[candidate.ID]; !seen {
			firstIndex[candidate.ID] = idx
		}
	}

	// position maps an id to its slot; later successes overwrite the data.
	position := make(map[string]int, len(candidates))
	survivors := make([]slot, 0, len(candidates))

	for idx, res := range settled {
		id := candidates[idx].ID

		if res.Err != nil {
			drop := models.Drop{CandidateID: id, Reason: dropReason(res.Err), Error: res.Err.Error()}
			report.Drops = append(report.Drops, drop)
			c.metrics.DetailFetches.WithLabelValues(string(drop.Reason)).Inc()
			c.log.WarnContext(ctx, "Dropping candidate", "id", id, "reason", drop.Reason, "error", res.Err)
			continue
		}

		c.metrics.DetailFetches.WithLabelValues("success").Inc()
		facility := c.score(origin, res.Value)

		if pos, seen := position[id]; seen {
			c.log.DebugContext(ctx, "Duplicate candidate replaced", "id", id, "index", idx)
			survivors[pos].facility = facility
			continue
		}

		position[id] = len(survivors)
		survivors = append(survivors, slot{facility: facility, index: firstIndex[id]})
	}

	slices.SortStableFunc(survivors, func(a, b slot) int {
		switch {
		case a.facility.DistanceKm < b.facility.DistanceKm:
			return -1
		case a.facility.DistanceKm > b.facility.DistanceKm:
			return 1
		default:
			return a.index - b.index
		}
	})

	result := make(models.SearchResult, 0, len(survivors))
	for _, s := range survivors {
		result = append(result, s.facility)
	}
	report.Enriched = len(result)

	c.log.InfoContext(ctx, "Enrichment finished",
		"candidates", report.Candidates, "enriched", report.Enriched, "dropped", len(report.Drops))

	return result, report, nil
}

func (c *Coordinator) fetch(ctx context.Context, candidate models.Candidate) (models.FacilityDetail, error) {
	c.metrics.ActiveEnrichments.Inc()
	defer c.metrics.ActiveEnrichments.Dec()

	fetchCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	startTime := time.Now()
	detail, err := c.fetcher.FetchDetail(fetchCtx, candidate.ID)
	c.metrics.RequestSeconds.WithLabelValues(c.providerName, "detail").Observe(time.Since(startTime).Seconds())

	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return models.FacilityDetail{}, fmt.Errorf("%w: %s: lookup timed out after %s: %w",
				places.ErrDetailFetch, candidate.ID, c.timeout, err)
		}
		return models.FacilityDetail{}, err
	}

	// score dereferences the coordinate.
	if err = detail.Validate(); err != nil {
		return models.FacilityDetail{}, err
	}
	detail.ID = candidate.ID

	return detail, nil
}

func (c *Coordinator) score(origin models.Coordinate, detail models.FacilityDetail) models.EnrichedFacility {
	return models.EnrichedFacility{
		FacilityDetail: detail,
		DistanceKm:     geo.DistanceKm(origin, *detail.Coordinate),
		DirectionsURL:  geo.DirectionsURL(origin, *detail.Coordinate),
	}
}

func dropReason(err error) models.DropReason {
	switch {
	case errors.Is(err, models.ErrInvalidDetailPayload):
		return models.DropInvalidPayload
	case errors.Is(err, places.ErrDetailFetch):
		return models.DropFetchFailed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return models.DropCancelled
	default:
		return models.DropFetchFailed
	}
}
