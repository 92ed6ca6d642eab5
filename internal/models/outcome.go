package models

import (
	"time"

	"github.com/google/uuid"
)

// Outcome tells the presentation layer which state to render.
type Outcome string

const (
	OutcomeOK                  Outcome = "ok"
	OutcomeEmptyResult         Outcome = "empty_result"
	OutcomeSearchFailed        Outcome = "search_failed"
	OutcomeLocationDenied      Outcome = "location_denied"
	OutcomeLocationUnavailable Outcome = "location_unavailable"
	OutcomeCancelled           Outcome = "cancelled"
	OutcomeInvalidRequest      Outcome = "invalid_request"
)

// DropReason explains why a candidate is missing from a result.
type DropReason string

const (
	DropFetchFailed    DropReason = "fetch_failed"
	DropInvalidPayload DropReason = "invalid_payload"
	DropCancelled      DropReason = "cancelled"
)

// Drop records one candidate that did not make it into the result.
type Drop struct {
	CandidateID string     `json:"candidate_id"`
	Reason      DropReason `json:"reason"`
	Error       string     `json:"error"`
}

// SearchRecord is the telemetry written after each search.
type SearchRecord struct {
	ID         uuid.UUID
	Query      SearchQuery
	Outcome    Outcome
	Candidates int
	Enriched   int
	Drops      []Drop
	Duration   time.Duration
	CreatedAt  time.Time
}
