// Package locator acquires the coordinate a nearby search starts from.
package locator

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

// Locator returns a single snapshot of the caller's position.
type Locator interface {
	Acquire(ctx context.Context) (models.Coordinate, error)
}

var (
	// ErrPermissionDenied is returned when the user declines location access.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrLocationUnavailable is returned when no fix can be produced.
	ErrLocationUnavailable = errors.New("location unavailable")
)

// PermissionStatus mirrors the states a mobile location API reports.
type PermissionStatus string

const (
	PermissionGranted      PermissionStatus = "granted"
	PermissionDenied       PermissionStatus = "denied"
	PermissionUndetermined PermissionStatus = "undetermined"
)

// ParsePermission maps a client supplied value onto a PermissionStatus.
// Anything unrecognised is treated as undetermined.
func ParsePermission(raw string) PermissionStatus {
	switch PermissionStatus(raw) {
	case PermissionGranted:
		return PermissionGranted
	case PermissionDenied:
		return PermissionDenied
	default:
		return PermissionUndetermined
	}
}

// Func adapts a plain function to the Locator interface.
type Func func(ctx context.Context) (models.Coordinate, error)

// Acquire calls f.
func (f Func) Acquire(ctx context.Context) (models.Coordinate, error) {
	return f(ctx)
}
