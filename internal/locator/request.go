package locator

import (
	"context"
	"errors"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

var errNoFix = errors.New("client did not report a position")

// RequestPositionSource is a PositionSource backed by what the mobile client
// sent along with its request: its permission state and, if granted, a fix.
// The client has already shown the permission prompt, so RequestPermission
// only reports the recorded answer.
type RequestPositionSource struct {
	Permission PermissionStatus
	Position   *models.Coordinate
}

// PermissionStatus returns the recorded permission state.
func (s RequestPositionSource) PermissionStatus(_ context.Context) (PermissionStatus, error) {
	return s.Permission, nil
}

// RequestPermission returns the recorded permission state.
func (s RequestPositionSource) RequestPermission(ctx context.Context) (PermissionStatus, error) {
	if err := ctx.Err(); err != nil {
		return PermissionUndetermined, err
	}

	return s.Permission, nil
}

// CurrentPosition returns the reported fix.
func (s RequestPositionSource) CurrentPosition(ctx context.Context) (models.Coordinate, error) {
	if err := ctx.Err(); err != nil {
		return models.Coordinate{}, err
	}
	if s.Position == nil {
		return models.Coordinate{}, errNoFix
	}

	return *s.Position, nil
}
