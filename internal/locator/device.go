package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/models"
)

// PositionSource is the platform location API consumed by DeviceLocator.
type PositionSource interface {
	PermissionStatus(ctx context.Context) (PermissionStatus, error)
	RequestPermission(ctx context.Context) (PermissionStatus, error)
	CurrentPosition(ctx context.Context) (models.Coordinate, error)
}

// DeviceLocator asks a PositionSource for permission and then for a single fix.
// It never retries; retry policy belongs to the caller.
type DeviceLocator struct {
	source  PositionSource
	timeout time.Duration
	log     *slog.Logger
}

// NewDeviceLocator creates a DeviceLocator. A zero timeout disables the
// acquisition deadline.
func NewDeviceLocator(source PositionSource, timeout time.Duration, log *slog.Logger) *DeviceLocator {
	return &DeviceLocator{source: source, timeout: timeout, log: log}
}

// Acquire returns the current position, prompting for permission first when
// it has not been granted yet.
func (dl *DeviceLocator) Acquire(ctx context.Context) (models.Coordinate, error) {
	if err := dl.ensurePermission(ctx); err != nil {
		return models.Coordinate{}, err
	}

	fixCtx := ctx
	if dl.timeout > 0 {
		var cancel context.CancelFunc
		fixCtx, cancel = context.WithTimeout(ctx, dl.timeout)
		defer cancel()
	}

	coord, err := dl.source.CurrentPosition(fixCtx)
	if err != nil {
		// Caller cancellation is not a positioning failure.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return models.Coordinate{}, ctxErr
		}
		dl.log.WarnContext(ctx, "Failed to acquire position", "error", err)
		return models.Coordinate{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	if err = coord.Validate(); err != nil {
		dl.log.WarnContext(ctx, "Position source returned invalid fix", "error", err)
		return models.Coordinate{}, fmt.Errorf("%w: %w", ErrLocationUnavailable, err)
	}

	dl.log.DebugContext(ctx, "Position acquired", "lat", coord.Latitude, "lng", coord.Longitude)

	return coord, nil
}

func (dl *DeviceLocator) ensurePermission(ctx context.Context) error {
	status, err := dl.source.PermissionStatus(ctx)
	if err != nil {
		return dl.permissionErr(ctx, err)
	}
	if status == PermissionGranted {
		return nil
	}

	status, err = dl.source.RequestPermission(ctx)
	if err != nil {
		return dl.permissionErr(ctx, err)
	}
	if status != PermissionGranted {
		dl.log.InfoContext(ctx, "Location permission declined", "status", status)
		return ErrPermissionDenied
	}

	return nil
}

func (dl *DeviceLocator) permissionErr(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	return fmt.Errorf("%w: permission check failed: %w", ErrLocationUnavailable, err)
}
