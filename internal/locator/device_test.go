package locator_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/UnknownOlympus/asclepius/internal/locator"
	"github.com/UnknownOlympus/asclepius/internal/models"
	"github.com/UnknownOlympus/asclepius/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var bengaluru = models.Coordinate{Latitude: 12.9716, Longitude: 77.5946}

func TestDeviceLocator_Acquire(t *testing.T) {
	t.Parallel()
	logger := slog.Default()

	t.Run("permission already granted", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).Return(bengaluru, nil).Once()

		coord, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(t.Context())

		require.NoError(t, err)
		assert.Equal(t, bengaluru, coord)
	})

	t.Run("permission granted after prompt", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionUndetermined, nil).Once()
		source.On("RequestPermission", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).Return(bengaluru, nil).Once()

		coord, err := locator.NewDeviceLocator(source, 0, logger).Acquire(t.Context())

		require.NoError(t, err)
		assert.Equal(t, bengaluru, coord)
	})

	t.Run("user declines permission", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionUndetermined, nil).Once()
		source.On("RequestPermission", mock.Anything).Return(locator.PermissionDenied, nil).Once()

		_, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(t.Context())

		require.ErrorIs(t, err, locator.ErrPermissionDenied)
		source.AssertNotCalled(t, "CurrentPosition", mock.Anything)
	})

	t.Run("permission check fails", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionUndetermined, assert.AnError).Once()

		_, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(t.Context())

		require.ErrorIs(t, err, locator.ErrLocationUnavailable)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("hardware error", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).Return(models.Coordinate{}, assert.AnError).Once()

		_, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(t.Context())

		require.ErrorIs(t, err, locator.ErrLocationUnavailable)
		require.ErrorIs(t, err, assert.AnError)
	})

	t.Run("fix times out", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).
			Return(func(ctx context.Context) (models.Coordinate, error) {
				<-ctx.Done()
				return models.Coordinate{}, ctx.Err()
			}).Once()

		_, err := locator.NewDeviceLocator(source, 10*time.Millisecond, logger).Acquire(t.Context())

		require.ErrorIs(t, err, locator.ErrLocationUnavailable)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("invalid fix", func(t *testing.T) {
		t.Parallel()
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).
			Return(models.Coordinate{Latitude: 91, Longitude: 0}, nil).Once()

		_, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(t.Context())

		require.ErrorIs(t, err, locator.ErrLocationUnavailable)
		require.ErrorIs(t, err, models.ErrInvalidCoordinate)
	})

	t.Run("caller cancels", func(t *testing.T) {
		t.Parallel()
		ctx, cancel := context.WithCancel(t.Context())
		source := mocks.NewPositionSource(t)
		source.On("PermissionStatus", mock.Anything).Return(locator.PermissionGranted, nil).Once()
		source.On("CurrentPosition", mock.Anything).
			Return(func(_ context.Context) (models.Coordinate, error) {
				cancel()
				return models.Coordinate{}, context.Canceled
			}).Once()

		_, err := locator.NewDeviceLocator(source, time.Second, logger).Acquire(ctx)

		require.ErrorIs(t, err, context.Canceled)
		require.NotErrorIs(t, err, locator.ErrLocationUnavailable)
	})
}

func TestRequestPositionSource(t *testing.T) {
	t.Parallel()
	ctx := t.Context()

	t.Run("denied client", func(t *testing.T) {
		t.Parallel()
		source := locator.RequestPositionSource{Permission: locator.ParsePermission("denied")}

		_, err := locator.NewDeviceLocator(source, 0, slog.Default()).Acquire(ctx)

		require.ErrorIs(t, err, locator.ErrPermissionDenied)
	})

	t.Run("undetermined client is treated as declined", func(t *testing.T) {
		t.Parallel()
		source := locator.RequestPositionSource{Permission: locator.ParsePermission("")}

		_, err := locator.NewDeviceLocator(source, 0, slog.Default()).Acquire(ctx)

		require.ErrorIs(t, err, locator.ErrPermissionDenied)
	})

	t.Run("granted without fix", func(t *testing.T) {
		t.Parallel()
		source := locator.RequestPositionSource{Permission: locator.PermissionGranted}

		_, err := locator.NewDeviceLocator(source, 0, slog.Default()).Acquire(ctx)

		require.ErrorIs(t, err, locator.ErrLocationUnavailable)
	})

	t.Run("granted with fix", func(t *testing.T) {
		t.Parallel()
		fix := bengaluru
		source := locator.RequestPositionSource{Permission: locator.PermissionGranted, Position: &fix}

		coord, err := locator.NewDeviceLocator(source, 0, slog.Default()).Acquire(ctx)

		require.NoError(t, err)
		assert.Equal(t, bengaluru, coord)
	})
}
