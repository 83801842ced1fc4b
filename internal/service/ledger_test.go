package service_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/service"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

func setupTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"), internal.NopLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStartSession_ActiveSessionLock(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.StartSession(ctx, store, 1, time.Now())
	require.NoError(t, err)

	_, err = service.StartSession(ctx, store, 1, time.Now())
	assert.ErrorIs(t, err, internal.ErrActiveSessionExists)

	// a different user is unaffected
	_, err = service.StartSession(ctx, store, 2, time.Now())
	assert.NoError(t, err)
}

func TestEndSession_Duration(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	start := time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC)
	sess, err := service.StartSession(ctx, store, 1, start)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", sess.Date)
	assert.True(t, sess.Open())

	ended, err := service.EndSession(ctx, store, 1, start.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, sess.ID, ended.SessionID)
	assert.Equal(t, 90, ended.Duration)

	// closing released the lock
	_, err = service.EndSession(ctx, store, 1, time.Now())
	assert.ErrorIs(t, err, internal.ErrNoActiveSession)
}

func TestEndSession_NoActiveSession(t *testing.T) {
	store := setupTestStorage(t)

	_, err := service.EndSession(context.Background(), store, 1, time.Now())
	assert.ErrorIs(t, err, internal.ErrNoActiveSession)
}

func manualInput(date, start, end string, rating int) *service.ManualSessionInput {
	return &service.ManualSessionInput{
		Date:       date,
		StartClock: start,
		EndClock:   end,
		Quality:    service.QualityInput{Rating: rating, TimesWoken: 1, Notes: "ok"},
		Factors:    service.FactorsInput{Caffeine: true, ScreenTime: 30, StressLevel: 5},
	}
}

func TestRecordManualSession_OvernightRule(t *testing.T) {
	store := setupTestStorage(t)

	sess, err := service.RecordManualSession(context.Background(), store, 1,
		manualInput("2024-01-01", "23:00", "06:00", 7))
	require.NoError(t, err)

	require.NotNil(t, sess.EndTime)
	assert.Equal(t, "2024-01-02 06:00", sess.EndTime.Format("2006-01-02 15:04"))
	require.NotNil(t, sess.Duration)
	assert.Equal(t, 420, *sess.Duration)
	assert.Equal(t, "2024-01-01", sess.Date)
}

func TestRecordManualSession_RatingBoundaries(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	for _, rating := range []int{0, 11} {
		_, err := service.RecordManualSession(ctx, store, 1, manualInput("2024-01-01", "22:00", "06:00", rating))
		assert.ErrorIs(t, err, internal.ErrInvalidInput, "rating %d must be rejected", rating)
	}
	for i, rating := range []int{1, 10} {
		date := time.Date(2024, 1, 2+i, 0, 0, 0, 0, time.UTC).Format(internal.DateLayout)
		_, err := service.RecordManualSession(ctx, store, 1, manualInput(date, "22:00", "06:00", rating))
		assert.NoError(t, err, "rating %d must be accepted", rating)
	}
}

func TestRecordManualSession_BadClock(t *testing.T) {
	store := setupTestStorage(t)

	in := manualInput("2024-01-01", "25:99", "06:00", 7)
	_, err := service.RecordManualSession(context.Background(), store, 1, in)
	assert.ErrorIs(t, err, internal.ErrInvalidInput)
}

func TestRecordManualSession_RoundTripHistory(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.RecordManualSession(ctx, store, 1, manualInput("2024-02-01", "23:30", "07:00", 8))
	require.NoError(t, err)

	history, err := service.ListHistory(ctx, store, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "2024-02-01", history[0].Date)
	require.NotNil(t, history[0].Rating)
	assert.Equal(t, 8, *history[0].Rating)
	require.NotNil(t, history[0].Duration)
	assert.Equal(t, 450, *history[0].Duration)
}

func TestAttachQuality_DuplicateRejected(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.StartSession(ctx, store, 1, time.Now().Add(-8*time.Hour))
	require.NoError(t, err)
	ended, err := service.EndSession(ctx, store, 1, time.Now())
	require.NoError(t, err)

	q := &service.QualityInput{Rating: 7, TimesWoken: 0}
	_, err = service.AttachQuality(ctx, store, ended.SessionID, q)
	require.NoError(t, err)

	_, err = service.AttachQuality(ctx, store, ended.SessionID, q)
	assert.ErrorIs(t, err, internal.ErrDuplicateAnnotation)
}

func TestAttachFactors_Validation(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.StartSession(ctx, store, 1, time.Now().Add(-8*time.Hour))
	require.NoError(t, err)
	ended, err := service.EndSession(ctx, store, 1, time.Now())
	require.NoError(t, err)

	_, err = service.AttachFactors(ctx, store, ended.SessionID, &service.FactorsInput{StressLevel: 0})
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	_, err = service.AttachFactors(ctx, store, ended.SessionID, &service.FactorsInput{ScreenTime: -10, StressLevel: 5})
	assert.ErrorIs(t, err, internal.ErrInvalidInput)

	_, err = service.AttachFactors(ctx, store, ended.SessionID, &service.FactorsInput{Exercise: true, ScreenTime: 20, StressLevel: 5})
	assert.NoError(t, err)

	_, err = service.AttachFactors(ctx, store, ended.SessionID, &service.FactorsInput{StressLevel: 4})
	assert.ErrorIs(t, err, internal.ErrDuplicateAnnotation)
}

func TestAttachQuality_UnknownSession(t *testing.T) {
	store := setupTestStorage(t)

	_, err := service.AttachQuality(context.Background(), store, 999, &service.QualityInput{Rating: 5})
	assert.ErrorIs(t, err, internal.ErrNotFound)
}

func TestListHistory_OrderAndMissingRating(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.RecordManualSession(ctx, store, 1, manualInput("2024-02-01", "23:00", "07:00", 6))
	require.NoError(t, err)
	_, err = service.RecordManualSession(ctx, store, 1, manualInput("2024-02-03", "22:00", "06:00", 9))
	require.NoError(t, err)

	// a session closed without annotations
	start := time.Date(2024, 2, 2, 23, 0, 0, 0, time.UTC)
	_, err = service.StartSession(ctx, store, 1, start)
	require.NoError(t, err)
	_, err = service.EndSession(ctx, store, 1, start.Add(7*time.Hour))
	require.NoError(t, err)

	history, err := service.ListHistory(ctx, store, 1)
	require.NoError(t, err)
	require.Len(t, history, 3)

	assert.Equal(t, "2024-02-03", history[0].Date)
	assert.Equal(t, "2024-02-02", history[1].Date)
	assert.Equal(t, "2024-02-01", history[2].Date)

	assert.Nil(t, history[1].Rating, "missing rating reports as absent, not zero")
	require.NotNil(t, history[0].Rating)
	assert.Equal(t, 9, *history[0].Rating)
}

func TestGetLastSession_IncludesOpen(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, err := service.RecordManualSession(ctx, store, 1, manualInput("2024-02-01", "23:00", "07:00", 6))
	require.NoError(t, err)

	open, err := service.StartSession(ctx, store, 1, time.Date(2024, 2, 5, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)

	last, err := service.GetLastSession(ctx, store, 1)
	require.NoError(t, err)
	assert.Equal(t, open.ID, last.ID)
	assert.True(t, last.Open())
}
