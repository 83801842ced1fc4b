package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/service"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

func TestParseWindow(t *testing.T) {
	for in, want := range map[string]service.Window{
		"":    service.Last7Days,
		"7":   service.Last7Days,
		"30":  service.Last30Days,
		"90":  service.Last90Days,
		"all": service.AllTime,
	} {
		got, err := service.ParseWindow(in)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := service.ParseWindow("14")
	assert.ErrorIs(t, err, internal.ErrInvalidInput)
}

func TestWindowSince(t *testing.T) {
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-03", service.Last7Days.Since(today))
	assert.Equal(t, "2024-02-09", service.Last30Days.Since(today))
	assert.Equal(t, "", service.AllTime.Since(today), "all time queries unbounded")
}

// record inserts a closed annotated session n days before today.
func record(t *testing.T, store *storage.SQLiteStorage, userID int64, daysAgo, durationMin, rating int, caffeine, exercise bool) {
	t.Helper()
	day := time.Now().AddDate(0, 0, -daysAgo)
	start := time.Date(day.Year(), day.Month(), day.Day(), 22, 0, 0, 0, time.UTC)
	end := start.Add(time.Duration(durationMin) * time.Minute)
	sess := &internal.SleepSession{
		UserID:    userID,
		StartTime: start,
		EndTime:   &end,
		Duration:  &durationMin,
		Date:      start.Format(internal.DateLayout),
	}
	q := &internal.QualityRecord{Rating: rating, TimesWoken: 0}
	f := &internal.FactorRecord{Caffeine: caffeine, Exercise: exercise, ScreenTime: 30, StressLevel: 5}
	require.NoError(t, store.CreateFullRecord(context.Background(), sess, q, f))
}

func TestAverages_TwoSessionScenario(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	// consecutive days: 360 and 420 minutes, ratings 6 and 8
	record(t, store, 1, 1, 360, 6, false, false)
	record(t, store, 1, 2, 420, 8, false, false)

	avgDur, ok, err := service.AverageDuration(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 6.5, avgDur, 0.001)

	avgQ, ok, err := service.AverageQuality(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 7.0, avgQ, 0.001)
}

func TestAverages_EmptyWindowIsNoData(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	_, ok, err := service.AverageDuration(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "empty window must report no data, not zero")

	_, ok, err = service.AverageQuality(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	// data outside the window still reports no data for the short window
	record(t, store, 1, 40, 400, 7, false, false)
	_, ok, err = service.AverageDuration(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	// but counts for the wider and unbounded windows
	avg, ok, err := service.AverageDuration(ctx, store, 1, service.Last90Days, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 400.0/60, avg, 0.001)

	_, ok, err = service.AverageDuration(ctx, store, 1, service.AllTime, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCorrelation_UndefinedWithOnePoint(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	record(t, store, 1, 1, 400, 7, false, false)

	_, ok, err := service.Correlation(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	assert.False(t, ok, "one point has no defined correlation")
}

func TestCorrelation_PerfectPositive(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	// rating rises linearly with duration
	record(t, store, 1, 1, 300, 5, false, false)
	record(t, store, 1, 2, 360, 6, false, false)
	record(t, store, 1, 3, 420, 7, false, false)

	r, ok, err := service.Correlation(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	require.True(t, ok)
	assert.InDelta(t, 1.0, r, 0.0001)
}

func TestCorrelation_ZeroVarianceUndefined(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	record(t, store, 1, 1, 400, 7, false, false)
	record(t, store, 1, 2, 500, 7, false, false)

	_, ok, err := service.Correlation(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTimeSeries_OrderAndConversion(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	record(t, store, 1, 2, 420, 8, false, false)
	record(t, store, 1, 1, 360, 6, false, false)

	points, err := service.TimeSeries(ctx, store, 1, service.Last7Days, time.Now())
	require.NoError(t, err)
	require.Len(t, points, 2)

	// oldest first
	assert.True(t, points[0].Date < points[1].Date)
	require.NotNil(t, points[0].DurationHours)
	assert.InDelta(t, 7.0, *points[0].DurationHours, 0.001)
	require.NotNil(t, points[1].DurationHours)
	assert.InDelta(t, 6.0, *points[1].DurationHours, 0.001)
}

func TestFactorEffect_Groups(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	record(t, store, 1, 1, 360, 6, true, false)  // caffeine
	record(t, store, 1, 2, 480, 8, false, false) // no caffeine
	record(t, store, 1, 3, 420, 7, false, false) // no caffeine

	eff, err := service.ComputeFactorEffect(ctx, store, 1, service.Last7Days, "caffeine", time.Now())
	require.NoError(t, err)
	assert.InDelta(t, 6.0, eff.WithHours, 0.001)
	assert.InDelta(t, 7.5, eff.WithoutHours, 0.001)
}

func TestFactorEffect_EmptyGroupIsZero(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	record(t, store, 1, 1, 420, 7, false, true)

	eff, err := service.ComputeFactorEffect(ctx, store, 1, service.Last7Days, "caffeine", time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0.0, eff.WithHours, "empty group reports zero by convention")
	assert.InDelta(t, 7.0, eff.WithoutHours, 0.001)
}

func TestFactorEffect_UnknownFactor(t *testing.T) {
	store := setupTestStorage(t)

	_, err := service.ComputeFactorEffect(context.Background(), store, 1, service.Last7Days, "moonphase", time.Now())
	assert.ErrorIs(t, err, internal.ErrInvalidInput)
}

func TestDashboardSummary(t *testing.T) {
	store := setupTestStorage(t)
	ctx := context.Background()

	summary, err := service.DashboardSummary(ctx, store, 1, time.Now())
	require.NoError(t, err)
	assert.Nil(t, summary.AvgDurationHours)
	assert.Nil(t, summary.AvgQuality)
	assert.Nil(t, summary.LastSession)

	record(t, store, 1, 1, 390, 7, false, false)

	summary, err = service.DashboardSummary(ctx, store, 1, time.Now())
	require.NoError(t, err)
	require.NotNil(t, summary.AvgDurationHours)
	assert.InDelta(t, 6.5, *summary.AvgDurationHours, 0.001)
	require.NotNil(t, summary.AvgQuality)
	assert.InDelta(t, 7.0, *summary.AvgQuality, 0.001)
	require.NotNil(t, summary.LastSession)
}
