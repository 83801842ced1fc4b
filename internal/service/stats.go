package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

// Window is a trailing N-day period anchored to the current date. AllTime is
// a real unbounded query, not a large day count.
type Window int

const (
	Last7Days  Window = 7
	Last30Days Window = 30
	Last90Days Window = 90
	AllTime    Window = -1
)

// ParseWindow maps the API's window selections onto Window values.
func ParseWindow(s string) (Window, error) {
	switch s {
	case "", "7":
		return Last7Days, nil
	case "30":
		return Last30Days, nil
	case "90":
		return Last90Days, nil
	case "all":
		return AllTime, nil
	}
	return 0, fmt.Errorf("%w: window must be 7, 30, 90 or all", internal.ErrInvalidInput)
}

// Since returns the inclusive lower date bound for the window anchored at
// today, or "" when the window is unbounded.
func (w Window) Since(today time.Time) string {
	if w == AllTime {
		return ""
	}
	return today.AddDate(0, 0, -int(w)).Format(internal.DateLayout)
}

// SeriesPoint is one charting sample. DurationHours and Rating are nil for
// sessions that are still open or have no quality record.
type SeriesPoint struct {
	Date          string   `json:"date"`
	DurationHours *float64 `json:"duration_hours,omitempty"`
	Rating        *int     `json:"rating,omitempty"`
}

// FactorEffect reports mean sleep duration in hours for the sessions with
// and without a boolean factor. An empty group reports 0.
type FactorEffect struct {
	Factor       string  `json:"factor"`
	WithHours    float64 `json:"with_hours"`
	WithoutHours float64 `json:"without_hours"`
}

// AverageDuration returns the mean sleep duration in hours over sessions
// whose date falls in the window. ok is false when there is no data, which
// callers must not confuse with a true zero.
func AverageDuration(ctx context.Context, repo storage.SessionRepository, userID int64, w Window, today time.Time) (float64, bool, error) {
	rows, err := repo.ListStatRows(ctx, userID, w.Since(today))
	if err != nil {
		return 0, false, err
	}
	sum, n := 0.0, 0
	for _, r := range rows {
		if r.Duration != nil {
			sum += float64(*r.Duration)
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n) / 60, true, nil
}

// AverageQuality returns the mean quality rating over the window; sessions
// without a quality record do not count. ok is false when there is no data.
func AverageQuality(ctx context.Context, repo storage.SessionRepository, userID int64, w Window, today time.Time) (float64, bool, error) {
	rows, err := repo.ListStatRows(ctx, userID, w.Since(today))
	if err != nil {
		return 0, false, err
	}
	sum, n := 0.0, 0
	for _, r := range rows {
		if r.Rating != nil {
			sum += float64(*r.Rating)
			n++
		}
	}
	if n == 0 {
		return 0, false, nil
	}
	return sum / float64(n), true, nil
}

// TimeSeries returns the date-ordered (date, duration, rating) sequence for
// charting. It is re-derived from the ledger on every call.
func TimeSeries(ctx context.Context, repo storage.SessionRepository, userID int64, w Window, today time.Time) ([]SeriesPoint, error) {
	rows, err := repo.ListStatRows(ctx, userID, w.Since(today))
	if err != nil {
		return nil, err
	}
	points := make([]SeriesPoint, len(rows))
	for i, r := range rows {
		p := SeriesPoint{Date: r.Date, Rating: r.Rating}
		if r.Duration != nil {
			h := float64(*r.Duration) / 60
			p.DurationHours = &h
		}
		points[i] = p
	}
	return points, nil
}

// Correlation computes the Pearson correlation between sleep duration and
// quality rating over the window. It is undefined (ok=false) with fewer than
// two complete pairs or when either series has zero variance.
func Correlation(ctx context.Context, repo storage.SessionRepository, userID int64, w Window, today time.Time) (float64, bool, error) {
	rows, err := repo.ListStatRows(ctx, userID, w.Since(today))
	if err != nil {
		return 0, false, err
	}
	var xs, ys []float64
	for _, r := range rows {
		if r.Duration != nil && r.Rating != nil {
			xs = append(xs, float64(*r.Duration))
			ys = append(ys, float64(*r.Rating))
		}
	}
	r, ok := pearson(xs, ys)
	return r, ok, nil
}

func pearson(xs, ys []float64) (float64, bool) {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0, false
	}
	var sumX, sumY float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX, meanY := sumX/n, sumY/n

	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	denom := math.Sqrt(varX * varY)
	if denom == 0 {
		return 0, false
	}
	return cov / denom, true
}

// ComputeFactorEffect groups the window's sessions by a boolean factor
// ("caffeine" or "exercise") and reports mean duration per group in hours.
// An empty group reports 0 rather than "no data"; that asymmetry matches the
// dashboard's historical behavior.
func ComputeFactorEffect(ctx context.Context, repo storage.SessionRepository, userID int64, w Window, factor string, today time.Time) (*FactorEffect, error) {
	if factor != "caffeine" && factor != "exercise" {
		return nil, fmt.Errorf("%w: factor must be caffeine or exercise", internal.ErrInvalidInput)
	}
	rows, err := repo.ListStatRows(ctx, userID, w.Since(today))
	if err != nil {
		return nil, err
	}

	var withSum, withoutSum float64
	var withN, withoutN int
	for _, r := range rows {
		if r.Duration == nil {
			continue
		}
		var flag *bool
		if factor == "caffeine" {
			flag = r.Caffeine
		} else {
			flag = r.Exercise
		}
		if flag == nil {
			continue
		}
		if *flag {
			withSum += float64(*r.Duration)
			withN++
		} else {
			withoutSum += float64(*r.Duration)
			withoutN++
		}
	}

	eff := &FactorEffect{Factor: factor}
	if withN > 0 {
		eff.WithHours = withSum / float64(withN) / 60
	}
	if withoutN > 0 {
		eff.WithoutHours = withoutSum / float64(withoutN) / 60
	}
	return eff, nil
}

// Summary is the dashboard block: 7-day averages plus the last session.
type Summary struct {
	AvgDurationHours *float64              `json:"avg_duration_hours,omitempty"`
	AvgQuality       *float64              `json:"avg_quality,omitempty"`
	LastSession      *internal.SleepSession `json:"last_session,omitempty"`
}

// DashboardSummary assembles the 7-day summary the dashboard shows. Nil
// fields mean "no data".
func DashboardSummary(ctx context.Context, repo storage.SessionRepository, userID int64, today time.Time) (*Summary, error) {
	out := &Summary{}

	if avg, ok, err := AverageDuration(ctx, repo, userID, Last7Days, today); err != nil {
		return nil, err
	} else if ok {
		out.AvgDurationHours = &avg
	}

	if avg, ok, err := AverageQuality(ctx, repo, userID, Last7Days, today); err != nil {
		return nil, err
	} else if ok {
		out.AvgQuality = &avg
	}

	last, err := repo.GetLastSession(ctx, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	out.LastSession = last
	return out, nil
}
