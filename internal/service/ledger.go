// Package service holds the session ledger and the statistics aggregator.
// The ledger owns session lifecycle and annotations; the aggregator only
// reads what the ledger recorded.
package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Mazussy/Sleep-Tracker/internal"
	"github.com/Mazussy/Sleep-Tracker/internal/storage"
)

var validate = validator.New()

type QualityInput struct {
	Rating     int    `json:"rating" validate:"gte=1,lte=10"`
	TimesWoken int    `json:"times_woken" validate:"gte=0"`
	Notes      string `json:"notes"`
}

type FactorsInput struct {
	Caffeine    bool `json:"caffeine_intake"`
	Exercise    bool `json:"exercise"`
	ScreenTime  int  `json:"screen_time_before_bed" validate:"gte=0"`
	StressLevel int  `json:"stress_level" validate:"gte=1,lte=10"`
}

type ManualSessionInput struct {
	Date       string       `json:"date" validate:"required"`
	StartClock string       `json:"start_time" validate:"required"` // HH:MM
	EndClock   string       `json:"end_time" validate:"required"`   // HH:MM
	Quality    QualityInput `json:"quality"`
	Factors    FactorsInput `json:"factors"`
}

// EndedSession is what EndSession hands back so the caller can go on to
// collect quality and factor data for the closed session.
type EndedSession struct {
	SessionID int64 `json:"session_id"`
	Duration  int   `json:"duration"` // minutes
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", internal.ErrInvalidInput, err)
}

// durationMinutes rounds the interval to whole minutes.
func durationMinutes(start, end time.Time) int {
	return int(math.Round(end.Sub(start).Minutes()))
}

// StartSession opens a new session for the user at the given time. Fails with
// ErrActiveSessionExists while another session is still open.
func StartSession(ctx context.Context, repo storage.SessionRepository, userID int64, at time.Time) (*internal.SleepSession, error) {
	_, err := repo.GetActiveSession(ctx, userID)
	switch {
	case err == nil:
		return nil, internal.ErrActiveSessionExists
	case !isNotFound(err):
		return nil, err
	}

	sess := &internal.SleepSession{
		UserID:    userID,
		StartTime: at,
		Date:      at.Format(internal.DateLayout),
	}
	if err := repo.CreateSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// EndSession closes the user's open session at the given time and returns the
// session id and computed duration. Fails with ErrNoActiveSession if nothing
// is open.
func EndSession(ctx context.Context, repo storage.SessionRepository, userID int64, at time.Time) (*EndedSession, error) {
	sess, err := repo.GetActiveSession(ctx, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, internal.ErrNoActiveSession
		}
		return nil, err
	}

	duration := durationMinutes(sess.StartTime, at)
	if err := repo.CloseSession(ctx, sess.ID, at, duration); err != nil {
		return nil, err
	}
	return &EndedSession{SessionID: sess.ID, Duration: duration}, nil
}

// RecordManualSession creates an already-closed session from a date plus
// start/end clock times, together with its quality and factor records, as one
// atomic unit. An end clock at or before the start clock is treated as the
// next calendar day (overnight sleep).
func RecordManualSession(ctx context.Context, repo storage.SessionRepository, userID int64, in *ManualSessionInput) (*internal.SleepSession, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}

	start, err := time.Parse(internal.DateLayout+" 15:04", in.Date+" "+in.StartClock)
	if err != nil {
		return nil, invalid(fmt.Errorf("bad date or start time: %v", err))
	}
	end, err := time.Parse(internal.DateLayout+" 15:04", in.Date+" "+in.EndClock)
	if err != nil {
		return nil, invalid(fmt.Errorf("bad end time: %v", err))
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	duration := durationMinutes(start, end)

	sess := &internal.SleepSession{
		UserID:    userID,
		StartTime: start,
		EndTime:   &end,
		Duration:  &duration,
		Date:      in.Date,
	}
	quality := &internal.QualityRecord{
		Rating:     in.Quality.Rating,
		TimesWoken: in.Quality.TimesWoken,
		Notes:      in.Quality.Notes,
	}
	factors := &internal.FactorRecord{
		Caffeine:    in.Factors.Caffeine,
		Exercise:    in.Factors.Exercise,
		ScreenTime:  in.Factors.ScreenTime,
		StressLevel: in.Factors.StressLevel,
	}
	if err := repo.CreateFullRecord(ctx, sess, quality, factors); err != nil {
		return nil, err
	}
	return sess, nil
}

// AttachQuality adds the quality record to a closed session, once. A second
// attach fails with ErrDuplicateAnnotation.
func AttachQuality(ctx context.Context, repo storage.SessionRepository, sessionID int64, in *QualityInput) (*internal.QualityRecord, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if _, err := repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	q := &internal.QualityRecord{
		SessionID:  sessionID,
		Rating:     in.Rating,
		TimesWoken: in.TimesWoken,
		Notes:      in.Notes,
	}
	if err := repo.AttachQuality(ctx, q); err != nil {
		return nil, err
	}
	return q, nil
}

// AttachFactors adds the factor record to a session, once.
func AttachFactors(ctx context.Context, repo storage.SessionRepository, sessionID int64, in *FactorsInput) (*internal.FactorRecord, error) {
	if err := validate.Struct(in); err != nil {
		return nil, invalid(err)
	}
	if _, err := repo.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	f := &internal.FactorRecord{
		SessionID:   sessionID,
		Caffeine:    in.Caffeine,
		Exercise:    in.Exercise,
		ScreenTime:  in.ScreenTime,
		StressLevel: in.StressLevel,
	}
	if err := repo.AttachFactors(ctx, f); err != nil {
		return nil, err
	}
	return f, nil
}

// ListHistory returns the user's sessions newest first, with quality ratings
// where attached.
func ListHistory(ctx context.Context, repo storage.SessionRepository, userID int64) ([]internal.HistoryEntry, error) {
	return repo.ListHistory(ctx, userID)
}

// GetLastSession returns the most recent session by start time, open or closed.
func GetLastSession(ctx context.Context, repo storage.SessionRepository, userID int64) (*internal.SleepSession, error) {
	return repo.GetLastSession(ctx, userID)
}

func isNotFound(err error) bool {
	return errors.Is(err, internal.ErrNotFound)
}
