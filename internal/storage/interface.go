package storage

import (
	"context"
	"time"

	"github.com/Mazussy/Sleep-Tracker/internal"
)

type UserRepository interface {
	// CreateUser inserts u and fills in its ID. Usernames are unique;
	// a duplicate fails with internal.ErrInvalidInput.
	CreateUser(ctx context.Context, u *internal.User) error
	GetUserByUsername(ctx context.Context, username string) (*internal.User, error)
	GetUserByID(ctx context.Context, id int64) (*internal.User, error)
}

type SessionRepository interface {
	// CreateSession inserts s and fills in its ID.
	CreateSession(ctx context.Context, s *internal.SleepSession) error
	// CloseSession sets the end timestamp and duration (minutes) of an open session.
	CloseSession(ctx context.Context, sessionID int64, end time.Time, duration int) error
	// GetActiveSession returns the user's open session, or internal.ErrNotFound.
	GetActiveSession(ctx context.Context, userID int64) (*internal.SleepSession, error)
	// GetLastSession returns the most recent session by start time, open or closed.
	GetLastSession(ctx context.Context, userID int64) (*internal.SleepSession, error)
	GetSession(ctx context.Context, sessionID int64) (*internal.SleepSession, error)

	// CreateFullRecord inserts a closed session with its quality and factor
	// records as a single atomic unit.
	CreateFullRecord(ctx context.Context, s *internal.SleepSession, q *internal.QualityRecord, f *internal.FactorRecord) error

	// AttachQuality and AttachFactors insert at most one record per session;
	// a second insert fails with internal.ErrDuplicateAnnotation.
	AttachQuality(ctx context.Context, q *internal.QualityRecord) error
	AttachFactors(ctx context.Context, f *internal.FactorRecord) error

	// ListHistory returns the user's sessions ordered by date descending then
	// start time descending, left-joined with quality ratings.
	ListHistory(ctx context.Context, userID int64) ([]internal.HistoryEntry, error)

	// ListStatRows returns sessions joined with quality and factor records,
	// ordered by date ascending. since is an inclusive YYYY-MM-DD lower bound;
	// empty means unbounded.
	ListStatRows(ctx context.Context, userID int64, since string) ([]internal.StatRow, error)
}

type Storage interface {
	UserRepository
	SessionRepository
	Close() error
}
