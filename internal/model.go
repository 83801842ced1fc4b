package internal

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name,omitempty"`
	Email        string    `json:"email,omitempty"`
	DateCreated  time.Time `json:"date_created"`
}

// SleepSession is one sleep interval. EndTime and Duration are nil while the
// session is still open; Date is the calendar day the session is logged under.
type SleepSession struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // minutes
	Date      string     `json:"date"`               // YYYY-MM-DD
}

// Open reports whether the session has not been ended yet.
func (s *SleepSession) Open() bool { return s.EndTime == nil }

type QualityRecord struct {
	ID         int64  `json:"id"`
	SessionID  int64  `json:"session_id"`
	Rating     int    `json:"rating"` // 1–10 scale
	TimesWoken int    `json:"times_woken"`
	Notes      string `json:"notes,omitempty"`
}

type FactorRecord struct {
	ID          int64 `json:"id"`
	SessionID   int64 `json:"session_id"`
	Caffeine    bool  `json:"caffeine_intake"`
	Exercise    bool  `json:"exercise"`
	ScreenTime  int   `json:"screen_time_before_bed"` // minutes
	StressLevel int   `json:"stress_level"`           // 1–10 scale
}

// HistoryEntry is a session joined with its quality rating for listing.
// Rating is nil when no quality record exists, which is distinct from a
// rating of zero.
type HistoryEntry struct {
	SessionID int64      `json:"session_id"`
	Date      string     `json:"date"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  *int       `json:"duration,omitempty"` // minutes
	Rating    *int       `json:"rating,omitempty"`
}

// StatRow is one session joined with its quality and factor records, as
// consumed by the statistics aggregator. Pointer fields are nil when the
// session is still open or the annotation was never attached.
type StatRow struct {
	Date     string `json:"date"`
	Duration *int   `json:"duration,omitempty"` // minutes
	Rating   *int   `json:"rating,omitempty"`
	Caffeine *bool  `json:"caffeine_intake,omitempty"`
	Exercise *bool  `json:"exercise,omitempty"`
}

// DateLayout is the calendar-date format used across storage and the API.
const DateLayout = "2006-01-02"
