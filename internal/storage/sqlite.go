package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Mazussy/Sleep-Tracker/internal"
)

// Row types mirror the persisted schema: Users, SleepSessions, SleepQuality,
// SleepFactors. They stay private to this package; the rest of the code works
// with the internal domain types.

type userRow struct {
	UserID      int64     `gorm:"column:user_id;primaryKey;autoIncrement"`
	Username    string    `gorm:"column:username;size:64;uniqueIndex;not null"`
	Password    string    `gorm:"column:password;size:255;not null"`
	Name        string    `gorm:"column:name;size:64"`
	Email       string    `gorm:"column:email;size:128"`
	DateCreated time.Time `gorm:"column:date_created;not null"`
}

func (userRow) TableName() string { return "users" }

type sessionRow struct {
	SessionID      int64      `gorm:"column:session_id;primaryKey;autoIncrement"`
	UserID         int64      `gorm:"column:user_id;index;not null"`
	SleepStartTime time.Time  `gorm:"column:sleep_start_time;not null"`
	SleepEndTime   *time.Time `gorm:"column:sleep_end_time"`
	Duration       *int       `gorm:"column:duration"`
	Date           string     `gorm:"column:date;size:10;index;not null"`
}

func (sessionRow) TableName() string { return "sleep_sessions" }

type qualityRow struct {
	QualityID  int64  `gorm:"column:quality_id;primaryKey;autoIncrement"`
	SessionID  int64  `gorm:"column:session_id;uniqueIndex;not null"`
	Rating     int    `gorm:"column:rating;not null"`
	TimesWoken int    `gorm:"column:times_woken;default:0"`
	Notes      string `gorm:"column:notes"`
}

func (qualityRow) TableName() string { return "sleep_quality" }

type factorRow struct {
	FactorID    int64 `gorm:"column:factor_id;primaryKey;autoIncrement"`
	SessionID   int64 `gorm:"column:session_id;uniqueIndex;not null"`
	Caffeine    bool  `gorm:"column:caffeine_intake;default:false"`
	Exercise    bool  `gorm:"column:exercise;default:false"`
	ScreenTime  int   `gorm:"column:screen_time_before_bed;default:0"`
	StressLevel int   `gorm:"column:stress_level;not null"`
}

func (factorRow) TableName() string { return "sleep_factors" }

type SQLiteStorage struct {
	db     *gorm.DB
	logger internal.Logger
}

// NewSQLiteStorage opens (creating if needed) the embedded database at path
// and migrates the schema. Pass ":memory:" for an in-memory database.
func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %v", internal.ErrStorageUnavailable, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", internal.ErrStorageUnavailable, err)
	}
	_, _ = sqlDB.Exec("PRAGMA journal_mode = WAL;")
	_, _ = sqlDB.Exec("PRAGMA foreign_keys = ON;")

	if err := db.AutoMigrate(&userRow{}, &sessionRow{}, &qualityRow{}, &factorRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	// One open session per user, enforced by the database itself so a
	// concurrent start turns into a constraint error instead of a lost race.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_session
		ON sleep_sessions(user_id) WHERE sleep_end_time IS NULL`).Error; err != nil {
		return nil, fmt.Errorf("create open-session index: %w", err)
	}

	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func wrapDBError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return internal.ErrNotFound
	}
	return fmt.Errorf("%w: %v", internal.ErrStorageUnavailable, err)
}

// --- UserRepository ---

func (s *SQLiteStorage) CreateUser(ctx context.Context, u *internal.User) error {
	row := userRow{
		Username:    u.Username,
		Password:    u.PasswordHash,
		Name:        u.Name,
		Email:       u.Email,
		DateCreated: u.DateCreated,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: username already exists", internal.ErrInvalidInput)
		}
		s.logger.Errorf("sqlite: create user: %v", err)
		return wrapDBError(err)
	}
	u.ID = row.UserID
	return nil
}

func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return userFromRow(&row), nil
}

func (s *SQLiteStorage) GetUserByID(ctx context.Context, id int64) (*internal.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return userFromRow(&row), nil
}

func userFromRow(r *userRow) *internal.User {
	return &internal.User{
		ID:           r.UserID,
		Username:     r.Username,
		PasswordHash: r.Password,
		Name:         r.Name,
		Email:        r.Email,
		DateCreated:  r.DateCreated,
	}
}

// --- SessionRepository ---

func (s *SQLiteStorage) CreateSession(ctx context.Context, sess *internal.SleepSession) error {
	row := sessionRowFrom(sess)
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// partial unique index: one open session per user
			return internal.ErrActiveSessionExists
		}
		s.logger.Errorf("sqlite: create session: %v", err)
		return wrapDBError(err)
	}
	sess.ID = row.SessionID
	return nil
}

func (s *SQLiteStorage) CloseSession(ctx context.Context, sessionID int64, end time.Time, duration int) error {
	res := s.db.WithContext(ctx).Model(&sessionRow{}).
		Where("session_id = ?", sessionID).
		Updates(map[string]interface{}{
			"sleep_end_time": end,
			"duration":       duration,
		})
	if res.Error != nil {
		s.logger.Errorf("sqlite: close session %d: %v", sessionID, res.Error)
		return wrapDBError(res.Error)
	}
	if res.RowsAffected == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (s *SQLiteStorage) GetActiveSession(ctx context.Context, userID int64) (*internal.SleepSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND sleep_end_time IS NULL", userID).
		First(&row).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return sessionFromRow(&row), nil
}

func (s *SQLiteStorage) GetLastSession(ctx context.Context, userID int64) (*internal.SleepSession, error) {
	var row sessionRow
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("sleep_start_time DESC").
		First(&row).Error
	if err != nil {
		return nil, wrapDBError(err)
	}
	return sessionFromRow(&row), nil
}

func (s *SQLiteStorage) GetSession(ctx context.Context, sessionID int64) (*internal.SleepSession, error) {
	var row sessionRow
	if err := s.db.WithContext(ctx).First(&row, sessionID).Error; err != nil {
		return nil, wrapDBError(err)
	}
	return sessionFromRow(&row), nil
}

func (s *SQLiteStorage) CreateFullRecord(ctx context.Context, sess *internal.SleepSession, q *internal.QualityRecord, f *internal.FactorRecord) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row := sessionRowFrom(sess)
		if err := tx.Create(row).Error; err != nil {
			return err
		}
		sess.ID = row.SessionID

		qr := qualityRow{
			SessionID:  row.SessionID,
			Rating:     q.Rating,
			TimesWoken: q.TimesWoken,
			Notes:      q.Notes,
		}
		if err := tx.Create(&qr).Error; err != nil {
			return err
		}
		q.ID = qr.QualityID
		q.SessionID = row.SessionID

		fr := factorRow{
			SessionID:   row.SessionID,
			Caffeine:    f.Caffeine,
			Exercise:    f.Exercise,
			ScreenTime:  f.ScreenTime,
			StressLevel: f.StressLevel,
		}
		if err := tx.Create(&fr).Error; err != nil {
			return err
		}
		f.ID = fr.FactorID
		f.SessionID = row.SessionID
		return nil
	})
	if err != nil {
		s.logger.Errorf("sqlite: create full record: %v", err)
		return wrapDBError(err)
	}
	return nil
}

func (s *SQLiteStorage) AttachQuality(ctx context.Context, q *internal.QualityRecord) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&qualityRow{}).
		Where("session_id = ?", q.SessionID).Count(&count).Error; err != nil {
		return wrapDBError(err)
	}
	if count > 0 {
		return internal.ErrDuplicateAnnotation
	}
	row := qualityRow{
		SessionID:  q.SessionID,
		Rating:     q.Rating,
		TimesWoken: q.TimesWoken,
		Notes:      q.Notes,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateAnnotation
		}
		s.logger.Errorf("sqlite: attach quality: %v", err)
		return wrapDBError(err)
	}
	q.ID = row.QualityID
	return nil
}

func (s *SQLiteStorage) AttachFactors(ctx context.Context, f *internal.FactorRecord) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&factorRow{}).
		Where("session_id = ?", f.SessionID).Count(&count).Error; err != nil {
		return wrapDBError(err)
	}
	if count > 0 {
		return internal.ErrDuplicateAnnotation
	}
	row := factorRow{
		SessionID:   f.SessionID,
		Caffeine:    f.Caffeine,
		Exercise:    f.Exercise,
		ScreenTime:  f.ScreenTime,
		StressLevel: f.StressLevel,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return internal.ErrDuplicateAnnotation
		}
		s.logger.Errorf("sqlite: attach factors: %v", err)
		return wrapDBError(err)
	}
	f.ID = row.FactorID
	return nil
}

func (s *SQLiteStorage) ListHistory(ctx context.Context, userID int64) ([]internal.HistoryEntry, error) {
	var rows []struct {
		SessionID      int64      `gorm:"column:session_id"`
		Date           string     `gorm:"column:date"`
		SleepStartTime time.Time  `gorm:"column:sleep_start_time"`
		SleepEndTime   *time.Time `gorm:"column:sleep_end_time"`
		Duration       *int       `gorm:"column:duration"`
		Rating         *int       `gorm:"column:rating"`
	}
	err := s.db.WithContext(ctx).
		Table("sleep_sessions ss").
		Select("ss.session_id, ss.date, ss.sleep_start_time, ss.sleep_end_time, ss.duration, sq.rating").
		Joins("LEFT JOIN sleep_quality sq ON sq.session_id = ss.session_id").
		Where("ss.user_id = ?", userID).
		Order("ss.date DESC, ss.sleep_start_time DESC").
		Scan(&rows).Error
	if err != nil {
		s.logger.Errorf("sqlite: list history: %v", err)
		return nil, wrapDBError(err)
	}

	entries := make([]internal.HistoryEntry, len(rows))
	for i, r := range rows {
		entries[i] = internal.HistoryEntry{
			SessionID: r.SessionID,
			Date:      r.Date,
			StartTime: r.SleepStartTime,
			EndTime:   r.SleepEndTime,
			Duration:  r.Duration,
			Rating:    r.Rating,
		}
	}
	return entries, nil
}

func (s *SQLiteStorage) ListStatRows(ctx context.Context, userID int64, since string) ([]internal.StatRow, error) {
	q := s.db.WithContext(ctx).
		Table("sleep_sessions ss").
		Select("ss.date, ss.duration, sq.rating, sf.caffeine_intake, sf.exercise").
		Joins("LEFT JOIN sleep_quality sq ON sq.session_id = ss.session_id").
		Joins("LEFT JOIN sleep_factors sf ON sf.session_id = ss.session_id").
		Where("ss.user_id = ?", userID)
	if since != "" {
		q = q.Where("ss.date >= ?", since)
	}

	var rows []struct {
		Date     string `gorm:"column:date"`
		Duration *int   `gorm:"column:duration"`
		Rating   *int   `gorm:"column:rating"`
		Caffeine *bool  `gorm:"column:caffeine_intake"`
		Exercise *bool  `gorm:"column:exercise"`
	}
	if err := q.Order("ss.date ASC, ss.sleep_start_time ASC").Scan(&rows).Error; err != nil {
		s.logger.Errorf("sqlite: list stat rows: %v", err)
		return nil, wrapDBError(err)
	}

	out := make([]internal.StatRow, len(rows))
	for i, r := range rows {
		out[i] = internal.StatRow{
			Date:     r.Date,
			Duration: r.Duration,
			Rating:   r.Rating,
			Caffeine: r.Caffeine,
			Exercise: r.Exercise,
		}
	}
	return out, nil
}

func sessionRowFrom(s *internal.SleepSession) *sessionRow {
	return &sessionRow{
		SessionID:      s.ID,
		UserID:         s.UserID,
		SleepStartTime: s.StartTime,
		SleepEndTime:   s.EndTime,
		Duration:       s.Duration,
		Date:           s.Date,
	}
}

func sessionFromRow(r *sessionRow) *internal.SleepSession {
	return &internal.SleepSession{
		ID:        r.SessionID,
		UserID:    r.UserID,
		StartTime: r.SleepStartTime,
		EndTime:   r.SleepEndTime,
		Duration:  r.Duration,
		Date:      r.Date,
	}
}

// --- Compile-time assertions ---
var _ UserRepository = (*SQLiteStorage)(nil)
var _ SessionRepository = (*SQLiteStorage)(nil)
var _ Storage = (*SQLiteStorage)(nil)
