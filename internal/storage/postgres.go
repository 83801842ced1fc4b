package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Mazussy/Sleep-Tracker/internal"
)

const pgSchema = `
CREATE TABLE IF NOT EXISTS users (
    user_id BIGSERIAL PRIMARY KEY,
    username TEXT UNIQUE NOT NULL,
    password TEXT NOT NULL,
    name TEXT,
    email TEXT,
    date_created TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sleep_sessions (
    session_id BIGSERIAL PRIMARY KEY,
    user_id BIGINT NOT NULL REFERENCES users(user_id),
    sleep_start_time TIMESTAMPTZ NOT NULL,
    sleep_end_time TIMESTAMPTZ,
    duration INTEGER,
    date TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS sleep_quality (
    quality_id BIGSERIAL PRIMARY KEY,
    session_id BIGINT UNIQUE NOT NULL REFERENCES sleep_sessions(session_id),
    rating INTEGER NOT NULL CHECK (rating >= 1 AND rating <= 10),
    times_woken INTEGER DEFAULT 0,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS sleep_factors (
    factor_id BIGSERIAL PRIMARY KEY,
    session_id BIGINT UNIQUE NOT NULL REFERENCES sleep_sessions(session_id),
    caffeine_intake BOOLEAN DEFAULT false,
    exercise BOOLEAN DEFAULT false,
    screen_time_before_bed INTEGER DEFAULT 0,
    stress_level INTEGER CHECK (stress_level >= 1 AND stress_level <= 10)
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_date ON sleep_sessions(user_id, date);
CREATE UNIQUE INDEX IF NOT EXISTS idx_one_open_session
    ON sleep_sessions(user_id) WHERE sleep_end_time IS NULL;
`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(dsn string, logger internal.Logger) (*PostgresStorage, error) {
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, fmt.Errorf("%w: %v", internal.ErrStorageUnavailable, err)
	}
	if _, err := pool.Exec(ctx, pgSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func pgWrap(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return internal.ErrNotFound
	}
	return fmt.Errorf("%w: %v", internal.ErrStorageUnavailable, err)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// --- UserRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, u *internal.User) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO users (username, password, name, email, date_created)
		 VALUES ($1, $2, $3, $4, $5) RETURNING user_id`,
		u.Username, u.PasswordHash, u.Name, u.Email, u.DateCreated).Scan(&u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username already exists", internal.ErrInvalidInput)
		}
		p.logger.Errorf("postgres: create user: %v", err)
		return pgWrap(err)
	}
	return nil
}

func (p *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT user_id, username, password, name, email, date_created
		 FROM users WHERE username = $1`, username)
	return scanUser(row)
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id int64) (*internal.User, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT user_id, username, password, name, email, date_created
		 FROM users WHERE user_id = $1`, id)
	return scanUser(row)
}

func scanUser(row pgx.Row) (*internal.User, error) {
	var u internal.User
	if err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Name, &u.Email, &u.DateCreated); err != nil {
		return nil, pgWrap(err)
	}
	return &u, nil
}

// --- SessionRepository ---

func (p *PostgresStorage) CreateSession(ctx context.Context, s *internal.SleepSession) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO sleep_sessions (user_id, sleep_start_time, sleep_end_time, duration, date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING session_id`,
		s.UserID, s.StartTime, s.EndTime, s.Duration, s.Date).Scan(&s.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return internal.ErrActiveSessionExists
		}
		p.logger.Errorf("postgres: create session: %v", err)
		return pgWrap(err)
	}
	return nil
}

func (p *PostgresStorage) CloseSession(ctx context.Context, sessionID int64, end time.Time, duration int) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE sleep_sessions SET sleep_end_time = $1, duration = $2 WHERE session_id = $3`,
		end, duration, sessionID)
	if err != nil {
		p.logger.Errorf("postgres: close session %d: %v", sessionID, err)
		return pgWrap(err)
	}
	if tag.RowsAffected() == 0 {
		return internal.ErrNotFound
	}
	return nil
}

func (p *PostgresStorage) GetActiveSession(ctx context.Context, userID int64) (*internal.SleepSession, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT session_id, user_id, sleep_start_time, sleep_end_time, duration, date
		 FROM sleep_sessions WHERE user_id = $1 AND sleep_end_time IS NULL`, userID)
	return scanSession(row)
}

func (p *PostgresStorage) GetLastSession(ctx context.Context, userID int64) (*internal.SleepSession, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT session_id, user_id, sleep_start_time, sleep_end_time, duration, date
		 FROM sleep_sessions WHERE user_id = $1
		 ORDER BY sleep_start_time DESC LIMIT 1`, userID)
	return scanSession(row)
}

func (p *PostgresStorage) GetSession(ctx context.Context, sessionID int64) (*internal.SleepSession, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT session_id, user_id, sleep_start_time, sleep_end_time, duration, date
		 FROM sleep_sessions WHERE session_id = $1`, sessionID)
	return scanSession(row)
}

func scanSession(row pgx.Row) (*internal.SleepSession, error) {
	var s internal.SleepSession
	if err := row.Scan(&s.ID, &s.UserID, &s.StartTime, &s.EndTime, &s.Duration, &s.Date); err != nil {
		return nil, pgWrap(err)
	}
	return &s, nil
}

func (p *PostgresStorage) CreateFullRecord(ctx context.Context, s *internal.SleepSession, q *internal.QualityRecord, f *internal.FactorRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return pgWrap(err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO sleep_sessions (user_id, sleep_start_time, sleep_end_time, duration, date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING session_id`,
		s.UserID, s.StartTime, s.EndTime, s.Duration, s.Date).Scan(&s.ID)
	if err != nil {
		p.logger.Errorf("postgres: create full record (session): %v", err)
		return pgWrap(err)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO sleep_quality (session_id, rating, times_woken, notes)
		 VALUES ($1, $2, $3, $4) RETURNING quality_id`,
		s.ID, q.Rating, q.TimesWoken, q.Notes).Scan(&q.ID)
	if err != nil {
		p.logger.Errorf("postgres: create full record (quality): %v", err)
		return pgWrap(err)
	}
	q.SessionID = s.ID

	err = tx.QueryRow(ctx,
		`INSERT INTO sleep_factors (session_id, caffeine_intake, exercise, screen_time_before_bed, stress_level)
		 VALUES ($1, $2, $3, $4, $5) RETURNING factor_id`,
		s.ID, f.Caffeine, f.Exercise, f.ScreenTime, f.StressLevel).Scan(&f.ID)
	if err != nil {
		p.logger.Errorf("postgres: create full record (factors): %v", err)
		return pgWrap(err)
	}
	f.SessionID = s.ID

	return tx.Commit(ctx)
}

func (p *PostgresStorage) AttachQuality(ctx context.Context, q *internal.QualityRecord) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO sleep_quality (session_id, rating, times_woken, notes)
		 VALUES ($1, $2, $3, $4) RETURNING quality_id`,
		q.SessionID, q.Rating, q.TimesWoken, q.Notes).Scan(&q.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateAnnotation
		}
		p.logger.Errorf("postgres: attach quality: %v", err)
		return pgWrap(err)
	}
	return nil
}

func (p *PostgresStorage) AttachFactors(ctx context.Context, f *internal.FactorRecord) error {
	err := p.pool.QueryRow(ctx,
		`INSERT INTO sleep_factors (session_id, caffeine_intake, exercise, screen_time_before_bed, stress_level)
		 VALUES ($1, $2, $3, $4, $5) RETURNING factor_id`,
		f.SessionID, f.Caffeine, f.Exercise, f.ScreenTime, f.StressLevel).Scan(&f.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return internal.ErrDuplicateAnnotation
		}
		p.logger.Errorf("postgres: attach factors: %v", err)
		return pgWrap(err)
	}
	return nil
}

func (p *PostgresStorage) ListHistory(ctx context.Context, userID int64) ([]internal.HistoryEntry, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT ss.session_id, ss.date, ss.sleep_start_time, ss.sleep_end_time, ss.duration, sq.rating
		 FROM sleep_sessions ss
		 LEFT JOIN sleep_quality sq ON sq.session_id = ss.session_id
		 WHERE ss.user_id = $1
		 ORDER BY ss.date DESC, ss.sleep_start_time DESC`, userID)
	if err != nil {
		p.logger.Errorf("postgres: list history: %v", err)
		return nil, pgWrap(err)
	}
	defer rows.Close()

	entries := []internal.HistoryEntry{}
	for rows.Next() {
		var e internal.HistoryEntry
		if err := rows.Scan(&e.SessionID, &e.Date, &e.StartTime, &e.EndTime, &e.Duration, &e.Rating); err != nil {
			return nil, pgWrap(err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pgWrap(err)
	}
	return entries, nil
}

func (p *PostgresStorage) ListStatRows(ctx context.Context, userID int64, since string) ([]internal.StatRow, error) {
	query := `SELECT ss.date, ss.duration, sq.rating, sf.caffeine_intake, sf.exercise
		 FROM sleep_sessions ss
		 LEFT JOIN sleep_quality sq ON sq.session_id = ss.session_id
		 LEFT JOIN sleep_factors sf ON sf.session_id = ss.session_id
		 WHERE ss.user_id = $1`
	args := []any{userID}
	if since != "" {
		query += ` AND ss.date >= $2`
		args = append(args, since)
	}
	query += ` ORDER BY ss.date ASC, ss.sleep_start_time ASC`

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		p.logger.Errorf("postgres: list stat rows: %v", err)
		return nil, pgWrap(err)
	}
	defer rows.Close()

	out := []internal.StatRow{}
	for rows.Next() {
		var r internal.StatRow
		if err := rows.Scan(&r.Date, &r.Duration, &r.Rating, &r.Caffeine, &r.Exercise); err != nil {
			return nil, pgWrap(err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, pgWrap(err)
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ UserRepository = (*PostgresStorage)(nil)
var _ SessionRepository = (*PostgresStorage)(nil)
var _ Storage = (*PostgresStorage)(nil)
