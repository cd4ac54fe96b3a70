package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver registration.

	"schedule_bot/internal/model"
	"schedule_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	if dsn == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateUser inserts a new user. A missing ID is generated; ID and
// CreatedAt are populated.
func (s *SQLite) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, telegram_id, group_name, sub_group, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID.String(), user.TelegramID, user.Settings.Group, user.Settings.SubGroup, now,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	user.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetUser returns a single user by ID.
func (s *SQLite) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, group_name, sub_group, created_at FROM users WHERE id = ?`, id.String(),
	)
	return scanUser(row)
}

// GetUserByTelegramID returns the user linked to a Telegram account.
func (s *SQLite) GetUserByTelegramID(ctx context.Context, telegramID int64) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, telegram_id, group_name, sub_group, created_at FROM users WHERE telegram_id = ?`, telegramID,
	)
	return scanUser(row)
}

// ListUsers returns all users.
func (s *SQLite) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, telegram_id, group_name, sub_group, created_at FROM users ORDER BY created_at, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUserSettings replaces the schedule filter of a user.
func (s *SQLite) UpdateUserSettings(ctx context.Context, id uuid.UUID, settings model.Settings) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET group_name = ?, sub_group = ? WHERE id = ?`,
		settings.Group, settings.SubGroup, id.String(),
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return nil
}

// ListScheduleInfos returns the schedule descriptors saved by the last
// refresh cycle.
func (s *SQLite) ListScheduleInfos(ctx context.Context) ([]model.ScheduleInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT week_start, week_end, schedule_type, week_number, hash
		 FROM schedule_infos ORDER BY week_start, schedule_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("query schedule infos: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var infos []model.ScheduleInfo
	for rows.Next() {
		var info model.ScheduleInfo
		var start, end, typ string
		var weekNumber sql.NullInt64
		var hash int64
		if err := rows.Scan(&start, &end, &typ, &weekNumber, &hash); err != nil {
			return nil, fmt.Errorf("scan schedule info: %w", err)
		}
		info.WeekStart, _ = time.Parse(model.DateLayout, start)
		info.WeekEnd, _ = time.Parse(model.DateLayout, end)
		info.Type = model.ScheduleType(typ)
		if weekNumber.Valid {
			n := int(weekNumber.Int64)
			info.WeekNumber = &n
		}
		info.Hash = uint64(hash)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// ReplaceScheduleInfos atomically swaps the saved descriptors for infos.
func (s *SQLite) ReplaceScheduleInfos(ctx context.Context, infos []model.ScheduleInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM schedule_infos`); err != nil {
		return fmt.Errorf("delete schedule infos: %w", err)
	}
	for _, info := range infos {
		var weekNumber *int64
		if info.WeekNumber != nil {
			n := int64(*info.WeekNumber)
			weekNumber = &n
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO schedule_infos (week_start, week_end, schedule_type, week_number, hash)
			 VALUES (?, ?, ?, ?, ?)`,
			info.WeekStart.Format(model.DateLayout), info.WeekEnd.Format(model.DateLayout),
			string(info.Type), weekNumber, int64(info.Hash),
		)
		if err != nil {
			return fmt.Errorf("insert schedule info: %w", err)
		}
	}
	return tx.Commit()
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	var id, created string
	err := row.Scan(&id, &u.TelegramID, &u.Settings.Group, &u.Settings.SubGroup, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("scan user: %w", model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse user id %q: %w", id, err)
	}
	u.CreatedAt, _ = time.Parse(timeLayout, created)
	return &u, nil
}
