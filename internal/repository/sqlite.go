package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/launchdeck/launchdeck/internal/model"
)

// SQLiteStore keeps users and trips in a single SQLite file.
type SQLiteStore struct {
	db *sqlx.DB
}

type userRow struct {
	ID        string    `db:"id"`
	Email     string    `db:"email"`
	Token     string    `db:"token"`
	CreatedAt time.Time `db:"created_at"`
}

// NewSQLite opens the database at path and applies the embedded migrations.
// The connection is configured for WAL mode with foreign keys enabled.
func NewSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)

	db, err := sqlx.ConnectContext(ctx, "sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to sqlite: %w", err)
	}

	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(ctx, goose.DialectSQLite3, db.DB, "migrations/sqlite"); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Ping checks database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing sqlite: %w", err)
	}
	return nil
}

// CreateUser inserts a new user.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *model.User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, token, created_at) VALUES (?, ?, ?, ?)`,
		user.ID, user.Email, user.Token, user.CreatedAt.UTC(),
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail retrieves a user by their email address.
func (s *SQLiteStore) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.findUser(ctx, "email", email)
}

// FindUserByToken retrieves a user by their login token.
func (s *SQLiteStore) FindUserByToken(ctx context.Context, token string) (*model.User, error) {
	return s.findUser(ctx, "token", token)
}

func (s *SQLiteStore) findUser(ctx context.Context, column, value string) (*model.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, email, token, created_at FROM users WHERE `+column+` = ?`,
		value,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &model.User{
		ID:        row.ID,
		Email:     row.Email,
		Token:     row.Token,
		CreatedAt: row.CreatedAt,
	}, nil
}

// AddTrip books launchID for userID. Booking an existing trip is a no-op.
func (s *SQLiteStore) AddTrip(ctx context.Context, userID string, launchID int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trips (user_id, launch_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, launch_id) DO NOTHING`,
		userID, launchID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to add trip: %w", err)
	}
	return nil
}

// RemoveTrip deletes a booking and reports whether one existed.
func (s *SQLiteStore) RemoveTrip(ctx context.Context, userID string, launchID int) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM trips WHERE user_id = ? AND launch_id = ?`,
		userID, launchID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove trip: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove trip: %w", err)
	}
	return n > 0, nil
}

// ListTrips returns the user's booked launch IDs in ascending order.
func (s *SQLiteStore) ListTrips(ctx context.Context, userID string) ([]int, error) {
	ids := []int{}
	err := s.db.SelectContext(ctx, &ids,
		`SELECT launch_id FROM trips WHERE user_id = ? ORDER BY launch_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	return ids, nil
}

// HasTrip reports whether the user booked launchID.
func (s *SQLiteStore) HasTrip(ctx context.Context, userID string, launchID int) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM trips WHERE user_id = ? AND launch_id = ?)`,
		userID, launchID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to check trip: %w", err)
	}
	return exists, nil
}

// FilterTrips returns the subset of launchIDs the user booked, ascending.
func (s *SQLiteStore) FilterTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error) {
	booked := []int{}
	if len(launchIDs) == 0 {
		return booked, nil
	}

	query, args, err := sqlx.In(
		`SELECT launch_id FROM trips WHERE user_id = ? AND launch_id IN (?) ORDER BY launch_id`,
		userID, launchIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build trip filter: %w", err)
	}

	if err := s.db.SelectContext(ctx, &booked, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to filter trips: %w", err)
	}
	return booked, nil
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
