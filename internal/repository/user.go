package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/launchdeck/launchdeck/internal/model"
)

// CreateUser inserts a new user into the database.
func (r *Repository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, token, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.Token,
		user.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// FindUserByEmail retrieves a user by their email address.
func (r *Repository) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findUser(ctx, "email", email)
}

// FindUserByToken retrieves a user by their login token.
func (r *Repository) FindUserByToken(ctx context.Context, token string) (*model.User, error) {
	return r.findUser(ctx, "token", token)
}

// findUser looks a user up by a unique column. column is never user input.
func (r *Repository) findUser(ctx context.Context, column, value string) (*model.User, error) {
	query := `
		SELECT id, email, token, created_at
		FROM users
		WHERE ` + column + ` = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, value).Scan(
		&user.ID,
		&user.Email,
		&user.Token,
		&user.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user by %s: %w", column, err)
	}

	return &user, nil
}
