package repository

import (
	"context"
	"fmt"

	"github.com/lib/pq"
)

// AddTrip books launchID for userID. Booking an existing trip is a no-op.
func (r *Repository) AddTrip(ctx context.Context, userID string, launchID int) error {
	query := `
		INSERT INTO trips (user_id, launch_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, launch_id) DO NOTHING
	`

	if _, err := r.pool.Exec(ctx, query, userID, launchID); err != nil {
		return fmt.Errorf("failed to add trip: %w", err)
	}
	return nil
}

// RemoveTrip deletes a booking and reports whether one existed.
func (r *Repository) RemoveTrip(ctx context.Context, userID string, launchID int) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM trips WHERE user_id = $1 AND launch_id = $2`,
		userID, launchID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to remove trip: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListTrips returns the user's booked launch IDs in ascending order.
func (r *Repository) ListTrips(ctx context.Context, userID string) ([]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT launch_id FROM trips WHERE user_id = $1 ORDER BY launch_id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return ids, nil
}

// HasTrip reports whether the user booked launchID.
func (r *Repository) HasTrip(ctx context.Context, userID string, launchID int) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trips WHERE user_id = $1 AND launch_id = $2)`,
		userID, launchID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check trip: %w", err)
	}
	return exists, nil
}

// FilterTrips returns the subset of launchIDs the user booked, ascending.
func (r *Repository) FilterTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error) {
	if len(launchIDs) == 0 {
		return []int{}, nil
	}

	ids := make([]int64, len(launchIDs))
	for i, id := range launchIDs {
		ids[i] = int64(id)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT launch_id FROM trips
		WHERE user_id = $1 AND launch_id = ANY($2)
		ORDER BY launch_id
	`, userID, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to filter trips: %w", err)
	}
	defer rows.Close()

	booked := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		booked = append(booked, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return booked, nil
}
