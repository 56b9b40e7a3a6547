// Package booking keeps each user's trip set consistent under concurrent
// bookings and cancellations.
package booking

import (
	"context"
	"errors"

	"github.com/launchdeck/launchdeck/internal/model"
)

// Booking errors.
var (
	ErrUnauthenticated = errors.New("unauthenticated")
)

// Store persists users and trips. repository.Repository and
// repository.SQLiteStore implement it.
type Store interface {
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByToken(ctx context.Context, token string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error

	AddTrip(ctx context.Context, userID string, launchID int) error
	RemoveTrip(ctx context.Context, userID string, launchID int) (bool, error)
	ListTrips(ctx context.Context, userID string) ([]int, error)
	HasTrip(ctx context.Context, userID string, launchID int) (bool, error)
	FilterTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error)
}
