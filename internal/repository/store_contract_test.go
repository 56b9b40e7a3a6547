package repository

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/launchdeck/launchdeck/internal/auth"
	"github.com/launchdeck/launchdeck/internal/model"
	"github.com/launchdeck/launchdeck/internal/testutil"
)

// tripStore is the behaviour shared by Repository and SQLiteStore.
type tripStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	FindUserByToken(ctx context.Context, token string) (*model.User, error)
	AddTrip(ctx context.Context, userID string, launchID int) error
	RemoveTrip(ctx context.Context, userID string, launchID int) (bool, error)
	ListTrips(ctx context.Context, userID string) ([]int, error)
	HasTrip(ctx context.Context, userID string, launchID int) (bool, error)
	FilterTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error)
}

func newTestUser(prefix string) *model.User {
	email := testutil.UniqueEmail(prefix)
	return &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Token:     auth.EncodeToken(email),
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

func runStoreContract(t *testing.T, store tripStore) {
	ctx := context.Background()

	t.Run("create and find user", func(t *testing.T) {
		user := newTestUser("find")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		byEmail, err := store.FindUserByEmail(ctx, user.Email)
		if err != nil {
			t.Fatalf("FindUserByEmail: %v", err)
		}
		if byEmail.ID != user.ID || byEmail.Token != user.Token {
			t.Errorf("unexpected user %+v", byEmail)
		}
		if !byEmail.CreatedAt.Equal(user.CreatedAt) {
			t.Errorf("created_at = %v, want %v", byEmail.CreatedAt, user.CreatedAt)
		}

		byToken, err := store.FindUserByToken(ctx, user.Token)
		if err != nil {
			t.Fatalf("FindUserByToken: %v", err)
		}
		if byToken.Email != user.Email {
			t.Errorf("unexpected user %+v", byToken)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		if _, err := store.FindUserByEmail(ctx, "nobody@launchdeck.test"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
		if _, err := store.FindUserByToken(ctx, "missing-token"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		user := newTestUser("dup")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		again := *user
		again.ID = ulid.Make().String()
		if err := store.CreateUser(ctx, &again); !errors.Is(err, ErrEmailExists) {
			t.Errorf("expected ErrEmailExists, got %v", err)
		}
	})

	t.Run("trip lifecycle", func(t *testing.T) {
		user := newTestUser("trips")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		for _, id := range []int{7, 3, 7, 12} {
			if err := store.AddTrip(ctx, user.ID, id); err != nil {
				t.Fatalf("AddTrip(%d): %v", id, err)
			}
		}

		ids, err := store.ListTrips(ctx, user.ID)
		if err != nil {
			t.Fatalf("ListTrips: %v", err)
		}
		if !slices.Equal(ids, []int{3, 7, 12}) {
			t.Errorf("ListTrips = %v, want [3 7 12]", ids)
		}

		if ok, err := store.HasTrip(ctx, user.ID, 7); err != nil || !ok {
			t.Errorf("HasTrip(7) = %v, %v", ok, err)
		}
		if ok, err := store.HasTrip(ctx, user.ID, 8); err != nil || ok {
			t.Errorf("HasTrip(8) = %v, %v", ok, err)
		}

		filtered, err := store.FilterTrips(ctx, user.ID, []int{1, 3, 12, 99})
		if err != nil {
			t.Fatalf("FilterTrips: %v", err)
		}
		if !slices.Equal(filtered, []int{3, 12}) {
			t.Errorf("FilterTrips = %v, want [3 12]", filtered)
		}

		removed, err := store.RemoveTrip(ctx, user.ID, 7)
		if err != nil || !removed {
			t.Errorf("RemoveTrip(7) = %v, %v", removed, err)
		}
		removed, err = store.RemoveTrip(ctx, user.ID, 7)
		if err != nil || removed {
			t.Errorf("second RemoveTrip(7) = %v, %v", removed, err)
		}

		ids, _ = store.ListTrips(ctx, user.ID)
		if !slices.Equal(ids, []int{3, 12}) {
			t.Errorf("ListTrips after cancel = %v, want [3 12]", ids)
		}
	})

	t.Run("empty results are non-nil", func(t *testing.T) {
		user := newTestUser("empty")
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser: %v", err)
		}

		ids, err := store.ListTrips(ctx, user.ID)
		if err != nil || ids == nil || len(ids) != 0 {
			t.Errorf("ListTrips = %v, %v", ids, err)
		}
		filtered, err := store.FilterTrips(ctx, user.ID, nil)
		if err != nil || filtered == nil || len(filtered) != 0 {
			t.Errorf("FilterTrips(nil) = %v, %v", filtered, err)
		}
	})

	t.Run("trips are isolated per user", func(t *testing.T) {
		a, b := newTestUser("iso-a"), newTestUser("iso-b")
		for _, u := range []*model.User{a, b} {
			if err := store.CreateUser(ctx, u); err != nil {
				t.Fatalf("CreateUser: %v", err)
			}
		}

		_ = store.AddTrip(ctx, a.ID, 5)
		if ok, _ := store.HasTrip(ctx, b.ID, 5); ok {
			t.Error("user b should not see user a's trip")
		}
		if removed, _ := store.RemoveTrip(ctx, b.ID, 5); removed {
			t.Error("user b should not cancel user a's trip")
		}
	})
}
