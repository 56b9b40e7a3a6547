package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/launchdeck/launchdeck/internal/auth"
	"github.com/launchdeck/launchdeck/internal/events"
	"github.com/launchdeck/launchdeck/internal/metrics"
	"github.com/launchdeck/launchdeck/internal/model"
	"github.com/launchdeck/launchdeck/internal/repository"
)

// DefaultFanOut bounds concurrent trip inserts in one BookTrips call.
const DefaultFanOut = 4

// Options tunes an Orchestrator.
type Options struct {
	FanOut int
}

// Orchestrator resolves users and applies trip mutations.
type Orchestrator struct {
	store   Store
	events  events.Publisher
	locks   *userLocks
	fanOut  int
	logger  *slog.Logger
	metrics metrics.Recorder
	now     func() time.Time
}

// NewOrchestrator creates a new Orchestrator.
func NewOrchestrator(store Store, publisher events.Publisher, logger *slog.Logger, recorder metrics.Recorder, opts Options) *Orchestrator {
	if publisher == nil {
		publisher = events.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if opts.FanOut <= 0 {
		opts.FanOut = DefaultFanOut
	}
	return &Orchestrator{
		store:   store,
		events:  publisher,
		locks:   newUserLocks(),
		fanOut:  opts.FanOut,
		logger:  logger.With("component", "booking.orchestrator"),
		metrics: recorder,
		now:     time.Now,
	}
}

// FindOrCreateUser resolves the caller. A valid email finds or creates the
// user; otherwise the token must belong to an existing user.
func (o *Orchestrator) FindOrCreateUser(ctx context.Context, id auth.Identity) (*model.User, error) {
	if auth.IsEmail(id.Email) {
		return o.findOrCreateByEmail(ctx, id.Email)
	}

	if id.Token == "" {
		return nil, ErrUnauthenticated
	}

	user, err := o.store.FindUserByToken(ctx, id.Token)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("find user by token: %w", err)
	}
	return user, nil
}

func (o *Orchestrator) findOrCreateByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := o.store.FindUserByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	// Create new user
	user = &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Token:     auth.EncodeToken(email),
		CreatedAt: o.now().UTC(),
	}
	if err := o.store.CreateUser(ctx, user); err != nil {
		// Handle race condition - another request may have created it
		if errors.Is(err, repository.ErrEmailExists) {
			return o.store.FindUserByEmail(ctx, email)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	o.logger.Info("user created", slog.String("user_id", user.ID))
	return user, nil
}

// IsBookedOnLaunch reports whether the user holds a trip on launchID.
func (o *Orchestrator) IsBookedOnLaunch(ctx context.Context, userID string, launchID int) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}
	return o.store.HasTrip(ctx, userID, launchID)
}

// GetLaunchIDsByUser returns the user's booked launch IDs, ascending.
func (o *Orchestrator) GetLaunchIDsByUser(ctx context.Context, userID string) ([]int, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return o.store.ListTrips(ctx, userID)
}

// BookedAmong returns which of launchIDs the user has booked, ascending.
func (o *Orchestrator) BookedAmong(ctx context.Context, userID string, launchIDs []int) ([]int, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	return o.store.FilterTrips(ctx, userID, launchIDs)
}

// BookTrips books every id it can and returns the booked ids in input order,
// each at most once.
// Ids that fail are simply absent from the result; use FailedIDs to list them.
// Booking an already-booked launch succeeds.
func (o *Orchestrator) BookTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error) {
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	launchIDs = unique(launchIDs)

	unlock := o.locks.Lock(userID)
	defer unlock()

	ok := make([]bool, len(launchIDs))

	var eg errgroup.Group
	eg.SetLimit(o.fanOut)

	for i, id := range launchIDs {
		if id <= 0 {
			continue
		}
		eg.Go(func() error {
			if err := o.store.AddTrip(ctx, userID, id); err != nil {
				o.logger.Warn("trip booking failed",
					slog.String("user_id", userID),
					slog.Int("launch_id", id),
					slog.String("error", err.Error()),
				)
				return nil
			}
			ok[i] = true
			return nil
		})
	}
	_ = eg.Wait()

	booked := make([]int, 0, len(launchIDs))
	for i, id := range launchIDs {
		if ok[i] {
			booked = append(booked, id)
		}
	}

	o.metrics.IncTripsBooked(len(booked))
	o.metrics.IncTripsBookFailed(len(launchIDs) - len(booked))

	for _, id := range booked {
		o.publish(ctx, events.TypeTripBooked, userID, id)
	}

	return booked, nil
}

// unique drops repeated ids, keeping first occurrences in order.
func unique(ids []int) []int {
	seen := make(map[int]struct{}, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// CancelTrip removes the user's trip on launchID. It reports false without
// error when no such trip existed.
func (o *Orchestrator) CancelTrip(ctx context.Context, userID string, launchID int) (bool, error) {
	if userID == "" {
		return false, ErrUnauthenticated
	}

	unlock := o.locks.Lock(userID)
	defer unlock()

	removed, err := o.store.RemoveTrip(ctx, userID, launchID)
	if err != nil {
		return false, fmt.Errorf("cancel trip: %w", err)
	}

	o.metrics.IncTripCancelled(removed)
	if removed {
		o.publish(ctx, events.TypeTripCancelled, userID, launchID)
	}
	return removed, nil
}

// publish is best effort. A broker failure never fails the mutation.
func (o *Orchestrator) publish(ctx context.Context, eventType, userID string, launchID int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), events.PublishTimeout)
	defer cancel()

	event := events.Event{
		Type:       eventType,
		UserID:     userID,
		LaunchID:   launchID,
		OccurredAt: o.now().UTC(),
	}
	if err := o.events.Publish(ctx, event); err != nil {
		o.logger.Warn("failed to publish trip event",
			slog.String("type", eventType),
			slog.Int("launch_id", launchID),
			slog.String("error", err.Error()),
		)
		o.metrics.IncEventPublished(metrics.EventDropped)
		return
	}
	o.metrics.IncEventPublished(metrics.EventPublished)
}
