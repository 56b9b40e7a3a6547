// Package graph is the query and mutation surface of the gateway. It composes
// the launch catalog with the booking orchestrator; the HTTP layer is a thin
// mapping over these operations.
package graph

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/launchdeck/launchdeck/internal/auth"
	"github.com/launchdeck/launchdeck/internal/booking"
	"github.com/launchdeck/launchdeck/internal/catalog"
	"github.com/launchdeck/launchdeck/internal/model"
	"github.com/launchdeck/launchdeck/internal/pagination"
)

// Graph errors.
var (
	ErrInvalidEmail = errors.New("invalid email address")
)

// Catalog is the launch source. *catalog.Gateway implements it.
type Catalog interface {
	GetAll(ctx context.Context) ([]model.Launch, error)
	GetByID(ctx context.Context, id int) (*model.Launch, error)
	GetByIDs(ctx context.Context, ids []int) ([]*model.Launch, error)
}

// Bookings manages users and trips. *booking.Orchestrator implements it.
type Bookings interface {
	FindOrCreateUser(ctx context.Context, id auth.Identity) (*model.User, error)
	IsBookedOnLaunch(ctx context.Context, userID string, launchID int) (bool, error)
	GetLaunchIDsByUser(ctx context.Context, userID string) ([]int, error)
	BookedAmong(ctx context.Context, userID string, launchIDs []int) ([]int, error)
	BookTrips(ctx context.Context, userID string, launchIDs []int) ([]int, error)
	CancelTrip(ctx context.Context, userID string, launchID int) (bool, error)
}

// RequestContext carries per-request caller state.
type RequestContext struct {
	Identity  auth.Identity
	RequestID string
}

// LaunchView is a launch as seen by one caller.
type LaunchView struct {
	model.Launch
	IsBooked bool `json:"isBooked"`
}

// TripError reports a booked launch that could not be resolved.
type TripError struct {
	LaunchID int    `json:"launchId"`
	Message  string `json:"message"`
}

// UserView is the current user with their trips resolved.
type UserView struct {
	ID              string         `json:"id"`
	Email           string         `json:"email"`
	Token           string         `json:"token"`
	BookedLaunchIDs []int          `json:"bookedLaunchIds"`
	Trips           []model.Launch `json:"trips"`
	TripErrors      []TripError    `json:"tripErrors,omitempty"`
}

// Resolver implements every query and mutation.
type Resolver struct {
	Catalog  Catalog
	Bookings Bookings
	Logger   *slog.Logger
}

// NewResolver creates a new Resolver.
func NewResolver(c Catalog, b Bookings, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		Catalog:  c,
		Bookings: b,
		Logger:   logger.With("component", "graph.resolver"),
	}
}

// Launches lists launches newest first, one page at a time.
func (r *Resolver) Launches(ctx context.Context, rc *RequestContext, pageSize int, after *string) (model.Page, error) {
	all, err := r.Catalog.GetAll(ctx)
	if err != nil {
		return model.Page{}, err
	}

	// Upstream order is oldest first; reverse a copy, never the cached slice.
	all = slices.Clone(all)
	slices.Reverse(all)

	page := pagination.Paginate(all, after, pageSize)
	return pagination.BuildPage(all, page), nil
}

// Launch returns one launch with the caller's booking state.
func (r *Resolver) Launch(ctx context.Context, rc *RequestContext, id int) (*LaunchView, error) {
	launch, err := r.Catalog.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := &LaunchView{Launch: *launch}

	user, err := r.optionalUser(ctx, rc)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return view, nil
	}

	view.IsBooked, err = r.Bookings.IsBookedOnLaunch(ctx, user.ID, launch.ID)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// LaunchViews annotates launches with the caller's booking state.
// Anonymous callers see every launch as not booked.
func (r *Resolver) LaunchViews(ctx context.Context, rc *RequestContext, launches []model.Launch) ([]LaunchView, error) {
	views := make([]LaunchView, len(launches))
	for i, l := range launches {
		views[i] = LaunchView{Launch: l}
	}

	user, err := r.optionalUser(ctx, rc)
	if err != nil {
		return nil, err
	}
	if user == nil || len(launches) == 0 {
		return views, nil
	}

	ids := make([]int, len(launches))
	for i, l := range launches {
		ids[i] = l.ID
	}

	booked, err := r.Bookings.BookedAmong(ctx, user.ID, ids)
	if err != nil {
		return nil, err
	}
	for i := range views {
		_, views[i].IsBooked = slices.BinarySearch(booked, views[i].ID)
	}
	return views, nil
}

// Me returns the current user. Trips that no longer resolve in the catalog
// are reported in TripErrors while the rest are still returned.
func (r *Resolver) Me(ctx context.Context, rc *RequestContext) (*UserView, error) {
	user, err := r.user(ctx, rc)
	if err != nil {
		return nil, err
	}

	user.BookedLaunchIDs, err = r.Bookings.GetLaunchIDsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	view := &UserView{
		ID:              user.ID,
		Email:           user.Email,
		Token:           user.Token,
		BookedLaunchIDs: user.BookedLaunchIDs,
	}
	view.Trips, view.TripErrors, err = r.resolveLaunches(ctx, user.BookedLaunchIDs)
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Login finds or creates the user for email and returns their token.
func (r *Resolver) Login(ctx context.Context, email string) (string, error) {
	if !auth.IsEmail(email) {
		return "", ErrInvalidEmail
	}

	user, err := r.Bookings.FindOrCreateUser(ctx, auth.Identity{Email: email})
	if err != nil {
		return "", err
	}
	return user.Token, nil
}

// BookTrips books launchIDs for the caller. Partial failure is reported in
// the response, not as an error.
func (r *Resolver) BookTrips(ctx context.Context, rc *RequestContext, launchIDs []int) (model.TripUpdateResponse, error) {
	user, err := r.user(ctx, rc)
	if err != nil {
		return model.TripUpdateResponse{}, err
	}

	booked, err := r.Bookings.BookTrips(ctx, user.ID, launchIDs)
	if err != nil {
		return model.TripUpdateResponse{}, err
	}

	launches, _, err := r.resolveLaunches(ctx, booked)
	if err != nil {
		return model.TripUpdateResponse{}, err
	}

	return model.TripUpdateResponse{
		Success:  len(booking.FailedIDs(launchIDs, booked)) == 0,
		Message:  booking.BookMessage(launchIDs, booked),
		Launches: launches,
	}, nil
}

// CancelTrip cancels the caller's trip on launchID.
func (r *Resolver) CancelTrip(ctx context.Context, rc *RequestContext, launchID int) (model.TripUpdateResponse, error) {
	user, err := r.user(ctx, rc)
	if err != nil {
		return model.TripUpdateResponse{}, err
	}

	removed, err := r.Bookings.CancelTrip(ctx, user.ID, launchID)
	if err != nil {
		return model.TripUpdateResponse{}, err
	}
	if !removed {
		return model.TripUpdateResponse{
			Success:  false,
			Message:  booking.MessageCancelFailed,
			Launches: []model.Launch{},
		}, nil
	}

	resp := model.TripUpdateResponse{
		Success:  true,
		Message:  booking.MessageCancelled,
		Launches: []model.Launch{},
	}

	launch, err := r.Catalog.GetByID(ctx, launchID)
	if err != nil {
		// The trip is gone either way; the launch is display only.
		r.Logger.Warn("cancelled launch not resolvable",
			slog.Int("launch_id", launchID),
			slog.String("request_id", rc.RequestID),
			slog.String("error", err.Error()),
		)
		return resp, nil
	}
	resp.Launches = append(resp.Launches, *launch)
	return resp, nil
}

// MissionPatch returns the patch URL for size. Anything but SMALL is large.
func (r *Resolver) MissionPatch(m model.Mission, size model.PatchSize) *string {
	return m.Patch(size)
}

// user resolves the caller or fails with booking.ErrUnauthenticated.
func (r *Resolver) user(ctx context.Context, rc *RequestContext) (*model.User, error) {
	if rc == nil || rc.Identity.Anonymous() {
		return nil, booking.ErrUnauthenticated
	}
	return r.Bookings.FindOrCreateUser(ctx, rc.Identity)
}

// optionalUser is like user but treats an unresolvable caller as anonymous.
func (r *Resolver) optionalUser(ctx context.Context, rc *RequestContext) (*model.User, error) {
	user, err := r.user(ctx, rc)
	if errors.Is(err, booking.ErrUnauthenticated) {
		return nil, nil
	}
	return user, err
}

// resolveLaunches looks ids up in the catalog. Lookups that fail become
// TripErrors; only errors other than per-launch failures are returned.
func (r *Resolver) resolveLaunches(ctx context.Context, ids []int) ([]model.Launch, []TripError, error) {
	launches := make([]model.Launch, 0, len(ids))
	if len(ids) == 0 {
		return launches, nil, nil
	}

	resolved, err := r.Catalog.GetByIDs(ctx, ids)

	var tripErrors []TripError
	var batch *catalog.BatchError
	switch {
	case err == nil:
	case errors.As(err, &batch):
		for _, f := range batch.Failures {
			tripErrors = append(tripErrors, TripError{LaunchID: f.ID, Message: f.Err.Error()})
		}
		r.Logger.Warn("some trips could not be resolved", slog.Int("failed", len(batch.Failures)))
	default:
		return nil, nil, err
	}

	for _, l := range resolved {
		if l != nil {
			launches = append(launches, *l)
		}
	}
	return launches, tripErrors, nil
}
