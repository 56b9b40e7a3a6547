// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"github.com/launchdeck/launchdeck/internal/graph"
	"github.com/launchdeck/launchdeck/internal/model"
)

// LaunchResponse represents a launch in API responses.
type LaunchResponse struct {
	ID       int             `json:"id"`
	Cursor   string          `json:"cursor"`
	Site     *string         `json:"site"`
	Mission  MissionResponse `json:"mission"`
	Rocket   RocketResponse  `json:"rocket"`
	IsBooked bool            `json:"isBooked"`
}

// MissionResponse carries the patch for the requested size only.
type MissionResponse struct {
	Name         string  `json:"name"`
	MissionPatch *string `json:"missionPatch"`
}

// RocketResponse represents a launch vehicle.
type RocketResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// LaunchListResponse is one page of the launch listing.
type LaunchListResponse struct {
	Launches []LaunchResponse `json:"launches"`
	Cursor   *string          `json:"cursor"`
	HasMore  bool             `json:"hasMore"`
}

// UserResponse represents the current user.
type UserResponse struct {
	ID              string              `json:"id"`
	Email           string              `json:"email"`
	Token           string              `json:"token"`
	BookedLaunchIDs []int               `json:"bookedLaunchIds"`
	Trips           []LaunchResponse    `json:"trips"`
	TripErrors      []TripErrorResponse `json:"tripErrors,omitempty"`
}

// TripErrorResponse reports a booked launch that could not be loaded.
type TripErrorResponse struct {
	LaunchID int    `json:"launchId"`
	Message  string `json:"message"`
}

// LoginRequest represents the request body for logging in.
type LoginRequest struct {
	Email string `json:"email"`
}

// LoginResponse carries the issued token.
type LoginResponse struct {
	Token string `json:"token"`
}

// BookTripsRequest represents the request body for booking trips.
type BookTripsRequest struct {
	LaunchIDs []int `json:"launchIds"`
}

// TripUpdateResponse is the outcome of a booking mutation.
type TripUpdateResponse struct {
	Success  bool             `json:"success"`
	Message  string           `json:"message"`
	Launches []LaunchResponse `json:"launches"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// PatchFunc picks the mission patch to render.
type PatchFunc func(model.Mission) *string

// ToLaunchResponse converts a launch to its response shape.
func ToLaunchResponse(l model.Launch, isBooked bool, patch PatchFunc) LaunchResponse {
	return LaunchResponse{
		ID:     l.ID,
		Cursor: l.Cursor,
		Site:   l.Site,
		Mission: MissionResponse{
			Name:         l.Mission.Name,
			MissionPatch: patch(l.Mission),
		},
		Rocket: RocketResponse{
			ID:   l.Rocket.ID,
			Name: l.Rocket.Name,
			Type: l.Rocket.Type,
		},
		IsBooked: isBooked,
	}
}

// ToLaunchViewResponses converts annotated launches.
func ToLaunchViewResponses(views []graph.LaunchView, patch PatchFunc) []LaunchResponse {
	out := make([]LaunchResponse, len(views))
	for i, v := range views {
		out[i] = ToLaunchResponse(v.Launch, v.IsBooked, patch)
	}
	return out
}

// ToLaunchResponses converts launches with a fixed booking flag.
func ToLaunchResponses(launches []model.Launch, isBooked bool, patch PatchFunc) []LaunchResponse {
	out := make([]LaunchResponse, len(launches))
	for i, l := range launches {
		out[i] = ToLaunchResponse(l, isBooked, patch)
	}
	return out
}

// ToUserResponse converts the current user view. Every trip is booked.
func ToUserResponse(u *graph.UserView, patch PatchFunc) UserResponse {
	resp := UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		Token:           u.Token,
		BookedLaunchIDs: u.BookedLaunchIDs,
		Trips:           ToLaunchResponses(u.Trips, true, patch),
	}
	for _, te := range u.TripErrors {
		resp.TripErrors = append(resp.TripErrors, TripErrorResponse{LaunchID: te.LaunchID, Message: te.Message})
	}
	return resp
}

// ToTripUpdateResponse converts a mutation result.
func ToTripUpdateResponse(r model.TripUpdateResponse, isBooked bool, patch PatchFunc) TripUpdateResponse {
	return TripUpdateResponse{
		Success:  r.Success,
		Message:  r.Message,
		Launches: ToLaunchResponses(r.Launches, isBooked, patch),
	}
}
