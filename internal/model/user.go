package model

import (
	"slices"
	"time"
)

// User is a traveller who can book seats on launches.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	// Token is the login token issued for Email.
	Token string `json:"token,omitempty"`
	// BookedLaunchIDs holds the user's trips, unique and ascending.
	BookedLaunchIDs []int     `json:"bookedLaunchIds"`
	CreatedAt       time.Time `json:"created_at"`
}

// HasBooked reports whether the launch is in the user's trip set.
func (u *User) HasBooked(launchID int) bool {
	return slices.Contains(u.BookedLaunchIDs, launchID)
}

// TripUpdateResponse is the outcome of a booking mutation.
// Partial failures are reported here rather than as errors.
type TripUpdateResponse struct {
	Success  bool     `json:"success"`
	Message  string   `json:"message"`
	Launches []Launch `json:"launches"`
}
