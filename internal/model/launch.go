// Package model defines domain entities for the application.
package model

// PatchSize selects which mission patch image to return.
type PatchSize string

const (
	PatchSmall PatchSize = "SMALL"
	PatchLarge PatchSize = "LARGE"
)

// Launch is the normalized shape of one upstream catalog entry.
type Launch struct {
	// ID is the upstream flight number, 0 when absent.
	ID int `json:"id"`
	// Cursor is derived from the launch timestamp and is only used for ordering.
	Cursor  string  `json:"cursor"`
	Site    *string `json:"site,omitempty"`
	Mission Mission `json:"mission"`
	Rocket  Rocket  `json:"rocket"`
}

// Mission describes the payload mission of a launch.
type Mission struct {
	Name              string  `json:"name"`
	MissionPatchSmall *string `json:"missionPatchSmall,omitempty"`
	MissionPatchLarge *string `json:"missionPatchLarge,omitempty"`
}

// Patch returns the mission patch URL for the given size.
// Anything other than PatchSmall resolves to the large patch.
func (m Mission) Patch(size PatchSize) *string {
	if size == PatchSmall {
		return m.MissionPatchSmall
	}
	return m.MissionPatchLarge
}

// Rocket describes the launch vehicle.
type Rocket struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Page is one window of a launch listing.
type Page struct {
	Launches  []Launch
	EndCursor *string
	HasMore   bool
}
