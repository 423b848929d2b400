package models

import "github.com/yatri/yatri/internal/profile"

// ProfileList is the body of GET /v1/profiles.
type ProfileList struct {
	Success  bool              `json:"success"`
	Profiles []profile.Profile `json:"profiles"`
	Default  string            `json:"default"`
}
