package models

import "github.com/yatri/yatri/internal/station"

// StationList is the body of GET /v1/stations.
type StationList struct {
	Success  bool              `json:"success"`
	Stations []station.Station `json:"stations"`
	Source   string            `json:"source"`
}

// StationSearch is the body of GET /v1/stations/search. TotalFound and
// SearchTerm are set for a term search, TotalLoaded for a browse.
type StationSearch struct {
	Success     bool              `json:"success"`
	Stations    []station.Station `json:"stations"`
	TotalFound  *int              `json:"total_found,omitempty"`
	SearchTerm  string            `json:"search_term,omitempty"`
	TotalLoaded *int              `json:"total_loaded,omitempty"`
}
