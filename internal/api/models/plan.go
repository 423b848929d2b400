package models

import (
	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/plan"
)

// PlanRequest is the body of POST /v1/plan.
type PlanRequest struct {
	Origin      string      `json:"origin"`
	Destination string      `json:"destination"`
	Profile     string      `json:"profile,omitempty"`
	Filters     PlanFilters `json:"filters"`
	// DepartAt is the departure time (optional, defaults to now).
	DepartAt *Timestamp `json:"departAt,omitempty"`
}

// PlanFilters narrows and orders the returned routes.
type PlanFilters struct {
	VehicleTypes    []string `json:"vehicleTypes,omitempty"`
	RoutePreference string   `json:"routePreference,omitempty"`
}

// PlanResponse is the body returned by POST /v1/plan.
type PlanResponse struct {
	Success     bool         `json:"success"`
	Routes      []plan.Route `json:"routes"`
	Message     string       `json:"message,omitempty"`
	Profile     string       `json:"profile"`
	Filters     PlanFilters  `json:"filters"`
	Origin      string       `json:"origin"`
	Destination string       `json:"destination"`

	OriginCoordinate      *itinerary.Coordinate `json:"originCoordinate,omitempty"`
	DestinationCoordinate *itinerary.Coordinate `json:"destinationCoordinate,omitempty"`

	// Source is "planner" or "fallback".
	Source string `json:"source"`
	Stale  bool   `json:"stale,omitempty"`
}

// NewPlanResponse builds the API response for a plan result. Filters echo
// what the service applied, with defaults filled in.
func NewPlanResponse(resp *plan.Response, vehicleTypes []plan.VehicleType) PlanResponse {
	types := make([]string, 0, len(vehicleTypes))
	for _, vt := range vehicleTypes {
		types = append(types, string(vt))
	}
	if len(types) == 0 {
		types = append(types, string(plan.VehicleAll))
	}

	routes := resp.Routes
	if routes == nil {
		routes = []plan.Route{}
	}

	return PlanResponse{
		Success:               true,
		Routes:                routes,
		Message:               resp.Message,
		Profile:               resp.Profile,
		Filters:               PlanFilters{VehicleTypes: types, RoutePreference: resp.Preference},
		Origin:                resp.Origin,
		Destination:           resp.Destination,
		OriginCoordinate:      resp.OriginCoordinate,
		DestinationCoordinate: resp.DestinationCoordinate,
		Source:                resp.Source,
		Stale:                 resp.Stale,
	}
}
