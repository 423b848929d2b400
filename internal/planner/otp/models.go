package otp

// planResponse is the body of GET {base}/plan.
type planResponse struct {
	Plan  *otpPlan  `json:"plan"`
	Error *otpError `json:"error"`
}

type otpPlan struct {
	Itineraries []otpItinerary `json:"itineraries"`
}

type otpError struct {
	ID      int    `json:"id"`
	Message string `json:"msg"`
}

type otpItinerary struct {
	Duration      float64  `json:"duration"`
	StartTime     int64    `json:"startTime"`
	EndTime       int64    `json:"endTime"`
	WalkTime      float64  `json:"walkTime"`
	TransitTime   float64  `json:"transitTime"`
	WaitingTime   float64  `json:"waitingTime"`
	RouteCategory string   `json:"_route_category"`
	Legs          []otpLeg `json:"legs"`
}

type otpLeg struct {
	Mode           string       `json:"mode"`
	Distance       float64      `json:"distance"`
	Duration       float64      `json:"duration"`
	StartTime      int64        `json:"startTime"`
	EndTime        int64        `json:"endTime"`
	From           otpPlace     `json:"from"`
	To             otpPlace     `json:"to"`
	RouteShortName string       `json:"routeShortName"`
	RouteLongName  string       `json:"routeLongName"`
	RouteID        string       `json:"routeId"`
	TripShortName  string       `json:"tripShortName"`
	Headsign       string       `json:"headsign"`
	AgencyName     string       `json:"agencyName"`
	Trip           *otpTrip     `json:"trip"`
	LegGeometry    *otpGeometry `json:"legGeometry"`
}

type otpPlace struct {
	Name        string   `json:"name"`
	StopName    string   `json:"stopName"`
	StationName string   `json:"stationName"`
	VertexType  string   `json:"vertexType"`
	Lat         *float64 `json:"lat"`
	Lon         *float64 `json:"lon"`
}

type otpTrip struct {
	TripHeadsign  string `json:"tripHeadsign"`
	TripID        string `json:"tripId"`
	TripShortName string `json:"tripShortName"`
	BlockID       string `json:"blockId"`
}

type otpGeometry struct {
	Points string `json:"points"`
}

// otpStop is one entry of GET {base}/index/stops.
type otpStop struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}
