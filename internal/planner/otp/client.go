// Package otp provides a client for the OpenTripPlanner REST API.
package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/provider/resilience"
	"github.com/yatri/yatri/internal/station"
)

const (
	// ProviderName identifies this planner provider.
	ProviderName = "opentripplanner"

	// DefaultBaseURL is the default OTP router URL.
	DefaultBaseURL = "http://localhost:8081/otp/routers/default"

	// DefaultTimeout is the default plan request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultStopsTimeout is the default stop index request timeout.
	DefaultStopsTimeout = 10 * time.Second
)

// Fixed plan parameters.
const (
	maxTransfers   = 5
	numItineraries = 2
	walkReluctance = "2"
	waitReluctance = "1.5"
	walkSpeed      = "1.3"
)

// otpNoPath is the OTP error id for "no trip found".
const otpNoPath = 404

// HTTPDoer is an interface for executing HTTP requests.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ClientConfig holds configuration for the OTP client.
type ClientConfig struct {
	// BaseURL is the router base URL (optional, defaults to a local OTP).
	BaseURL string

	// HTTPClient is the HTTP client to use (optional).
	// If nil, uses a resilient client with defaults.
	HTTPClient HTTPDoer

	// Timeout is the plan request timeout (optional, defaults to 30s).
	Timeout time.Duration

	// StopsTimeout bounds the stop index request (optional, defaults to 10s).
	StopsTimeout time.Duration

	// RateLimit caps planner requests per second (optional, 0 disables).
	RateLimit float64

	// Location is the zone departure times are expressed in (default: IST).
	Location *time.Location

	// Registry is the provider registry for health tracking (optional).
	Registry *resilience.Registry

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is an OpenTripPlanner API client.
type Client struct {
	baseURL      string
	httpClient   HTTPDoer
	stopsTimeout time.Duration
	loc          *time.Location
	logger       zerolog.Logger
}

// NewClient creates a new OTP client.
func NewClient(cfg ClientConfig) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	stopsTimeout := cfg.StopsTimeout
	if stopsTimeout == 0 {
		stopsTimeout = DefaultStopsTimeout
	}

	loc := cfg.Location
	if loc == nil {
		loc = time.FixedZone("IST", 5*60*60+30*60)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		clientCfg := resilience.DefaultClientConfig(ProviderName)
		breaker := resilience.FanOutCircuitBreakerConfig(ProviderName,
			len(planner.DefaultModeCombinations())*len(planner.DefaultOptimizations()),
			int(clientCfg.MaxRetries)+1)
		clientCfg.CircuitBreaker = &breaker
		clientCfg.Timeout = timeout
		clientCfg.RateLimit = cfg.RateLimit
		clientCfg.Burst = 4
		clientCfg.Registry = cfg.Registry
		httpClient = resilience.NewClient(clientCfg)
	}

	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		stopsTimeout: stopsTimeout,
		loc:          loc,
		logger:       cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// Plan runs one planner query.
func (c *Client) Plan(ctx context.Context, q planner.Query) ([]itinerary.Itinerary, error) {
	when := q.When
	if when.IsZero() {
		when = time.Now()
	}
	when = when.In(c.loc)

	params := url.Values{}
	params.Set("fromPlace", latLng(q.Origin))
	params.Set("toPlace", latLng(q.Destination))
	params.Set("time", when.Format("15:04"))
	params.Set("date", when.Format("01-02-2006"))
	params.Set("mode", q.Combination.Modes)
	params.Set("optimize", q.Optimize)
	params.Set("maxTransfers", strconv.Itoa(maxTransfers))
	params.Set("numItineraries", strconv.Itoa(numItineraries))
	params.Set("arriveBy", "false")
	params.Set("walkReluctance", walkReluctance)
	params.Set("transferPenalty", strconv.Itoa(q.TransferPenaltySeconds))
	params.Set("waitReluctance", waitReluctance)
	params.Set("walkSpeed", walkSpeed)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/plan?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("modes", q.Combination.Modes).
		Str("optimize", q.Optimize).
		Msg("requesting plan from OTP")

	respBody, err := c.get(httpReq)
	if err != nil {
		return nil, err
	}

	var plan planResponse
	if err := json.Unmarshal(respBody, &plan); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	if plan.Plan == nil {
		if plan.Error != nil && plan.Error.ID != otpNoPath {
			c.logger.Debug().
				Int("otp_error", plan.Error.ID).
				Str("message", plan.Error.Message).
				Msg("OTP reported an error")
		}
		return nil, nil
	}

	its := make([]itinerary.Itinerary, 0, len(plan.Plan.Itineraries))
	for i := range plan.Plan.Itineraries {
		its = append(its, toItinerary(&plan.Plan.Itineraries[i]))
	}

	c.logger.Debug().
		Int("itinerary_count", len(its)).
		Str("modes", q.Combination.Modes).
		Msg("received plan from OTP")

	return its, nil
}

// Stops returns every transit stop known to the router.
func (c *Client) Stops(ctx context.Context) ([]station.Station, error) {
	ctx, cancel := context.WithTimeout(ctx, c.stopsTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/index/stops", http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	respBody, err := c.get(httpReq)
	if err != nil {
		return nil, err
	}

	var stops []otpStop
	if err := json.Unmarshal(respBody, &stops); err != nil {
		return nil, fmt.Errorf("decoding stops: %w", err)
	}

	out := make([]station.Station, 0, len(stops))
	for _, s := range stops {
		out = append(out, station.Station{
			ID:   s.ID,
			Name: s.Name,
			Lat:  s.Lat,
			Lng:  s.Lon,
			Type: station.TypeTransitStop,
		})
	}
	return out, nil
}

// get executes req and returns the body of a 200 response.
func (c *Client) get(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &planner.Error{
			Provider: ProviderName,
			Code:     "REQUEST_FAILED",
			Message:  "failed to reach trip planner",
			Err:      fmt.Errorf("%w: %w", planner.ErrProviderUnavailable, err),
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}
	return body, nil
}

// statusError maps OTP HTTP status codes to domain errors.
func statusError(statusCode int) error {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return &planner.Error{
			Provider: ProviderName,
			Code:     "RATE_LIMIT",
			Message:  "trip planner rate limit exceeded",
			Err:      planner.ErrRateLimitExceeded,
		}
	case statusCode == http.StatusNotFound:
		return &planner.Error{
			Provider: ProviderName,
			Code:     "NOT_FOUND",
			Message:  "trip planner router not found",
			Err:      planner.ErrProviderUnavailable,
		}
	case statusCode == http.StatusBadRequest:
		return &planner.Error{
			Provider: ProviderName,
			Code:     "BAD_REQUEST",
			Message:  "trip planner rejected the request",
			Err:      planner.ErrInvalidCoordinates,
		}
	case statusCode >= 500:
		return &planner.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("SERVER_%d", statusCode),
			Message:  "trip planner is temporarily unavailable",
			Err:      planner.ErrProviderUnavailable,
		}
	default:
		return &planner.Error{
			Provider: ProviderName,
			Code:     fmt.Sprintf("HTTP_%d", statusCode),
			Message:  fmt.Sprintf("trip planner returned status %d", statusCode),
			Err:      planner.ErrProviderUnavailable,
		}
	}
}

func latLng(c itinerary.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

func toItinerary(raw *otpItinerary) itinerary.Itinerary {
	it := itinerary.Itinerary{
		DurationSeconds:    raw.Duration,
		StartTime:          raw.StartTime,
		EndTime:            raw.EndTime,
		WalkTimeSeconds:    raw.WalkTime,
		TransitTimeSeconds: raw.TransitTime,
		WaitingTimeSeconds: raw.WaitingTime,
		Category:           itinerary.Category(raw.RouteCategory),
		Legs:               make([]itinerary.Leg, 0, len(raw.Legs)),
	}

	for i := range raw.Legs {
		l := &raw.Legs[i]
		leg := itinerary.Leg{
			Mode:            itinerary.ParseMode(l.Mode),
			DistanceMeters:  max(l.Distance, 0),
			DurationSeconds: max(l.Duration, 0),
			From:            toPlace(l.From),
			To:              toPlace(l.To),
			StartTime:       l.StartTime,
			EndTime:         l.EndTime,
			RouteShortName:  l.RouteShortName,
			RouteLongName:   l.RouteLongName,
			RouteID:         l.RouteID,
			TripShortName:   l.TripShortName,
			Headsign:        l.Headsign,
			AgencyName:      l.AgencyName,
		}
		if l.Trip != nil {
			leg.Trip = &itinerary.Trip{
				Headsign:  l.Trip.TripHeadsign,
				ID:        l.Trip.TripID,
				ShortName: l.Trip.TripShortName,
				BlockID:   l.Trip.BlockID,
			}
		}
		if l.LegGeometry != nil {
			leg.Geometry = l.LegGeometry.Points
		}
		it.Legs = append(it.Legs, leg)
	}

	return it
}

func toPlace(p otpPlace) itinerary.Place {
	return itinerary.Place{
		Name:        p.Name,
		StopName:    p.StopName,
		StationName: p.StationName,
		VertexType:  p.VertexType,
		Lat:         p.Lat,
		Lon:         p.Lon,
	}
}
