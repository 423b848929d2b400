package otp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/station"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:    server.URL + "/otp/routers/default",
		HTTPClient: server.Client(),
		Logger:     zerolog.Nop(),
	})
}

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/" + name)
	require.NoError(t, err)
	return b
}

func testQuery() planner.Query {
	return planner.Query{
		Origin:       itinerary.Coordinate{Lat: 18.9322, Lon: 72.8264},
		Destination:  itinerary.Coordinate{Lat: 19.0178, Lon: 72.8478},
		Combination:  planner.ModeCombination{Modes: "WALK,RAIL", Name: "rail_only"},
		Optimization: planner.Optimization{Optimize: "TRANSFERS", TransferPenaltySeconds: 1800},
		When:         time.Date(2024, 1, 1, 3, 30, 0, 0, time.UTC),
	}
}

func TestClient_Plan_Success(t *testing.T) {
	body := fixture(t, "plan_response.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/otp/routers/default/plan", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "18.9322,72.8264", q.Get("fromPlace"))
		assert.Equal(t, "19.0178,72.8478", q.Get("toPlace"))
		assert.Equal(t, "09:00", q.Get("time"))
		assert.Equal(t, "01-01-2024", q.Get("date"))
		assert.Equal(t, "WALK,RAIL", q.Get("mode"))
		assert.Equal(t, "TRANSFERS", q.Get("optimize"))
		assert.Equal(t, "1800", q.Get("transferPenalty"))
		assert.Equal(t, "5", q.Get("maxTransfers"))
		assert.Equal(t, "2", q.Get("numItineraries"))
		assert.Equal(t, "false", q.Get("arriveBy"))
		assert.Equal(t, "2", q.Get("walkReluctance"))
		assert.Equal(t, "1.5", q.Get("waitReluctance"))
		assert.Equal(t, "1.3", q.Get("walkSpeed"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	})

	its, err := client.Plan(context.Background(), testQuery())
	require.NoError(t, err)
	require.Len(t, its, 2)

	first := its[0]
	assert.Equal(t, 1980.0, first.DurationSeconds)
	assert.Equal(t, 240.0, first.WaitingTimeSeconds)
	require.Len(t, first.Legs, 2)

	walk := first.Legs[0]
	assert.Equal(t, itinerary.ModeWalk, walk.Mode)
	assert.Equal(t, "_p~iF~ps|U_ulLnnqC", walk.Geometry)
	assert.Equal(t, "churchgate", walk.To.StopName)

	rail := first.Legs[1]
	assert.Equal(t, itinerary.ModeRail, rail.Mode)
	assert.Equal(t, 10240.0, rail.DistanceMeters)
	assert.Equal(t, "Western Line", rail.RouteLongName)
	assert.Equal(t, "Western Railway", rail.AgencyName)
	require.NotNil(t, rail.Trip)
	assert.Equal(t, "1:WR-9031", rail.Trip.ID)
	assert.Equal(t, "B12", rail.Trip.BlockID)
	require.NotNil(t, rail.From.Lat)
	assert.Equal(t, 18.9354, *rail.From.Lat)

	assert.Equal(t, itinerary.ModeAuto, its[1].Legs[0].Mode, "CAR is mapped to AUTO")
	assert.Equal(t, 0, its[1].Transfers())
}

func TestClient_Plan_NoPath(t *testing.T) {
	body := fixture(t, "no_path_response.json")

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	})

	its, err := client.Plan(context.Background(), testQuery())
	require.NoError(t, err)
	assert.Empty(t, its)
}

func TestClient_Plan_ErrorStatuses(t *testing.T) {
	tests := []struct {
		status   int
		wantErr  error
		wantCode string
	}{
		{http.StatusTooManyRequests, planner.ErrRateLimitExceeded, "RATE_LIMIT"},
		{http.StatusBadRequest, planner.ErrInvalidCoordinates, "BAD_REQUEST"},
		{http.StatusNotFound, planner.ErrProviderUnavailable, "NOT_FOUND"},
		{http.StatusServiceUnavailable, planner.ErrProviderUnavailable, "SERVER_503"},
		{http.StatusTeapot, planner.ErrProviderUnavailable, "HTTP_418"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			})

			_, err := client.Plan(context.Background(), testQuery())
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))

			var perr *planner.Error
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.wantCode, perr.Code)
			assert.Equal(t, ProviderName, perr.Provider)
		})
	}
}

func TestClient_Plan_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := server.URL
	server.Close()

	client := NewClient(ClientConfig{BaseURL: base, HTTPClient: http.DefaultClient, Logger: zerolog.Nop()})

	_, err := client.Plan(context.Background(), testQuery())
	assert.True(t, errors.Is(err, planner.ErrProviderUnavailable))
}

func TestClient_Plan_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"plan": [`))
	})

	_, err := client.Plan(context.Background(), testQuery())
	assert.Error(t, err)
}

func TestClient_Stops(t *testing.T) {
	body := fixture(t, "stops_response.json")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/otp/routers/default/index/stops", r.URL.Path)
		_, _ = w.Write(body)
	})

	stops, err := client.Stops(context.Background())
	require.NoError(t, err)
	require.Len(t, stops, 3)

	assert.Equal(t, station.Station{
		ID:   "1:CCG",
		Name: "Churchgate",
		Lat:  18.9354,
		Lng:  72.8274,
		Type: station.TypeTransitStop,
	}, stops[0])
}

func TestClient_StopsFeedsStationLoader(t *testing.T) {
	body := fixture(t, "stops_response.json")
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(body)
	})

	idx := station.Load(context.Background(), station.LoadConfig{Planner: client, Logger: zerolog.Nop()})
	assert.Equal(t, station.SourcePlanner, idx.Source())
	assert.Equal(t, 3, idx.Len())
}

func TestClient_Name(t *testing.T) {
	assert.Equal(t, "opentripplanner", NewClient(ClientConfig{}).Name())
}
