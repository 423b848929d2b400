package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/provider/resilience"
)

type fakeStations struct {
	n      int
	source string
}

func (s fakeStations) Len() int       { return s.n }
func (s fakeStations) Source() string { return s.source }

type fakeCache struct{ stats planner.CacheStats }

func (c fakeCache) CacheStats() planner.CacheStats { return c.stats }

func passing(context.Context) error { return nil }

func TestOpsHandler_HealthCheck(t *testing.T) {
	h := NewOpsHandler(OpsConfig{Version: "1.2.3"})

	rec := httptest.NewRecorder()
	h.HealthCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body models.Health
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "Yatri API", body.Service)
	assert.Equal(t, "1.2.3", body.Version)
}

func TestOpsHandler_ReadinessCheck(t *testing.T) {
	failing := func(context.Context) error { return errors.New("down") }

	tests := []struct {
		name     string
		stations StationStats
		checks   []Check
		want     int
	}{
		{"ready", fakeStations{n: 10}, []Check{{Name: "redis", Required: true, Run: passing}}, http.StatusOK},
		{"optional check failing", fakeStations{n: 10}, []Check{{Name: "database", Run: failing}}, http.StatusOK},
		{"required check failing", fakeStations{n: 10}, []Check{{Name: "redis", Required: true, Run: failing}}, http.StatusServiceUnavailable},
		{"no stations", fakeStations{}, nil, http.StatusServiceUnavailable},
		{"stations not configured", nil, nil, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOpsHandler(OpsConfig{Stations: tt.stations, Checks: tt.checks})

			rec := httptest.NewRecorder()
			h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestOpsHandler_ChecksAreBounded(t *testing.T) {
	var deadline time.Time
	h := NewOpsHandler(OpsConfig{
		Stations: fakeStations{n: 1},
		Checks: []Check{{Name: "slow", Run: func(ctx context.Context) error {
			deadline, _ = ctx.Deadline()
			return nil
		}}},
	})

	rec := httptest.NewRecorder()
	h.ReadinessCheck(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/ready", nil))

	require.False(t, deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(checkTimeout), deadline, time.Second)
}

func TestOpsHandler_SystemStatus(t *testing.T) {
	h := NewOpsHandler(OpsConfig{
		Version:   "1.2.3",
		BuildTime: "2026-01-01T00:00:00Z",
		Stations:  fakeStations{n: 42, source: "gtfs"},
		Cache:     fakeCache{stats: planner.CacheStats{Provider: "otp", TotalEntries: 5, FreshEntries: 4, StaleEntries: 1}},
		Checks:    []Check{{Name: "redis", Run: passing}},
	})

	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.SystemStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.HealthStatusOK, body.Status)
	assert.Equal(t, "1.2.3", body.Version)
	assert.Equal(t, models.StationStats{Count: 42, Source: "gtfs"}, body.Stations)
	require.NotNil(t, body.Cache)
	assert.Equal(t, 4, body.Cache.FreshEntries)
	require.Len(t, body.Subsystems, 1)
	assert.Nil(t, body.Subsystems[0].Detail)
}

func TestOpsHandler_SystemStatus_OpenCircuit(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	registry := resilience.NewRegistry()
	cb := resilience.DefaultCircuitBreakerConfig("otp")
	cb.ReadyToTrip = func(c gobreaker.Counts) bool { return c.ConsecutiveFailures >= 1 }
	client := resilience.NewClient(resilience.ClientConfig{
		Name:            "otp",
		MaxRetries:      1,
		InitialInterval: time.Millisecond,
		MaxInterval:     time.Millisecond,
		CircuitBreaker:  &cb,
		Registry:        registry,
	})
	resilience.NewClient(resilience.ClientConfig{Name: "geocoder", Registry: registry})

	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, gobreaker.StateOpen, client.CircuitBreakerState())

	h := NewOpsHandler(OpsConfig{Providers: registry, Stations: fakeStations{n: 1}})
	rec := httptest.NewRecorder()
	h.SystemStatus(rec, httptest.NewRequest(http.MethodGet, "/v1/ops/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body models.SystemStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, models.HealthStatusDegraded, body.Status)
	require.Len(t, body.Providers, 2)

	assert.Equal(t, "geocoder", body.Providers[0].Provider)
	assert.Equal(t, models.HealthStatusOK, body.Providers[0].Status)

	otp := body.Providers[1]
	assert.Equal(t, "otp", otp.Provider)
	assert.Equal(t, models.HealthStatusFail, otp.Status)
	assert.Equal(t, "open", otp.CircuitState)
	assert.Equal(t, 1, otp.Trips)
	assert.NotNil(t, otp.OpenedAt)
	assert.Nil(t, body.Cache)
}

func TestWorse(t *testing.T) {
	assert.Equal(t, models.HealthStatusDegraded, worse(models.HealthStatusOK, models.HealthStatusDegraded))
	assert.Equal(t, models.HealthStatusFail, worse(models.HealthStatusFail, models.HealthStatusDegraded))
	assert.Equal(t, models.HealthStatusOK, worse(models.HealthStatusOK, models.HealthStatusOK))
}
