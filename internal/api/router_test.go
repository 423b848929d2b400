package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatri/yatri/internal/api"
	"github.com/yatri/yatri/internal/api/handler"
	"github.com/yatri/yatri/internal/api/middleware"
	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/feedback"
	"github.com/yatri/yatri/internal/lastmile"
	"github.com/yatri/yatri/internal/plan"
	"github.com/yatri/yatri/internal/planner"
	"github.com/yatri/yatri/internal/profile"
	"github.com/yatri/yatri/internal/ranking"
	"github.com/yatri/yatri/internal/station"
)

// downPlanner simulates an unreachable trip planner.
type downPlanner struct{}

func (downPlanner) Plan(context.Context, planner.Request) (*planner.Response, error) {
	return nil, planner.ErrProviderUnavailable
}

// slowPlanner blocks until its context ends.
type slowPlanner struct{}

func (slowPlanner) Plan(ctx context.Context, _ plan.Request) (*plan.Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type recordingPublisher struct {
	published []*feedback.Feedback
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, fb *feedback.Feedback) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, fb)
	return nil
}

type testEnv struct {
	router    http.Handler
	publisher *recordingPublisher
	registry  *prometheus.Registry
}

func newTestEnv(t *testing.T, mutate ...func(*api.RouterConfig)) *testEnv {
	t.Helper()
	logger := zerolog.New(io.Discard)

	index := station.NewIndex(station.MockStations(), "mock")
	profiles := profile.NewService(profile.ServiceConfig{Logger: logger})

	planSvc := plan.NewService(plan.ServiceConfig{
		Resolver: station.NewResolver(station.ResolverConfig{Stations: station.MockStations(), Logger: logger}),
		Planner:  downPlanner{},
		Ranker:   ranking.NewRanker(ranking.RankerConfig{Logger: logger}),
		Profiles: profiles,
		LastMile: lastmile.NewService(lastmile.Config{Logger: logger}),
		Logger:   logger,
	})

	pub := &recordingPublisher{}
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics()
	require.NoError(t, metrics.Register(reg))

	cfg := api.RouterConfig{
		Version:         "test",
		BuildTime:       "2026-01-01T00:00:00Z",
		Logger:          logger,
		Metrics:         metrics,
		Gatherer:        reg,
		PlanService:     planSvc,
		PlanTimeout:     5 * time.Second,
		Stations:        index,
		ProfileService:  profiles,
		FeedbackService: feedback.NewService(feedback.ServiceConfig{Publisher: pub, Logger: logger}),
	}
	for _, m := range mutate {
		m(&cfg)
	}

	return &testEnv{router: api.NewRouter(cfg), publisher: pub, registry: reg}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(bytes.NewReader(rec.Body.Bytes())).Decode(&v), rec.Body.String())
	return v
}

func TestRouter_Health(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/ops/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	health := decode[models.Health](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "Yatri API", health.Service)
	assert.Equal(t, "test", health.Version)
}

func TestRouter_Ready(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/v1/ops/ready", "")
	require.Equal(t, http.StatusOK, rec.Code)

	failing := newTestEnv(t, func(c *api.RouterConfig) {
		c.Checks = []handler.Check{{
			Name:     "redis",
			Required: true,
			Run:      func(context.Context) error { return errors.New("connection refused") },
		}}
	})
	rec = failing.do(t, http.MethodGet, "/v1/ops/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	ready := decode[models.Readiness](t, rec)
	assert.Equal(t, models.HealthStatusFail, ready.Status)
	require.Len(t, ready.Checks, 2)
	assert.Equal(t, "redis", ready.Checks[0].Name)
	assert.Equal(t, "connection refused", ready.Checks[0].Detail)
}

func TestRouter_Status(t *testing.T) {
	env := newTestEnv(t, func(c *api.RouterConfig) {
		c.Checks = []handler.Check{{
			Name: "redis",
			Run:  func(context.Context) error { return errors.New("timeout") },
		}}
	})

	rec := env.do(t, http.MethodGet, "/v1/ops/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	status := decode[models.SystemStatus](t, rec)
	assert.Equal(t, models.HealthStatusDegraded, status.Status)
	assert.Equal(t, "mock", status.Stations.Source)
	assert.Equal(t, len(station.MockStations()), status.Stations.Count)
	require.Len(t, status.Subsystems, 1)
	assert.Equal(t, models.HealthStatusFail, status.Subsystems[0].Status)
	assert.Empty(t, status.Providers)
}

func TestRouter_Stations(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/stations", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[models.StationList](t, rec)
	assert.True(t, list.Success)
	assert.Len(t, list.Stations, len(station.MockStations()))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}

func TestRouter_StationSearch(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/stations/search?search=dadar&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[models.StationSearch](t, rec)
	require.NotEmpty(t, found.Stations)
	assert.Equal(t, "Dadar", found.Stations[0].Name)
	assert.Equal(t, "dadar", found.SearchTerm)
	require.NotNil(t, found.TotalFound)
	assert.Nil(t, found.TotalLoaded)

	rec = env.do(t, http.MethodGet, "/v1/stations/search?limit=3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	browse := decode[models.StationSearch](t, rec)
	assert.Len(t, browse.Stations, 3)
	require.NotNil(t, browse.TotalLoaded)
	assert.Equal(t, len(station.MockStations()), *browse.TotalLoaded)

	for _, bad := range []string{"abc", "0", "201"} {
		rec = env.do(t, http.MethodGet, "/v1/stations/search?limit="+bad, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, "limit %s", bad)
	}
}

func TestRouter_Profiles(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	list := decode[models.ProfileList](t, rec)
	assert.Equal(t, profile.DefaultKey, list.Default)
	keys := make([]string, 0, len(list.Profiles))
	for _, p := range list.Profiles {
		keys = append(keys, p.Key)
	}
	assert.Equal(t, []string{"accessibility", "budget", "comfort", "eco"}, keys)
}

func TestRouter_Plan_FallsBackWhenPlannerDown(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/plan", `{
		"origin": "Churchgate",
		"destination": "Andheri",
		"profile": "comfort",
		"filters": {"vehicleTypes": ["all"], "routePreference": "fastest"}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.PlanResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, plan.SourceFallback, resp.Source)
	assert.Equal(t, "comfort", resp.Profile)
	assert.Equal(t, "fastest", resp.Filters.RoutePreference)
	assert.Equal(t, []string{"all"}, resp.Filters.VehicleTypes)
	require.NotNil(t, resp.OriginCoordinate)
	require.NotNil(t, resp.DestinationCoordinate)
	require.NotEmpty(t, resp.Routes)

	for i := 1; i < len(resp.Routes); i++ {
		assert.LessOrEqual(t, resp.Routes[i-1].Duration, resp.Routes[i].Duration)
	}
	for _, r := range resp.Routes {
		assert.NotEmpty(t, r.LastMile)
	}
}

func TestRouter_Plan_EmptyAfterFilter(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/v1/plan", `{
		"origin": "Churchgate",
		"destination": "Andheri",
		"filters": {"vehicleTypes": ["walk"]}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode[models.PlanResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Empty(t, resp.Routes)
	assert.Equal(t, plan.NoRoutesMessage, resp.Message)
	assert.Contains(t, rec.Body.String(), `"routes":[]`)
}

func TestRouter_Plan_Errors(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		status      int
		problemType string
	}{
		{"missing destination", `{"origin":"Dadar"}`, "application/json", http.StatusBadRequest, models.ProblemTypeValidation},
		{"blank origin", `{"origin":"  ","destination":"Dadar"}`, "application/json", http.StatusBadRequest, models.ProblemTypeValidation},
		{"malformed", `{"origin":`, "application/json", http.StatusBadRequest, models.ProblemTypeValidation},
		{"unresolvable", `{"origin":"Qqqzzx","destination":"Wwwvvy"}`, "application/json", http.StatusBadRequest, models.ProblemTypeUnresolvable},
		{"wrong content type", `origin=Dadar`, "application/x-www-form-urlencoded", http.StatusUnsupportedMediaType, models.ProblemTypeUnsupportedMedia},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			problem := decode[models.Problem](t, rec)
			assert.Equal(t, tt.problemType, problem.Type)
			assert.Equal(t, "/v1/plan", problem.Instance)
			assert.Equal(t, rec.Header().Get("X-Request-Id"), problem.TraceID)
		})
	}
}

func TestRouter_Plan_Timeout(t *testing.T) {
	env := newTestEnv(t, func(c *api.RouterConfig) {
		c.PlanService = slowPlanner{}
		c.PlanTimeout = 20 * time.Millisecond
	})

	rec := env.do(t, http.MethodPost, "/v1/plan", `{"origin":"Dadar","destination":"Bandra"}`)
	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, models.ProblemTypeTimeout, decode[models.Problem](t, rec).Type)
}

func TestRouter_Feedback(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader(`{
		"type": "route_quality",
		"message": "The fastest route skipped Dadar",
		"rating": "4",
		"route": "Churchgate → Andheri",
		"routeDetails": {"route_id": 2}
	}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "yatri-web/1.0")
	req.Header.Set("X-Real-IP", "203.0.113.9")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[models.FeedbackResponse](t, rec)
	assert.True(t, resp.Success)
	assert.Equal(t, "Feedback submitted successfully", resp.Message)
	assert.True(t, strings.HasPrefix(resp.FeedbackID, "feedback_"))

	require.Len(t, env.publisher.published, 1)
	fb := env.publisher.published[0]
	assert.Equal(t, resp.FeedbackID, fb.ID)
	assert.Equal(t, 4, fb.Rating)
	assert.Equal(t, "yatri-web/1.0", fb.UserAgent)
	assert.Equal(t, "203.0.113.9", fb.IPAddress)
	assert.JSONEq(t, `{"route_id": 2}`, string(fb.RouteDetails))
}

func TestRouter_Feedback_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		field  string
	}{
		{"missing rating", `{"type":"bug","message":"x"}`, http.StatusBadRequest, "rating"},
		{"rating out of range", `{"type":"bug","message":"x","rating":9}`, http.StatusBadRequest, "rating"},
		{"fractional rating", `{"type":"bug","message":"x","rating":3.5}`, http.StatusBadRequest, "rating"},
		{"missing type", `{"message":"x","rating":3}`, http.StatusBadRequest, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			rec := env.do(t, http.MethodPost, "/v1/feedback", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())

			problem := decode[models.Problem](t, rec)
			require.NotEmpty(t, problem.Errors)
			assert.Equal(t, tt.field, problem.Errors[0].Field)
			assert.Empty(t, env.publisher.published)
		})
	}
}

func TestRouter_Feedback_PublishFailure(t *testing.T) {
	env := newTestEnv(t)
	env.publisher.err = errors.New("topic not found")

	rec := env.do(t, http.MethodPost, "/v1/feedback", `{"type":"bug","message":"x","rating":2}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Feedback_RateLimited(t *testing.T) {
	env := newTestEnv(t)

	var last int
	for i := 0; i < middleware.FeedbackRateLimit.RequestLimit+1; i++ {
		last = env.do(t, http.MethodPost, "/v1/feedback", `{"type":"bug","message":"x","rating":2}`).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRouter_Metrics(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/v1/ops/health", "")

	rec := env.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `yatri_http_requests_total{method="GET",route="/v1/ops/health",status="200"} 1`)
}

func TestRouter_NotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/v1/unknown", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/v1/plan", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
