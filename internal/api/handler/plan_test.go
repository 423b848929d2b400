package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/plan"
)

type planFunc func(ctx context.Context, req plan.Request) (*plan.Response, error)

func (f planFunc) Plan(ctx context.Context, req plan.Request) (*plan.Response, error) {
	return f(ctx, req)
}

func postPlan(h *PlanHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/plan", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.PlanJourney(rec, req)
	return rec
}

func TestPlanHandler_PassesRequestThrough(t *testing.T) {
	var got plan.Request
	h := NewPlanHandler(planFunc(func(_ context.Context, req plan.Request) (*plan.Response, error) {
		got = req
		return &plan.Response{Profile: "eco", Origin: req.Origin, Destination: req.Destination, Source: plan.SourcePlanner}, nil
	}), 0)

	rec := postPlan(h, `{
		"origin": "Dadar",
		"destination": "Bandra",
		"profile": "eco",
		"filters": {"vehicleTypes": ["Train", "bus"], "routePreference": "cheapest"},
		"departAt": "2026-03-02T08:30:00Z"
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))

	assert.Equal(t, "Dadar", got.Origin)
	assert.Equal(t, "Bandra", got.Destination)
	assert.Equal(t, "eco", got.Profile)
	assert.Equal(t, "cheapest", got.Preference)
	assert.Equal(t, []plan.VehicleType{plan.VehicleTrain, plan.VehicleBus}, got.VehicleTypes)
	assert.True(t, got.When.Equal(time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)))

	var body models.PlanResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, []string{"train", "bus"}, body.Filters.VehicleTypes)
	assert.NotNil(t, body.Routes)
}

func TestPlanHandler_RequiresEndpoints(t *testing.T) {
	called := false
	h := NewPlanHandler(planFunc(func(context.Context, plan.Request) (*plan.Response, error) {
		called = true
		return nil, nil
	}), 0)

	rec := postPlan(h, `{"origin":"","destination":" "}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, called)

	var problem models.Problem
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&problem))
	require.Len(t, problem.Errors, 2)
	assert.Equal(t, "origin", problem.Errors[0].Field)
	assert.Equal(t, "destination", problem.Errors[1].Field)
}

func TestPlanHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"unresolvable", plan.ErrUnresolvable, http.StatusBadRequest},
		{"missing endpoints", plan.ErrMissingEndpoints, http.StatusBadRequest},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
		{"internal", errors.New("ranking itineraries: boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewPlanHandler(planFunc(func(context.Context, plan.Request) (*plan.Response, error) {
				return nil, tt.err
			}), 0)

			rec := postPlan(h, `{"origin":"Dadar","destination":"Bandra"}`)
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestPlanHandler_CancelledWritesNothing(t *testing.T) {
	h := NewPlanHandler(planFunc(func(context.Context, plan.Request) (*plan.Response, error) {
		return nil, context.Canceled
	}), 0)

	rec := postPlan(h, `{"origin":"Dadar","destination":"Bandra"}`)
	assert.Empty(t, rec.Body.String())
}

func TestPlanHandler_AppliesTimeout(t *testing.T) {
	var hasDeadline bool
	h := NewPlanHandler(planFunc(func(ctx context.Context, _ plan.Request) (*plan.Response, error) {
		_, hasDeadline = ctx.Deadline()
		return &plan.Response{}, nil
	}), time.Minute)

	rec := postPlan(h, `{"origin":"Dadar","destination":"Bandra"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hasDeadline)
}
