package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/plan"
)

// JourneyPlanner answers journey requests.
type JourneyPlanner interface {
	Plan(ctx context.Context, req plan.Request) (*plan.Response, error)
}

// PlanHandler handles journey planning.
type PlanHandler struct {
	planner JourneyPlanner
	timeout time.Duration
}

// NewPlanHandler creates a new PlanHandler. A positive timeout bounds each
// request.
func NewPlanHandler(planner JourneyPlanner, timeout time.Duration) *PlanHandler {
	return &PlanHandler{planner: planner, timeout: timeout}
}

// PlanJourney handles POST /v1/plan.
func (h *PlanHandler) PlanJourney(w http.ResponseWriter, r *http.Request) {
	var input models.PlanRequest
	if err := response.DecodeJSON(r, &input); err != nil {
		response.DecodeError(w, r, err)
		return
	}

	var fieldErrors []models.FieldError
	if strings.TrimSpace(input.Origin) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "origin", Message: "is required", Code: "REQUIRED"})
	}
	if strings.TrimSpace(input.Destination) == "" {
		fieldErrors = append(fieldErrors, models.FieldError{Field: "destination", Message: "is required", Code: "REQUIRED"})
	}
	if len(fieldErrors) > 0 {
		response.BadRequest(w, r, plan.ErrMissingEndpoints.Error(), fieldErrors)
		return
	}

	req := plan.Request{
		Origin:       input.Origin,
		Destination:  input.Destination,
		Profile:      input.Profile,
		VehicleTypes: plan.ParseVehicleTypes(input.Filters.VehicleTypes),
		Preference:   input.Filters.RoutePreference,
	}
	if input.DepartAt != nil {
		req.When = input.DepartAt.Time()
	}

	ctx := r.Context()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	resp, err := h.planner.Plan(ctx, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	response.JSON(w, r, http.StatusOK, models.NewPlanResponse(resp, req.VehicleTypes))
}

func (h *PlanHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	log := zerolog.Ctx(r.Context())

	switch {
	case errors.Is(err, plan.ErrMissingEndpoints):
		response.BadRequest(w, r, err.Error(), nil)
	case errors.Is(err, plan.ErrUnresolvable):
		response.Unresolvable(w, r, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn().Err(err).Msg("journey planning timed out")
		response.GatewayTimeout(w, r, "route planning took too long")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		log.Debug().Err(err).Msg("journey planning cancelled")
	default:
		log.Error().Err(err).Msg("journey planning failed")
		response.InternalError(w, r, "route planning failed")
	}
}
