package handler

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api/models"
	"github.com/yatri/yatri/internal/api/response"
	"github.com/yatri/yatri/internal/feedback"
)

// FeedbackSubmitter accepts rider feedback.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, input *feedback.Input) (*feedback.Feedback, error)
}

// FeedbackHandler handles feedback submission.
type FeedbackHandler struct {
	feedback FeedbackSubmitter
}

// NewFeedbackHandler creates a new FeedbackHandler.
func NewFeedbackHandler(submitter FeedbackSubmitter) *FeedbackHandler {
	return &FeedbackHandler{feedback: submitter}
}

// SubmitFeedback handles POST /v1/feedback.
func (h *FeedbackHandler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	var input models.FeedbackRequest
	if err := response.DecodeJSON(r, &input); err != nil {
		response.DecodeError(w, r, err)
		return
	}

	rating, ok := parseRating(input.Rating)
	if !ok {
		response.BadRequest(w, r, "validation failed", []models.FieldError{
			{Field: "rating", Message: "must be a whole number", Code: "INVALID"},
		})
		return
	}

	fb, err := h.feedback.Submit(r.Context(), &feedback.Input{
		Type:         input.Type,
		Message:      input.Message,
		Rating:       rating,
		Email:        input.Email,
		Route:        input.Route,
		RouteDetails: input.RouteDetails,
		UserAgent:    r.UserAgent(),
		IPAddress:    clientIP(r),
	})
	if err != nil {
		var verr *feedback.ValidationError
		switch {
		case errors.As(err, &verr):
			response.BadRequest(w, r, "validation failed", verr.Errors)
		case errors.Is(err, feedback.ErrPublishFailed):
			response.ServiceUnavailable(w, r, "failed to submit feedback")
		default:
			zerolog.Ctx(r.Context()).Error().Err(err).Msg("feedback submission failed")
			response.InternalError(w, r, "failed to submit feedback")
		}
		return
	}

	response.JSON(w, r, http.StatusOK, models.FeedbackResponse{
		Success:    true,
		Message:    "Feedback submitted successfully",
		FeedbackID: fb.ID,
	})
}

// parseRating converts the raw rating. A missing rating is passed on as nil
// for the service to report; a non-integral one is rejected here.
func parseRating(raw *json.Number) (*int, bool) {
	if raw == nil {
		return nil, true
	}
	f, err := raw.Float64()
	if err != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return nil, false
	}
	n := int(f)
	return &n, true
}

// clientIP strips the port from RemoteAddr. The router's RealIP middleware
// has already replaced it with the forwarded address when present.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
