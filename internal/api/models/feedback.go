package models

import "encoding/json"

// FeedbackRequest is the body of POST /v1/feedback. Rating accepts a JSON
// number or a numeric string.
type FeedbackRequest struct {
	Type         string          `json:"type"`
	Message      string          `json:"message"`
	Rating       *json.Number    `json:"rating"`
	Email        string          `json:"email,omitempty"`
	Route        string          `json:"route,omitempty"`
	RouteDetails json.RawMessage `json:"routeDetails,omitempty"`
}

// FeedbackResponse acknowledges accepted feedback.
type FeedbackResponse struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	FeedbackID string `json:"feedback_id"`
}
