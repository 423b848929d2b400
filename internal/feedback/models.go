// Package feedback accepts rider feedback on planned routes and forwards it
// to a message topic for offline processing.
package feedback

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrPublishFailed is returned when feedback could not be forwarded.
var ErrPublishFailed = errors.New("feedback publish failed")

// Rating bounds.
const (
	MinRating = 1
	MaxRating = 5

	maxMessageLength = 2000
	maxTypeLength    = 50
)

// Input is a feedback submission as received from a client.
type Input struct {
	Type         string
	Message      string
	Rating       *int
	Email        string
	Route        string
	RouteDetails json.RawMessage
	UserAgent    string
	IPAddress    string
}

// Feedback is an accepted feedback record.
type Feedback struct {
	ID           string          `json:"id"`
	Timestamp    time.Time       `json:"timestamp"`
	Type         string          `json:"type"`
	Message      string          `json:"message"`
	Rating       int             `json:"rating"`
	Email        string          `json:"email,omitempty"`
	Route        string          `json:"route,omitempty"`
	RouteDetails json.RawMessage `json:"route_details,omitempty"`
	UserAgent    string          `json:"user_agent,omitempty"`
	IPAddress    string          `json:"ip_address,omitempty"`
}
