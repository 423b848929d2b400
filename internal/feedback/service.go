package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yatri/yatri/internal/api/models"
)

// Publisher forwards accepted feedback.
type Publisher interface {
	Publish(ctx context.Context, fb *Feedback) error
}

// ServiceConfig holds configuration for the feedback service.
type ServiceConfig struct {
	// Publisher forwards feedback (optional). Without one, feedback is
	// only logged.
	Publisher Publisher

	// Logger for service operations.
	Logger zerolog.Logger

	// Now returns the current time (optional, for testing).
	Now func() time.Time
}

// Service validates and records feedback.
type Service struct {
	publisher Publisher
	logger    zerolog.Logger
	now       func() time.Time
}

// NewService creates a new feedback service.
func NewService(cfg ServiceConfig) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		publisher: cfg.Publisher,
		logger:    cfg.Logger.With().Str("component", "feedback").Logger(),
		now:       now,
	}
}

// Submit validates input, assigns an ID and forwards the feedback.
func (s *Service) Submit(ctx context.Context, input *Input) (*Feedback, error) {
	if fieldErrors := validate(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := s.now().UTC()
	fb := &Feedback{
		ID:           newID(now),
		Timestamp:    now,
		Type:         strings.TrimSpace(input.Type),
		Message:      strings.TrimSpace(input.Message),
		Rating:       *input.Rating,
		Email:        strings.TrimSpace(input.Email),
		Route:        input.Route,
		RouteDetails: input.RouteDetails,
		UserAgent:    input.UserAgent,
		IPAddress:    input.IPAddress,
	}

	s.logger.Info().
		Str("feedback_id", fb.ID).
		Str("type", fb.Type).
		Int("rating", fb.Rating).
		Str("route", fb.Route).
		Str("message", truncate(fb.Message, 100)).
		Bool("has_email", fb.Email != "").
		Msg("feedback received")

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, fb); err != nil {
			s.logger.Error().Err(err).Str("feedback_id", fb.ID).Msg("failed to publish feedback")
			return nil, fmt.Errorf("%w: %w", ErrPublishFailed, err)
		}
	}

	return fb, nil
}

// newID returns "feedback_<unix seconds>_<random suffix>".
func newID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("feedback_%d_%s", now.Unix(), suffix)
}

func validate(input *Input) []models.FieldError {
	if input == nil {
		return []models.FieldError{{Field: "body", Message: "is required"}}
	}

	var errs []models.FieldError

	typ := strings.TrimSpace(input.Type)
	if typ == "" {
		errs = append(errs, models.FieldError{Field: "type", Message: "is required"})
	} else if utf8.RuneCountInString(typ) > maxTypeLength {
		errs = append(errs, models.FieldError{Field: "type", Message: fmt.Sprintf("must be at most %d characters", maxTypeLength)})
	}

	msg := strings.TrimSpace(input.Message)
	if msg == "" {
		errs = append(errs, models.FieldError{Field: "message", Message: "is required"})
	} else if utf8.RuneCountInString(msg) > maxMessageLength {
		errs = append(errs, models.FieldError{Field: "message", Message: fmt.Sprintf("must be at most %d characters", maxMessageLength)})
	}

	switch {
	case input.Rating == nil:
		errs = append(errs, models.FieldError{Field: "rating", Message: "is required"})
	case *input.Rating < MinRating || *input.Rating > MaxRating:
		errs = append(errs, models.FieldError{Field: "rating", Message: fmt.Sprintf("must be between %d and %d", MinRating, MaxRating)})
	}

	if email := strings.TrimSpace(input.Email); email != "" && !strings.Contains(email, "@") {
		errs = append(errs, models.FieldError{Field: "email", Message: "must be a valid email address"})
	}

	return errs
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

// ValidationError represents validation errors.
type ValidationError struct {
	Errors []models.FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
