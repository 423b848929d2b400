package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	published []*Feedback
	err       error
}

func (p *recordingPublisher) Publish(_ context.Context, fb *Feedback) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, fb)
	return nil
}

func intPtr(v int) *int { return &v }

var fixedNow = time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

func newTestService(pub Publisher) *Service {
	return NewService(ServiceConfig{
		Publisher: pub,
		Logger:    zerolog.Nop(),
		Now:       func() time.Time { return fixedNow },
	})
}

func TestService_Submit(t *testing.T) {
	pub := &recordingPublisher{}
	svc := newTestService(pub)

	fb, err := svc.Submit(context.Background(), &Input{
		Type:         " route ",
		Message:      "Western line was packed but on time",
		Rating:       intPtr(4),
		Route:        "Churchgate → Dadar",
		RouteDetails: json.RawMessage(`{"duration":18}`),
		UserAgent:    "test-agent",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fb.ID, "feedback_1709281800_"))
	assert.Len(t, fb.ID, len("feedback_1709281800_")+8)
	assert.Equal(t, fixedNow, fb.Timestamp)
	assert.Equal(t, "route", fb.Type)
	assert.Equal(t, 4, fb.Rating)
	assert.JSONEq(t, `{"duration":18}`, string(fb.RouteDetails))

	require.Len(t, pub.published, 1)
	assert.Equal(t, fb, pub.published[0])
}

func TestService_Submit_UniqueIDs(t *testing.T) {
	svc := newTestService(nil)
	in := &Input{Type: "app", Message: "ok", Rating: intPtr(5)}

	a, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)
	b, err := svc.Submit(context.Background(), in)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
}

func TestService_Submit_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  *Input
		fields []string
	}{
		{"nil input", nil, []string{"body"}},
		{"missing everything", &Input{}, []string{"type", "message", "rating"}},
		{"rating too low", &Input{Type: "route", Message: "x", Rating: intPtr(0)}, []string{"rating"}},
		{"rating too high", &Input{Type: "route", Message: "x", Rating: intPtr(6)}, []string{"rating"}},
		{"blank message", &Input{Type: "route", Message: "   ", Rating: intPtr(3)}, []string{"message"}},
		{"long message", &Input{Type: "route", Message: strings.Repeat("a", maxMessageLength+1), Rating: intPtr(3)}, []string{"message"}},
		{"bad email", &Input{Type: "route", Message: "x", Rating: intPtr(3), Email: "nope"}, []string{"email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &recordingPublisher{}
			svc := newTestService(pub)

			_, err := svc.Submit(context.Background(), tt.input)

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			fields := make([]string, len(verr.Errors))
			for i, fe := range verr.Errors {
				fields[i] = fe.Field
			}
			assert.Equal(t, tt.fields, fields)
			assert.Empty(t, pub.published)
		})
	}
}

func TestService_Submit_PublishFailure(t *testing.T) {
	svc := newTestService(&recordingPublisher{err: errors.New("topic not found")})

	_, err := svc.Submit(context.Background(), &Input{Type: "route", Message: "x", Rating: intPtr(2)})
	assert.True(t, errors.Is(err, ErrPublishFailed))
	assert.Contains(t, err.Error(), "topic not found")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Churc...", truncate("Churchgate", 5))
	assert.Equal(t, "ダダ...", truncate("ダダール", 2))
}
