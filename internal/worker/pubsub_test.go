package worker

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yatri/yatri/internal/itinerary"
	"github.com/yatri/yatri/internal/planner"
)

type fixedResolver struct{}

func (fixedResolver) Resolve(string) (itinerary.Coordinate, error) {
	return itinerary.Coordinate{Lat: 19.0178, Lon: 72.8478}, nil
}

type plannerFunc func(context.Context, planner.Request) (*planner.Response, error)

func (f plannerFunc) Plan(ctx context.Context, req planner.Request) (*planner.Response, error) {
	return f(ctx, req)
}

func newTestHandler(t *testing.T, p Planner) *PubSubHandler {
	t.Helper()
	job, err := NewWarmupJob(WarmupJobConfig{
		Config:   WarmupConfig{Pairs: []Pair{{Origin: "Dadar", Destination: "Bandra"}}},
		Planner:  p,
		Resolver: fixedResolver{},
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)
	return &PubSubHandler{warmup: job, logger: zerolog.Nop()}
}

func TestPubSubHandler_Process(t *testing.T) {
	ok := plannerFunc(func(context.Context, planner.Request) (*planner.Response, error) {
		return &planner.Response{}, nil
	})
	down := plannerFunc(func(context.Context, planner.Request) (*planner.Response, error) {
		return nil, planner.ErrProviderUnavailable
	})

	tests := []struct {
		name    string
		planner Planner
		data    string
		wantAck bool
	}{
		{"warmup", ok, `{"job_type":"plan_warmup"}`, true},
		{"warmup with pairs", ok, `{"job_type":"plan_warmup","pairs":[{"origin":"Kurla","destination":"Thane"}]}`, true},
		{"warmup failing", down, `{"job_type":"plan_warmup"}`, false},
		{"health check", ok, `{"job_type":"health_check"}`, true},
		{"health check failing", down, `{"job_type":"health_check"}`, false},
		{"unknown job", down, `{"job_type":"alert_evaluation"}`, true},
		{"malformed", down, `{"job_type":`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.planner)
			assert.Equal(t, tt.wantAck, h.process(context.Background(), zerolog.Nop(), []byte(tt.data)))
		})
	}
}

func TestPubSubHandler_WarmupUsesMessagePairs(t *testing.T) {
	var calls int
	h := newTestHandler(t, plannerFunc(func(context.Context, planner.Request) (*planner.Response, error) {
		calls++
		return &planner.Response{}, nil
	}))

	ack := h.process(context.Background(), zerolog.Nop(), []byte(`{"job_type":"plan_warmup","pairs":[
		{"origin":"Kurla","destination":"Thane"},
		{"origin":"Thane","destination":"Kurla"}
	]}`))

	assert.True(t, ack)
	assert.Equal(t, 2, calls)
	assert.Equal(t, int64(2), h.warmup.GetMetrics().Successful)
}
