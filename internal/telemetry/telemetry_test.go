package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func TestInit_DisabledUsesGlobalProviders(t *testing.T) {
	ctx := context.Background()

	provider, err := Init(ctx, Config{
		ServiceName:  "yatri-worker",
		Environment:  "test",
		OTLPEndpoint: "localhost:4317",
		SampleRatio:  0.1,
	})
	require.NoError(t, err)

	assert.NotNil(t, provider.Tracer)
	assert.NotNil(t, provider.Meter)
	assert.Nil(t, provider.TracerProvider)
	assert.Nil(t, provider.MeterProvider)

	_, err = provider.Meter.Int64Counter("yatri.worker.warmup.pairs")
	assert.NoError(t, err)

	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, (&Provider{}).Shutdown(ctx))
}

func traceID(lowBits byte) trace.TraceID {
	var id trace.TraceID
	id[0] = 0x01
	for i := 8; i < 16; i++ {
		id[i] = lowBits
	}
	return id
}

func TestSampler_RootSpans(t *testing.T) {
	tests := []struct {
		name    string
		ratio   float64
		id      trace.TraceID
		sampled bool
	}{
		{"unset keeps everything", 0, traceID(0xff), true},
		{"ratio of one keeps everything", 1, traceID(0xff), true},
		{"out of range keeps everything", 2, traceID(0xff), true},
		{"low trace id is kept", 0.25, traceID(0x00), true},
		{"high trace id is dropped", 0.25, traceID(0xff), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := sampler(tt.ratio).ShouldSample(sdktrace.SamplingParameters{
				ParentContext: context.Background(),
				TraceID:       tt.id,
				Name:          "POST /v1/plan",
			})
			assert.Equal(t, tt.sampled, res.Decision == sdktrace.RecordAndSample)
		})
	}
}

func TestSampler_FollowsParent(t *testing.T) {
	s := sampler(0.25)
	id := traceID(0xff)

	for _, flags := range []trace.TraceFlags{trace.FlagsSampled, 0} {
		parent := trace.NewSpanContext(trace.SpanContextConfig{
			TraceID:    id,
			SpanID:     trace.SpanID{1},
			TraceFlags: flags,
			Remote:     true,
		})
		res := s.ShouldSample(sdktrace.SamplingParameters{
			ParentContext: trace.ContextWithRemoteSpanContext(context.Background(), parent),
			TraceID:       id,
			Name:          "planner.query",
		})
		assert.Equal(t, flags.IsSampled(), res.Decision == sdktrace.RecordAndSample)
	}
}

func TestSampler_Description(t *testing.T) {
	assert.Contains(t, sampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, sampler(0).Description(), "AlwaysOnSampler")
}
