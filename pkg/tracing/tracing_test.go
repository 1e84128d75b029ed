package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

func restoreGlobals(t *testing.T) {
	t.Helper()
	prevProvider := otel.GetTracerProvider()
	prevPropagator := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevProvider)
		otel.SetTextMapPropagator(prevPropagator)
	})
}

func TestSetup_DisabledStillPropagates(t *testing.T) {
	restoreGlobals(t)

	shutdown, err := Setup(context.Background(), Config{Service: "browse"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.False(t, isSDK)
}

func TestSetup_EnabledInstallsProvider(t *testing.T) {
	restoreGlobals(t)

	// Export is asynchronous, so an unreachable collector does not fail setup.
	shutdown, err := Setup(context.Background(), Config{
		Service:     "browse",
		Version:     "0.1.0",
		Environment: "test",
		Endpoint:    "127.0.0.1:0",
		SampleRate:  1,
		Enabled:     true,
	})
	require.NoError(t, err)

	_, isSDK := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	assert.True(t, isSDK)
	_ = shutdown(context.Background())
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		root string
	}{
		{rate: 1, root: "AlwaysOnSampler"},
		{rate: 3, root: "AlwaysOnSampler"},
		{rate: 0, root: "AlwaysOffSampler"},
		{rate: -0.5, root: "AlwaysOffSampler"},
		{rate: 0.1, root: "TraceIDRatioBased{0.1}"},
	}
	for _, tt := range tests {
		assert.Contains(t, Sampler(tt.rate).Description(), "ParentBased{root:"+tt.root, "rate %v", tt.rate)
	}
}

func TestSampler_FollowsSampledParent(t *testing.T) {
	parent := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{1},
		SpanID:     trace.SpanID{1},
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	ctx := trace.ContextWithRemoteSpanContext(context.Background(), parent)

	res := Sampler(0).ShouldSample(sdktrace.SamplingParameters{
		ParentContext: ctx,
		TraceID:       parent.TraceID(),
		Name:          "GET /sessions/{id}",
	})

	assert.Equal(t, sdktrace.RecordAndSample, res.Decision)
}

func TestPropagator_RoundTrip(t *testing.T) {
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    trace.TraceID{0xab},
		SpanID:     trace.SpanID{0xcd},
		TraceFlags: trace.FlagsSampled,
	})
	carrier := propagation.MapCarrier{}

	Propagator().Inject(trace.ContextWithSpanContext(context.Background(), sc), carrier)
	got := trace.SpanContextFromContext(Propagator().Extract(context.Background(), carrier))

	assert.Equal(t, sc.TraceID(), got.TraceID())
	assert.Equal(t, sc.SpanID(), got.SpanID())
	assert.True(t, got.IsSampled())
}
