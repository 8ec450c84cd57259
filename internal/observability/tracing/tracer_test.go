package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(context.Background(), Config{Enabled: false, ServiceName: "digimall"})
	require.NoError(t, err)
	assert.False(t, tracer.Enabled())

	ctx, span := tracer.Start(context.Background(), "orders.place")
	assert.NotNil(t, ctx)
	assert.False(t, span.SpanContext().IsSampled())
	span.End()

	assert.NoError(t, tracer.Shutdown(context.Background()))
}

func TestSamplingRatio(t *testing.T) {
	assert.Equal(t, 1.0, SamplingRatio(0))
	assert.Equal(t, 1.0, SamplingRatio(-0.5))
	assert.Equal(t, 1.0, SamplingRatio(3))
	assert.Equal(t, 0.25, SamplingRatio(0.25))
}
