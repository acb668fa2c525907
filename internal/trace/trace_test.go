package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestFail(t *testing.T) {
	assert := require.New(t)

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	_, span := tp.Tracer("test").Start(context.Background(), "op")

	errBoom := errors.New("boom")
	err := Fail(span, errBoom)
	span.End()

	assert.Same(errBoom, err)

	spans := recorder.Ended()
	assert.Len(spans, 1)
	assert.Equal(codes.Error, spans[0].Status().Code)
	assert.Equal("boom", spans[0].Status().Description)
	assert.Len(spans[0].Events(), 1)
}

func TestFail_NilError(t *testing.T) {
	_, span := Start(context.Background(), "op")
	defer span.End()

	require.NoError(t, Fail(span, nil))
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()

	tp, err := NewProvider(ctx, ExporterNoop, "github.com/buildkite/unistash", "test")
	require.NoError(t, err)
	require.NoError(t, tp.Shutdown(ctx))

	_, err = NewProvider(ctx, "zipkin", "github.com/buildkite/unistash", "test")
	require.EqualError(t, err, `unknown trace exporter "zipkin"`)
}
