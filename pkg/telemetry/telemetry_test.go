package telemetry

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestInitDisabledIsNoop(t *testing.T) {
	t.Parallel()

	shutdown, err := Init(context.Background(), Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}

func TestStdoutExporterWritesSpans(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	exp, err := buildExporter(context.Background(), Config{Stdout: true}, &buf)
	require.NoError(t, err)
	require.NotNil(t, exp)

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exp),
		sdktrace.WithResource(newResource(Config{ServiceName: "test-svc"})),
	)
	_, span := tp.Tracer("test").Start(context.Background(), "tool.invoke")
	span.End()
	require.NoError(t, tp.Shutdown(context.Background()))

	assert.Contains(t, buf.String(), "tool.invoke")
	assert.Contains(t, buf.String(), "test-svc")
}

func TestBuildExporterWithoutTargetReturnsNil(t *testing.T) {
	t.Parallel()

	exp, err := buildExporter(context.Background(), Config{}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Nil(t, exp)
}

func TestClampRatio(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, clampRatio(-1))
	assert.Equal(t, 1.0, clampRatio(3))
	assert.Equal(t, 0.25, clampRatio(0.25))
}
