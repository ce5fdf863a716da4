package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/telemetry"
)

func TestInit_None(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Options{Exporter: "none"})
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Stdout(t *testing.T) {
	shutdown, err := telemetry.Init(context.Background(), telemetry.Options{Exporter: "stdout"})
	require.NoError(t, err)
	_, span := telemetry.Tracer().Start(context.Background(), "test")
	span.End()
	assert.NoError(t, shutdown(context.Background()))
}

func TestInit_Unknown(t *testing.T) {
	_, err := telemetry.Init(context.Background(), telemetry.Options{Exporter: "zipkin"})
	assert.Error(t, err)
}
