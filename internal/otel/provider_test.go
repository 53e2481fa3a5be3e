package otel

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNew_Disabled(t *testing.T) {
	p, err := New(Config{Enabled: false})
	require.NoError(t, err)
	assert.False(t, p.Enabled())
	assert.Nil(t, p.LoggerProvider())
	assert.Equal(t, noop.Meter{}, p.Meter("x"))
	assert.NoError(t, p.Flush(context.Background()))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNew_EnabledWithoutExporter(t *testing.T) {
	_, err := New(Config{Enabled: true, ServiceName: "aoi-sim"})
	assert.True(t, errors.Is(err, ErrNoExporter))
}

func TestNew_WithWriter(t *testing.T) {
	var buf bytes.Buffer
	p, err := New(Config{
		Enabled:      true,
		ServiceName:  "aoi-sim",
		BatchTimeout: time.Second,
		LogWriter:    &buf,
	})
	require.NoError(t, err)
	require.NotNil(t, p.LoggerProvider())
	assert.NotNil(t, p.Meter("x"))

	var rec otellog.Record
	rec.SetBody(otellog.StringValue("hello scene"))
	p.LoggerProvider().Logger("test").Emit(context.Background(), rec)

	require.NoError(t, p.Flush(context.Background()))
	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "hello scene")
}

func TestFromConfig(t *testing.T) {
	var buf bytes.Buffer
	c := FromConfig(config.OTelConfig{
		Enabled:      true,
		ServiceName:  "svc",
		BatchTimeout: 2 * time.Second,
		Endpoint:     "localhost:4318",
		Insecure:     true,
	}, &buf)

	assert.True(t, c.Enabled)
	assert.Equal(t, "svc", c.ServiceName)
	assert.Equal(t, 2*time.Second, c.BatchTimeout)
	assert.Equal(t, "localhost:4318", c.Endpoint)
	assert.True(t, c.Insecure)
	assert.Same(t, &buf, c.LogWriter)
}
