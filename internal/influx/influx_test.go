package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_Disabled(t *testing.T) {
	viper.Set("influx.enabled", false)
	t.Cleanup(viper.Reset)

	m := NewManager(zerolog.Nop(), filepath.Join(t.TempDir(), "backup.lp.gz"))
	err := m.Connect()
	assert.True(t, errors.Is(err, ErrDisabled))
	assert.False(t, m.Enabled())
}

func TestEnabled_NilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled())
}

func TestWritePoint_NoBackend(t *testing.T) {
	m := NewManager(zerolog.Nop(), "")
	err := m.WritePoint(context.Background(), BucketEvents, influxdb2_write.NewPointWithMeasurement("x"))
	assert.Error(t, err)
}

func TestWritePoint_Backup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backup.lp.gz")
	m := NewManager(zerolog.Nop(), path)
	require.NoError(t, m.OpenBackup())
	// opening twice keeps the same writer
	w := m.BackupWriter
	require.NoError(t, m.OpenBackup())
	assert.Same(t, w, m.BackupWriter)
	assert.True(t, m.Enabled())

	at := time.Unix(1700000000, 0)
	p := OperationPoint("s1", "move", "a", 2, 1, 1500*time.Microsecond, at)
	require.NoError(t, m.WritePoint(context.Background(), BucketEvents, p))
	require.NoError(t, m.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	assert.True(t, strings.HasPrefix(line, MeasurementOperation+","), line)
	assert.Contains(t, line, "kind=move")
	assert.Contains(t, line, "entity=a")
	assert.Contains(t, line, "gained=2i")
	assert.Contains(t, line, "duration_us=1500i")
}

func TestProcessMetricData(t *testing.T) {
	bucket, p, err := ProcessMetricData([]string{
		`"aoi_events"`,
		`"custom"`,
		`"tag::driver::sim"`,
		`"field::int::count::3"`,
		`"field::float::ratio::0.5"`,
		`"field::string::note::hi"`,
		`"ignored"`,
	})
	require.NoError(t, err)
	assert.Equal(t, "aoi_events", bucket)
	assert.Equal(t, "custom", p.Name())

	line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
	assert.Contains(t, line, "driver=sim")
	assert.Contains(t, line, "count=3i")
	assert.Contains(t, line, "ratio=0.5")
	assert.Contains(t, line, `note="hi"`)
}

func TestProcessMetricData_Errors(t *testing.T) {
	_, _, err := ProcessMetricData([]string{"only"})
	assert.Error(t, err)

	_, _, err = ProcessMetricData([]string{"b", "m", "field::int::n::abc"})
	assert.Error(t, err)

	_, _, err = ProcessMetricData([]string{"b", "m", "field::float::n::abc"})
	assert.Error(t, err)
}
