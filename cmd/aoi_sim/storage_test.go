package main

import (
	"testing"
	"time"

	"github.com/OCAP2/aoi/internal/config"
	"github.com/OCAP2/aoi/internal/logging"
	"github.com/OCAP2/aoi/internal/storage"
	"github.com/OCAP2/aoi/internal/storage/memory"
	pgstorage "github.com/OCAP2/aoi/internal/storage/postgres"
	sqlitestorage "github.com/OCAP2/aoi/internal/storage/sqlite"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateStorageBackend(t *testing.T) {
	lm := logging.NewSlogManager()
	start := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mem := config.MemoryConfig{OutputDir: t.TempDir()}

	tests := []struct {
		typ   string
		check func(t *testing.T, b storage.Backend)
	}{
		{"memory", func(t *testing.T, b storage.Backend) { assert.IsType(t, &memory.Backend{}, b) }},
		{"", func(t *testing.T, b storage.Backend) { assert.IsType(t, &memory.Backend{}, b) }},
		{"none", func(t *testing.T, b storage.Backend) { assert.IsType(t, &storage.Nop{}, b) }},
		{"postgres", func(t *testing.T, b storage.Backend) { assert.IsType(t, &pgstorage.Backend{}, b) }},
		{"sqlite", func(t *testing.T, b storage.Backend) {
			sb, ok := b.(*sqlitestorage.Backend)
			require.True(t, ok)
			assert.Contains(t, sb.GetExportedFilePath(), "aoi_sim_20240102_030405.db")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			b, err := createStorageBackend(config.StorageConfig{Type: tt.typ, Memory: mem}, lm, zerolog.Nop(), start)
			require.NoError(t, err)
			tt.check(t, b)
		})
	}
}
