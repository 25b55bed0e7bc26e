package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, DefaultDataSFBaseURL, cfg.DataSFBaseURL)
	assert.Equal(t, 10*time.Second, cfg.DataSFTimeout())
	assert.Equal(t, 15*time.Second, cfg.ListingTimeout())
	assert.Equal(t, "file", cfg.Store.Driver)
	assert.Equal(t, "saved_properties.json", cfg.Store.Path)
	assert.Equal(t, "wgs84", cfg.ZoningProjection)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
listen_addr: ":8080"
datasf_base_url: "http://localhost:9999/resource/"
datasf_timeout_seconds: 3
store:
  driver: sqlite3
zoning_shapefiles:
  - data/zoning.shp
`)
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("ZONING_SHAPEFILES", "a.shp, b.shp")
	t.Setenv("SEQUENTIAL_QUERIES", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.ListenAddr)
	assert.Equal(t, "http://localhost:9999/resource", cfg.DataSFBaseURL)
	assert.Equal(t, 3*time.Second, cfg.DataSFTimeout())
	assert.Equal(t, "saved_properties.db", cfg.Store.Path)
	assert.Equal(t, []string{"a.shp", "b.shp"}, cfg.ZoningShapefiles)
	assert.True(t, cfg.SequentialQueries)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "store:\n  driver: postgres\n"},
		{"mysql without dsn", "store:\n  driver: mysql\n"},
		{"oracle without host", "store:\n  driver: oracle\n  username: admin\n"},
		{"unknown projection", "zoning_projection: mercator\n"},
		{"malformed yaml", "listen_addr: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}
