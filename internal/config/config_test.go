package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "DB_DSN", "AMQP_URL", "SITE_ID"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	require.Equal(t, ModeOffline, cfg.Mode)
	require.Equal(t, ":8080", cfg.HTTPAddr)
	require.Equal(t, "sqlite", cfg.DBDriver)
	require.Equal(t, "local", cfg.SiteID)
	require.Empty(t, cfg.AMQPURL) // publisher disabled by default
	require.NotEmpty(t, cfg.CORSOriginsOffline)
}

func TestLoadLayersFileUnderEnv(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "DB_DSN", "SITE_ID"} {
		t.Setenv(k, "")
	}
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"mode: online\nhttp_addr: \":9000\"\ndb_driver: postgres\nsite_id: campus-7\n"), 0o644))

	// env wins where set, file fills the rest
	t.Setenv("HTTP_ADDR", ":7777")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ModeOnline, cfg.Mode)
	require.Equal(t, ":7777", cfg.HTTPAddr)
	require.Equal(t, "postgres", cfg.DBDriver)
	require.Equal(t, "campus-7", cfg.SiteID)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/no/such/config.yaml")
	require.Error(t, err)
}

func TestEnvBool(t *testing.T) {
	t.Setenv("FLAG", "")
	require.True(t, envBool("FLAG", true))
	t.Setenv("FLAG", "no")
	require.False(t, envBool("FLAG", true))
	t.Setenv("FLAG", "1")
	require.True(t, envBool("FLAG", false))
	t.Setenv("FLAG", "garbage")
	require.False(t, envBool("FLAG", false))
}
