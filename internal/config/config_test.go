package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "gavofyork/graypaper", cfg.Paper.Repo)
		assert.Equal(t, "v0.4.0", cfg.Paper.MinVersion)
		assert.Equal(t, "./paper_metadata", cfg.Cache.Dir)
		assert.Contains(t, cfg.Scan.Ignore, ".git")
	})

	t.Run("yaml overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "jambiato.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"paper:\n  repo: someone/fork\ncache:\n  dir: /tmp/meta\n"), 0o644))

		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, "someone/fork", cfg.Paper.Repo)
		assert.Equal(t, "/tmp/meta", cfg.Cache.Dir)
		assert.Equal(t, "v0.4.0", cfg.Paper.MinVersion, "untouched keys keep defaults")
	})

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv("JAMBIATO_REPO", "env/repo")
		t.Setenv("JAMBIATO_CACHE_DIR", "/env/cache")

		cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, "env/repo", cfg.Paper.Repo)
		assert.Equal(t, "/env/cache", cfg.Cache.Dir)
	})
}
