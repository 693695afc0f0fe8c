package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate the config directory from the developer's real home
func setTestHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("CAPSCRIPT_API_KEY", "")
	t.Setenv("YOUTUBE_API_KEY", "")
	return home
}

func TestNewConfig_DefaultsWhenFileMissing(t *testing.T) {
	setTestHome(t)

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, DefaultYtDlpPath, cfg.YtDlpPath)
	assert.Equal(t, DefaultFfmpegPath, cfg.FfmpegPath)
	assert.Equal(t, DefaultLanguage, cfg.Language)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultClipDuration, cfg.ClipDuration)
}

func TestNewConfig_LoadsFile(t *testing.T) {
	home := setTestHome(t)

	configDir := filepath.Join(home, ".capscript")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	content := `api_key: "file-key"
language: "ja"
output_dir: "/tmp/out"
clip_duration: 45
`
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(content), 0600))

	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, "ja", cfg.Language)
	assert.Equal(t, "/tmp/out", cfg.OutputDir)
	assert.Equal(t, 45, cfg.ClipDuration)
	// keys the file omits fall back to defaults
	assert.Equal(t, DefaultYtDlpPath, cfg.YtDlpPath)
}

func TestNewConfig_EnvOverridesFile(t *testing.T) {
	home := setTestHome(t)

	configDir := filepath.Join(home, ".capscript")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte(`api_key: "file-key"`), 0600))

	t.Setenv("YOUTUBE_API_KEY", "fallback-key")
	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "fallback-key", cfg.APIKey)

	t.Setenv("CAPSCRIPT_API_KEY", "primary-key")
	cfg, err = NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "primary-key", cfg.APIKey)
}

func TestNewConfig_InvalidYAML(t *testing.T) {
	home := setTestHome(t)

	configDir := filepath.Join(home, ".capscript")
	require.NoError(t, os.MkdirAll(configDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(configDir, "config.yaml"), []byte("api_key: [unclosed"), 0600))

	_, err := NewConfig()
	assert.Error(t, err)
}

func TestInitConfig(t *testing.T) {
	home := setTestHome(t)

	require.NoError(t, InitConfig("seed-key"))

	configPath := filepath.Join(home, ".capscript", "config.yaml")
	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), `api_key: "seed-key"`)

	cfg, err := NewConfig()
	require.NoError(t, err)
	assert.Equal(t, "seed-key", cfg.APIKey)
	assert.Equal(t, DefaultClipDuration, cfg.ClipDuration)

	// a second init must not clobber an existing file
	err = InitConfig("other")
	assert.ErrorContains(t, err, "already exists")
}

func TestGetConfigPath(t *testing.T) {
	home := setTestHome(t)

	path, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".capscript", "config.yaml"), path)
}
