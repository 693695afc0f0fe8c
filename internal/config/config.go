package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults applied when the config file is absent or leaves a key empty
const (
	DefaultLanguage     = "en"
	DefaultOutputDir    = "output"
	DefaultClipDuration = 30
	DefaultYtDlpPath    = "yt-dlp"
	DefaultFfmpegPath   = "ffmpeg"
)

// Config holds all configuration for the application
type Config struct {
	APIKey       string `yaml:"api_key"`
	YtDlpPath    string `yaml:"yt_dlp_path"`
	FfmpegPath   string `yaml:"ffmpeg_path"`
	Language     string `yaml:"language"`
	OutputDir    string `yaml:"output_dir"`
	ClipDuration int    `yaml:"clip_duration"`
}

// NewConfig loads configuration with the following priority:
// Environment variables > Config file > Defaults.
// A missing config file is not an error; defaults apply.
func NewConfig() (*Config, error) {
	config := defaultConfig()
	if err := loadConfigFile(config); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if envKey := os.Getenv("CAPSCRIPT_API_KEY"); envKey != "" {
		config.APIKey = envKey
	} else if envKey := os.Getenv("YOUTUBE_API_KEY"); envKey != "" {
		config.APIKey = envKey
	}

	config.applyDefaults()
	return config, nil
}

func defaultConfig() *Config {
	return &Config{
		YtDlpPath:    DefaultYtDlpPath,
		FfmpegPath:   DefaultFfmpegPath,
		Language:     DefaultLanguage,
		OutputDir:    DefaultOutputDir,
		ClipDuration: DefaultClipDuration,
	}
}

// applyDefaults backfills keys the config file left empty
func (c *Config) applyDefaults() {
	if c.YtDlpPath == "" {
		c.YtDlpPath = DefaultYtDlpPath
	}
	if c.FfmpegPath == "" {
		c.FfmpegPath = DefaultFfmpegPath
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.ClipDuration <= 0 {
		c.ClipDuration = DefaultClipDuration
	}
}

// InitConfig creates a new configuration file, optionally seeded with an
// API key
func InitConfig(apiKey string) error {
	configDir, err := getConfigDir()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	configPath, err := getConfigFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	yamlContent := fmt.Sprintf(`# capscript configuration file
# api_key: YouTube Data API v3 key (or set CAPSCRIPT_API_KEY / YOUTUBE_API_KEY)

api_key: "%s"
yt_dlp_path: "%s"
ffmpeg_path: "%s"
language: "%s"
output_dir: "%s"
clip_duration: %d
`, apiKey, DefaultYtDlpPath, DefaultFfmpegPath, DefaultLanguage, DefaultOutputDir, DefaultClipDuration)

	if err := os.WriteFile(configPath, []byte(yamlContent), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() (string, error) {
	return getConfigFilePath()
}

// getConfigDir returns the configuration directory path (~/.capscript)
func getConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".capscript"), nil
}

// getConfigFilePath returns the full path to the config file
func getConfigFilePath() (string, error) {
	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// loadConfigFile loads configuration from ~/.capscript/config.yaml
func loadConfigFile(config *Config) error {
	configPath, err := getConfigFilePath()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}
