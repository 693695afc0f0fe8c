package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bitArtisan1/capscript/internal/config"
	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/youtube"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration settings",
	Long:  `Manage configuration settings for capscript.`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init [API_KEY]",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file, optionally seeded with a YouTube Data API key.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var apiKey string
		if len(args) > 0 {
			apiKey = args[0]
		}

		if err := config.InitConfig(apiKey); err != nil {
			return err
		}

		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Created configuration file: %s\n", configPath)
		if apiKey == "" {
			fmt.Println("Please set api_key in this file, or export CAPSCRIPT_API_KEY.")
		}

		return nil
	},
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the current configuration file path and settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration file: %s\n\n", configPath)

		cfg, err := config.NewConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		fmt.Printf("api_key: %s\n", maskKey(cfg.APIKey))
		fmt.Printf("yt_dlp_path: %s\n", cfg.YtDlpPath)
		fmt.Printf("ffmpeg_path: %s\n", cfg.FfmpegPath)
		fmt.Printf("language: %s\n", cfg.Language)
		fmt.Printf("output_dir: %s\n", cfg.OutputDir)
		fmt.Printf("clip_duration: %d\n", cfg.ClipDuration)

		return nil
	},
}

// configPathCmd prints the configuration file location
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(configPath)
		return nil
	},
}

// configValidateCmd probes the configured API key against the Data API
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configured API key",
	Long:  `Issue a minimal Data API request to verify the configured API key works.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}
		if cfg.APIKey == "" {
			return errors.New(errors.CodeInvalidArg, "no API key configured")
		}

		svc, err := youtube.NewService(cmd.Context(), cfg.APIKey)
		if err != nil {
			return err
		}
		if err := youtube.ValidateKey(cmd.Context(), svc); err != nil {
			return err
		}

		fmt.Println("API key is valid.")
		return nil
	},
}

// maskKey hides all but the last four characters of a credential
func maskKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	if len(key) <= 4 {
		return "****"
	}
	return "****" + key[len(key)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configValidateCmd)
}
