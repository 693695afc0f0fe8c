package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "capscript",
	Short: "Search YouTube captions for keywords and cut clips from the matches",
	Long: `capscript searches the caption tracks of YouTube videos for a keyword,
writes a timestamped match report, and can extract and compile video clips
around every match.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env next to the working directory; absence is fine
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
