package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitArtisan1/capscript/internal/config"
	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/model"
	"github.com/bitArtisan1/capscript/internal/search"
	"github.com/bitArtisan1/capscript/internal/transcript"
	"github.com/bitArtisan1/capscript/internal/youtube"
)

// searchCmd runs a caption keyword search and writes the match report
var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search video captions for a keyword",
	Long: `Search the caption tracks of a channel's videos, or an explicit list of
videos, for a keyword and save the matches as a timestamped report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}

		searchType, _ := cmd.Flags().GetString("search-type")
		keyword, _ := cmd.Flags().GetString("keyword")
		language, _ := cmd.Flags().GetString("language")
		outputDir, _ := cmd.Flags().GetString("output-dir")
		channelID, _ := cmd.Flags().GetString("channel-id")
		maxResults, _ := cmd.Flags().GetInt64("max-results")
		videoIDs, _ := cmd.Flags().GetString("video-ids")
		matchModeFlag, _ := cmd.Flags().GetString("match-mode")
		apiKey, _ := cmd.Flags().GetString("api-key")

		if apiKey == "" {
			apiKey = cfg.APIKey
		}
		if apiKey == "" {
			return errors.New(errors.CodeInvalidArg,
				"API key is required: set api_key in the config file, CAPSCRIPT_API_KEY, or --api-key")
		}
		if language == "" {
			language = cfg.Language
		}
		if outputDir == "" {
			outputDir = cfg.OutputDir
		}

		matchMode, err := transcript.ParseMatchMode(matchModeFlag)
		if err != nil {
			return err
		}

		req := model.SearchRequest{
			Mode:       model.SearchMode(searchType),
			Keyword:    keyword,
			Language:   language,
			ChannelID:  channelID,
			MaxResults: maxResults,
			VideoIDs:   videoIDs,
			OutputDir:  outputDir,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sink := event.NewWriterSink(os.Stderr, true)

		svc, err := youtube.NewService(ctx, apiKey)
		if err != nil {
			return err
		}
		captions := youtube.NewCaptionClient()
		resolver := youtube.NewResolver(svc, captions, sink)
		enricher := youtube.NewEnricher(svc)
		searcher := transcript.NewSearcher(captions, matchMode)

		coordinator := search.NewCoordinator(resolver, searcher, enricher, sink)
		result, err := coordinator.Run(ctx, req)
		if err != nil {
			return err
		}

		if result.Status == search.StatusCancelled {
			fmt.Println("Search cancelled.")
			return nil
		}
		fmt.Printf("Search finished with %d match(es).\n", result.MatchCount)
		if result.ReportPath != "" {
			fmt.Printf("Report: %s\n", result.ReportPath)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().String("search-type", "channel", "Search mode: 'channel' or 'video'")
	searchCmd.Flags().String("keyword", "", "Keyword to search for (required)")
	searchCmd.Flags().String("language", "", "Caption language code (default from config)")
	searchCmd.Flags().String("output-dir", "", "Directory for the match report (default from config)")
	searchCmd.Flags().String("channel-id", "", "Channel ID to search (channel mode)")
	searchCmd.Flags().Int64("max-results", 10, "Maximum videos to search (channel mode)")
	searchCmd.Flags().String("video-ids", "", "Comma-separated video IDs or a path to a file of IDs (video mode)")
	searchCmd.Flags().String("match-mode", string(transcript.MatchModeSubstring), "Keyword matching: 'substring' or 'word'")
	searchCmd.Flags().String("api-key", "", "YouTube Data API key (overrides config and environment)")
	_ = searchCmd.MarkFlagRequired("keyword")

	rootCmd.AddCommand(searchCmd)
}
