package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/bitArtisan1/capscript/internal/clips"
	"github.com/bitArtisan1/capscript/internal/config"
	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/report"
	"github.com/bitArtisan1/capscript/internal/service/common"
)

// clipsCmd extracts clips for every timestamp in a match report
var clipsCmd = &cobra.Command{
	Use:   "clips [REPORT_FILE]",
	Short: "Extract video clips for every match in a report",
	Long: `Read a saved match report, download each referenced video once, and cut
one fixed-duration clip per matched timestamp.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reportPath := args[0]

		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}

		outputDir, _ := cmd.Flags().GetString("output-dir")
		duration, _ := cmd.Flags().GetInt("duration")

		if outputDir == "" {
			outputDir = cfg.OutputDir
		}
		if duration <= 0 {
			duration = cfg.ClipDuration
		}

		data, err := os.ReadFile(reportPath)
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidArg, "failed to read report file")
		}
		blocks := report.ParseBlocks(string(data))
		if len(blocks) == 0 {
			return errors.New(errors.CodeInvalidArg, "report file contains no match blocks")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sink := event.NewWriterSink(os.Stderr, true)
		pipeline := clips.NewPipeline(common.NewCmdRunner(), sink, cfg.YtDlpPath, cfg.FfmpegPath)

		success, message := pipeline.Run(ctx, blocks, outputDir, duration)
		fmt.Println(message)
		if !success {
			return errors.New(errors.CodeExternal, "clip extraction did not complete successfully")
		}
		return nil
	},
}

func init() {
	clipsCmd.Flags().String("output-dir", "", "Directory for extracted clips (default from config)")
	clipsCmd.Flags().Int("duration", 0, "Clip duration in seconds (default from config)")

	rootCmd.AddCommand(clipsCmd)
}
