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
	"github.com/bitArtisan1/capscript/internal/render"
	"github.com/bitArtisan1/capscript/internal/service/common"
)

// renderCmd concatenates extracted clips into one compilation video
var renderCmd = &cobra.Command{
	Use:   "render [CLIPS_DIR] [OUTPUT_FILE]",
	Short: "Compile extracted clips into a single video",
	Long: `Concatenate every clip in a directory, ordered by the start timestamp in
each file name, into one re-encoded compilation video.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		clipsDir := args[0]
		outputPath := args[1]

		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sink := event.NewWriterSink(os.Stderr, true)
		renderer := render.NewRenderer(common.NewCmdRunner(), sink, cfg.FfmpegPath)

		success, message := renderer.Run(ctx, clipsDir, outputPath)
		fmt.Println(message)
		if !success {
			return errors.New(errors.CodeExternal, "render did not complete successfully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(renderCmd)
}
