package render

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/report"
	"github.com/bitArtisan1/capscript/internal/service/common"
)

const (
	manifestName   = "ffmpeg_filelist.txt"
	terminateGrace = time.Second
)

var (
	startStampRegex = regexp.MustCompile(`_(\d{1,2}-\d{2}-\d{2})`)
	durationRegex   = regexp.MustCompile(`_(\d+)s`)
)

// Renderer concatenates extracted clips into a single compilation video
type Renderer struct {
	runner     common.CmdRunner
	sink       event.Sink
	ffmpegPath string
}

// NewRenderer creates a Renderer executing through the given runner
func NewRenderer(runner common.CmdRunner, sink event.Sink, ffmpegPath string) *Renderer {
	return &Renderer{runner: runner, sink: sink, ffmpegPath: ffmpegPath}
}

// sortKey orders clip files by the start timestamp embedded in the name,
// then by the duration suffix where present. Files without a recognizable
// timestamp sort last, in name order.
func sortKey(name string) (int, int) {
	start := math.MaxInt
	if m := startStampRegex.FindStringSubmatch(name); m != nil {
		if secs, err := report.ParseTimestamp(strings.ReplaceAll(m[1], "-", ":")); err == nil {
			start = secs
		}
	}
	duration := math.MaxInt
	if m := durationRegex.FindStringSubmatch(name); m != nil {
		var secs int
		if _, err := fmt.Sscanf(m[1], "%d", &secs); err == nil {
			duration = secs
		}
	}
	return start, duration
}

// SortClipFiles orders clip file names chronologically by embedded start
// timestamp
func SortClipFiles(names []string) []string {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, di := sortKey(sorted[i])
		sj, dj := sortKey(sorted[j])
		if si != sj {
			return si < sj
		}
		if di != dj {
			return di < dj
		}
		return sorted[i] < sorted[j]
	})
	return sorted
}

// escapeManifestPath quotes a path for an ffmpeg concat list entry
func escapeManifestPath(path string) string {
	return strings.ReplaceAll(path, "'", `'\''`)
}

// NormalizeOutputPath appends the .mp4 extension when the requested output
// name lacks it
func NormalizeOutputPath(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".mp4") {
		return path
	}
	return path + ".mp4"
}

// Run concatenates every .mp4 in clipsDir, in timestamp order, into a
// single re-encoded file at outputPath. Cancellation terminates the encoder
// and removes the partial output.
func (r *Renderer) Run(ctx context.Context, clipsDir, outputPath string) (bool, string) {
	startedAt := time.Now()
	event.Logf(r.sink, event.LevelInfo, "Starting video compilation...")

	entries, err := os.ReadDir(clipsDir)
	if err != nil {
		event.Logf(r.sink, event.LevelError, "Cannot read clips directory: %v", err)
		return false, "Clips directory not found"
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".mp4") {
			names = append(names, entry.Name())
		}
	}
	if len(names) == 0 {
		event.Logf(r.sink, event.LevelWarn, "No clips found in %s.", clipsDir)
		return false, "No clips found"
	}
	names = SortClipFiles(names)

	outputPath = NormalizeOutputPath(outputPath)
	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			event.Logf(r.sink, event.LevelError, "Cannot create output directory: %v", err)
			return false, "Error creating output directory"
		}
	}

	manifestPath := filepath.Join(clipsDir, manifestName)
	if err := r.writeManifest(manifestPath, clipsDir, names); err != nil {
		event.Logf(r.sink, event.LevelError, "Cannot write concat manifest: %v", err)
		return false, "Error writing manifest"
	}
	defer os.Remove(manifestPath)

	event.Logf(r.sink, event.LevelInfo, "Rendering %d clips into %s...", len(names), outputPath)
	r.sink.Progress(10)

	// ffmpeg's own progress is not parsed; tick synthetically toward 90
	// while the encoder runs.
	tickerDone := make(chan struct{})
	go func() {
		pct := 10
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if pct < 90 {
					pct += 5
					r.sink.Progress(pct)
				}
			case <-tickerDone:
				return
			}
		}
	}()
	defer close(tickerDone)

	err = r.encode(ctx, manifestPath, outputPath)

	if ctx.Err() != nil {
		os.Remove(outputPath)
		event.Logf(r.sink, event.LevelWarn, "Compilation cancelled; removed partial output.")
		return false, "Cancelled"
	}
	if err != nil {
		event.Logf(r.sink, event.LevelError, "Compilation failed: %v", err)
		return false, "Render failed"
	}

	r.sink.Progress(100)
	message := fmt.Sprintf("Compilation saved to: %s", outputPath)
	event.Logf(r.sink, event.LevelSuccess, "%s (Total Time: %.2fs)", message, time.Since(startedAt).Seconds())
	return true, message
}

// writeManifest emits the concat demuxer file list, one absolute clip path
// per line
func (r *Renderer) writeManifest(manifestPath, clipsDir string, names []string) error {
	var b strings.Builder
	for _, name := range names {
		abs, err := filepath.Abs(filepath.Join(clipsDir, name))
		if err != nil {
			return err
		}
		fmt.Fprintf(&b, "file '%s'\n", escapeManifestPath(abs))
	}
	return os.WriteFile(manifestPath, []byte(b.String()), 0644)
}

// encode runs the concat re-encode, registering the process so a stop
// request can terminate it gracefully
func (r *Renderer) encode(ctx context.Context, manifestPath, outputPath string) error {
	args := ffmpeg.Input(manifestPath, ffmpeg.KwArgs{"f": "concat", "safe": "0"}).
		Output(outputPath, ffmpeg.KwArgs{
			"c:v":      "libx264",
			"preset":   "medium",
			"crf":      "23",
			"c:a":      "aac",
			"movflags": "+faststart",
			"loglevel": "error",
		}).
		OverWriteOutput().
		GetArgs()

	var outputMu sync.Mutex
	var tail []string
	proc, err := r.runner.Start(ctx, func(line string) {
		event.Logf(r.sink, event.LevelDebug, "[ffmpeg] %s", line)
		outputMu.Lock()
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
		outputMu.Unlock()
	}, r.ffmpegPath, args...)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to start ffmpeg")
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			common.Shutdown(proc, terminateGrace)
		case <-watchDone:
		}
	}()

	waitErr := proc.Wait()
	close(watchDone)

	if waitErr != nil && ctx.Err() == nil {
		outputMu.Lock()
		captured := strings.Join(tail, "\n")
		outputMu.Unlock()
		return errors.Wrap(waitErr, errors.CodeExternal, "ffmpeg concat failed: "+captured)
	}
	return waitErr
}
