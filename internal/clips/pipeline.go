package clips

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"golang.org/x/sync/errgroup"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/model"
	"github.com/bitArtisan1/capscript/internal/report"
	"github.com/bitArtisan1/capscript/internal/service/common"
)

const (
	// defaultWorkers is the width of the per-video download pool
	defaultWorkers = 4
	// terminateGrace is how long a terminated subprocess gets before Kill
	terminateGrace = time.Second
	// downloadFormat caps quality by codec preference, matching what the
	// clip stage has always requested from yt-dlp
	downloadFormat = "bestvideo[vcodec^=avc1]+bestaudio[ext=m4a]/bestvideo[ext=mp4][vcodec^=avc1]+bestaudio/best[ext=mp4]/best"
)

// Summary counts the outcome of one extraction run
type Summary struct {
	Found      int
	Downloaded int
	Failed     int
}

// Pipeline downloads each matched video once and cuts one clip per
// timestamp from the downloaded copy. Downloads run on a bounded pool
// keyed by video so all clips of a video share one download.
type Pipeline struct {
	runner     common.CmdRunner
	sink       event.Sink
	ytdlpPath  string
	ffmpegPath string
	workers    int

	mu     sync.Mutex
	active map[string]common.Process
}

// NewPipeline creates a Pipeline with the default pool width
func NewPipeline(runner common.CmdRunner, sink event.Sink, ytdlpPath, ffmpegPath string) *Pipeline {
	return NewPipelineWithWorkers(runner, sink, ytdlpPath, ffmpegPath, defaultWorkers)
}

// NewPipelineWithWorkers creates a Pipeline with a custom pool width
// (for testing)
func NewPipelineWithWorkers(runner common.CmdRunner, sink event.Sink, ytdlpPath, ffmpegPath string, workers int) *Pipeline {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Pipeline{
		runner:     runner,
		sink:       sink,
		ytdlpPath:  ytdlpPath,
		ffmpegPath: ffmpegPath,
		workers:    workers,
		active:     make(map[string]common.Process),
	}
}

// TasksFromBlocks derives one ClipTask per timestamp occurrence in the
// parsed report blocks. Nothing is deduplicated: a repeated timestamp
// yields a repeated task. Unparseable blocks are skipped.
func TasksFromBlocks(blocks []report.Block) []model.ClipTask {
	var tasks []model.ClipTask
	for _, block := range blocks {
		if block.Unparseable {
			continue
		}
		for _, cue := range block.Cues {
			tasks = append(tasks, model.ClipTask{
				VideoID:      block.VideoID,
				StartSeconds: cue.Seconds,
				Label:        strings.ReplaceAll(report.FormatTime(float64(cue.Seconds)), ":", "-"),
			})
		}
	}
	return tasks
}

// videoGroup is all clip tasks sharing one source video download
type videoGroup struct {
	videoID string
	tasks   []model.ClipTask
}

func groupTasks(tasks []model.ClipTask) []videoGroup {
	index := make(map[string]int)
	var groups []videoGroup
	for _, task := range tasks {
		i, ok := index[task.VideoID]
		if !ok {
			i = len(groups)
			index[task.VideoID] = i
			groups = append(groups, videoGroup{videoID: task.VideoID})
		}
		groups[i].tasks = append(groups[i].tasks, task)
	}
	return groups
}

// Run extracts all clips referenced by the report blocks. The run succeeds
// only if every requested clip was produced; partial completion is reported
// as failure with a counts summary.
func (p *Pipeline) Run(ctx context.Context, blocks []report.Block, outputDir string, clipDuration int) (bool, string) {
	startedAt := time.Now()
	event.Logf(p.sink, event.LevelInfo, "Clip extraction started.")

	if clipDuration <= 0 {
		event.Logf(p.sink, event.LevelError, "Clip duration must be positive.")
		return false, "Invalid clip duration"
	}

	videosDir := filepath.Join(outputDir, "videos")
	clipsDir := filepath.Join(outputDir, "clips")
	for _, dir := range []string{outputDir, videosDir, clipsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			event.Logf(p.sink, event.LevelError, "Cannot create output directories: %v", err)
			return false, "Error creating directories"
		}
	}

	tasks := TasksFromBlocks(blocks)
	summary := Summary{Found: len(tasks)}
	if summary.Found == 0 {
		event.Logf(p.sink, event.LevelWarn, "No valid timestamp entries found in report.")
		return false, "No clips found"
	}

	groups := groupTasks(tasks)
	event.Logf(p.sink, event.LevelInfo,
		"Found %d clips from %d unique video(s). Starting up to %d parallel downloads...",
		summary.Found, len(groups), p.workers)

	// Terminate registered subprocesses as soon as a stop is requested.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			p.terminateActive()
		case <-watchDone:
		}
	}()

	var counterMu sync.Mutex
	pool := new(errgroup.Group)
	pool.SetLimit(p.workers)
	for _, group := range groups {
		group := group
		pool.Go(func() error {
			if ctx.Err() != nil {
				counterMu.Lock()
				summary.Failed += len(group.tasks)
				counterMu.Unlock()
				event.Logf(p.sink, event.LevelWarn,
					"Cancelled %d pending clip task(s) for %s.", len(group.tasks), group.videoID)
				return nil
			}

			clipped, err := p.processVideo(ctx, group, videosDir, clipsDir, clipDuration)
			counterMu.Lock()
			summary.Downloaded += clipped
			if err != nil {
				summary.Failed += len(group.tasks) - clipped
			}
			counterMu.Unlock()

			if err != nil {
				if errors.IsCancelled(err) {
					event.Logf(p.sink, event.LevelWarn, "Processing of %s cancelled.", group.videoID)
				} else {
					event.Logf(p.sink, event.LevelError,
						"Error processing %s (failed %d clips): %v", group.videoID, len(group.tasks)-clipped, err)
				}
			} else {
				event.Logf(p.sink, event.LevelSuccess, "Completed %d clips for %s", clipped, group.videoID)
			}
			return nil
		})
	}
	_ = pool.Wait()

	cancelled := ctx.Err() != nil
	if cancelled {
		summary.Failed = summary.Found - summary.Downloaded
	}

	var success bool
	var message string
	if cancelled {
		message = fmt.Sprintf("Cancelled. Found: %d, Downloaded: %d, Failed/Cancelled: %d.",
			summary.Found, summary.Downloaded, summary.Failed)
	} else {
		success = summary.Failed == 0 && summary.Downloaded >= summary.Found
		message = fmt.Sprintf("Finished. Found: %d, Downloaded: %d, Failed: %d.",
			summary.Found, summary.Downloaded, summary.Failed)
	}

	level := event.LevelWarn
	if success {
		level = event.LevelSuccess
	}
	event.Logf(p.sink, level, "%s (Total Time: %.2fs)", message, time.Since(startedAt).Seconds())
	return success, message
}

// processVideo downloads one video and cuts every requested clip from the
// single downloaded copy, then removes the download.
func (p *Pipeline) processVideo(ctx context.Context, group videoGroup, videosDir, clipsDir string, clipDuration int) (int, error) {
	videoPath := filepath.Join(videosDir, group.videoID+".mp4")
	videoURL := "https://youtu.be/" + group.videoID

	event.Logf(p.sink, event.LevelInfo, "Downloading %s", group.videoID)
	args := []string{
		videoURL,
		"-f", downloadFormat,
		"--merge-output-format", "mp4",
		"-o", videoPath,
		"--no-warnings",
	}
	if err := p.runTool(ctx, group.videoID, "yt-dlp", p.ytdlpPath, args); err != nil {
		return 0, err
	}

	clipped := 0
	for _, task := range group.tasks {
		if ctx.Err() != nil {
			break
		}
		endLabel := strings.ReplaceAll(report.FormatTime(float64(task.StartSeconds+clipDuration)), ":", "-")
		outFile := filepath.Join(clipsDir,
			fmt.Sprintf("%s_%s-%s.mp4", group.videoID, task.Label, endLabel))

		event.Logf(p.sink, event.LevelInfo,
			"Clipping %s %s for %ds", group.videoID, task.Label, clipDuration)

		clipArgs := ffmpeg.Input(videoPath, ffmpeg.KwArgs{"ss": strconv.Itoa(task.StartSeconds)}).
			Output(outFile, ffmpeg.KwArgs{
				"t":        strconv.Itoa(clipDuration),
				"c:v":      "libx264",
				"preset":   "ultrafast",
				"crf":      "23",
				"c:a":      "aac",
				"b:a":      "128k",
				"loglevel": "error",
			}).
			OverWriteOutput().
			GetArgs()
		if err := p.runTool(ctx, group.videoID, "ffmpeg", p.ffmpegPath, clipArgs); err != nil {
			p.removeTemp(videoPath)
			return clipped, err
		}
		event.Logf(p.sink, event.LevelSuccess, "Saved clip: %s", filepath.Base(outFile))
		clipped++
	}

	p.removeTemp(videoPath)

	if ctx.Err() != nil {
		return clipped, errors.New(errors.CodeCancelled, "clip extraction stopped")
	}
	return clipped, nil
}

// runTool starts an external tool, registers its process for cancellation
// and waits for it to finish. Non-zero exits become tool errors carrying
// the tail of the captured output.
func (p *Pipeline) runTool(ctx context.Context, videoID, tool, path string, args []string) error {
	if ctx.Err() != nil {
		return errors.New(errors.CodeCancelled, tool+" not started: run was stopped")
	}

	var outputMu sync.Mutex
	var tail []string
	proc, err := p.runner.Start(ctx, func(line string) {
		event.Logf(p.sink, event.LevelDebug, "[%s] %s", tool, line)
		outputMu.Lock()
		tail = append(tail, line)
		if len(tail) > 20 {
			tail = tail[1:]
		}
		outputMu.Unlock()
	}, path, args...)
	if err != nil {
		return errors.Wrap(err, errors.CodeExternal, "failed to start "+tool)
	}

	p.register(videoID, proc)
	waitErr := proc.Wait()
	p.unregister(videoID)

	if ctx.Err() != nil {
		return errors.New(errors.CodeCancelled, tool+" interrupted: run was stopped")
	}
	if waitErr != nil {
		outputMu.Lock()
		captured := strings.Join(tail, "\n")
		outputMu.Unlock()
		return errors.Wrap(waitErr, errors.CodeExternal,
			fmt.Sprintf("%s failed for %s: %s", tool, videoID, captured))
	}
	return nil
}

func (p *Pipeline) register(videoID string, proc common.Process) {
	p.mu.Lock()
	p.active[videoID] = proc
	p.mu.Unlock()
}

func (p *Pipeline) unregister(videoID string) {
	p.mu.Lock()
	delete(p.active, videoID)
	p.mu.Unlock()
}

// terminateActive signals every registered subprocess to stop, escalating
// to a forceful kill after the grace period.
func (p *Pipeline) terminateActive() {
	p.mu.Lock()
	procs := make([]common.Process, 0, len(p.active))
	for _, proc := range p.active {
		procs = append(procs, proc)
	}
	p.active = make(map[string]common.Process)
	p.mu.Unlock()

	if len(procs) == 0 {
		return
	}
	event.Logf(p.sink, event.LevelWarn, "Terminating %d active process(es)...", len(procs))
	var wg sync.WaitGroup
	for _, proc := range procs {
		proc := proc
		wg.Add(1)
		go func() {
			defer wg.Done()
			common.Shutdown(proc, terminateGrace)
		}()
	}
	wg.Wait()
}

// removeTemp deletes the whole-video temporary download
func (p *Pipeline) removeTemp(videoPath string) {
	if _, err := os.Stat(videoPath); err != nil {
		return
	}
	if err := os.Remove(videoPath); err != nil {
		event.Logf(p.sink, event.LevelWarn, "Could not remove temp video %s: %v", videoPath, err)
		return
	}
	event.Logf(p.sink, event.LevelDebug, "Removed temporary video: %s", filepath.Base(videoPath))
}
