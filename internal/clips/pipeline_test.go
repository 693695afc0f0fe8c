package clips

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/report"
	"github.com/bitArtisan1/capscript/internal/service/common"
)

// fakeProcess completes immediately with a canned exit error
type fakeProcess struct {
	waitErr error
}

func (p *fakeProcess) Wait() error      { return p.waitErr }
func (p *fakeProcess) Terminate() error { return nil }
func (p *fakeProcess) Kill() error      { return nil }
func (p *fakeProcess) Pid() int         { return 4242 }

// fakeRunner records every started command and can fail selected ones
type fakeRunner struct {
	mu       sync.Mutex
	commands [][]string
	failOn   func(name string, args []string) error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return nil, nil
}

func (f *fakeRunner) Start(ctx context.Context, onLine common.LineHandler, name string, args ...string) (common.Process, error) {
	f.mu.Lock()
	f.commands = append(f.commands, append([]string{name}, args...))
	f.mu.Unlock()

	if onLine != nil {
		onLine("tool output line")
	}
	var waitErr error
	if f.failOn != nil {
		waitErr = f.failOn(name, args)
	}
	return &fakeProcess{waitErr: waitErr}, nil
}

func (f *fakeRunner) recorded() [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]string(nil), f.commands...)
}

func hasArg(args []string, want string) bool {
	for _, arg := range args {
		if strings.Contains(arg, want) {
			return true
		}
	}
	return false
}

func testBlocks() []report.Block {
	return []report.Block{
		{
			VideoID: "v1",
			Cues: []report.TimestampRef{
				{Label: "00:00:05", Seconds: 5, Text: "first"},
				{Label: "01:02:05", Seconds: 3725, Text: "second"},
			},
		},
		{Unparseable: true, Raw: "garbage"},
		{
			VideoID: "v2",
			Cues: []report.TimestampRef{
				{Label: "00:00:10", Seconds: 10, Text: "third"},
			},
		},
	}
}

func TestTasksFromBlocks(t *testing.T) {
	tasks := TasksFromBlocks(testBlocks())
	require.Len(t, tasks, 3)

	assert.Equal(t, "v1", tasks[0].VideoID)
	assert.Equal(t, 5, tasks[0].StartSeconds)
	assert.Equal(t, "00-00-05", tasks[0].Label)
	assert.Equal(t, "01-02-05", tasks[1].Label)
	assert.Equal(t, "v2", tasks[2].VideoID)
}

func TestTasksFromBlocksKeepsDuplicates(t *testing.T) {
	blocks := []report.Block{{
		VideoID: "v1",
		Cues: []report.TimestampRef{
			{Label: "00:00:05", Seconds: 5, Text: "a"},
			{Label: "00:00:05", Seconds: 5, Text: "b"},
		},
	}}
	assert.Len(t, TasksFromBlocks(blocks), 2)
}

func TestGroupTasks(t *testing.T) {
	tasks := TasksFromBlocks(testBlocks())
	groups := groupTasks(tasks)
	require.Len(t, groups, 2)

	assert.Equal(t, "v1", groups[0].videoID)
	assert.Len(t, groups[0].tasks, 2)
	assert.Equal(t, "v2", groups[1].videoID)
	assert.Len(t, groups[1].tasks, 1)
}

func TestPipeline_RunSuccess(t *testing.T) {
	runner := &fakeRunner{}
	outputDir := t.TempDir()
	p := NewPipelineWithWorkers(runner, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(context.Background(), testBlocks(), outputDir, 30)

	assert.True(t, success)
	assert.Equal(t, "Finished. Found: 3, Downloaded: 3, Failed: 0.", message)

	// one download per video plus one trim per timestamp
	commands := runner.recorded()
	require.Len(t, commands, 5)

	download := commands[0]
	assert.Equal(t, "yt-dlp", download[0])
	assert.True(t, hasArg(download, "https://youtu.be/v1"))
	assert.True(t, hasArg(download, downloadFormat))
	assert.True(t, hasArg(download, filepath.Join(outputDir, "videos", "v1.mp4")))

	trim := commands[1]
	assert.Equal(t, "ffmpeg", trim[0])
	assert.True(t, hasArg(trim, filepath.Join(outputDir, "clips", "v1_00-00-05-00-00-35.mp4")))
	assert.True(t, hasArg(trim, "libx264"))

	for _, dir := range []string{"videos", "clips"} {
		info, err := os.Stat(filepath.Join(outputDir, dir))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestPipeline_RunDownloadFailureIsolatesVideo(t *testing.T) {
	runner := &fakeRunner{failOn: func(name string, args []string) error {
		if name == "yt-dlp" && hasArg(args, "v1") {
			return assert.AnError
		}
		return nil
	}}
	p := NewPipelineWithWorkers(runner, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(context.Background(), testBlocks(), t.TempDir(), 30)

	// v1's two clips fail, v2's single clip still comes through
	assert.False(t, success)
	assert.Equal(t, "Finished. Found: 3, Downloaded: 1, Failed: 2.", message)
}

func TestPipeline_RunClipFailure(t *testing.T) {
	runner := &fakeRunner{failOn: func(name string, args []string) error {
		if name == "ffmpeg" && hasArg(args, "v2_") {
			return assert.AnError
		}
		return nil
	}}
	p := NewPipelineWithWorkers(runner, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(context.Background(), testBlocks(), t.TempDir(), 30)

	assert.False(t, success)
	assert.Equal(t, "Finished. Found: 3, Downloaded: 2, Failed: 1.", message)
}

func TestPipeline_RunNoTasks(t *testing.T) {
	p := NewPipelineWithWorkers(&fakeRunner{}, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(context.Background(), []report.Block{{Unparseable: true}}, t.TempDir(), 30)

	assert.False(t, success)
	assert.Equal(t, "No clips found", message)
}

func TestPipeline_RunInvalidDuration(t *testing.T) {
	p := NewPipelineWithWorkers(&fakeRunner{}, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(context.Background(), testBlocks(), t.TempDir(), 0)

	assert.False(t, success)
	assert.Equal(t, "Invalid clip duration", message)
}

func TestPipeline_RunCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := &fakeRunner{}
	p := NewPipelineWithWorkers(runner, event.NopSink{}, "yt-dlp", "ffmpeg", 1)

	success, message := p.Run(ctx, testBlocks(), t.TempDir(), 30)

	assert.False(t, success)
	assert.Equal(t, "Cancelled. Found: 3, Downloaded: 0, Failed/Cancelled: 3.", message)
	assert.Empty(t, runner.recorded(), "no subprocess may start after cancellation")
}
