package search

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
	"github.com/bitArtisan1/capscript/internal/model"
	"github.com/bitArtisan1/capscript/internal/report"
	"github.com/bitArtisan1/capscript/internal/transcript"
	"github.com/bitArtisan1/capscript/internal/youtube"
)

// defaultWorkers is the width of the transcript search worker pool
const defaultWorkers = 10

// Status is the terminal state of a search run
type Status string

const (
	StatusFinished  Status = "finished"
	StatusCancelled Status = "cancelled"
)

// Result is the outcome of one search run
type Result struct {
	Status     Status
	MatchCount int
	Blocks     []string
	ReportPath string // empty unless a report file was written
}

// ChannelResolver resolves a channel into candidate video IDs
type ChannelResolver interface {
	ResolveChannelVideos(ctx context.Context, channelID, language string, maxResults int64) ([]string, error)
}

// Coordinator fans transcript matching out over a bounded worker pool,
// aggregates matches and serializes the final report. Cancellation is
// cooperative via the run context: in-flight units complete, no new unit
// starts, and the save phase is skipped.
type Coordinator struct {
	resolver ChannelResolver
	searcher transcript.Searcher
	enricher youtube.Enricher
	sink     event.Sink
	workers  int
}

// NewCoordinator creates a Coordinator with the default pool width
func NewCoordinator(resolver ChannelResolver, searcher transcript.Searcher, enricher youtube.Enricher, sink event.Sink) *Coordinator {
	return NewCoordinatorWithWorkers(resolver, searcher, enricher, sink, defaultWorkers)
}

// NewCoordinatorWithWorkers creates a Coordinator with a custom pool width
// (for testing)
func NewCoordinatorWithWorkers(resolver ChannelResolver, searcher transcript.Searcher, enricher youtube.Enricher, sink event.Sink, workers int) *Coordinator {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Coordinator{
		resolver: resolver,
		searcher: searcher,
		enricher: enricher,
		sink:     sink,
		workers:  workers,
	}
}

// unitResult is the outcome of one video's transcript search
type unitResult struct {
	videoID string
	cues    []model.CaptionCue
	err     error
}

// Run executes one search request end to end: resolve candidates, search
// transcripts concurrently, enrich matches and save the report.
func (c *Coordinator) Run(ctx context.Context, req model.SearchRequest) (*Result, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	startedAt := time.Now()
	result := &Result{Status: StatusFinished}

	if ctx.Err() != nil {
		event.Logf(c.sink, event.LevelWarn, "Run cancelled before resolving.")
		result.Status = StatusCancelled
		return result, nil
	}

	videoIDs, err := c.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(videoIDs) == 0 {
		event.Logf(c.sink, event.LevelWarn, "No videos found to process.")
		return result, nil
	}

	if ctx.Err() != nil {
		event.Logf(c.sink, event.LevelWarn, "Run cancelled before search phase.")
		result.Status = StatusCancelled
		return result, nil
	}

	event.Logf(c.sink, event.LevelInfo,
		"Searching for '%s' in %d video(s) using language '%s'...", req.Keyword, len(videoIDs), req.Language)

	c.searchAll(ctx, req, videoIDs, result)

	if ctx.Err() != nil {
		event.Logf(c.sink, event.LevelWarn, "Skipping save due to cancellation.")
		result.Status = StatusCancelled
		event.Logf(c.sink, event.LevelInfo,
			"Run cancelled after %.2fs. Found %d total matches.", time.Since(startedAt).Seconds(), result.MatchCount)
		return result, nil
	}

	if result.MatchCount == 0 {
		event.Logf(c.sink, event.LevelWarn, "No matches found for the keyword '%s'.", req.Keyword)
	} else {
		path, err := c.save(req, result.Blocks)
		if err != nil {
			return nil, err
		}
		result.ReportPath = path
		event.Logf(c.sink, event.LevelSuccess, "Results saved to: %s", path)
	}

	event.Logf(c.sink, event.LevelInfo,
		"Search finished in %.2fs. Found %d total matches.", time.Since(startedAt).Seconds(), result.MatchCount)
	return result, nil
}

// resolve produces the ordered candidate video ID list for the request
func (c *Coordinator) resolve(ctx context.Context, req model.SearchRequest) ([]string, error) {
	if req.Mode == model.SearchModeChannel {
		return c.resolver.ResolveChannelVideos(ctx, req.ChannelID, req.Language, req.MaxResults)
	}
	ids, err := youtube.ParseVideoIDs(req.VideoIDs)
	if err != nil {
		return nil, err
	}
	event.Logf(c.sink, event.LevelInfo, "Parsed %d video IDs.", len(ids))
	return ids, nil
}

// searchAll fans the transcript search out over the worker pool and drains
// unit results in completion order, keeping matchCount and progress
// consistent at every emission.
func (c *Coordinator) searchAll(ctx context.Context, req model.SearchRequest, videoIDs []string, result *Result) {
	total := len(videoIDs)
	units := make(chan string)
	results := make(chan unitResult)

	var wg sync.WaitGroup
	for i := 0; i < c.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for videoID := range units {
				cues, err := c.searcher.FindMatches(ctx, videoID, req.Language, req.Keyword)
				results <- unitResult{videoID: videoID, cues: cues, err: err}
			}
		}()
	}

	// Feed units until done or stopped; no new unit is dispatched after a
	// stop signal, but in-flight ones are allowed to complete.
	go func() {
		defer close(units)
		for _, videoID := range videoIDs {
			select {
			case units <- videoID:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for unit := range results {
		completed++
		c.handleUnit(ctx, unit, result)
		c.sink.Progress(completed * 100 / total)
	}
}

// handleUnit consumes one completed unit: aggregate matches, enrich
// metadata and append the serialized block. Per-unit errors are logged and
// never abort the batch.
func (c *Coordinator) handleUnit(ctx context.Context, unit unitResult, result *Result) {
	if unit.err != nil {
		event.Logf(c.sink, event.LevelError,
			"Error processing video %s: %v", unit.videoID, unit.err)
		return
	}
	if len(unit.cues) == 0 {
		event.Logf(c.sink, event.LevelDebug, "No matches found in video %s.", unit.videoID)
		return
	}

	result.MatchCount += len(unit.cues)
	event.Logf(c.sink, event.LevelSuccess,
		"Found %d match(es) in video %s.", len(unit.cues), unit.videoID)

	meta, err := c.enricher.FetchDetails(ctx, unit.videoID)
	if err != nil {
		event.Logf(c.sink, event.LevelError,
			"Error fetching details for %s: %v", unit.videoID, err)
		return
	}

	block := report.BuildBlock(model.MatchRecord{
		VideoID:       unit.videoID,
		Cues:          unit.cues,
		VideoMetadata: meta,
	})
	result.Blocks = append(result.Blocks, block)
}

// save writes the report file, named from the sanitized keyword
func (c *Coordinator) save(req model.SearchRequest, blocks []string) (string, error) {
	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to create output directory")
	}
	fileName := fmt.Sprintf("%s_matches.txt", report.SanitizeKeyword(req.Keyword))
	path := filepath.Join(req.OutputDir, fileName)
	if err := os.WriteFile(path, []byte(report.JoinBlocks(blocks)), 0644); err != nil {
		return "", errors.Wrap(err, errors.CodeInternal, "failed to write report file")
	}
	return path, nil
}

func validateRequest(req model.SearchRequest) error {
	if req.Keyword == "" {
		return errors.New(errors.CodeInvalidArg, "keyword is required")
	}
	if req.Language == "" {
		return errors.New(errors.CodeInvalidArg, "caption language is required")
	}
	if req.OutputDir == "" {
		return errors.New(errors.CodeInvalidArg, "output directory is required")
	}
	switch req.Mode {
	case model.SearchModeChannel:
		if req.ChannelID == "" {
			return errors.New(errors.CodeInvalidArg, "channel ID is required for channel search")
		}
		if req.VideoIDs != "" {
			return errors.New(errors.CodeInvalidArg, "video IDs cannot be set for channel search")
		}
		if req.MaxResults <= 0 {
			return errors.New(errors.CodeInvalidArg, "max results must be a positive integer")
		}
	case model.SearchModeVideo:
		if req.VideoIDs == "" {
			return errors.New(errors.CodeInvalidArg, "video IDs are required for video search")
		}
		if req.ChannelID != "" {
			return errors.New(errors.CodeInvalidArg, "channel ID cannot be set for video search")
		}
	default:
		return errors.New(errors.CodeInvalidArg, "search mode must be 'channel' or 'video'")
	}
	return nil
}
