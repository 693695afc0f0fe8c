package youtube

import (
	"context"
	"os"
	"regexp"
	"strings"

	ytapi "google.golang.org/api/youtube/v3"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/event"
)

// CaptionProber checks caption-track presence without failing the caller
type CaptionProber interface {
	HasTrack(ctx context.Context, videoID, language string) bool
}

// Resolver turns a channel into an ordered, deduplicated list of candidate
// video IDs that carry captions in the requested language
type Resolver interface {
	ResolveChannelVideos(ctx context.Context, channelID, language string, maxResults int64) ([]string, error)
}

type resolver struct {
	svc    *ytapi.Service
	prober CaptionProber
	sink   event.Sink
}

// NewResolver creates a Resolver backed by the Data API search listing
func NewResolver(svc *ytapi.Service, prober CaptionProber, sink event.Sink) Resolver {
	return &resolver{svc: svc, prober: prober, sink: sink}
}

// ResolveChannelVideos pages through the channel's uploads newest first,
// keeping only videos with a caption track in the requested language, until
// maxResults qualify or the listing is exhausted. A transport error aborts
// pagination but returns the videos collected so far.
func (r *resolver) ResolveChannelVideos(ctx context.Context, channelID, language string, maxResults int64) ([]string, error) {
	if channelID == "" {
		return nil, errors.New(errors.CodeInvalidArg, "channel ID is required")
	}
	if maxResults <= 0 {
		return nil, errors.New(errors.CodeInvalidArg, "max results must be a positive integer")
	}

	event.Logf(r.sink, event.LevelInfo,
		"Fetching up to %d videos with '%s' captions for channel %s...", maxResults, language, channelID)

	pageSize := maxResults * 2
	if pageSize > 50 {
		pageSize = 50
	}

	var collected []string
	seen := make(map[string]bool)
	pageToken := ""

	for int64(len(collected)) < maxResults {
		if err := ctx.Err(); err != nil {
			break
		}

		call := r.svc.Search.List([]string{"id"}).
			ChannelId(channelID).
			Type("video").
			Order("date").
			MaxResults(pageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			event.Logf(r.sink, event.LevelWarn, "Channel listing aborted: %v", err)
			break
		}

		if len(resp.Items) == 0 && pageToken == "" {
			break
		}

		for _, item := range resp.Items {
			if item.Id == nil || item.Id.VideoId == "" {
				continue
			}
			videoID := item.Id.VideoId
			if seen[videoID] {
				continue
			}
			seen[videoID] = true

			if !r.prober.HasTrack(ctx, videoID, language) {
				continue
			}
			collected = append(collected, videoID)
			event.Logf(r.sink, event.LevelDebug,
				"Found video with captions: %s (%d/%d)", videoID, len(collected), maxResults)
			if int64(len(collected)) >= maxResults {
				break
			}
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			event.Logf(r.sink, event.LevelDebug, "Reached end of channel videos.")
			break
		}
	}

	if len(collected) == 0 {
		event.Logf(r.sink, event.LevelWarn,
			"No videos found with captions in the selected language (%s).", language)
	} else {
		event.Logf(r.sink, event.LevelInfo, "Collected %d video IDs with captions.", len(collected))
	}
	return collected, nil
}

// ParseVideoIDs interprets video-list input as either a path to a
// newline-delimited file of IDs or a literal comma-separated list. Empty
// entries are dropped and order is preserved.
func ParseVideoIDs(input string) ([]string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, errors.New(errors.CodeInvalidArg, "no video IDs provided")
	}

	if info, err := os.Stat(trimmed); err == nil && !info.IsDir() {
		data, err := os.ReadFile(trimmed)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidArg, "failed to read video ID file")
		}
		var ids []string
		for _, line := range strings.Split(string(data), "\n") {
			if id := strings.TrimSpace(line); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return nil, errors.New(errors.CodeInvalidArg, "video ID file contains no IDs")
		}
		return ids, nil
	}

	var ids []string
	for _, part := range strings.Split(trimmed, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, errors.New(errors.CodeInvalidArg,
			"invalid video IDs: provide comma-separated IDs or a valid file path")
	}
	return ids, nil
}

var watchURLRegexes = []*regexp.Regexp{
	regexp.MustCompile(`[?&]v=([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`youtu\.be/([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`/shorts/([A-Za-z0-9_-]{6,})`),
	regexp.MustCompile(`/embed/([A-Za-z0-9_-]{6,})`),
}

// ExtractVideoID pulls the video ID out of a watch, share, shorts or embed
// URL. Returns an empty string when no ID is recognizable.
func ExtractVideoID(rawURL string) string {
	for _, re := range watchURLRegexes {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}
