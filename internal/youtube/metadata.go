package youtube

import (
	"context"
	"strings"

	ytapi "google.golang.org/api/youtube/v3"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/model"
)

// Sentinel values used when the provider response is missing a video or
// one of its fields
const (
	UnknownTitle     = "Unknown Title"
	UnknownChannel   = "Unknown Channel"
	UnknownChannelID = "Unknown Channel ID"
	UnknownDate      = "Unknown Date"
)

// metadataBatchSize is the Data API limit on IDs per videos.list call
const metadataBatchSize = 50

// Enricher fetches display metadata for videos. Enrichment is lazy: callers
// only invoke it once a video is known to have matches.
type Enricher interface {
	// FetchDetails returns metadata for one video. A video absent from the
	// provider response yields the full sentinel tuple, not an error.
	FetchDetails(ctx context.Context, videoID string) (model.VideoMetadata, error)
	// FetchDetailsBatch resolves metadata for many videos, chunking requests
	// to the provider limit and merging results by ID.
	FetchDetailsBatch(ctx context.Context, videoIDs []string) (map[string]model.VideoMetadata, error)
}

type enricher struct {
	svc *ytapi.Service
}

// NewEnricher creates an Enricher backed by the Data API
func NewEnricher(svc *ytapi.Service) Enricher {
	return &enricher{svc: svc}
}

func sentinelMetadata() model.VideoMetadata {
	return model.VideoMetadata{
		Title:        UnknownTitle,
		ChannelTitle: UnknownChannel,
		ChannelID:    UnknownChannelID,
		PublishedAt:  UnknownDate,
		ViewCount:    0,
	}
}

func metadataFromItem(item *ytapi.Video) model.VideoMetadata {
	meta := sentinelMetadata()
	if item.Snippet != nil {
		if item.Snippet.Title != "" {
			meta.Title = item.Snippet.Title
		}
		if item.Snippet.ChannelTitle != "" {
			meta.ChannelTitle = item.Snippet.ChannelTitle
		}
		if item.Snippet.ChannelId != "" {
			meta.ChannelID = item.Snippet.ChannelId
		}
		if item.Snippet.PublishedAt != "" {
			meta.PublishedAt = item.Snippet.PublishedAt
		}
	}
	if item.Statistics != nil {
		meta.ViewCount = item.Statistics.ViewCount
	}
	return meta
}

// FetchDetails fetches title/channel/date/view-count for one video
func (e *enricher) FetchDetails(ctx context.Context, videoID string) (model.VideoMetadata, error) {
	resp, err := e.svc.Videos.List([]string{"snippet", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return model.VideoMetadata{}, errors.Wrap(err, errors.CodeTransport, "failed to fetch video details")
	}
	if len(resp.Items) == 0 {
		return sentinelMetadata(), nil
	}
	return metadataFromItem(resp.Items[0]), nil
}

// FetchDetailsBatch fetches metadata for all IDs in chunks of at most 50,
// merging results by ID. Every requested ID is present in the returned map;
// IDs missing from the provider response map to the sentinel tuple, so
// callers iterating their original list keep ordering and duplicates.
func (e *enricher) FetchDetailsBatch(ctx context.Context, videoIDs []string) (map[string]model.VideoMetadata, error) {
	details := make(map[string]model.VideoMetadata, len(videoIDs))
	if len(videoIDs) == 0 {
		return details, nil
	}

	for _, chunk := range chunkIDs(uniqueIDs(videoIDs), metadataBatchSize) {
		resp, err := e.svc.Videos.List([]string{"snippet", "statistics"}).
			Id(strings.Join(chunk, ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeTransport, "failed to fetch video details batch")
		}
		for _, item := range resp.Items {
			if item.Id != "" {
				details[item.Id] = metadataFromItem(item)
			}
		}
	}

	for _, id := range videoIDs {
		if _, ok := details[id]; !ok {
			details[id] = sentinelMetadata()
		}
	}
	return details, nil
}

// uniqueIDs drops duplicates while preserving first-seen order
func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}
	return unique
}

// chunkIDs splits ids into slices of at most size elements
func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
