package model

// SearchMode selects how candidate videos are collected
type SearchMode string

const (
	SearchModeChannel SearchMode = "channel"
	SearchModeVideo   SearchMode = "video"
)

// SearchRequest holds the parameters for one caption search run
type SearchRequest struct {
	Mode       SearchMode
	Keyword    string
	Language   string // two-letter caption language code
	ChannelID  string // channel mode only
	MaxResults int64  // channel mode only
	VideoIDs   string // video mode: comma-separated IDs or path to a newline-delimited file
	OutputDir  string
}

// CaptionCue is one timed caption entry, verbatim from the caption provider
type CaptionCue struct {
	Start float64 // start time in seconds
	Text  string
}

// VideoMetadata holds display metadata for a video
type VideoMetadata struct {
	Title        string
	ChannelTitle string
	ChannelID    string
	PublishedAt  string
	ViewCount    uint64
}

// MatchRecord is created once per video with at least one matching cue
type MatchRecord struct {
	VideoID string
	Cues    []CaptionCue
	VideoMetadata
}

// ClipTask is one clip to cut from a downloaded video. Derived 1:1 from
// each timestamp in a loaded report; lives only for the extraction run.
type ClipTask struct {
	VideoID      string
	StartSeconds int
	Label        string // HH-MM-SS form used in the clip filename
}
