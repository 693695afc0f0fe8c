package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitArtisan1/capscript/internal/model"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00:00"},
		{"under a minute", 59, "00:00:59"},
		{"hours minutes seconds", 3725, "01:02:05"},
		{"fraction truncated not rounded", 3599.9, "00:59:59"},
		{"negative clamps to zero", -5, "00:00:00"},
		{"large", 36000 + 600 + 6, "10:10:06"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatTime(tt.seconds))
		})
	}
}

func TestFormatViews(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatViews(1234567))
	assert.Equal(t, "0", FormatViews(0))
	assert.Equal(t, "999", FormatViews(999))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"01:02:05", 3725, false},
		{"02:05", 125, false},
		{"59", 59, false},
		{" 00:00:07 ", 7, false},
		{"abc", 0, true},
		{"1:2:3:4", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimestamp(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeKeyword(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		want    string
	}{
		{"spaces become underscores", "hello world", "hello_world"},
		{"punctuation becomes underscores", "what?!", "what__"},
		{"hyphen and underscore survive", "foo-bar_baz", "foo-bar_baz"},
		{"unicode becomes underscores", "café", "caf_"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeKeyword(tt.keyword))
		})
	}

	t.Run("capped at 50 runes", func(t *testing.T) {
		long := strings.Repeat("a", 80)
		assert.Len(t, SanitizeKeyword(long), 50)
	})
}

func sampleRecord(videoID, title string) model.MatchRecord {
	return model.MatchRecord{
		VideoID: videoID,
		Cues: []model.CaptionCue{
			{Start: 75.9, Text: "first match here"},
			{Start: 3725, Text: "second match"},
		},
		VideoMetadata: model.VideoMetadata{
			Title:        title,
			ChannelTitle: "Some Channel",
			ChannelID:    "UC123",
			PublishedAt:  "2024-01-01T00:00:00Z",
			ViewCount:    1234567,
		},
	}
}

func TestBuildBlock(t *testing.T) {
	block := BuildBlock(sampleRecord("abc123", "A Video"))

	assert.Contains(t, block, "Video Title: A Video\n")
	assert.Contains(t, block, "Video ID: abc123\n")
	assert.Contains(t, block, "Channel Name: Some Channel\n")
	assert.Contains(t, block, "Channel ID: UC123\n")
	assert.Contains(t, block, "Date Uploaded: 2024-01-01T00:00:00Z\n")
	assert.Contains(t, block, "Views: 1,234,567\n")
	assert.Contains(t, block, "╳ 00:01:15 - first match here\n")
	assert.Contains(t, block, "╳ 01:02:05 - second match\n")
	assert.True(t, strings.HasSuffix(block, "\n"+strings.Repeat("═", 40)+"\n\n"))
}

func TestRoundTrip(t *testing.T) {
	blocks := []string{
		BuildBlock(sampleRecord("vid_one-1", "First")),
		BuildBlock(sampleRecord("vid_two-2", "Second")),
	}
	content := JoinBlocks(blocks)

	parsed := ParseBlocks(content)
	require.Len(t, parsed, 2)

	first := parsed[0]
	assert.False(t, first.Unparseable)
	assert.Equal(t, "vid_one-1", first.VideoID)
	assert.Equal(t, "First", first.Title)
	require.Len(t, first.Cues, 2)
	assert.Equal(t, 75, first.Cues[0].Seconds)
	assert.Equal(t, "00:01:15", first.Cues[0].Label)
	assert.Equal(t, "first match here", first.Cues[0].Text)
	assert.Equal(t, 3725, first.Cues[1].Seconds)

	assert.Equal(t, "vid_two-2", parsed[1].VideoID)
}

func TestSplitBlocksDropsEmpty(t *testing.T) {
	content := JoinBlocks([]string{BuildBlock(sampleRecord("abc", "T"))})
	// trailing separator must not yield a phantom empty block
	assert.Len(t, SplitBlocks(content), 1)
	assert.Empty(t, SplitBlocks(""))
}

func TestParseBlockUnparseable(t *testing.T) {
	block := ParseBlock("garbage without any recognizable fields")
	assert.True(t, block.Unparseable)
	assert.Empty(t, block.VideoID)
	assert.Equal(t, "garbage without any recognizable fields", block.Raw)
}

func TestParseBlockSkipsMalformedCueLines(t *testing.T) {
	raw := "Video ID: abc123\nTimestamps:\n╳ 00:00:10 - good\n╳ not-a-time - bad\n"
	block := ParseBlock(raw)
	require.False(t, block.Unparseable)
	require.Len(t, block.Cues, 1)
	assert.Equal(t, 10, block.Cues[0].Seconds)
}
