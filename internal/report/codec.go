package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/bitArtisan1/capscript/internal/model"
)

// Marker glyphs of the report block format. Each matched cue produces one
// line prefixed with cueMarker; blocks end with a run of separator glyphs
// framed by blank lines.
const (
	cueMarker      = "╳"
	separatorGlyph = "═"
	separatorWidth = 40
)

var (
	blockSeparatorRegex = regexp.MustCompile(`\n\n` + separatorGlyph + `{` + strconv.Itoa(separatorWidth) + `}\n\n?`)
	videoIDRegex        = regexp.MustCompile(`(?m)^Video ID:\s*([A-Za-z0-9_-]+)`)
	titleRegex          = regexp.MustCompile(`(?m)^Video Title:\s*(.*)$`)
	cueLineRegex        = regexp.MustCompile(`(?m)^` + cueMarker + `\s*(\d{1,2}:\d{2}:\d{2})\s*-\s*(.*)$`)
	unsafeRuneRegex     = regexp.MustCompile(`[^a-zA-Z0-9 _-]`)
)

// TimestampRef is one parsed cue line of a report block
type TimestampRef struct {
	Label   string // HH:MM:SS as written in the report
	Seconds int
	Text    string
}

// Block is the parsed form of one report block. A block whose video ID
// could not be recovered is kept with Unparseable set instead of failing
// the whole load.
type Block struct {
	VideoID     string
	Title       string
	Cues        []TimestampRef
	Raw         string
	Unparseable bool
}

// FormatTime renders whole seconds as zero-padded HH:MM:SS. Fractions are
// truncated, never rounded.
func FormatTime(seconds float64) string {
	total := int(seconds)
	if total < 0 {
		total = 0
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
}

// FormatViews renders a view count with thousands separators
func FormatViews(views uint64) string {
	return humanize.Comma(int64(views))
}

// ParseTimestamp converts H:MM:SS, MM:SS or SS into whole seconds
func ParseTimestamp(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp %q", s)
	}
	total := 0
	for _, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %w", s, err)
		}
		total = total*60 + n
	}
	return total, nil
}

// SanitizeKeyword turns a search keyword into a filesystem-safe file name
// stem: letters, digits, spaces, underscores and hyphens survive, anything
// else becomes an underscore, spaces become underscores, capped at 50 runes.
func SanitizeKeyword(keyword string) string {
	safe := unsafeRuneRegex.ReplaceAllString(keyword, "_")
	safe = strings.TrimSpace(safe)
	safe = strings.ReplaceAll(safe, " ", "_")
	runes := []rune(safe)
	if len(runes) > 50 {
		safe = string(runes[:50])
	}
	return safe
}

// BuildBlock serializes one matched video into its report block. Cue text is
// written verbatim; the block ends with a blank line, the separator run and
// another blank line so blocks can be concatenated directly.
func BuildBlock(rec model.MatchRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video Title: %s\n", rec.Title)
	fmt.Fprintf(&b, "Video ID: %s\n", rec.VideoID)
	fmt.Fprintf(&b, "Channel Name: %s\n", rec.ChannelTitle)
	fmt.Fprintf(&b, "Channel ID: %s\n", rec.ChannelID)
	fmt.Fprintf(&b, "Date Uploaded: %s\n", rec.PublishedAt)
	fmt.Fprintf(&b, "Views: %s\n", FormatViews(rec.ViewCount))
	b.WriteString("Timestamps:\n")
	for _, cue := range rec.Cues {
		fmt.Fprintf(&b, "%s %s - %s\n", cueMarker, FormatTime(cue.Start), cue.Text)
	}
	b.WriteString("\n" + strings.Repeat(separatorGlyph, separatorWidth) + "\n\n")
	return b.String()
}

// JoinBlocks concatenates serialized blocks into full report file contents
func JoinBlocks(blocks []string) string {
	return strings.Join(blocks, "")
}

// SplitBlocks splits report file contents back into raw block strings,
// discarding empty blocks. SplitBlocks(JoinBlocks(blocks)) round-trips the
// block content.
func SplitBlocks(content string) []string {
	parts := blockSeparatorRegex.Split(content, -1)
	blocks := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			blocks = append(blocks, part)
		}
	}
	return blocks
}

// ParseBlock extracts the video ID and cue lines from one raw block
func ParseBlock(raw string) Block {
	block := Block{Raw: raw}

	idMatch := videoIDRegex.FindStringSubmatch(raw)
	if idMatch == nil {
		block.Unparseable = true
		return block
	}
	block.VideoID = idMatch[1]

	if titleMatch := titleRegex.FindStringSubmatch(raw); titleMatch != nil {
		block.Title = strings.TrimSpace(titleMatch[1])
	}

	for _, m := range cueLineRegex.FindAllStringSubmatch(raw, -1) {
		seconds, err := ParseTimestamp(m[1])
		if err != nil {
			continue
		}
		block.Cues = append(block.Cues, TimestampRef{
			Label:   m[1],
			Seconds: seconds,
			Text:    strings.TrimSpace(m[2]),
		})
	}
	return block
}

// ParseBlocks parses every block of a loaded report file
func ParseBlocks(content string) []Block {
	raws := SplitBlocks(content)
	blocks := make([]Block, 0, len(raws))
	for _, raw := range raws {
		blocks = append(blocks, ParseBlock(raw))
	}
	return blocks
}
