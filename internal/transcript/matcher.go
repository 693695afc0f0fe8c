package transcript

import (
	"context"
	"regexp"
	"strings"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/model"
)

// MatchMode selects how strictly cue text is matched against the keyword
type MatchMode string

const (
	// MatchModeSubstring matches the keyword anywhere inside cue text
	MatchModeSubstring MatchMode = "substring"
	// MatchModeWholeWord matches the keyword only on word boundaries
	MatchModeWholeWord MatchMode = "word"
)

// ParseMatchMode validates a match mode string
func ParseMatchMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case MatchModeSubstring, MatchModeWholeWord:
		return MatchMode(s), nil
	default:
		return "", errors.New(errors.CodeInvalidArg, "match mode must be 'substring' or 'word'")
	}
}

// Matcher filters caption cues by keyword. Both modes compare
// case-insensitively and preserve cue order and text verbatim.
type Matcher struct {
	mode MatchMode
}

// NewMatcher creates a matcher with the given mode
func NewMatcher(mode MatchMode) *Matcher {
	return &Matcher{mode: mode}
}

// Match returns the cues whose text matches the keyword, in original order
func (m *Matcher) Match(cues []model.CaptionCue, keyword string) ([]model.CaptionCue, error) {
	if keyword == "" {
		return nil, errors.New(errors.CodeInvalidArg, "keyword is required")
	}

	var wordPattern *regexp.Regexp
	if m.mode == MatchModeWholeWord {
		var err error
		wordPattern, err = regexp.Compile(`(?i)\b` + regexp.QuoteMeta(keyword) + `\b`)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidArg, "keyword is not usable as a word pattern")
		}
	}
	lowered := strings.ToLower(keyword)

	var matched []model.CaptionCue
	for _, cue := range cues {
		switch m.mode {
		case MatchModeWholeWord:
			if wordPattern.MatchString(cue.Text) {
				matched = append(matched, cue)
			}
		default:
			if strings.Contains(strings.ToLower(cue.Text), lowered) {
				matched = append(matched, cue)
			}
		}
	}
	return matched, nil
}

// CaptionFetcher fetches the full caption track for one video and language
type CaptionFetcher interface {
	FetchTrack(ctx context.Context, videoID, language string) ([]model.CaptionCue, error)
}

// Searcher finds keyword matches inside one video's caption track
type Searcher interface {
	// FindMatches returns the matching cues for one video, possibly empty.
	// A missing or disabled transcript yields an empty result, not an error.
	FindMatches(ctx context.Context, videoID, language, keyword string) ([]model.CaptionCue, error)
}

// searcher implements Searcher on top of a caption fetcher and a matcher
type searcher struct {
	captions CaptionFetcher
	matcher  *Matcher
}

// NewSearcher creates a Searcher with the given fetcher and match mode
func NewSearcher(captions CaptionFetcher, mode MatchMode) Searcher {
	return &searcher{
		captions: captions,
		matcher:  NewMatcher(mode),
	}
}

// FindMatches fetches the caption track and filters it by keyword
func (s *searcher) FindMatches(ctx context.Context, videoID, language, keyword string) ([]model.CaptionCue, error) {
	cues, err := s.captions.FetchTrack(ctx, videoID, language)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return s.matcher.Match(cues, keyword)
}
