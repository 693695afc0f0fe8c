package youtube

import (
	"context"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/bitArtisan1/capscript/internal/errors"
	"github.com/bitArtisan1/capscript/internal/model"
)

// The Data API cannot download caption content with an API key, so caption
// tracks are fetched from the public timedtext endpoint instead.
const defaultTimedTextURL = "https://video.google.com/timedtext"

// CaptionClient fetches caption tracks for a video and language
type CaptionClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewCaptionClient creates a caption client against the public endpoint
func NewCaptionClient() *CaptionClient {
	return &CaptionClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultTimedTextURL,
	}
}

// NewCaptionClientWithBaseURL creates a caption client against a custom
// endpoint and HTTP client (for testing)
func NewCaptionClientWithBaseURL(httpClient *http.Client, baseURL string) *CaptionClient {
	return &CaptionClient{httpClient: httpClient, baseURL: baseURL}
}

type timedTextTrack struct {
	LangCode string `xml:"lang_code,attr"`
	Name     string `xml:"name,attr"`
}

type timedTextTrackList struct {
	Tracks []timedTextTrack `xml:"track"`
}

type timedTextCue struct {
	Start float64 `xml:"start,attr"`
	Dur   float64 `xml:"dur,attr"`
	Text  string  `xml:",chardata"`
}

type timedTextTranscript struct {
	Cues []timedTextCue `xml:"text"`
}

// ListTracks returns the language codes of the video's caption tracks.
// An empty list means captions are disabled for the video.
func (c *CaptionClient) ListTracks(ctx context.Context, videoID string) ([]string, error) {
	query := url.Values{}
	query.Set("type", "list")
	query.Set("v", videoID)

	body, err := c.get(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("transcripts are disabled for video %s", videoID))
	}

	var list timedTextTrackList
	if err := xml.Unmarshal(body, &list); err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "failed to parse caption track list")
	}

	codes := make([]string, 0, len(list.Tracks))
	for _, track := range list.Tracks {
		codes = append(codes, track.LangCode)
	}
	if len(codes) == 0 {
		return nil, errors.New(errors.CodeNotFound, fmt.Sprintf("transcripts are disabled for video %s", videoID))
	}
	return codes, nil
}

// HasTrack reports whether the video has a caption track in the language.
// The probe is non-fatal: any failure counts as absence.
func (c *CaptionClient) HasTrack(ctx context.Context, videoID, language string) bool {
	codes, err := c.ListTracks(ctx, videoID)
	if err != nil {
		return false
	}
	for _, code := range codes {
		if code == language {
			return true
		}
	}
	return false
}

// FetchTrack downloads the full caption track for one video and language.
// Cue order, start times and text are preserved verbatim.
func (c *CaptionClient) FetchTrack(ctx context.Context, videoID, language string) ([]model.CaptionCue, error) {
	query := url.Values{}
	query.Set("v", videoID)
	query.Set("lang", language)

	body, err := c.get(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(body) == 0 {
		return nil, errors.New(errors.CodeNotFound,
			fmt.Sprintf("no transcript found for video %s in language %s", videoID, language))
	}

	var transcript timedTextTranscript
	if err := xml.Unmarshal(body, &transcript); err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "failed to parse caption track")
	}

	cues := make([]model.CaptionCue, 0, len(transcript.Cues))
	for _, cue := range transcript.Cues {
		cues = append(cues, model.CaptionCue{
			Start: cue.Start,
			// the endpoint double-escapes entities, so unescape once more
			// after the XML decoder
			Text: html.UnescapeString(cue.Text),
		})
	}
	return cues, nil
}

func (c *CaptionClient) get(ctx context.Context, query url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build caption request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "caption request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, errors.New(errors.CodeNotFound, "no transcript found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.CodeTransport, fmt.Sprintf("caption endpoint returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeTransport, "failed to read caption response")
	}
	return body, nil
}
