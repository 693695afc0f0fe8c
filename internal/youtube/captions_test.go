package youtube

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitArtisan1/capscript/internal/errors"
)

func newCaptionServer(t *testing.T, handler http.HandlerFunc) *CaptionClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewCaptionClientWithBaseURL(server.Client(), server.URL)
}

func TestCaptionClient_ListTracks(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "list", r.URL.Query().Get("type"))
		assert.Equal(t, "vid1", r.URL.Query().Get("v"))
		fmt.Fprint(w, `<transcript_list><track lang_code="en" name=""/><track lang_code="ja" name="Japanese"/></transcript_list>`)
	})

	codes, err := client.ListTracks(context.Background(), "vid1")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "ja"}, codes)
}

func TestCaptionClient_ListTracksDisabled(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		// videos with captions disabled return an empty body
	})

	_, err := client.ListTracks(context.Background(), "vid1")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCaptionClient_HasTrack(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<transcript_list><track lang_code="en" name=""/></transcript_list>`)
	})

	assert.True(t, client.HasTrack(context.Background(), "vid1", "en"))
	assert.False(t, client.HasTrack(context.Background(), "vid1", "fr"))
}

func TestCaptionClient_FetchTrack(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "vid1", r.URL.Query().Get("v"))
		assert.Equal(t, "en", r.URL.Query().Get("lang"))
		fmt.Fprint(w, `<transcript><text start="12.4" dur="3.1">hello world</text><text start="30" dur="2">fish &amp;amp; chips</text></transcript>`)
	})

	cues, err := client.FetchTrack(context.Background(), "vid1", "en")
	require.NoError(t, err)
	require.Len(t, cues, 2)

	assert.Equal(t, 12.4, cues[0].Start)
	assert.Equal(t, "hello world", cues[0].Text)
	// the endpoint double-escapes entities; the client must fully unescape
	assert.Equal(t, "fish & chips", cues[1].Text)
}

func TestCaptionClient_FetchTrackMissing(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {})

	_, err := client.FetchTrack(context.Background(), "vid1", "en")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestCaptionClient_ServerError(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.FetchTrack(context.Background(), "vid1", "en")
	require.Error(t, err)
	assert.Equal(t, errors.CodeTransport, errors.Code(err))
}

func TestCaptionClient_NotFoundStatus(t *testing.T) {
	client := newCaptionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.FetchTrack(context.Background(), "vid1", "en")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
