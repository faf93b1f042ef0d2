package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sidecarResponse = `{
	"data": {
		"xdt_shortcode_media": {
			"__typename": "XDTGraphSidecar",
			"shortcode": "Cabc123",
			"display_url": "https://cdn/cover.jpg",
			"is_video": false,
			"owner": {"id": "42", "username": "chef"},
			"edge_media_to_caption": {"edges": [{"node": {"text": "Best pancakes #breakfast #pancakes #breakfast"}}]},
			"edge_sidecar_to_children": {"edges": [
				{"node": {"is_video": false, "display_url": "https://cdn/1.jpg"}},
				{"node": {"is_video": true, "display_url": "https://cdn/2.jpg", "video_url": "https://cdn/2.mp4"}}
			]},
			"edge_media_to_parent_comment": {"edges": [
				{"node": {"text": "wow", "owner": {"id": "1", "username": "fan1"}}},
				{"node": {"text": "so good", "owner": {"id": "2", "username": "fan2"}}},
				{"node": {"text": "Recipe: 2 eggs, 1 cup flour", "owner": {"id": "42", "username": "chef"}}}
			]}
		}
	},
	"status": "ok"
}`

func instagramServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "doc123", r.PostForm.Get("doc_id"))
		var vars map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("variables")), &vars))
		assert.Equal(t, "Cabc123", vars["shortcode"])
		assert.Equal(t, "sessionid=secret", r.Header.Get("Cookie"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestInstagram(endpoint string, maxComments int) *InstagramScraper {
	return NewInstagramScraper(InstagramOptions{
		Enabled:     true,
		Endpoint:    endpoint,
		DocID:       "doc123",
		SessionID:   "secret",
		UserAgent:   "test-agent",
		Timeout:     5 * time.Second,
		MaxComments: maxComments,
	})
}

func TestInstagramScrapeCarousel(t *testing.T) {
	srv := instagramServer(t, sidecarResponse, http.StatusOK)
	s := newTestInstagram(srv.URL, 2)

	content, err := s.Scrape(context.Background(), "https://www.instagram.com/p/Cabc123/")
	require.NoError(t, err)

	assert.Equal(t, "instagram", content.Platform)
	assert.Equal(t, "chef", content.Uploader)
	assert.Equal(t, "42", content.UploaderID)
	assert.Equal(t, "Best pancakes #breakfast #pancakes #breakfast", content.Description)
	assert.Equal(t, []string{"breakfast", "pancakes"}, content.Hashtags)
	assert.True(t, content.IsCarousel)
	assert.Equal(t, []CarouselItem{
		{IsVideo: false, URL: "https://cdn/1.jpg"},
		{IsVideo: true, URL: "https://cdn/2.mp4"},
	}, content.CarouselItems)

	// 發布者留言在截斷範圍之外仍會被找到
	assert.Equal(t, "Recipe: 2 eggs, 1 cup flour", content.PublisherComment)
	assert.Len(t, content.Comments, 2)
}

func TestInstagramPublisherCommentMissing(t *testing.T) {
	body := `{"data":{"shortcode_media":{"__typename":"GraphImage","display_url":"https://cdn/a.jpg","owner":{"id":"42","username":"chef"},
		"edge_media_to_comment":{"edges":[{"node":{"text":"hi","owner":{"id":"1","username":"fan"}}}]}}}}`
	srv := instagramServer(t, body, http.StatusOK)
	s := newTestInstagram(srv.URL, 50)

	content, err := s.Scrape(context.Background(), "https://instagram.com/reel/Cabc123")
	require.NoError(t, err)
	assert.Equal(t, "", content.PublisherComment)
	assert.False(t, content.IsCarousel)
	assert.Equal(t, "https://cdn/a.jpg", content.Thumbnail)
	assert.Len(t, content.Comments, 1)
}

func TestInstagramScrapeFailures(t *testing.T) {
	srv := instagramServer(t, `{"data":{}}`, http.StatusOK)
	s := newTestInstagram(srv.URL, 50)
	_, err := s.Scrape(context.Background(), "https://www.instagram.com/p/Cabc123/")
	assert.Error(t, err)

	_, err = s.Scrape(context.Background(), "https://www.instagram.com/stories/chef/")
	assert.ErrorIs(t, err, ErrNoShortcode)

	errSrv := instagramServer(t, `{"message":"login required"}`, http.StatusUnauthorized)
	s = newTestInstagram(errSrv.URL, 50)
	_, err = s.Scrape(context.Background(), "https://www.instagram.com/p/Cabc123/")
	assert.Error(t, err)
}

func TestInstagramDisabled(t *testing.T) {
	s := NewInstagramScraper(InstagramOptions{Enabled: false, DocID: "doc"})
	assert.False(t, s.Available())
	_, err := s.Scrape(context.Background(), "https://www.instagram.com/p/Cabc123/")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func TestExtractShortcode(t *testing.T) {
	assert.Equal(t, "Cabc-1_2", ExtractShortcode("https://www.instagram.com/p/Cabc-1_2/?img_index=2"))
	assert.Equal(t, "XYZ", ExtractShortcode("https://instagram.com/reel/XYZ"))
	assert.Equal(t, "", ExtractShortcode("https://instagram.com/chef"))
}

func TestParseHashtagsUnicode(t *testing.T) {
	assert.Equal(t, []string{"餃子", "dumplings_2"}, ParseHashtags("#餃子 and #dumplings_2! #餃子"))
	assert.Nil(t, ParseHashtags("no tags"))
}
