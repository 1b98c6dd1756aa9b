package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/pixabot/internal/session"
)

const imagesJSON = `{"total":2,"totalHits":2,"hits":[
 {"pageURL":"https://pixabay.com/p/1","tags":"cat, pet ,animal","previewURL":"https://cdn/p1s.jpg","webformatURL":"https://cdn/p1.jpg","views":10,"downloads":3,"likes":2},
 {"pageURL":"https://pixabay.com/p/2","tags":"","previewURL":"","webformatURL":"","largeImageURL":""}
]}`

const videosJSON = `{"total":1,"hits":[
 {"pageURL":"https://pixabay.com/v/1","tags":"cat","duration":12.6,"views":5,"likes":1,"downloads":0,
  "videos":{"large":{"url":"https://cdn/v1l.mp4","thumbnail":"https://cdn/v1l.jpg"},"medium":{"url":"https://cdn/v1m.mp4","thumbnail":"https://cdn/v1m.jpg"}}}
]}`

const musicJSON = `{"total":2,"hits":[
 {"name":"Purr","artist":"Tom","duration":95,"genre":["ambient","chill"],"audio":"https://cdn/a1.mp3"},
 {"title":"Silent","artist":"Nobody"}
]}`

func newTestPixabay(t *testing.T, h http.HandlerFunc) *Pixabay {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	p, err := NewPixabay(PixabayOptions{APIKey: "k3y", BaseURL: srv.URL + "/api", HTTPClient: srv.Client()})
	require.NoError(t, err)
	return p
}

func TestPixabayImagesRequestAndNormalize(t *testing.T) {
	var got url.Values
	var path string
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		path, got = r.URL.Path, r.URL.Query()
		_, _ = w.Write([]byte(imagesJSON))
	})

	resp, err := p.Search(context.Background(), Request{
		Endpoint: EndpointImages, Category: "vector", Query: "cats", Lang: "ar", PerPage: 20,
	})
	require.NoError(t, err)

	assert.Equal(t, "/api/", path)
	assert.Equal(t, "k3y", got.Get("key"))
	assert.Equal(t, "cats", got.Get("q"))
	assert.Equal(t, "vector", got.Get("image_type"))
	assert.Equal(t, "20", got.Get("per_page"))
	assert.Equal(t, "true", got.Get("safesearch"))
	assert.Equal(t, "ar", got.Get("lang"))

	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Items, 1, "hit without media is skipped")
	item := resp.Items[0]
	assert.Equal(t, session.KindPhoto, item.Kind)
	assert.Equal(t, "https://cdn/p1.jpg", item.MediaURL)
	assert.Equal(t, []string{"cat", "pet", "animal"}, item.Tags)
	assert.Equal(t, 10, item.Views)
	assert.Equal(t, 3, item.Downloads)
}

func TestPixabayAllOmitsCategoryAndGIFUsesKeyword(t *testing.T) {
	var queries []url.Values
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		queries = append(queries, r.URL.Query())
		_, _ = w.Write([]byte(imagesJSON))
	})

	_, err := p.Search(context.Background(), Request{Endpoint: EndpointImages, Query: "dogs"})
	require.NoError(t, err)
	_, err = p.Search(context.Background(), Request{Endpoint: EndpointImages, Category: "gif", Query: "dogs"})
	require.NoError(t, err)

	require.Len(t, queries, 2)
	assert.False(t, queries[0].Has("image_type"))
	assert.Equal(t, "dogs", queries[0].Get("q"))
	assert.False(t, queries[1].Has("image_type"))
	assert.Equal(t, "dogs gif", queries[1].Get("q"))
}

func TestPixabayVideos(t *testing.T) {
	var path string
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(videosJSON))
	})

	resp, err := p.Search(context.Background(), Request{Endpoint: EndpointVideos, Query: "cats"})
	require.NoError(t, err)
	assert.Equal(t, "/api/videos/", path)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, session.KindVideo, resp.Items[0].Kind)
	assert.Equal(t, "https://cdn/v1m.mp4", resp.Items[0].MediaURL, "medium rendition preferred")
	assert.Equal(t, "https://cdn/v1m.jpg", resp.Items[0].PreviewURL)
	assert.Equal(t, 13, resp.Items[0].DurationSeconds)
}

func TestPixabayMusic(t *testing.T) {
	var path string
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		_, _ = w.Write([]byte(musicJSON))
	})

	resp, err := p.Search(context.Background(), Request{Endpoint: EndpointMusic, Query: "purr"})
	require.NoError(t, err)
	assert.Equal(t, "/api/music/", path)
	require.Len(t, resp.Items, 2)

	first := resp.Items[0]
	assert.Equal(t, session.KindAudio, first.Kind)
	assert.Equal(t, "Purr", first.Title)
	assert.Equal(t, "Tom", first.Artist)
	assert.Equal(t, "ambient, chill", first.Genre)
	assert.Equal(t, 95, first.DurationSeconds)
	assert.Equal(t, "https://cdn/a1.mp3", first.MediaURL)

	assert.Equal(t, "Silent", resp.Items[1].Title)
	assert.Empty(t, resp.Items[1].MediaURL)
}

func TestPixabayErrorStatus(t *testing.T) {
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "[ERROR 400] Invalid or missing API key", http.StatusBadRequest)
	})

	_, err := p.Search(context.Background(), Request{Endpoint: EndpointImages, Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "Invalid or missing API key")
}

func TestPixabayBadJSON(t *testing.T) {
	p := newTestPixabay(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})
	_, err := p.Search(context.Background(), Request{Endpoint: EndpointImages, Query: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestNewPixabayRequiresKey(t *testing.T) {
	_, err := NewPixabay(PixabayOptions{})
	assert.Error(t, err)
}

func TestRoute(t *testing.T) {
	cases := []struct {
		filter   session.Filter
		endpoint Endpoint
		category string
	}{
		{session.FilterAll, EndpointImages, ""},
		{session.FilterPhoto, EndpointImages, "photo"},
		{session.FilterIllustration, EndpointImages, "illustration"},
		{session.FilterVector, EndpointImages, "vector"},
		{session.FilterGIF, EndpointImages, "gif"},
		{session.FilterVideo, EndpointVideos, ""},
		{session.FilterMusic, EndpointMusic, ""},
	}
	for _, tc := range cases {
		ep, cat := Route(tc.filter)
		assert.Equal(t, tc.endpoint, ep, tc.filter)
		assert.Equal(t, tc.category, cat, tc.filter)
	}
}
