package search

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/m3rciful/pixabot/internal/session"
)

type searchBody struct {
	Total     int   `json:"total"`
	TotalHits int   `json:"totalHits"`
	Hits      []hit `json:"hits"`
}

// hit is the union of the image, video and music record shapes.
type hit struct {
	PageURL   string  `json:"pageURL"`
	Tags      string  `json:"tags"`
	Views     int     `json:"views"`
	Downloads int     `json:"downloads"`
	Likes     int     `json:"likes"`
	Duration  float64 `json:"duration"`

	PreviewURL    string `json:"previewURL"`
	WebformatURL  string `json:"webformatURL"`
	LargeImageURL string `json:"largeImageURL"`

	Videos map[string]rendition `json:"videos"`

	Name   string     `json:"name"`
	Title  string     `json:"title"`
	Artist string     `json:"artist"`
	Genre  flexString `json:"genre"`
	Audio  string     `json:"audio"`
	URL    string     `json:"url"`
}

type rendition struct {
	URL       string `json:"url"`
	Thumbnail string `json:"thumbnail"`
}

// flexString accepts either a string or a list of strings.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	*f = flexString(strings.Join(list, ", "))
	return nil
}

var videoQualities = []string{"medium", "small", "large", "tiny"}

func (b searchBody) normalize(ep Endpoint) Response {
	out := Response{Total: b.Total}
	if out.Total == 0 {
		out.Total = b.TotalHits
	}
	for _, h := range b.Hits {
		item, ok := h.normalize(ep)
		if !ok {
			continue
		}
		out.Items = append(out.Items, item)
	}
	return out
}

func (h hit) normalize(ep Endpoint) (session.ResultItem, bool) {
	item := session.ResultItem{
		PageURL:   h.PageURL,
		Views:     h.Views,
		Likes:     h.Likes,
		Downloads: h.Downloads,
		Tags:      splitTags(h.Tags),
	}
	switch ep {
	case EndpointVideos:
		item.Kind = session.KindVideo
		for _, q := range videoQualities {
			if r, ok := h.Videos[q]; ok && r.URL != "" {
				item.MediaURL = r.URL
				item.PreviewURL = r.Thumbnail
				break
			}
		}
		item.DurationSeconds = seconds(h.Duration)
		return item, item.MediaURL != ""
	case EndpointMusic:
		item.Kind = session.KindAudio
		item.MediaURL = firstNonEmpty(h.Audio, h.URL)
		item.PreviewURL = h.PreviewURL
		item.Title = firstNonEmpty(h.Name, h.Title)
		item.Artist = h.Artist
		item.Genre = string(h.Genre)
		item.DurationSeconds = seconds(h.Duration)
		// A track without a file is still shown as text.
		return item, item.MediaURL != "" || item.Title != ""
	default:
		item.Kind = session.KindPhoto
		item.MediaURL = firstNonEmpty(h.WebformatURL, h.LargeImageURL, h.PreviewURL)
		item.PreviewURL = h.PreviewURL
		return item, item.MediaURL != ""
	}
}

func splitTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}

func seconds(v float64) int {
	if v <= 0 {
		return 0
	}
	return int(math.Round(v))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
