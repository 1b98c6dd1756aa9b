package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/m3rciful/pixabot/core/logger"
	"github.com/m3rciful/pixabot/core/netutil"
)

// DefaultBaseURL is the public Pixabay API root.
const DefaultBaseURL = "https://pixabay.com/api/"

// Pixabay has no GIF image type; GIF searches add this keyword instead.
const gifKeyword = "gif"

// PixabayOptions configures the HTTP client.
type PixabayOptions struct {
	APIKey  string
	BaseURL string
	// HTTPClient overrides the default retrying client.
	HTTPClient *http.Client
}

// Pixabay is the Provider backed by the Pixabay REST API.
type Pixabay struct {
	apiKey string
	base   *url.URL
	http   *http.Client
}

// NewPixabay validates options and builds the client.
func NewPixabay(opts PixabayOptions) (*Pixabay, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("pixabay: api key is required")
	}
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		raw = DefaultBaseURL
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("pixabay: parse base url: %w", err)
	}
	client := opts.HTTPClient
	if client == nil {
		client = netutil.NewClient(netutil.ClientOptions{
			ResponseTimeout: 10 * time.Second,
			RetryAttempts:   2,
			RetryBackoff:    300 * time.Millisecond,
			RetryStatus:     true,
		})
	}
	return &Pixabay{apiKey: opts.APIKey, base: base, http: client}, nil
}

// Search performs one GET against the endpoint selected by req.
func (p *Pixabay) Search(ctx context.Context, req Request) (Response, error) {
	target := p.endpointURL(req)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Response{}, fmt.Errorf("pixabay: build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := p.http.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("pixabay: %s: %w", req.Endpoint, err)
	}
	defer resp.Body.Close()

	logger.Debug(ctx, component, "pixabay.response",
		slog.String("endpoint", string(req.Endpoint)),
		slog.Int("http_code", resp.StatusCode),
		slog.Duration("duration", logger.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return Response{}, fmt.Errorf("pixabay: %s: status %d: %s",
			req.Endpoint, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var body searchBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Response{}, fmt.Errorf("pixabay: decode %s response: %w", req.Endpoint, err)
	}
	return body.normalize(req.Endpoint), nil
}

func (p *Pixabay) endpointURL(req Request) string {
	u := *p.base
	switch req.Endpoint {
	case EndpointVideos:
		u.Path += "videos/"
	case EndpointMusic:
		u.Path += "music/"
	}

	q := url.Values{}
	q.Set("key", p.apiKey)
	query := req.Query
	// image_type has no gif value; the filter narrows by keyword only.
	if req.Category == gifKeyword {
		query += " " + gifKeyword
	} else if req.Category != "" {
		q.Set("image_type", req.Category)
	}
	q.Set("q", query)
	if req.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(req.PerPage))
	}
	q.Set("safesearch", "true")
	if req.Lang != "" {
		q.Set("lang", req.Lang)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
