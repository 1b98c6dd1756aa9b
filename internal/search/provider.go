// Package search turns a query and the session filter into a stored result
// set. The media provider is Pixabay, reached through a circuit breaker and
// a short-lived response cache.
package search

import (
	"context"

	"github.com/m3rciful/pixabot/internal/session"
)

const component = "service.search"

// Endpoint selects one of the provider's search endpoints.
type Endpoint string

const (
	EndpointImages Endpoint = "images"
	EndpointVideos Endpoint = "videos"
	EndpointMusic  Endpoint = "music"
)

// Request is one provider call.
type Request struct {
	Endpoint Endpoint
	// Category narrows the images endpoint; empty means every image type.
	Category string
	Query    string
	Lang     string
	PerPage  int
}

// Response is the normalized provider answer. Items keep provider order.
type Response struct {
	Total int
	Items []session.ResultItem
}

// Provider runs a search against the media backend.
type Provider interface {
	Search(ctx context.Context, req Request) (Response, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (Response, error)

func (f ProviderFunc) Search(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }

// Route maps a filter to an endpoint and an optional category.
func Route(f session.Filter) (Endpoint, string) {
	switch f {
	case session.FilterVideo:
		return EndpointVideos, ""
	case session.FilterMusic:
		return EndpointMusic, ""
	case session.FilterPhoto, session.FilterIllustration, session.FilterVector, session.FilterGIF:
		return EndpointImages, string(f)
	default:
		return EndpointImages, ""
	}
}
