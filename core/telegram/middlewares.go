package telegram

import "github.com/m3rciful/pixabot/core/telegram/middleware"

// DefaultMiddlewares builds the global middleware chain: panic recovery,
// receipt logging and reply counters for the handler summary.
func DefaultMiddlewares() []Middleware {
	return []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
		{Name: "logger", Use: middleware.LoggerMiddleware},
		{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	}
}
