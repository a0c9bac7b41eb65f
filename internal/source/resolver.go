package source

import (
	"context"
	"log/slog"
	"strings"
)

// Resolver turns a source descriptor into JSON text
type Resolver struct {
	fetcher *Fetcher
	logger  *slog.Logger
}

// NewResolver creates a Resolver that loads addresses through fetcher
func NewResolver(fetcher *Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{fetcher: fetcher, logger: logger}
}

// Read returns the JSON text for src. Literal JSON comes back unchanged,
// addresses are fetched with req. The second result is false when the
// source was blank or could not be loaded.
func (r *Resolver) Read(ctx context.Context, src string, req Request) (string, bool) {
	if strings.TrimSpace(src) == "" {
		r.logger.Error("source was empty")
		return "", false
	}

	class, addr := Classify(src)
	if class == Literal {
		r.logger.Debug("the source is JSON")
		return src, true
	}

	r.logger.Debug("the source is an address",
		slog.String("address", addr.String()),
		slog.String("kind", class.String()))
	return r.fetcher.Fetch(ctx, addr, req.withDefaults())
}

// Fetcher returns the fetcher used for addresses
func (r *Resolver) Fetcher() *Fetcher {
	return r.fetcher
}
