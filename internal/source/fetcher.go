package source

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/mcncl/jsonassert/internal/config"
	"github.com/mcncl/jsonassert/internal/errors"
)

// CacheCapacity is the number of fetched documents kept when caching is on
const CacheCapacity = 100

const defaultContentType = "application/json"

// Request describes how a network address is invoked. Method defaults to
// GET; Body and ContentType are only sent with POST and PUT.
type Request struct {
	Method      string
	Body        string
	ContentType string
}

// Get is a plain GET request
func Get() Request {
	return Request{Method: http.MethodGet}
}

func (r Request) withDefaults() Request {
	if strings.TrimSpace(r.Method) == "" {
		r.Method = http.MethodGet
	}
	return r
}

type cacheKey struct {
	address     string
	method      string
	body        string
	contentType string
}

// Stats is a snapshot of the fetcher counters
type Stats struct {
	Hits       uint64
	Misses     uint64
	Loads      uint64
	LoadErrors uint64
	Entries    int
}

// Fetcher loads file and network addresses, optionally through a bounded
// LRU cache. Concurrent misses for the same key both load; the last one to
// finish wins the cache slot.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	cache   *lru.Cache[cacheKey, string]
	logger  *slog.Logger

	hits       atomic.Uint64
	misses     atomic.Uint64
	loads      atomic.Uint64
	loadErrors atomic.Uint64
}

// FetcherOption customizes a Fetcher
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client built from the configured timeout
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = client
	}
}

// NewFetcher creates a Fetcher from cfg. The cache only exists when
// cfg.UseURICache is set.
func NewFetcher(cfg config.Config, logger *slog.Logger, opts ...FetcherOption) (*Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Fetcher{
		timeout: cfg.Timeout(),
		logger:  logger,
	}
	f.client = &http.Client{Transport: newTransport(f.timeout)}

	for _, opt := range opts {
		opt(f)
	}

	if cfg.UseURICache {
		cache, err := lru.New[cacheKey, string](CacheCapacity)
		if err != nil {
			return nil, errors.NewConfigError("failed to create source cache", err)
		}
		f.cache = cache
	}

	logger.Debug("fetcher ready",
		slog.Duration("timeout", f.timeout),
		slog.Bool("cache", f.cache != nil))
	return f, nil
}

// Fetch returns the text at addr. Every failure is logged and reported as
// absent; nothing is retried.
func (f *Fetcher) Fetch(ctx context.Context, addr *url.URL, req Request) (string, bool) {
	if addr == nil || strings.TrimSpace(req.Method) == "" {
		f.logger.Debug("invalid fetch parameters",
			slog.String("method", req.Method),
			slog.Bool("address", addr != nil))
		return "", false
	}

	key := cacheKey{
		address:     addr.String(),
		method:      strings.ToUpper(strings.TrimSpace(req.Method)),
		body:        req.Body,
		contentType: req.ContentType,
	}

	if f.cache != nil {
		if text, ok := f.cache.Get(key); ok {
			f.hits.Add(1)
			f.logger.Debug("found the result from cache", slog.String("address", key.address))
			return text, true
		}
		f.misses.Add(1)
		f.logger.Debug("did not find result from cache", slog.String("address", key.address))
	}

	text, err := f.load(ctx, addr, key.method, req)
	if err != nil {
		f.loadErrors.Add(1)
		f.logger.Error("could not load source",
			slog.String("address", key.address),
			slog.String("error", err.Error()))
		return "", false
	}

	if f.cache != nil {
		f.cache.Add(key, text)
		f.logger.Debug("stored result in cache", slog.String("address", key.address))
	}
	return text, true
}

// Stats returns the current counters
func (f *Fetcher) Stats() Stats {
	s := Stats{
		Hits:       f.hits.Load(),
		Misses:     f.misses.Load(),
		Loads:      f.loads.Load(),
		LoadErrors: f.loadErrors.Load(),
	}
	if f.cache != nil {
		s.Entries = f.cache.Len()
	}
	return s
}

func (f *Fetcher) load(ctx context.Context, addr *url.URL, method string, req Request) (string, error) {
	if classifyURL(addr) == File {
		path := filePath(addr)
		f.logger.Debug("loading file system address", slog.String("path", path))
		f.loads.Add(1)
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errors.NewIOError(fmt.Sprintf("failed to read %s", path), err)
		}
		return string(data), nil
	}

	return f.request(ctx, addr, method, req)
}

func (f *Fetcher) request(ctx context.Context, addr *url.URL, method string, req Request) (string, error) {
	var body io.Reader
	switch method {
	case http.MethodGet, http.MethodDelete:
	case http.MethodPost, http.MethodPut:
		body = strings.NewReader(req.Body)
	default:
		return "", errors.NewIOError(fmt.Sprintf("unsupported method %q", req.Method), errors.ErrUnsupportedMethod)
	}

	f.logger.Debug("loading external address",
		slog.String("method", method),
		slog.String("address", addr.String()))

	httpReq, err := http.NewRequestWithContext(ctx, method, addr.String(), body)
	if err != nil {
		return "", errors.NewIOError("failed to create request", err)
	}
	if body != nil {
		contentType := strings.TrimSpace(req.ContentType)
		if contentType == "" {
			contentType = defaultContentType
		}
		httpReq.Header.Set("Content-Type", contentType)
	}

	f.loads.Add(1)
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return "", errors.NewIOError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", errors.NewIOError(fmt.Sprintf("unexpected status %s", resp.Status), errors.ErrUnexpectedStatus)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.NewIOError("failed to read response body", err)
	}
	return string(data), nil
}

// newTransport bounds connecting and every individual read by timeout
func newTransport(timeout time.Duration) *http.Transport {
	dialer := &net.Dialer{Timeout: timeout}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DialContext = func(ctx context.Context, network, address string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, address)
		if err != nil {
			return nil, err
		}
		return &idleTimeoutConn{Conn: conn, timeout: timeout}, nil
	}
	transport.TLSHandshakeTimeout = timeout
	return transport
}

// idleTimeoutConn fails a read that waits longer than timeout for data
type idleTimeoutConn struct {
	net.Conn
	timeout time.Duration
}

func (c *idleTimeoutConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}
