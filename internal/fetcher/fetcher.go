package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/model"
)

// Fetcher retrieves a single HTML document.
type Fetcher struct {
	// client performs the request. It carries the timeout and proxy settings.
	client *http.Client

	// userAgent is sent as the User-Agent header.
	userAgent string

	// maxBodySize caps the number of decoded bytes read from the body.
	maxBodySize int64

	logger *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithUserAgent sets the User-Agent header used for the page request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum number of decoded bytes to read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// New creates a Fetcher using client for all requests.
func New(client *http.Client, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      client,
		userAgent:   config.DefaultPageUserAgent,
		maxBodySize: config.DefaultMaxPageSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch issues one GET for target and returns the decoded document.
// The returned page's BaseURL is target itself; the post-redirect location
// is kept in FinalURL for reporting only.
func (f *Fetcher) Fetch(ctx context.Context, target string) (*model.Page, error) {
	header := http.Header{}
	header.Set("User-Agent", f.userAgent)
	header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	header.Set("Accept-Language", "en-US,en;q=0.5")
	header.Set("Accept-Encoding", acceptEncoding)

	resp, err := Get(ctx, f.client, target, header)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contentEncoding := resp.Header.Get("Content-Encoding")
	body, closeDecoder, err := decompress(resp.Body, contentEncoding)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}
	defer closeDecoder() //nolint:errcheck // read errors are reported below

	raw, err := io.ReadAll(io.LimitReader(body, f.maxBodySize+1))
	if err != nil {
		return nil, &TransportError{URL: target, Err: fmt.Errorf("failed to read body: %w", err)}
	}
	if int64(len(raw)) > f.maxBodySize {
		f.logger.Warn("page truncated",
			"target", target,
			"limit", f.maxBodySize,
		)
		raw = raw[:f.maxBodySize]
	}

	contentType := resp.Header.Get("Content-Type")
	text, charsetName, err := toUTF8(raw, contentType)
	if err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}

	page := &model.Page{
		URL:         target,
		BaseURL:     target,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Charset:     charsetName,
		Body:        text,
		FetchedAt:   time.Now(),
	}
	page.ComputeHash()

	if !page.IsHTML() {
		f.logger.Warn("target is not an HTML document",
			"target", target,
			"content_type", contentType,
		)
	}

	f.logger.Debug("page fetched",
		"target", target,
		"final_url", page.FinalURL,
		"status", resp.StatusCode,
		"encoding", contentEncoding,
		"charset", charsetName,
		"size", page.Size,
	)

	return page, nil
}

// Get issues a GET request for rawURL with the given headers.
// Network failures and responses outside 2xx are returned as
// *TransportError; in the latter case the body is already closed.
// On success the caller owns resp.Body.
func Get(ctx context.Context, client *http.Client, rawURL string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	for key, values := range header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck // drained for connection reuse
		resp.Body.Close()
		return nil, statusError(rawURL, resp.StatusCode, resp.Status)
	}

	return resp, nil
}
