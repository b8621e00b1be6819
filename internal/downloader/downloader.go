package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/fetcher"
	"github.com/nao1215/imagescraper/internal/model"
)

// imageFileMode is the permission of downloaded images. They are published
// as static site assets, so they are world readable.
const imageFileMode = 0o644

// Downloader stores image URLs as files in one output directory.
// It is not safe for concurrent use.
type Downloader struct {
	client    *http.Client
	outputDir string
	userAgent string
	chunkSize int
	namer     *Namer
	logger    *slog.Logger
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithUserAgent sets the User-Agent header for image requests.
func WithUserAgent(ua string) Option {
	return func(d *Downloader) {
		d.userAgent = ua
	}
}

// WithChunkSize sets the copy buffer size.
func WithChunkSize(size int) Option {
	return func(d *Downloader) {
		if size > 0 {
			d.chunkSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		d.logger = logger
	}
}

// New creates a Downloader writing into outputDir.
func New(client *http.Client, outputDir string, opts ...Option) *Downloader {
	d := &Downloader{
		client:    client,
		outputDir: outputDir,
		userAgent: config.DefaultImageUserAgent,
		chunkSize: config.DefaultChunkSize,
		namer:     NewNamer(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Prepare creates the output directory and its parents.
func (d *Downloader) Prepare() error {
	if err := os.MkdirAll(d.outputDir, 0o750); err != nil {
		return &FilesystemError{Op: "mkdir", Path: d.outputDir, Err: err}
	}
	return nil
}

// Download saves rawURL into the output directory.
// It never returns an error: failures are reported in the result so the
// caller can continue with the next URL.
func (d *Downloader) Download(ctx context.Context, rawURL string) model.DownloadResult {
	name := d.namer.Name(rawURL)
	path := filepath.Join(d.outputDir, name)
	result := model.DownloadResult{
		URL:      rawURL,
		Filename: name,
		Path:     path,
	}

	if _, err := os.Lstat(path); err == nil {
		result.Status = model.StatusSkipped
		return result
	} else if !errors.Is(err, fs.ErrNotExist) {
		return failed(result, &FilesystemError{Op: "stat", Path: path, Err: err})
	}

	header := http.Header{}
	header.Set("User-Agent", d.userAgent)
	resp, err := fetcher.Get(ctx, d.client, rawURL, header)
	if err != nil {
		return failed(result, err)
	}
	defer resp.Body.Close()

	n, err := d.save(rawURL, path, resp.Body)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			result.Status = model.StatusSkipped
			return result
		}
		return failed(result, err)
	}

	d.logger.Debug("image saved",
		"url", rawURL,
		"filename", name,
		"bytes", n,
		"content_type", resp.Header.Get("Content-Type"),
	)

	result.Status = model.StatusDownloaded
	result.Bytes = n
	return result
}

// save streams the body of rawURL into a new file at path. The file must not exist yet.
// On a failed transfer the partial file is removed.
func (d *Downloader) save(rawURL, path string, body io.Reader) (int64, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, imageFileMode) //nolint:gosec // path is sanitized and confined to the output directory
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return 0, err
		}
		return 0, &FilesystemError{Op: "create", Path: path, Err: err}
	}

	buf := make([]byte, d.chunkSize)
	n, copyErr := io.CopyBuffer(writerOnly{f}, body, buf)
	closeErr := f.Close()

	if copyErr == nil && closeErr == nil {
		return n, nil
	}

	if removeErr := os.Remove(path); removeErr != nil {
		d.logger.Warn("failed to remove partial file", "path", path, "error", removeErr)
	}

	if copyErr != nil {
		var fe *FilesystemError
		if !errors.As(copyErr, &fe) {
			// Read side failures come from the network.
			copyErr = &fetcher.TransportError{URL: rawURL, Err: fmt.Errorf("failed to read body: %w", copyErr)}
		}
		return n, copyErr
	}
	return n, &FilesystemError{Op: "write", Path: path, Err: closeErr}
}

// writerOnly hides ReadFrom so io.CopyBuffer uses the provided buffer,
// and tags write failures as filesystem errors.
type writerOnly struct {
	f *os.File
}

func (w writerOnly) Write(p []byte) (int, error) {
	n, err := w.f.Write(p)
	if err != nil {
		return n, &FilesystemError{Op: "write", Path: w.f.Name(), Err: err}
	}
	return n, nil
}

func failed(result model.DownloadResult, err error) model.DownloadResult {
	result.Status = model.StatusFailed
	result.Reason = err.Error()
	return result
}
