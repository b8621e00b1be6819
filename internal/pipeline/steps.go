package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/downloader"
	"github.com/nao1215/imagescraper/internal/extractor"
	"github.com/nao1215/imagescraper/internal/fetcher"
	"github.com/nao1215/imagescraper/internal/inspect"
	"github.com/nao1215/imagescraper/internal/model"
)

// sampleSize is the number of accepted URLs echoed after extraction.
const sampleSize = 5

// ErrNoPage is returned by steps that need a fetched document when the
// report has none.
var ErrNoPage = errors.New("no page in report: fetch step must run first")

// FetchStep retrieves the target document.
// A failure here is fatal for the run.
type FetchStep struct {
	fetcher *fetcher.Fetcher
	out     io.Writer
}

// NewFetchStep creates a new fetch step. Progress lines go to out.
func NewFetchStep(f *fetcher.Fetcher, out io.Writer) *FetchStep {
	return &FetchStep{fetcher: f, out: out}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do executes the fetch step.
func (s *FetchStep) Do(ctx context.Context, report *model.RunReport) error {
	printf(s.out, "Fetching HTML...\n")

	page, err := s.fetcher.Fetch(ctx, report.Target)
	if err != nil {
		return err
	}
	report.Page = page

	printf(s.out, "HTML fetched successfully.\n\n")
	return nil
}

// DebugDumpStep writes the fetched document to a file for manual
// inspection. The file is overwritten on every run.
type DebugDumpStep struct {
	path   string
	out    io.Writer
	logger *slog.Logger
}

// NewDebugDumpStep creates a new debug dump step writing to path.
func NewDebugDumpStep(path string, out io.Writer, logger *slog.Logger) *DebugDumpStep {
	return &DebugDumpStep{path: path, out: out, logger: logger}
}

// Name returns the step name.
func (s *DebugDumpStep) Name() string {
	return "debug_dump"
}

// Do executes the debug dump step. A write failure is logged and does not
// stop the run.
func (s *DebugDumpStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Page == nil {
		return ErrNoPage
	}

	if err := os.WriteFile(s.path, []byte(report.Page.Body), 0o600); err != nil {
		s.logger.Warn("failed to save debug HTML", "path", s.path, "error", err)
		return nil
	}
	report.DebugHTMLPath = s.path

	printf(s.out, "Saved HTML to %s for inspection.\n\n", s.path)
	return nil
}

// ExtractStep collects candidate image URLs from the document.
type ExtractStep struct {
	extractor *extractor.Extractor
	out       io.Writer
}

// NewExtractStep creates a new extraction step.
func NewExtractStep(e *extractor.Extractor, out io.Writer) *ExtractStep {
	return &ExtractStep{extractor: e, out: out}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do executes the extraction step.
func (s *ExtractStep) Do(_ context.Context, report *model.RunReport) error {
	if report.Page == nil {
		return ErrNoPage
	}

	printf(s.out, "Extracting image URLs...\n")

	urls, err := s.extractor.Extract(report.Page.Body, report.Page.BaseURL)
	if err != nil {
		return fmt.Errorf("failed to extract image URLs: %w", err)
	}
	report.Candidates = urls
	return nil
}

// ClassifyStep drops icon and favicon candidates.
type ClassifyStep struct {
	classifier *extractor.Classifier
	out        io.Writer
	logger     *slog.Logger
}

// NewClassifyStep creates a new classification step.
func NewClassifyStep(c *extractor.Classifier, out io.Writer, logger *slog.Logger) *ClassifyStep {
	return &ClassifyStep{classifier: c, out: out, logger: logger}
}

// Name returns the step name.
func (s *ClassifyStep) Name() string {
	return "classify"
}

// Do executes the classification step and prints a short sample of the
// accepted URLs.
func (s *ClassifyStep) Do(_ context.Context, report *model.RunReport) error {
	report.Accepted, report.Rejected = s.classifier.Partition(report.Candidates)

	s.logger.Debug("candidates classified",
		"candidates", len(report.Candidates),
		"accepted", len(report.Accepted),
		"rejected", len(report.Rejected),
	)

	printf(s.out, "Found %d unique images.\n", len(report.Accepted))
	if len(report.Accepted) > 0 {
		printf(s.out, "Sample URLs:\n")
		for i, u := range report.Accepted[:min(sampleSize, len(report.Accepted))] {
			printf(s.out, "  %d. %s\n", i+1, u)
		}
	}
	printf(s.out, "\n")
	return nil
}

// DownloadStep saves every accepted URL into the output directory.
type DownloadStep struct {
	downloader *downloader.Downloader
	out        io.Writer
}

// NewDownloadStep creates a new download step.
func NewDownloadStep(d *downloader.Downloader, out io.Writer) *DownloadStep {
	return &DownloadStep{downloader: d, out: out}
}

// Name returns the step name.
func (s *DownloadStep) Name() string {
	return "download"
}

// Do executes the download step. Only an unusable output directory or
// cancellation stops it; each image failure is recorded and skipped over.
func (s *DownloadStep) Do(ctx context.Context, report *model.RunReport) error {
	if err := s.downloader.Prepare(); err != nil {
		return err
	}

	printf(s.out, "Downloading images...\n\n")

	total := len(report.Accepted)
	for i, u := range report.Accepted {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := s.downloader.Download(ctx, u)
		report.AddResult(result)

		switch result.Status {
		case model.StatusSkipped:
			printf(s.out, "[%d/%d] Skipped (exists): %s\n", i+1, total, result.Filename)
		case model.StatusDownloaded:
			printf(s.out, "[%d/%d] Downloaded: %s\n", i+1, total, result.Filename)
		case model.StatusFailed:
			printf(s.out, "[%d/%d] Failed: %s - %s\n", i+1, total, result.Filename, result.Reason)
		}
	}
	return nil
}

// InspectStep probes the saved files for dimensions and EXIF metadata.
type InspectStep struct {
	inspector *inspect.Inspector
	logger    *slog.Logger
}

// NewInspectStep creates a new inspection step.
func NewInspectStep(i *inspect.Inspector, logger *slog.Logger) *InspectStep {
	return &InspectStep{inspector: i, logger: logger}
}

// Name returns the step name.
func (s *InspectStep) Name() string {
	return "inspect"
}

// Do executes the inspection step.
func (s *InspectStep) Do(ctx context.Context, report *model.RunReport) error {
	for i := range report.Results {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := &report.Results[i]
		if !result.Status.IsSuccess() {
			continue
		}

		result.Image = s.inspector.Inspect(result.Path)
		if result.Image.HasGPS {
			s.logger.Warn("image carries GPS coordinates",
				"filename", result.Filename,
				"url", result.URL,
			)
		}
	}
	return nil
}

// DefaultPipeline assembles the standard scrape from cfg.
// client is shared by the page fetch and the image downloads; progress
// lines are written to out.
func DefaultPipeline(cfg *config.Config, client *http.Client, out io.Writer, opts ...Option) *Pipeline {
	p := New(opts...)
	logger := p.logger

	f := fetcher.New(client,
		fetcher.WithUserAgent(cfg.PageUserAgent),
		fetcher.WithMaxBodySize(cfg.MaxPageSize),
		fetcher.WithLogger(logger),
	)

	e := extractor.New(
		extractor.WithAssetPathHeuristic(cfg.AssetPathHeuristic),
		extractor.WithLogger(logger),
	)

	var classifierOpts []extractor.ClassifierOption
	if cfg.LegacyIconRule {
		classifierOpts = append(classifierOpts, extractor.WithLegacyIconRule())
	}

	d := downloader.New(client, cfg.OutputDir,
		downloader.WithUserAgent(cfg.ImageUserAgent),
		downloader.WithChunkSize(cfg.ChunkSize),
		downloader.WithLogger(logger),
	)

	p.AddStep(NewFetchStep(f, out))
	if cfg.DebugHTMLPath != "" {
		p.AddStep(NewDebugDumpStep(cfg.DebugHTMLPath, out, logger))
	}
	p.AddSteps(
		NewExtractStep(e, out),
		NewClassifyStep(extractor.NewClassifier(classifierOpts...), out, logger),
		NewDownloadStep(d, out),
	)
	if cfg.Inspect {
		inspector := inspect.New(
			inspect.WithMaxFileSize(cfg.MaxInspectSize),
			inspect.WithLogger(logger),
		)
		p.AddStep(NewInspectStep(inspector, logger))
	}

	return p
}

// printf writes a progress line. A nil writer discards it.
func printf(w io.Writer, format string, args ...any) {
	if w == nil {
		return
	}
	fmt.Fprintf(w, format, args...) //nolint:errcheck // progress output is best effort
}
