package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/imagescraper/internal/model"
)

// SimpleWriter outputs the end-of-run summary as plain text.
type SimpleWriter struct {
	baseWriter

	// verbose adds the skipped/downloaded breakdown and the failure list.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary.
//
// The first lines keep the historical format:
//
//	=== Summary ===
//	Total images found: 12
//	Successfully downloaded: 11
//	Failed: 1
//
//	Images saved to: /abs/path/public/images
func (w *SimpleWriter) Write(report *model.RunReport) (int, error) {
	var sb strings.Builder
	s := report.Summary()

	sb.WriteString("\n=== Summary ===\n")
	sb.WriteString(fmt.Sprintf("Total images found: %d\n", s.TotalFound))
	sb.WriteString(fmt.Sprintf("Successfully downloaded: %d\n", s.Succeeded))
	sb.WriteString(fmt.Sprintf("Failed: %d\n", s.Failed))

	if w.verbose {
		sb.WriteString(fmt.Sprintf("  New files:      %d (%s)\n", s.Downloaded, formatBytes(s.BytesWritten)))
		sb.WriteString(fmt.Sprintf("  Already there:  %d\n", s.Skipped))
		sb.WriteString(fmt.Sprintf("  Icons filtered: %d\n", len(report.Rejected)))
		if d := report.Duration(); d > 0 {
			sb.WriteString(fmt.Sprintf("  Duration:       %s\n", d.Round(time.Millisecond)))
		}
		for _, r := range report.FailedResults() {
			sb.WriteString(fmt.Sprintf("  [x] %s - %s\n", r.Filename, r.Reason))
		}
	}

	if inspected(report) {
		w.writeInspection(&sb, report, s)
	}

	sb.WriteString(fmt.Sprintf("\nImages saved to: %s\n", absPath(report.OutputDir)))

	return w.output.Write([]byte(sb.String()))
}

// writeInspection lists the probed format and size of each image and
// flags files that carry GPS coordinates.
func (w *SimpleWriter) writeInspection(sb *strings.Builder, report *model.RunReport, s model.Summary) {
	sb.WriteString("\n=== Image details ===\n")
	for _, r := range report.Results {
		if r.Image == nil {
			continue
		}
		line := fmt.Sprintf("  %s: %s %s", r.Filename, imageFormat(r.Image), dimensions(r.Image))
		if r.Image.HasGPS {
			line += " [GPS]"
		}
		if r.Image.Err != "" {
			line += " (" + r.Image.Err + ")"
		}
		sb.WriteString(line + "\n")
	}

	if s.WithGPS > 0 {
		sb.WriteString(fmt.Sprintf("\nWARNING: %d image(s) contain GPS coordinates in EXIF metadata.\n", s.WithGPS))
	}
}
