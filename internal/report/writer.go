package report

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/nao1215/imagescraper/internal/model"
)

// Writer defines the interface for report output.
// Implementations write run results in various formats.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RunReport) (int, error)
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// absPath returns the absolute form of path, or path itself on error.
func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

// formatBytes renders a byte count using binary units.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// dimensions renders the inspected size of an image, or "-".
func dimensions(info *model.ImageInfo) string {
	if info == nil || info.Width == 0 || info.Height == 0 {
		return "-"
	}
	return fmt.Sprintf("%dx%d", info.Width, info.Height)
}

// imageFormat renders the inspected format of an image, or "-".
func imageFormat(info *model.ImageInfo) string {
	if info == nil || info.Format == "" {
		return "-"
	}
	return info.Format
}

// inspected reports whether any result carries inspection data.
func inspected(report *model.RunReport) bool {
	for _, r := range report.Results {
		if r.Image != nil {
			return true
		}
	}
	return false
}
