package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/imagescraper/internal/model"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing, for example as a
// pull request comment when refreshing a site's image assets.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)
	s := report.Summary()

	w.writeHeader(md, report)
	w.writeSummary(md, report, s)
	w.writeImages(md, report)
	w.writeFailures(md, report)
	w.writeRejected(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RunReport) {
	md.H1("Image Scrape Report")
	md.PlainText("")

	rows := [][]string{
		{"Target", "`" + report.Target + "`"},
	}
	if report.Page != nil && report.Page.FinalURL != "" && report.Page.FinalURL != report.Target {
		rows = append(rows, []string{"Final URL", "`" + report.Page.FinalURL + "`"})
	}
	rows = append(rows,
		[]string{"Started", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
		[]string{"Duration", report.Duration().Round(time.Millisecond).String()},
		[]string{"Output Directory", "`" + absPath(report.OutputDir) + "`"},
		[]string{"Status", w.getStatusText(report)},
	)

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows:   rows,
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RunReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if report.Summary().Failed > 0 {
		return "⚠️ Completed with failures"
	}
	return "✅ Complete"
}

// writeSummary writes the counts table, a status chart and an alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.RunReport, s model.Summary) {
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Candidates found", strconv.Itoa(len(report.Candidates))},
			{"Icons filtered", strconv.Itoa(len(report.Rejected))},
			{"Total images found", strconv.Itoa(s.TotalFound)},
			{"Downloaded", strconv.Itoa(s.Downloaded)},
			{"Skipped (exists)", strconv.Itoa(s.Skipped)},
			{"Failed", strconv.Itoa(s.Failed)},
			{"Bytes written", formatBytes(s.BytesWritten)},
		},
	})
	md.PlainText("")

	if len(report.Results) > 0 {
		w.writePieChart(md, s)
	}

	switch {
	case s.WithGPS > 0:
		md.Cautionf("%d image(s) contain GPS coordinates in EXIF metadata. Strip them before publishing.", s.WithGPS)
	case s.Failed > 0:
		md.Warningf("%d image(s) could not be downloaded. Rerun to retry them.", s.Failed)
	case s.TotalFound == 0:
		md.Note("No images were found on the page.")
	default:
		md.Tip("All images are available locally.")
	}
	md.PlainText("")
}

// writePieChart writes a mermaid pie chart of download outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Download Results"),
		piechart.WithShowData(true),
	)

	if s.Downloaded > 0 {
		chart.LabelAndIntValue("Downloaded", uint64(s.Downloaded))
	}
	if s.Skipped > 0 {
		chart.LabelAndIntValue("Skipped", uint64(s.Skipped))
	}
	if s.Failed > 0 {
		chart.LabelAndIntValue("Failed", uint64(s.Failed))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeImages writes one table row per processed URL.
func (w *MarkdownWriter) writeImages(md *markdown.Markdown, report *model.RunReport) {
	md.H2("Images")
	md.PlainText("")

	if len(report.Results) == 0 {
		md.PlainText("No images processed.")
		md.PlainText("")
		return
	}

	withInfo := inspected(report)
	header := []string{"#", "File", "Status", "Size", "URL"}
	if withInfo {
		header = append(header, "Format", "Dimensions", "GPS")
	}

	rows := make([][]string, len(report.Results))
	for i, r := range report.Results {
		size := "-"
		if r.Bytes > 0 {
			size = formatBytes(r.Bytes)
		}
		row := []string{
			strconv.Itoa(i + 1),
			"`" + r.Filename + "`",
			statusText(r.Status),
			size,
			truncateString(r.URL, 80),
		}
		if withInfo {
			gps := "-"
			if r.Image != nil && r.Image.HasGPS {
				gps = "⚠️ yes"
			}
			row = append(row, imageFormat(r.Image), dimensions(r.Image), gps)
		}
		rows[i] = row
	}

	md.Table(markdown.TableSet{
		Header: header,
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFailures lists the reason for each failed download.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, report *model.RunReport) {
	failed := report.FailedResults()
	if len(failed) == 0 {
		return
	}

	md.H2("Failures")
	md.PlainText("")

	items := make([]string, len(failed))
	for i, r := range failed {
		items[i] = "`" + r.Filename + "`: " + r.Reason
	}
	md.BulletList(items...)
	md.PlainText("")
}

// writeRejected lists the filtered icon URLs in a collapsed block.
func (w *MarkdownWriter) writeRejected(md *markdown.Markdown, report *model.RunReport) {
	if len(report.Rejected) == 0 {
		return
	}

	var body string
	for _, u := range report.Rejected {
		body += "- " + u + "\n"
	}
	md.Details("Filtered icon URLs ("+strconv.Itoa(len(report.Rejected))+")", body)
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [imagescraper](https://github.com/nao1215/imagescraper)*")
}

func statusText(status model.DownloadStatus) string {
	switch status {
	case model.StatusDownloaded:
		return "✅ downloaded"
	case model.StatusSkipped:
		return "⏭️ skipped"
	case model.StatusFailed:
		return "❌ failed"
	default:
		return string(status)
	}
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
