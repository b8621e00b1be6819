// Package report renders a finished scrape run.
//
// This package contains writers for different output formats:
//   - SimpleWriter: the plain summary printed at the end of a run
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: a Markdown document with summary and per-image tables
//
// Writers implement the Writer interface, allowing them to be used
// interchangeably.
package report
