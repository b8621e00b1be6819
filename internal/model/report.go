package model

import "time"

// RunReport is the result structure of one scrape run.
// Steps of the pipeline fill it in order.
type RunReport struct {
	// Target is the page URL that was scanned.
	Target string `json:"target"`

	// OutputDir is the directory images were written to.
	OutputDir string `json:"output_dir"`

	// DebugHTMLPath is where the raw document was dumped. Empty if disabled.
	DebugHTMLPath string `json:"debug_html_path,omitempty"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Page is the fetched document. Nil if the fetch failed.
	Page *Page `json:"page,omitempty"`

	// Candidates are all URLs found by the extraction strategies,
	// deduplicated, in discovery order.
	Candidates []string `json:"candidates"`

	// Accepted are the candidates that passed the icon filter.
	Accepted []string `json:"accepted"`

	// Rejected are the candidates dropped by the icon filter.
	Rejected []string `json:"rejected,omitempty"`

	// Results holds one entry per accepted URL, in processing order.
	Results []DownloadResult `json:"results"`

	// PerformedSteps lists the names of the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the fatal error that stopped the run, if any.
	Error error `json:"-"`

	// ErrorMessage is the text of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewRunReport creates an empty report for target.
func NewRunReport(target, outputDir string) *RunReport {
	return &RunReport{
		Target:         target,
		OutputDir:      outputDir,
		StartedAt:      time.Now(),
		Candidates:     make([]string, 0),
		Accepted:       make([]string, 0),
		Rejected:       make([]string, 0),
		Results:        make([]DownloadResult, 0),
		PerformedSteps: make([]string, 0),
	}
}

// AddResult appends a download result.
func (r *RunReport) AddResult(result DownloadResult) {
	r.Results = append(r.Results, result)
}

// SetError records a fatal error.
func (r *RunReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// Finish stamps the end time.
func (r *RunReport) Finish() {
	r.FinishedAt = time.Now()
}

// Duration returns how long the run took. Zero until Finish is called.
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Summary aggregates the download results.
func (r *RunReport) Summary() Summary {
	s := Summary{TotalFound: len(r.Accepted)}

	for _, res := range r.Results {
		switch res.Status {
		case StatusDownloaded:
			s.Downloaded++
			s.BytesWritten += res.Bytes
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
		if res.Image != nil && res.Image.HasGPS {
			s.WithGPS++
		}
	}
	s.Succeeded = s.Downloaded + s.Skipped

	return s
}

// FailedResults returns only the failed download results.
func (r *RunReport) FailedResults() []DownloadResult {
	failed := make([]DownloadResult, 0)
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Summary holds the counts printed at the end of a run.
type Summary struct {
	// TotalFound is the number of accepted image URLs.
	TotalFound int `json:"total_found"`

	// Downloaded is the number of newly written files.
	Downloaded int `json:"downloaded"`

	// Skipped is the number of files that already existed.
	Skipped int `json:"skipped"`

	// Failed is the number of URLs that could not be saved.
	Failed int `json:"failed"`

	// Succeeded is Downloaded + Skipped.
	Succeeded int `json:"succeeded"`

	// BytesWritten is the total size of newly written files.
	BytesWritten int64 `json:"bytes_written"`

	// WithGPS is the number of inspected images carrying GPS coordinates.
	WithGPS int `json:"with_gps,omitempty"`
}
