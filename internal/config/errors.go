package config

import "errors"

// Configuration validation errors returned by Config.Validate().
// Callers can match them with errors.Is().
var (
	// ErrNoTarget is returned when no target URL is configured.
	ErrNoTarget = errors.New("no target specified: provide a page URL")

	// ErrInvalidTargetURL is returned when the target is not an absolute http(s) URL.
	ErrInvalidTargetURL = errors.New("invalid target URL: must be an absolute http or https URL")

	// ErrNoOutputDir is returned when the output directory is empty.
	ErrNoOutputDir = errors.New("no output directory specified")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidChunkSize is returned when the download chunk size is not positive.
	ErrInvalidChunkSize = errors.New("invalid chunk size: must be positive")

	// ErrInvalidMaxPageSize is returned when the page size limit is not positive.
	ErrInvalidMaxPageSize = errors.New("invalid max page size: must be positive")

	// ErrInvalidMaxInspectSize is returned when inspection is enabled with a non-positive read limit.
	ErrInvalidMaxInspectSize = errors.New("invalid max inspect size: must be positive")

	// ErrInvalidProxyAddress is returned when the proxy is not in "host:port" format.
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")
)
