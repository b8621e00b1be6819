package model

// DownloadStatus is the outcome of processing one accepted URL.
type DownloadStatus string

const (
	// StatusSkipped means a file with the derived name already existed.
	// It counts as a success in the summary.
	StatusSkipped DownloadStatus = "skipped"

	// StatusDownloaded means the image was fetched and written.
	StatusDownloaded DownloadStatus = "downloaded"

	// StatusFailed means a transport or filesystem error occurred.
	StatusFailed DownloadStatus = "failed"
)

// String returns the status as text.
func (s DownloadStatus) String() string {
	return string(s)
}

// IsSuccess reports whether the status counts as success.
func (s DownloadStatus) IsSuccess() bool {
	return s == StatusSkipped || s == StatusDownloaded
}

// DownloadResult records what happened to one accepted image URL.
type DownloadResult struct {
	// URL is the accepted image URL.
	URL string `json:"url"`

	// Filename is the sanitized local file name.
	Filename string `json:"filename"`

	// Path is the full local path (output directory + filename).
	Path string `json:"path"`

	// Status is the outcome.
	Status DownloadStatus `json:"status"`

	// Bytes is the number of bytes written. Zero for skipped and failed items.
	Bytes int64 `json:"bytes"`

	// Reason is the error message for failed items.
	Reason string `json:"reason,omitempty"`

	// Image holds probed metadata when inspection is enabled.
	Image *ImageInfo `json:"image,omitempty"`
}

// ImageInfo describes a local image file.
type ImageInfo struct {
	// Format is the decoded image format (jpeg, png, gif, webp, bmp, tiff, svg).
	Format string `json:"format,omitempty"`

	// Width in pixels. Zero when unknown.
	Width int `json:"width,omitempty"`

	// Height in pixels. Zero when unknown.
	Height int `json:"height,omitempty"`

	// EXIF holds selected EXIF tags by name.
	EXIF map[string]string `json:"exif,omitempty"`

	// HasGPS is true when EXIF contains GPS coordinates.
	HasGPS bool `json:"has_gps,omitempty"`

	// Err is the probe error, if any.
	Err string `json:"error,omitempty"`
}
