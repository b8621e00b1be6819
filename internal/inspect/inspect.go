package inspect

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/nao1215/imagescraper/internal/model"
)

// DefaultMaxFileSize limits how much of a file is read for EXIF parsing.
const DefaultMaxFileSize = 32 * 1024 * 1024 // 32MB

// exifTags are the EXIF tags copied into ImageInfo.EXIF.
var exifTags = map[string]bool{
	"Make":               true,
	"Model":              true,
	"Software":           true,
	"ProcessingSoftware": true,
	"DateTimeOriginal":   true,
	"Artist":             true,
	"Copyright":          true,
	"SerialNumber":       true,
	"BodySerialNumber":   true,
	"LensSerialNumber":   true,
	"CameraOwnerName":    true,
	"GPSLatitude":        true,
	"GPSLatitudeRef":     true,
	"GPSLongitude":       true,
	"GPSLongitudeRef":    true,
	"GPSAltitude":        true,
}

// Inspector reads image headers and metadata from local files.
type Inspector struct {
	maxFileSize int64
	logger      *slog.Logger
}

// Option configures an Inspector.
type Option func(*Inspector)

// WithMaxFileSize sets the maximum number of bytes read for EXIF parsing.
// Non-positive sizes keep the default.
func WithMaxFileSize(size int64) Option {
	return func(i *Inspector) {
		if size > 0 {
			i.maxFileSize = size
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Inspector) {
		i.logger = logger
	}
}

// New creates an Inspector.
func New(opts ...Option) *Inspector {
	i := &Inspector{
		maxFileSize: DefaultMaxFileSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Inspect returns the format, dimensions and EXIF summary of the file at path.
func (i *Inspector) Inspect(path string) *model.ImageInfo {
	info := &model.ImageInfo{}

	if strings.EqualFold(filepath.Ext(path), ".svg") {
		info.Format = "svg"
		return info
	}

	f, err := os.Open(path) //nolint:gosec // path comes from the downloader and is confined to the output directory
	if err != nil {
		info.Err = err.Error()
		return info
	}
	defer f.Close()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		info.Err = fmt.Sprintf("unrecognized image data: %v", err)
		return info
	}
	info.Format = format
	info.Width = cfg.Width
	info.Height = cfg.Height

	if format != "jpeg" && format != "tiff" {
		return info
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		info.Err = err.Error()
		return info
	}
	data, err := io.ReadAll(io.LimitReader(f, i.maxFileSize))
	if err != nil {
		info.Err = err.Error()
		return info
	}

	tags, err := readEXIF(data)
	if err != nil {
		i.logger.Debug("EXIF not readable", "path", path, "error", err)
		return info
	}
	info.EXIF, info.HasGPS = summarizeEXIF(tags)

	return info
}

// readEXIF returns the flattened EXIF tags of data, or nil when the image
// has no EXIF block.
func readEXIF(data []byte) ([]exif.ExifTag, error) {
	rawExif, err := exif.SearchAndExtractExif(data)
	if err != nil {
		if errors.Is(err, exif.ErrNoExif) {
			return nil, nil
		}
		return nil, err
	}

	entries, _, err := exif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// summarizeEXIF keeps the identifying tags and reports whether any GPS
// position tag is present.
func summarizeEXIF(entries []exif.ExifTag) (map[string]string, bool) {
	if len(entries) == 0 {
		return nil, false
	}

	tags := make(map[string]string)
	hasGPS := false
	for _, entry := range entries {
		if !exifTags[entry.TagName] {
			continue
		}
		tags[entry.TagName] = strings.TrimSpace(entry.Formatted)
		if strings.HasPrefix(entry.TagName, "GPS") {
			hasGPS = true
		}
	}

	if len(tags) == 0 {
		return nil, false
	}
	return tags, hasGPS
}
