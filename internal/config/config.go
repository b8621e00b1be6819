package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTargetURL is the page scanned when no URL is given on the command line.
	DefaultTargetURL = "https://www.balloonlightprag.cz"

	// DefaultOutputDir is where downloaded images are written.
	// It matches the static asset directory of the website repository.
	DefaultOutputDir = "public/images"

	// DefaultDebugHTMLPath is the file that receives the raw fetched document
	// on every run. It is overwritten each time.
	DefaultDebugHTMLPath = "debug-html.html"

	// DefaultTimeout applies to every single HTTP request (page and images).
	DefaultTimeout = 30 * time.Second

	// DefaultChunkSize is the buffer size used when streaming image bodies to disk.
	DefaultChunkSize = 8192

	// DefaultMaxPageSize caps how much of the HTML document is read.
	DefaultMaxPageSize = 20 * 1024 * 1024 // 20MB

	// DefaultMaxInspectSize caps how much of a downloaded image is read
	// when looking for EXIF metadata.
	DefaultMaxInspectSize = 32 * 1024 * 1024 // 32MB

	// DefaultPageUserAgent is sent when fetching the target page.
	// Some hosting providers serve a stripped page to unknown clients,
	// so a current desktop browser string is used.
	DefaultPageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultImageUserAgent is sent when downloading individual images.
	DefaultImageUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// AppName is the application name used for XDG directory paths.
	AppName = "imagescraper"
)

// Config holds all configuration options for a scrape run.
// It is built once from CLI flags and the optional config file and then
// passed explicitly to the pipeline; nothing reads process-wide globals.
type Config struct {
	// TargetURL is the absolute URL of the page to scan for images.
	TargetURL string

	// OutputDir is the directory that receives downloaded images.
	// It is created, including parents, if it does not exist.
	OutputDir string

	// DebugHTMLPath is where the raw fetched HTML is dumped for inspection.
	// An empty value disables the dump.
	DebugHTMLPath string

	// PageUserAgent is the User-Agent header used for the page request.
	PageUserAgent string

	// ImageUserAgent is the User-Agent header used for image requests.
	ImageUserAgent string

	// Timeout bounds each HTTP request. Requests are never retried.
	Timeout time.Duration

	// ChunkSize is the copy buffer size for streaming image bodies.
	ChunkSize int

	// MaxPageSize limits how many bytes of the HTML document are read.
	MaxPageSize int64

	// MaxInspectSize limits how many bytes of each image are read for EXIF parsing.
	MaxInspectSize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" format.
	ProxyAddress string

	// Cookie is sent with every request to the target host when set.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string

	// Headers are extra HTTP headers sent with every request.
	Headers map[string]string

	// AssetPathHeuristic enables the additional extraction strategy that picks
	// up src/href values pointing into common asset directories.
	AssetPathHeuristic bool

	// LegacyIconRule restores the older icon exception list, which does not
	// treat ".svg" as an image extension when deciding whether an "icon" URL
	// should be kept.
	LegacyIconRule bool

	// Inspect enables dimension and EXIF probing of the local image files.
	Inspect bool

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, .imagescraper is searched in the current directory,
	// the home directory and the XDG config directory.
	ConfigFilePath string

	// JSONReport prints the run report as JSON. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport prints the run report as Markdown. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the report to this path instead of stdout.
	ReportFile string

	// SaveToDB records the run in the history database.
	SaveToDB bool

	// DBDir is the directory holding the history database.
	DBDir string
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		TargetURL:      DefaultTargetURL,
		OutputDir:      DefaultOutputDir,
		DebugHTMLPath:  DefaultDebugHTMLPath,
		PageUserAgent:  DefaultPageUserAgent,
		ImageUserAgent: DefaultImageUserAgent,
		Timeout:        DefaultTimeout,
		ChunkSize:      DefaultChunkSize,
		MaxPageSize:    DefaultMaxPageSize,
		MaxInspectSize: DefaultMaxInspectSize,
		Headers:        make(map[string]string),
		DBDir:          XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for imagescraper.
// On Linux: ~/.local/share/imagescraper
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for imagescraper.
// On Linux: ~/.config/imagescraper
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ApplySite overlays the non-zero values of a site configuration.
// Headers are merged, with site values winning.
func (c *Config) ApplySite(site SiteConfig) {
	if site.Cookie != "" {
		c.Cookie = site.Cookie
	}
	if site.UserAgent != "" {
		c.PageUserAgent = site.UserAgent
	}
	if site.OutputDir != "" {
		c.OutputDir = site.OutputDir
	}
	if site.AssetPathHeuristic {
		c.AssetPathHeuristic = true
	}
	if len(site.Headers) > 0 {
		if c.Headers == nil {
			c.Headers = make(map[string]string)
		}
		for k, v := range site.Headers {
			c.Headers[k] = v
		}
	}
}

// Validate checks if the configuration is valid.
// It returns the first problem found as a sentinel error.
func (c *Config) Validate() error {
	if c.TargetURL == "" {
		return ErrNoTarget
	}

	u, err := url.Parse(c.TargetURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrInvalidTargetURL
	}

	if c.OutputDir == "" {
		return ErrNoOutputDir
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if c.MaxPageSize <= 0 {
		return ErrInvalidMaxPageSize
	}

	if c.Inspect && c.MaxInspectSize <= 0 {
		return ErrInvalidMaxInspectSize
	}

	if c.ProxyAddress != "" && !IsValidProxyAddress(c.ProxyAddress) {
		return ErrInvalidProxyAddress
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// IsValidProxyAddress checks that address is in "host:port" form with a
// port between 1 and 65535.
func IsValidProxyAddress(address string) bool {
	host, port, ok := cutLast(address, ':')
	if !ok || host == "" || port == "" {
		return false
	}

	portNum := 0
	for _, c := range port {
		if c < '0' || c > '9' {
			return false
		}
		portNum = portNum*10 + int(c-'0')
		if portNum > 65535 {
			return false
		}
	}

	return portNum >= 1
}

// cutLast splits s around the last instance of sep.
func cutLast(s string, sep byte) (before, after string, found bool) {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == sep {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}
