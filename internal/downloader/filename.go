package downloader

import (
	"encoding/hex"
	"net/url"
	"path"
	"strings"

	"golang.org/x/crypto/sha3"

	"github.com/nao1215/imagescraper/internal/extractor"
)

const (
	// fallbackName is used when a URL has no final path segment.
	fallbackName = "image.jpg"

	// defaultExtension is appended to names without an image extension.
	defaultExtension = ".jpg"

	// maxFilenameLength keeps names below the 255 byte limit of common
	// filesystems, leaving room for a collision suffix.
	maxFilenameLength = 200

	// suffixLength is the number of hex digits in a collision suffix.
	suffixLength = 8
)

// FilenameFromURL derives the local filename for rawURL. The result is
// non-empty, contains only [a-zA-Z0-9._-] and ends in an image extension.
func FilenameFromURL(rawURL string) string {
	name := lastSegment(rawURL)
	if !extractor.HasImageExtension(name) {
		name += defaultExtension
	}
	return truncate(Sanitize(name), rawURL)
}

// lastSegment returns the final path segment of rawURL, percent-decoded,
// with "?query" appended when present. Fragments are ignored.
func lastSegment(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		// Keep going with the raw text so that a name is always produced.
		raw, _, _ := strings.Cut(rawURL, "#")
		raw, query, hasQuery := strings.Cut(raw, "?")
		name := raw[strings.LastIndex(raw, "/")+1:]
		if name == "" {
			name = fallbackName
		}
		if hasQuery && query != "" {
			name += "?" + query
		}
		return name
	}

	escaped := u.EscapedPath()
	name := escaped[strings.LastIndex(escaped, "/")+1:]
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	if name == "" {
		name = fallbackName
	}
	if u.RawQuery != "" {
		name += "?" + u.RawQuery
	}
	return name
}

// Sanitize replaces every character outside [a-zA-Z0-9._-] with "_".
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if isSafe(r) {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

func isSafe(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '.', r == '_', r == '-':
		return true
	}
	return false
}

// truncate shortens overlong names, keeping the extension and making the
// result unique to rawURL with a hash suffix.
func truncate(name, rawURL string) string {
	if len(name) <= maxFilenameLength {
		return name
	}
	ext := path.Ext(name)
	keep := maxFilenameLength - len(ext) - suffixLength - 1
	return name[:keep] + "-" + urlDigest(rawURL)[:suffixLength] + ext
}

// urlDigest returns the hex SHA3-256 digest of rawURL.
func urlDigest(rawURL string) string {
	sum := sha3.Sum256([]byte(rawURL))
	return hex.EncodeToString(sum[:])
}

// Namer assigns filenames to URLs for one run and resolves collisions
// between distinct URLs that sanitize to the same name.
// It is not safe for concurrent use.
type Namer struct {
	// claims maps a lowercased filename to the URL that owns it.
	// Lowercasing keeps case-insensitive filesystems consistent.
	claims map[string]string

	// names caches the name assigned to each URL.
	names map[string]string
}

// NewNamer creates an empty Namer.
func NewNamer() *Namer {
	return &Namer{
		claims: make(map[string]string),
		names:  make(map[string]string),
	}
}

// Name returns the filename for rawURL. The first URL to claim a name
// keeps it; a later distinct URL with the same name gets
// "<stem>-<sha3 prefix><ext>". Asking again for a URL returns the same name.
func (n *Namer) Name(rawURL string) string {
	if name, ok := n.names[rawURL]; ok {
		return name
	}

	name := FilenameFromURL(rawURL)
	if owner, taken := n.claims[strings.ToLower(name)]; taken && owner != rawURL {
		ext := path.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		digest := urlDigest(rawURL)
		for length := suffixLength; length <= len(digest); length += suffixLength {
			name = stem + "-" + digest[:length] + ext
			if _, taken := n.claims[strings.ToLower(name)]; !taken {
				break
			}
		}
	}

	n.claims[strings.ToLower(name)] = rawURL
	n.names[rawURL] = name
	return name
}
