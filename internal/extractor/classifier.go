package extractor

import "strings"

// ImageExtensions are the file extensions recognized as images by the
// extraction strategies, the icon filter and filename derivation.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".svg"}

// legacyIconExtensions is the older icon exception list.
// It lacks ".svg", so "icon-logo.svg" is rejected under it.
var legacyIconExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// Classifier decides whether a candidate URL should be downloaded.
// It is a pure function of the URL.
type Classifier struct {
	iconExceptions []string
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithLegacyIconRule makes the icon exception ignore ".svg".
func WithLegacyIconRule() ClassifierOption {
	return func(c *Classifier) {
		c.iconExceptions = legacyIconExtensions
	}
}

// NewClassifier creates a Classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{iconExceptions: ImageExtensions}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Accept reports whether url should be downloaded.
//
// Rejected are: the empty string, anything mentioning "favicon", and
// anything mentioning "icon" that does not end in an image extension.
// Matching is case-insensitive on the whole URL string.
func (c *Classifier) Accept(url string) bool {
	if url == "" {
		return false
	}

	lower := strings.ToLower(url)
	if strings.Contains(lower, "favicon") {
		return false
	}
	if strings.Contains(lower, "icon") && !hasSuffixAny(lower, c.iconExceptions) {
		return false
	}
	return true
}

// Partition splits urls into accepted and rejected lists, keeping order.
func (c *Classifier) Partition(urls []string) (accepted, rejected []string) {
	accepted = make([]string, 0, len(urls))
	rejected = make([]string, 0)
	for _, u := range urls {
		if c.Accept(u) {
			accepted = append(accepted, u)
		} else {
			rejected = append(rejected, u)
		}
	}
	return accepted, rejected
}

// HasImageExtension reports whether name ends, case-insensitively, in one
// of ImageExtensions.
func HasImageExtension(name string) bool {
	return hasSuffixAny(strings.ToLower(name), ImageExtensions)
}

func hasSuffixAny(s string, suffixes []string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(s, suffix) {
			return true
		}
	}
	return false
}
