package extractor

import (
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Strategy names, used in debug logs.
const (
	StrategyTags      = "tags"
	StrategyStyles    = "styles"
	StrategyAnchors   = "anchors"
	StrategyScripts   = "scripts"
	StrategyAssetPath = "asset_paths"
)

// tagAttributes are read from every image element, in this order.
var tagAttributes = []string{"src", "srcset", "data-src", "data-lazy-src", "data-srcset"}

// srcsetAttributes hold comma separated candidate lists.
var srcsetAttributes = map[string]bool{
	"srcset":      true,
	"data-srcset": true,
}

// assetAttributes are inspected by the asset path strategy.
var assetAttributes = []string{"src", "href", "data-src"}

var (
	styleURLPattern    = regexp.MustCompile(`url\(\s*["']?([^"')]+)["']?\s*\)`)
	anchorImagePattern = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|gif|webp|svg)$`)
	scriptURLPattern   = regexp.MustCompile(`(?i)"(https?://[^"]+\.(?:jpg|jpeg|png|gif|webp|svg)[^"]*)"`)
	assetPathPattern   = regexp.MustCompile(`(?i)(?:images?|img|photo|gallery|assets)[^"']*\.(?:jpg|jpeg|png|gif|webp|svg)`)
)

// Extractor collects image URLs from an HTML document.
type Extractor struct {
	assetPaths bool
	logger     *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithAssetPathHeuristic enables the asset directory strategy.
func WithAssetPathHeuristic(enabled bool) Option {
	return func(e *Extractor) {
		e.assetPaths = enabled
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract returns the unique image URLs referenced by document, resolved
// against baseURL, in discovery order. No icon filtering is applied.
func (e *Extractor) Extract(document, baseURL string) ([]string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}

	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)

	r := &resolver{base: base, logger: e.logger}
	set := newURLSet()

	e.collect(StrategyTags, set, func(add func(string)) {
		doc.Find("img, picture > source").Each(func(_ int, s *goquery.Selection) {
			for _, attr := range tagAttributes {
				value, ok := s.Attr(attr)
				if !ok {
					continue
				}
				if srcsetAttributes[attr] {
					for _, candidate := range splitSrcset(value) {
						add(r.resolve(candidate))
					}
					continue
				}
				add(r.resolve(value))
			}
		})
	})

	e.collect(StrategyStyles, set, func(add func(string)) {
		doc.Find("[style]").Each(func(_ int, s *goquery.Selection) {
			style, _ := s.Attr("style")
			for _, m := range styleURLPattern.FindAllStringSubmatch(style, -1) {
				add(r.resolve(m[1]))
			}
		})
	})

	e.collect(StrategyAnchors, set, func(add func(string)) {
		doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
			href, _ := s.Attr("href")
			href = strings.TrimSpace(href)
			if anchorImagePattern.MatchString(href) {
				add(r.resolve(href))
			}
		})
	})

	e.collect(StrategyScripts, set, func(add func(string)) {
		doc.Find("script").Each(func(_ int, s *goquery.Selection) {
			text := s.Text()
			if text == "" {
				return
			}
			for _, m := range scriptURLPattern.FindAllStringSubmatch(text, -1) {
				add(m[1])
			}
		})
	})

	if e.assetPaths {
		e.collect(StrategyAssetPath, set, func(add func(string)) {
			doc.Find("[src], [href], [data-src]").Each(func(_ int, s *goquery.Selection) {
				for _, attr := range assetAttributes {
					value, ok := s.Attr(attr)
					if ok && assetPathPattern.MatchString(value) {
						add(r.resolve(value))
					}
				}
			})
		})
	}

	return set.urls, nil
}

// collect runs one strategy and logs how many new URLs it contributed.
func (e *Extractor) collect(strategy string, set *urlSet, run func(add func(string))) {
	before := len(set.urls)
	run(set.add)
	e.logger.Debug("strategy finished",
		"strategy", strategy,
		"new_urls", len(set.urls)-before,
	)
}

// splitSrcset returns the URL part of each comma separated srcset entry.
// Descriptors such as "2x" or "640w" are dropped.
func splitSrcset(srcset string) []string {
	parts := strings.Split(srcset, ",")
	urls := make([]string, 0, len(parts))
	for _, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		urls = append(urls, fields[0])
	}
	return urls
}

// resolver turns attribute values into absolute URLs.
type resolver struct {
	base   *url.URL
	logger *slog.Logger
}

// resolve returns the absolute form of ref, or "" when ref is empty, a
// data: URI, or cannot be parsed.
func (r *resolver) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || isDataURI(ref) {
		return ""
	}

	u, err := url.Parse(ref)
	if err != nil {
		r.logger.Debug("dropping unparseable URL", "value", ref, "error", err)
		return ""
	}
	return r.base.ResolveReference(u).String()
}

func isDataURI(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// urlSet is a set of strings that remembers insertion order.
type urlSet struct {
	seen map[string]struct{}
	urls []string
}

func newURLSet() *urlSet {
	return &urlSet{
		seen: make(map[string]struct{}),
		urls: make([]string, 0),
	}
}

// add inserts u unless it is empty, a data: URI, or already present.
func (s *urlSet) add(u string) {
	if u == "" || isDataURI(u) {
		return
	}
	if _, ok := s.seen[u]; ok {
		return
	}
	s.seen[u] = struct{}{}
	s.urls = append(s.urls, u)
}
