package config

import (
	"net/url"
	"strings"
)

// SiteConfig holds per-host settings for a scrape target.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent with every request to this site.
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers sent with every request to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the page User-Agent for this site.
	UserAgent string `yaml:"userAgent,omitempty"`

	// OutputDir overrides the image output directory for this site.
	OutputDir string `yaml:"outputDir,omitempty"`

	// AssetPathHeuristic enables the asset-path extraction strategy for this site.
	AssetPathHeuristic bool `yaml:"assetPathHeuristic,omitempty"`
}

// File represents the structure of the .imagescraper configuration file.
type File struct {
	// Sites maps host names (e.g. "www.example.com") to their settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the merged configuration for a target.
// target may be a bare host or a full URL; lookup is by host name,
// with and without a leading "www.".
func (cf *File) GetSiteConfig(target string) SiteConfig {
	result := cf.Defaults
	if result.Headers != nil {
		headers := make(map[string]string, len(result.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	siteConfig, ok := cf.lookup(target)
	if !ok {
		return result
	}

	if siteConfig.Cookie != "" {
		result.Cookie = siteConfig.Cookie
	}
	if siteConfig.UserAgent != "" {
		result.UserAgent = siteConfig.UserAgent
	}
	if siteConfig.OutputDir != "" {
		result.OutputDir = siteConfig.OutputDir
	}
	if siteConfig.AssetPathHeuristic {
		result.AssetPathHeuristic = true
	}
	if len(siteConfig.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string)
		}
		for k, v := range siteConfig.Headers {
			result.Headers[k] = v
		}
	}

	return result
}

// lookup finds the site entry for target.
func (cf *File) lookup(target string) (SiteConfig, bool) {
	if cf.Sites == nil {
		return SiteConfig{}, false
	}

	host := target
	if u, err := url.Parse(target); err == nil && u.Host != "" {
		host = u.Hostname()
	}
	host = strings.ToLower(host)

	for _, key := range []string{host, strings.TrimPrefix(host, "www."), "www." + host} {
		if siteConfig, ok := cf.Sites[key]; ok {
			return siteConfig, true
		}
	}
	return SiteConfig{}, false
}
