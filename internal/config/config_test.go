package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("default TargetURL", func(t *testing.T) {
		t.Parallel()
		if cfg.TargetURL != "https://www.balloonlightprag.cz" {
			t.Errorf("expected default target, got %q", cfg.TargetURL)
		}
	})

	t.Run("default OutputDir is public/images", func(t *testing.T) {
		t.Parallel()
		if cfg.OutputDir != "public/images" {
			t.Errorf("expected OutputDir 'public/images', got %q", cfg.OutputDir)
		}
	})

	t.Run("default DebugHTMLPath is debug-html.html", func(t *testing.T) {
		t.Parallel()
		if cfg.DebugHTMLPath != "debug-html.html" {
			t.Errorf("expected DebugHTMLPath 'debug-html.html', got %q", cfg.DebugHTMLPath)
		}
	})

	t.Run("default Timeout is 30 seconds", func(t *testing.T) {
		t.Parallel()
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
	})

	t.Run("default ChunkSize is 8192", func(t *testing.T) {
		t.Parallel()
		if cfg.ChunkSize != 8192 {
			t.Errorf("expected ChunkSize 8192, got %d", cfg.ChunkSize)
		}
	})

	t.Run("user agents are set", func(t *testing.T) {
		t.Parallel()
		if cfg.PageUserAgent == "" || cfg.ImageUserAgent == "" {
			t.Error("expected non-empty user agents")
		}
	})

	t.Run("history is off by default", func(t *testing.T) {
		t.Parallel()
		if cfg.SaveToDB {
			t.Error("expected SaveToDB to be false")
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{name: "defaults are valid", modify: func(_ *Config) {}, wantErr: nil},
		{name: "empty target", modify: func(c *Config) { c.TargetURL = "" }, wantErr: ErrNoTarget},
		{name: "relative target", modify: func(c *Config) { c.TargetURL = "/gallery" }, wantErr: ErrInvalidTargetURL},
		{name: "ftp target", modify: func(c *Config) { c.TargetURL = "ftp://example.com" }, wantErr: ErrInvalidTargetURL},
		{name: "empty output dir", modify: func(c *Config) { c.OutputDir = "" }, wantErr: ErrNoOutputDir},
		{name: "zero timeout", modify: func(c *Config) { c.Timeout = 0 }, wantErr: ErrInvalidTimeout},
		{name: "negative timeout", modify: func(c *Config) { c.Timeout = -time.Second }, wantErr: ErrInvalidTimeout},
		{name: "zero chunk size", modify: func(c *Config) { c.ChunkSize = 0 }, wantErr: ErrInvalidChunkSize},
		{name: "zero max page size", modify: func(c *Config) { c.MaxPageSize = 0 }, wantErr: ErrInvalidMaxPageSize},
		{
			name:    "zero max inspect size",
			modify:  func(c *Config) { c.Inspect = true; c.MaxInspectSize = 0 },
			wantErr: ErrInvalidMaxInspectSize,
		},
		{name: "inspect size unused", modify: func(c *Config) { c.MaxInspectSize = 0 }, wantErr: nil},
		{name: "bad proxy", modify: func(c *Config) { c.ProxyAddress = "localhost" }, wantErr: ErrInvalidProxyAddress},
		{name: "good proxy", modify: func(c *Config) { c.ProxyAddress = "127.0.0.1:1080" }, wantErr: nil},
		{
			name:    "json and markdown",
			modify:  func(c *Config) { c.JSONReport = true; c.MarkdownReport = true },
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestIsValidProxyAddress tests proxy address validation.
func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		address string
		want    bool
	}{
		{"127.0.0.1:9050", true},
		{"proxy.local:1080", true},
		{"[::1]:1080", true},
		{"127.0.0.1", false},
		{":1080", false},
		{"127.0.0.1:", false},
		{"127.0.0.1:0", false},
		{"127.0.0.1:65536", false},
		{"127.0.0.1:abc", false},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			t.Parallel()
			if got := IsValidProxyAddress(tt.address); got != tt.want {
				t.Errorf("IsValidProxyAddress(%q) = %v, want %v", tt.address, got, tt.want)
			}
		})
	}
}

// TestApplySite tests overlaying a site configuration onto a Config.
func TestApplySite(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Headers["X-Default"] = "1"

	cfg.ApplySite(SiteConfig{
		Cookie:             "session=abc",
		UserAgent:          "custom-agent",
		OutputDir:          "static/img",
		AssetPathHeuristic: true,
		Headers:            map[string]string{"X-Site": "2"},
	})

	if cfg.Cookie != "session=abc" {
		t.Errorf("expected cookie to be applied, got %q", cfg.Cookie)
	}
	if cfg.PageUserAgent != "custom-agent" {
		t.Errorf("expected user agent to be applied, got %q", cfg.PageUserAgent)
	}
	if cfg.OutputDir != "static/img" {
		t.Errorf("expected output dir to be applied, got %q", cfg.OutputDir)
	}
	if !cfg.AssetPathHeuristic {
		t.Error("expected AssetPathHeuristic to be enabled")
	}
	if cfg.Headers["X-Default"] != "1" || cfg.Headers["X-Site"] != "2" {
		t.Errorf("expected merged headers, got %v", cfg.Headers)
	}

	t.Run("empty site config changes nothing", func(t *testing.T) {
		t.Parallel()

		c := NewConfig()
		c.ApplySite(SiteConfig{})
		if c.OutputDir != DefaultOutputDir || c.PageUserAgent != DefaultPageUserAgent {
			t.Error("expected defaults to be kept")
		}
	})
}

// TestFileGetSiteConfig tests the GetSiteConfig method.
func TestFileGetSiteConfig(t *testing.T) {
	t.Parallel()

	file := &File{
		Defaults: SiteConfig{
			Cookie:  "default=abc",
			Headers: map[string]string{"X-Default": "value1"},
		},
		Sites: map[string]SiteConfig{
			"balloonlightprag.cz": {
				OutputDir: "public/gallery",
				Headers:   map[string]string{"X-Custom": "value2"},
			},
		},
	}

	t.Run("returns defaults when site not found", func(t *testing.T) {
		t.Parallel()

		cfg := file.GetSiteConfig("https://unknown.example/")
		if cfg.Cookie != "default=abc" {
			t.Errorf("expected default cookie, got %q", cfg.Cookie)
		}
		if cfg.OutputDir != "" {
			t.Errorf("expected empty output dir, got %q", cfg.OutputDir)
		}
	})

	t.Run("matches full URL with www prefix", func(t *testing.T) {
		t.Parallel()

		cfg := file.GetSiteConfig("https://www.balloonlightprag.cz/gallery")
		if cfg.OutputDir != "public/gallery" {
			t.Errorf("expected site output dir, got %q", cfg.OutputDir)
		}
		if cfg.Headers["X-Default"] != "value1" || cfg.Headers["X-Custom"] != "value2" {
			t.Errorf("expected merged headers, got %v", cfg.Headers)
		}
	})

	t.Run("does not mutate defaults", func(t *testing.T) {
		t.Parallel()

		_ = file.GetSiteConfig("balloonlightprag.cz")
		if _, ok := file.Defaults.Headers["X-Custom"]; ok {
			t.Error("expected defaults headers to stay untouched")
		}
	})

	t.Run("nil sites map", func(t *testing.T) {
		t.Parallel()

		f := &File{Defaults: SiteConfig{Cookie: "a=b"}}
		cfg := f.GetSiteConfig("any.example")
		if cfg.Cookie != "a=b" {
			t.Errorf("expected default cookie, got %q", cfg.Cookie)
		}
	})
}

// TestLoadConfigFile tests the LoadConfigFile function.
func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns ErrConfigNotFound for non-existent file", func(t *testing.T) {
		t.Parallel()

		cfg, err := LoadConfigFile("/nonexistent/path/.imagescraper")
		if !errors.Is(err, ErrConfigNotFound) {
			t.Fatalf("expected ErrConfigNotFound, got: %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config when file not found")
		}
	})

	t.Run("loads valid YAML config", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".imagescraper")
		content := `defaults:
  userAgent: "test-agent"
sites:
  www.example.com:
    cookie: "session=xyz"
    outputDir: "out/images"
    assetPathHeuristic: true
    headers:
      Authorization: "Bearer token"
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Defaults.UserAgent != "test-agent" {
			t.Errorf("expected default user agent, got %q", cfg.Defaults.UserAgent)
		}
		site, ok := cfg.Sites["www.example.com"]
		if !ok {
			t.Fatal("expected www.example.com in sites")
		}
		if site.Cookie != "session=xyz" || site.OutputDir != "out/images" || !site.AssetPathHeuristic {
			t.Errorf("unexpected site config: %+v", site)
		}
		if site.Headers["Authorization"] != "Bearer token" {
			t.Error("expected Authorization header")
		}
	})

	t.Run("returns error for invalid YAML", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".imagescraper")
		if err := os.WriteFile(configPath, []byte(`invalid: yaml: content: [}`), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfigFile(configPath); err == nil {
			t.Error("expected error for invalid YAML")
		}
	})

	t.Run("initializes nil Sites map", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), ".imagescraper")
		if err := os.WriteFile(configPath, []byte("defaults:\n  cookie: a=b\n"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfigFile(configPath)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Sites == nil {
			t.Error("expected Sites map to be initialized")
		}
	})
}

// TestFindConfigFile tests the FindConfigFile function.
func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("returns explicit path if exists", func(t *testing.T) {
		t.Parallel()

		configPath := filepath.Join(t.TempDir(), "custom.yaml")
		if err := os.WriteFile(configPath, []byte("defaults: {}"), 0600); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if result := FindConfigFile(configPath); result != configPath {
			t.Errorf("expected %q, got %q", configPath, result)
		}
	})

	t.Run("returns empty for non-existent explicit path", func(t *testing.T) {
		t.Parallel()

		if result := FindConfigFile("/nonexistent/path/config.yaml"); result != "" {
			t.Errorf("expected empty string, got %q", result)
		}
	})
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); dir == "" || filepath.Base(dir) != AppName {
		t.Errorf("unexpected XDG data dir %q", dir)
	}
	if dir := XDGConfigDir(); dir == "" || filepath.Base(dir) != AppName {
		t.Errorf("unexpected XDG config dir %q", dir)
	}
}
