package pipeline

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/extractor"
	"github.com/nao1215/imagescraper/internal/fetcher"
	"github.com/nao1215/imagescraper/internal/model"
)

// testSite serves a page referencing several images, one of them broken.
type testSite struct {
	server    *httptest.Server
	imageHits atomic.Int32
}

func newTestSite(t *testing.T) *testSite {
	t.Helper()

	var pngData bytes.Buffer
	if err := png.Encode(&pngData, image.NewRGBA(image.Rect(0, 0, 4, 3))); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	site := &testSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/gallery/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = io.WriteString(w, `<html><head><link rel="icon" href="/favicon.ico"></head><body>
<img src="a.png">
<img srcset="/img/b.png 1x, /img/c.png 2x">
<img src="/favicon.png">
<img src="/missing.png">
<div style="background-image: url('/img/bg.png')"></div>
<img src="data:image/png;base64,iVBORw0KGgo=">
</body></html>`)
	})
	serveImage := func(w http.ResponseWriter, _ *http.Request) {
		site.imageHits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(pngData.Bytes())
	}
	mux.HandleFunc("/gallery/a.png", serveImage)
	mux.HandleFunc("/img/", serveImage)
	mux.HandleFunc("/favicon.png", serveImage)
	mux.HandleFunc("/missing.png", func(w http.ResponseWriter, r *http.Request) {
		site.imageHits.Add(1)
		http.NotFound(w, r)
	})

	site.server = httptest.NewServer(mux)
	t.Cleanup(site.server.Close)
	return site
}

func testConfig(t *testing.T, target string) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.TargetURL = target
	cfg.OutputDir = filepath.Join(dir, "public", "images")
	cfg.DebugHTMLPath = filepath.Join(dir, "debug-html.html")
	cfg.Timeout = 5 * time.Second
	return cfg
}

func runPipeline(t *testing.T, cfg *config.Config) (*model.RunReport, string, error) {
	t.Helper()

	client, err := fetcher.NewHTTPClient(fetcher.WithTimeout(cfg.Timeout))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := DefaultPipeline(cfg, client, &out, WithLogger(logger))

	report := model.NewRunReport(cfg.TargetURL, cfg.OutputDir)
	err = p.Execute(context.Background(), report)
	report.Finish()
	return report, out.String(), err
}

// TestDefaultPipeline_EndToEnd tests a full run against a local site.
func TestDefaultPipeline_EndToEnd(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	cfg := testConfig(t, site.server.URL+"/gallery/")

	report, out, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantAccepted := []string{
		site.server.URL + "/gallery/a.png",
		site.server.URL + "/img/b.png",
		site.server.URL + "/img/c.png",
		site.server.URL + "/missing.png",
		site.server.URL + "/img/bg.png",
	}
	if !slices.Equal(report.Accepted, wantAccepted) {
		t.Errorf("expected accepted %v, got %v", wantAccepted, report.Accepted)
	}
	if !slices.Equal(report.Rejected, []string{site.server.URL + "/favicon.png"}) {
		t.Errorf("expected favicon to be rejected, got %v", report.Rejected)
	}

	s := report.Summary()
	if s.TotalFound != 5 || s.Downloaded != 4 || s.Failed != 1 || s.Succeeded != 4 {
		t.Errorf("unexpected summary: %+v", s)
	}

	for _, want := range []string{
		"Fetching HTML...",
		"HTML fetched successfully.",
		"Saved HTML to " + cfg.DebugHTMLPath + " for inspection.",
		"Extracting image URLs...",
		"Found 5 unique images.",
		"Sample URLs:",
		"  1. " + site.server.URL + "/gallery/a.png",
		"Downloading images...",
		"[1/5] Downloaded: a.png",
		"[4/5] Failed: missing.png - ",
		"[5/5] Downloaded: bg.png",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}

	dump, err := os.ReadFile(cfg.DebugHTMLPath)
	if err != nil {
		t.Fatalf("expected debug dump: %v", err)
	}
	if !strings.Contains(string(dump), `<img src="a.png">`) {
		t.Error("expected debug dump to hold the raw document")
	}

	wantSteps := []string{"fetch", "debug_dump", "extract", "classify", "download"}
	if !slices.Equal(report.PerformedSteps, wantSteps) {
		t.Errorf("expected steps %v, got %v", wantSteps, report.PerformedSteps)
	}
}

// TestDefaultPipeline_Idempotent tests that a second run downloads nothing.
func TestDefaultPipeline_Idempotent(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	cfg := testConfig(t, site.server.URL+"/gallery/")

	if _, _, err := runPipeline(t, cfg); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hitsAfterFirst := site.imageHits.Load()

	report, out, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := report.Summary()
	if s.Downloaded != 0 || s.BytesWritten != 0 {
		t.Errorf("expected nothing written on second run, got %+v", s)
	}
	if s.Skipped != 4 {
		t.Errorf("expected 4 skipped, got %d", s.Skipped)
	}
	if !strings.Contains(out, "[1/5] Skipped (exists): a.png") {
		t.Errorf("expected skip line, got:\n%s", out)
	}
	// Only the previously failed image is requested again.
	if got := site.imageHits.Load() - hitsAfterFirst; got != 1 {
		t.Errorf("expected 1 image request on second run, got %d", got)
	}
}

// TestDefaultPipeline_FetchFailureIsFatal tests that a failing page fetch stops the run.
func TestDefaultPipeline_FetchFailureIsFatal(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	cfg := testConfig(t, site.server.URL+"/nope")

	report, out, err := runPipeline(t, cfg)
	if !fetcher.IsTransportError(err) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if report.ErrorMessage == "" {
		t.Error("expected error to be recorded")
	}
	if strings.Contains(out, "Extracting image URLs...") {
		t.Error("expected no extraction after fetch failure")
	}
	if _, statErr := os.Stat(cfg.OutputDir); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("expected output directory not to be created")
	}
}

// TestDefaultPipeline_Options tests optional steps.
func TestDefaultPipeline_Options(t *testing.T) {
	t.Parallel()

	site := newTestSite(t)
	cfg := testConfig(t, site.server.URL+"/gallery/")
	cfg.DebugHTMLPath = ""
	cfg.Inspect = true

	report, _, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSteps := []string{"fetch", "extract", "classify", "download", "inspect"}
	if !slices.Equal(report.PerformedSteps, wantSteps) {
		t.Errorf("expected steps %v, got %v", wantSteps, report.PerformedSteps)
	}

	for _, r := range report.Results {
		if r.Status == model.StatusFailed {
			if r.Image != nil {
				t.Errorf("expected failed result %s not to be inspected", r.Filename)
			}
			continue
		}
		if r.Image == nil {
			t.Fatalf("expected %s to be inspected", r.Filename)
		}
		if r.Image.Format != "png" || r.Image.Width != 4 || r.Image.Height != 3 {
			t.Errorf("unexpected image info for %s: %+v", r.Filename, r.Image)
		}
	}
}

// TestClassifyStep_Sample tests that at most five sample URLs are printed.
func TestClassifyStep_Sample(t *testing.T) {
	t.Parallel()

	report := newReport()
	for i := range 8 {
		report.Candidates = append(report.Candidates, "https://x.test/"+string(rune('a'+i))+".jpg")
	}

	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	step := NewClassifyStep(extractor.NewClassifier(), &out, logger)
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.Contains(out.String(), "Found 8 unique images.") {
		t.Errorf("expected count line, got %q", out.String())
	}
	if !strings.Contains(out.String(), "  5. https://x.test/e.jpg") {
		t.Errorf("expected fifth sample, got %q", out.String())
	}
	if strings.Contains(out.String(), "  6. ") {
		t.Errorf("expected at most five samples, got %q", out.String())
	}
}

// TestSteps_RequirePage tests steps that need a fetched page.
func TestSteps_RequirePage(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	steps := []Step{
		NewDebugDumpStep(filepath.Join(t.TempDir(), "dump.html"), nil, logger),
		NewExtractStep(extractor.New(), nil),
	}
	for _, step := range steps {
		if err := step.Do(context.Background(), newReport()); !errors.Is(err, ErrNoPage) {
			t.Errorf("%s: expected ErrNoPage, got %v", step.Name(), err)
		}
	}
}
