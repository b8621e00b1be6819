package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/database"
	"github.com/nao1215/imagescraper/internal/fetcher"
	"github.com/nao1215/imagescraper/internal/model"
	"github.com/nao1215/imagescraper/internal/pipeline"
	"github.com/nao1215/imagescraper/internal/report"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape [url]",
		Short: "Download all images referenced by a web page",
		Long: `Scrape fetches a single HTML page and downloads the images it references.

Image URLs are collected from:
- <img> and <picture><source> attributes (src, srcset, data-src, data-lazy-src, data-srcset)
- url(...) references in inline style attributes
- Links whose target ends in an image extension
- Absolute image URLs quoted inside <script> blocks

Favicons and extension-less icon URLs are filtered out. Files that already
exist in the output directory are skipped.

Examples:
  # Scrape the default page into public/images
  imagescraper scrape

  # Scrape another page into a custom directory
  imagescraper scrape -d ./images https://www.example.com/gallery

  # Probe dimensions and EXIF metadata of the saved images
  imagescraper scrape --inspect https://www.example.com

  # Write a Markdown report and record the run in the history database
  imagescraper scrape -m -o report.md --record https://www.example.com`,
		Args: cobra.MaximumNArgs(1),
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("output-dir", "d", config.DefaultOutputDir,
		"Directory to save images into (created if missing)")
	cmd.Flags().String("debug-html", config.DefaultDebugHTMLPath,
		"File to dump the fetched HTML into (empty to disable)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each HTTP request")
	cmd.Flags().String("user-agent", config.DefaultPageUserAgent,
		"User-Agent header for the page request")
	cmd.Flags().String("proxy", "",
		"SOCKS5 proxy address (host:port)")

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .imagescraper in current or home directory)")

	cmd.Flags().Bool("asset-paths", false,
		"Also collect src/href values pointing into image or asset directories")
	cmd.Flags().Bool("legacy-icon-rule", false,
		"Do not count .svg as an image extension when filtering icon URLs")
	cmd.Flags().Bool("inspect", false,
		"Probe dimensions and EXIF metadata of saved images")

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	cmd.Flags().Bool("record", false,
		"Record the run in the history database")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runScrapeCmd executes the scrape command.
func runScrapeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := newLogger(cmd)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// buildConfig creates a Config from the configuration file and cobra flags.
// Flags that were set explicitly win over file values.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.TargetURL = args[0]
	}

	var err error
	cfg.ConfigFilePath, err = flags.GetString("config")
	if err != nil {
		return nil, err
	}

	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cfg.ApplySite(cf.GetSiteConfig(cfg.TargetURL))
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if flags.Changed("output-dir") {
		if cfg.OutputDir, err = flags.GetString("output-dir"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("user-agent") {
		if cfg.PageUserAgent, err = flags.GetString("user-agent"); err != nil {
			return nil, err
		}
	}
	if flags.Changed("asset-paths") {
		if cfg.AssetPathHeuristic, err = flags.GetBool("asset-paths"); err != nil {
			return nil, err
		}
	}

	if cfg.DebugHTMLPath, err = flags.GetString("debug-html"); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.ProxyAddress, err = flags.GetString("proxy"); err != nil {
		return nil, err
	}
	if cfg.LegacyIconRule, err = flags.GetBool("legacy-icon-rule"); err != nil {
		return nil, err
	}
	if cfg.Inspect, err = flags.GetBool("inspect"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.SaveToDB, err = flags.GetBool("record"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	cfg.Verbose = getBoolFlag(cmd, "verbose")

	return cfg, nil
}

// runScrape runs the pipeline once and writes the report.
// Progress lines go to stdout unless a machine-readable report is printed
// there, in which case they go to stderr.
func runScrape(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	progress := stdout
	if (cfg.JSONReport || cfg.MarkdownReport) && cfg.ReportFile == "" {
		progress = stderr
	}

	var siteHost string
	if u, err := url.Parse(cfg.TargetURL); err == nil {
		siteHost = u.Hostname()
	}

	client, err := fetcher.NewHTTPClient(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithSiteHost(siteHost),
		fetcher.WithProxy(cfg.ProxyAddress),
		fetcher.WithCookie(cfg.Cookie),
		fetcher.WithHeaders(cfg.Headers),
	)
	if err != nil {
		return fmt.Errorf("failed to create HTTP client: %w", err)
	}

	logger.Info("starting scrape",
		"target", cfg.TargetURL,
		"outputDir", cfg.OutputDir,
		"proxy", cfg.ProxyAddress != "",
		"record", cfg.SaveToDB,
	)

	fmt.Fprintf(progress, "Scraping images from: %s\n\n", cfg.TargetURL)

	p := pipeline.DefaultPipeline(cfg, client, progress, pipeline.WithLogger(logger))
	runReport := model.NewRunReport(cfg.TargetURL, cfg.OutputDir)

	execErr := p.Execute(ctx, runReport)
	runReport.Finish()

	if cfg.SaveToDB {
		// The run is recorded even after an interrupt.
		if err := saveRun(context.WithoutCancel(ctx), cfg.DBDir, runReport, logger); err != nil {
			logger.Error("failed to record run", "target", cfg.TargetURL, "error", err)
		}
	}

	if execErr != nil {
		logger.Error("scrape failed", "target", cfg.TargetURL, "error", execErr)
		return execErr
	}

	return outputReport(cfg, runReport, stdout)
}

// outputReport writes the run report in the requested format.
func outputReport(cfg *config.Config, runReport *model.RunReport, stdout io.Writer) error {
	output := stdout
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Reports list every source URL, including signed ones.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	var w report.Writer
	switch {
	case cfg.JSONReport:
		w = report.NewJSONWriter(output, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		w = report.NewMarkdownWriter(output)
	default:
		w = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	if _, err := w.Write(runReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if cfg.ReportFile != "" {
		fmt.Fprintf(stdout, "\nReport written to: %s\n", cfg.ReportFile)
	}
	return nil
}

// saveRun records the run in the history database.
func saveRun(ctx context.Context, dbDir string, runReport *model.RunReport, logger *slog.Logger) error {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, runReport)
	if err != nil {
		return err
	}

	logger.Info("run recorded", "id", id, "database", db.Path())
	return nil
}
