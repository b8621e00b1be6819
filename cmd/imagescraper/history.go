package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/imagescraper/internal/config"
	"github.com/nao1215/imagescraper/internal/database"
)

// defaultHistoryLimit is how many runs are listed when --limit is not given.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// It lists runs recorded with "scrape --record".
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Show recorded scrape runs",
		Long: `History lists scrape runs recorded in the history database.

Runs are only recorded when scrape is called with --record. The database
lives in the XDG data directory (~/.local/share/imagescraper on Linux).

Examples:
  # List the latest runs of every target
  imagescraper history

  # List runs of one page
  imagescraper history https://www.example.com

  # Show the per-image results of run 3
  imagescraper history --run 3

  # Output as JSON
  imagescraper history --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 for all)")
	cmd.Flags().Int64P("run", "r", 0,
		"Show the per-image results of the run with this ID")
	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}

	var target string
	if len(args) > 0 {
		target = args[0]
	}

	out := cmd.OutOrStdout()

	// Reading history never creates the database.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		if _, statErr := os.Stat(filepath.Join(dbDir, database.FileName)); errors.Is(statErr, os.ErrNotExist) {
			fmt.Fprintln(out, "No runs recorded yet.")
			fmt.Fprintln(out, "\nUse 'imagescraper scrape --record' to record runs.")
			return nil
		}
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()

	if runID > 0 {
		assets, err := db.GetRunAssets(ctx, runID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, assets)
		}
		printRunAssets(out, runID, assets)
		return nil
	}

	runs, err := db.ListRuns(ctx, target, limit)
	if err != nil {
		return err
	}
	if jsonOutput {
		return writeJSON(out, runs)
	}
	printRuns(out, target, runs)
	return nil
}

// printRuns renders the run list as a text table.
func printRuns(out io.Writer, target string, runs []database.RunRecord) {
	if len(runs) == 0 {
		if target != "" {
			fmt.Fprintf(out, "No runs recorded for %s\n", target)
		} else {
			fmt.Fprintln(out, "No runs recorded yet.")
		}
		fmt.Fprintln(out, "\nUse 'imagescraper scrape --record' to record runs.")
		return
	}

	if target != "" {
		fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", target, len(runs))
	} else {
		fmt.Fprintf(out, "Run history (%d runs):\n\n", len(runs))
	}

	fmt.Fprintf(out, "  %-6s  %-19s  %5s  %5s  %5s  %5s  %s\n",
		"ID", "Date", "Found", "New", "Skip", "Fail", "Target")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 78))

	for _, run := range runs {
		line := fmt.Sprintf("  %-6d  %-19s  %5d  %5d  %5d  %5d  %s",
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			run.TotalFound,
			run.Downloaded,
			run.Skipped,
			run.Failed,
			run.Target,
		)
		if run.Error != "" {
			line += "  (error: " + run.Error + ")"
		}
		fmt.Fprintln(out, line)
	}

	fmt.Fprintln(out, "\nUse 'imagescraper history --run <id>' to see the images of a run.")
}

// printRunAssets renders the per-image results of one run.
func printRunAssets(out io.Writer, runID int64, assets []database.AssetRecord) {
	if len(assets) == 0 {
		fmt.Fprintf(out, "No images recorded for run %d\n", runID)
		return
	}

	fmt.Fprintf(out, "Images of run %d (%d):\n\n", runID, len(assets))
	for _, a := range assets {
		line := fmt.Sprintf("  [%s] %s <- %s", a.Status, a.Filename, a.URL)
		if a.Width > 0 {
			line += fmt.Sprintf(" (%s %dx%d)", a.Format, a.Width, a.Height)
		}
		if a.HasGPS {
			line += " [GPS]"
		}
		if a.Reason != "" {
			line += " - " + a.Reason
		}
		fmt.Fprintln(out, line)
	}
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
