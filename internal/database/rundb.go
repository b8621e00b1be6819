package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/imagescraper/internal/model"
)

// FileName is the name of the history database inside the data directory.
const FileName = "imagescraper.db"

// RunDB provides SQLite-based storage for scrape run history.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per scrape run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		target TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		output_dir TEXT NOT NULL,
		candidates INTEGER NOT NULL DEFAULT 0,
		total_found INTEGER NOT NULL DEFAULT 0,
		downloaded INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		bytes_written INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		report_json TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_target ON runs(target);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per accepted image URL of a run
	CREATE TABLE IF NOT EXISTS assets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		filename TEXT,
		status TEXT NOT NULL,
		bytes INTEGER NOT NULL DEFAULT 0,
		reason TEXT,
		format TEXT,
		width INTEGER,
		height INTEGER,
		has_gps INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_assets_run ON assets(run_id);
	CREATE INDEX IF NOT EXISTS idx_assets_url ON assets(url);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID           int64     `json:"id"`
	Target       string    `json:"target"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	OutputDir    string    `json:"output_dir"`
	Candidates   int       `json:"candidates"`
	TotalFound   int       `json:"total_found"`
	Downloaded   int       `json:"downloaded"`
	Skipped      int       `json:"skipped"`
	Failed       int       `json:"failed"`
	BytesWritten int64     `json:"bytes_written"`
	Error        string    `json:"error,omitempty"`
}

// Duration returns how long the run took.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// AssetRecord is one row of the assets table.
type AssetRecord struct {
	ID       int64                `json:"id"`
	RunID    int64                `json:"run_id"`
	URL      string               `json:"url"`
	Filename string               `json:"filename"`
	Status   model.DownloadStatus `json:"status"`
	Bytes    int64                `json:"bytes"`
	Reason   string               `json:"reason,omitempty"`
	Format   string               `json:"format,omitempty"`
	Width    int                  `json:"width,omitempty"`
	Height   int                  `json:"height,omitempty"`
	HasGPS   bool                 `json:"has_gps"`
}

// SaveRun stores a finished run and its download results in one transaction.
// It returns the id of the new runs row.
func (rdb *RunDB) SaveRun(ctx context.Context, report *model.RunReport) (int64, error) {
	if report == nil {
		return 0, errors.New("report is nil")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize report: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after Commit
	}()

	s := report.Summary()
	query := `
	INSERT INTO runs (target, started_at, finished_at, output_dir, candidates,
		total_found, downloaded, skipped, failed, bytes_written, error, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		report.Target,
		formatTimestamp(report.StartedAt),
		nullTimestamp(report.FinishedAt),
		report.OutputDir,
		len(report.Candidates),
		s.TotalFound,
		s.Downloaded,
		s.Skipped,
		s.Failed,
		s.BytesWritten,
		nullString(report.ErrorMessage),
		string(reportJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to save run: %w", err)
	}

	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO assets (run_id, url, filename, status, bytes, reason, format, width, height, has_gps)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare asset insert: %w", err)
	}
	defer stmt.Close()

	for _, res := range report.Results {
		var (
			format        sql.NullString
			width, height sql.NullInt64
			hasGPS        bool
		)
		if res.Image != nil {
			format = nullString(res.Image.Format)
			if res.Image.Width > 0 {
				width = sql.NullInt64{Int64: int64(res.Image.Width), Valid: true}
				height = sql.NullInt64{Int64: int64(res.Image.Height), Valid: true}
			}
			hasGPS = res.Image.HasGPS
		}

		if _, err := stmt.ExecContext(ctx,
			runID,
			res.URL,
			nullString(res.Filename),
			string(res.Status),
			res.Bytes,
			nullString(res.Reason),
			format,
			width,
			height,
			hasGPS,
		); err != nil {
			return 0, fmt.Errorf("failed to save asset %s: %w", res.URL, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	return runID, nil
}

// ListRuns returns the most recent runs, newest first.
// An empty target lists runs of every target. A limit <= 0 means no limit.
func (rdb *RunDB) ListRuns(ctx context.Context, target string, limit int) ([]RunRecord, error) {
	query := `
	SELECT id, target, started_at, finished_at, output_dir, candidates,
		total_found, downloaded, skipped, failed, bytes_written, error
	FROM runs
	WHERE (? = '' OR target = ?)
	ORDER BY started_at DESC, id DESC
	LIMIT ?
	`
	if limit <= 0 {
		limit = -1
	}

	rows, err := rdb.db.QueryContext(ctx, query, target, target, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var (
			run       RunRecord
			startedAt string
			finished  sql.NullString
			errText   sql.NullString
		)
		if err := rows.Scan(&run.ID, &run.Target, &startedAt, &finished, &run.OutputDir,
			&run.Candidates, &run.TotalFound, &run.Downloaded, &run.Skipped, &run.Failed,
			&run.BytesWritten, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = parseTimestamp(startedAt)
		if finished.Valid {
			run.FinishedAt = parseTimestamp(finished.String)
		}
		run.Error = errText.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetRunAssets returns the asset rows of a run in processing order.
func (rdb *RunDB) GetRunAssets(ctx context.Context, runID int64) ([]AssetRecord, error) {
	query := `
	SELECT id, run_id, url, filename, status, bytes, reason, format, width, height, has_gps
	FROM assets
	WHERE run_id = ?
	ORDER BY id
	`

	rows, err := rdb.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run assets: %w", err)
	}
	defer rows.Close()

	var assets []AssetRecord
	for rows.Next() {
		var (
			asset                    AssetRecord
			status                   string
			filename, reason, format sql.NullString
			width, height            sql.NullInt64
		)
		if err := rows.Scan(&asset.ID, &asset.RunID, &asset.URL, &filename, &status,
			&asset.Bytes, &reason, &format, &width, &height, &asset.HasGPS); err != nil {
			return nil, fmt.Errorf("failed to scan asset: %w", err)
		}

		asset.Status = model.DownloadStatus(status)
		asset.Filename = filename.String
		asset.Reason = reason.String
		asset.Format = format.String
		asset.Width = int(width.Int64)
		asset.Height = int(height.Int64)
		assets = append(assets, asset)
	}

	return assets, rows.Err()
}

// GetRunReport returns the stored JSON report of a run, or nil if the run doesn't exist.
func (rdb *RunDB) GetRunReport(ctx context.Context, runID int64) (*model.RunReport, error) {
	var reportJSON sql.NullString
	err := rdb.db.QueryRowContext(ctx, `SELECT report_json FROM runs WHERE id = ?`, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil //nolint:nilnil // missing run is not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run report: %w", err)
	}
	if !reportJSON.Valid {
		return nil, nil //nolint:nilnil // run saved without a report
	}

	var report model.RunReport
	if err := json.Unmarshal([]byte(reportJSON.String), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}

	return &report, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTimestamp(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTimestamp(t), Valid: true}
}

// timestampLayout is fixed-width UTC so that text ordering matches time ordering.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
