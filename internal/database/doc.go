// Package database provides SQLite-based run history for imagescraper.
//
// The RunDB stores:
//   - One row per scrape run with its summary counts and fatal error
//   - One row per accepted image URL with its download outcome
//   - The full run report as JSON for later inspection
//
// SQLite is used through modernc.org/sqlite, which is CGO-free, so the
// history file is a single portable database under the XDG data directory.
package database
