// Package model defines the core data structures used throughout imagescraper.
//
// This package contains the following main types:
//   - Page: The fetched HTML document and the base URL used for resolution
//   - DownloadResult: The outcome for one accepted image URL
//   - ImageInfo: Dimensions and EXIF metadata of a local image
//   - RunReport: Everything collected during one scrape run
//   - Summary: Aggregated counts printed at the end of a run
//
// The models are serializable to JSON for report output and database storage.
package model
