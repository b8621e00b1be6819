// Package downloader saves accepted image URLs into the output directory.
//
// Each URL maps to a local filename that is derived once and never changes
// between runs:
//
//  1. the last path segment of the URL, percent-decoded, plus "?query"
//     when the URL has one ("image.jpg" when the segment is empty)
//  2. ".jpg" appended unless the name already ends in an image extension
//  3. every character outside [a-zA-Z0-9._-] replaced with "_"
//
// So https://x.test/gallery/img?v=2 is stored as img_v_2.jpg.
//
// When two distinct URLs of one run map to the same name, the first keeps
// it and later ones get a short SHA3 suffix of their URL.
//
// An existing file is never touched: the URL is reported as skipped.
// Otherwise the body is streamed to a newly created file in fixed-size
// chunks. A failed transfer removes its partial file and is reported as
// failed without stopping the run.
package downloader
