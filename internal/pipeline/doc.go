// Package pipeline runs a scrape as a fixed sequence of steps.
//
// A run moves strictly forward: fetch the page, dump it for debugging,
// extract candidate URLs, filter icons, download the accepted images and
// optionally inspect them. Every step receives the same *model.RunReport
// and fills in its part.
//
// Steps execute one after another on the calling goroutine. The first step
// that returns an error stops the run; per-image download failures are
// recorded in the report instead and never stop it.
package pipeline
