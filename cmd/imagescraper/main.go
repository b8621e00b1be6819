// Package main provides the entry point for the imagescraper CLI.
//
// imagescraper fetches a single web page, collects every image URL it can
// find in the document and downloads the images into a local directory.
//
// Usage:
//
//	imagescraper scrape [url]
//	imagescraper history [url]
//
// See --help for all available options.
package main

func main() {
	Execute()
}
