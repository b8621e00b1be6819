// Package config provides the configuration record for imagescraper runs.
// It defines defaults for the target page, output directory, HTTP behavior
// and report preferences, plus loading of the optional YAML config file.
package config
