package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Page represents the fetched target document.
type Page struct {
	// URL is the URL that was requested.
	URL string `json:"url"`

	// BaseURL is used to resolve relative references found in the document.
	// It is the requested URL itself; redirects followed by the HTTP client
	// do not change it.
	BaseURL string `json:"base_url"`

	// FinalURL is the URL of the last response after redirects.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type"`

	// Charset is the character encoding the body was decoded from.
	Charset string `json:"charset,omitempty"`

	// Body is the document decoded to UTF-8 text.
	Body string `json:"-"`

	// Size is the length of Body in bytes.
	Size int `json:"size"`

	// Hash is the SHA-256 hash of Body.
	// Used to tell whether the target changed between recorded runs.
	Hash string `json:"hash"`

	// FetchedAt is when the response was received.
	FetchedAt time.Time `json:"fetched_at"`
}

// ComputeHash calculates the SHA-256 hash of the body and sets Size.
func (p *Page) ComputeHash() {
	p.Size = len(p.Body)
	if p.Body == "" {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256([]byte(p.Body))
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the content type indicates HTML.
// An empty content type is treated as HTML since many small hosts omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(p.ContentType)
	return ct == "" ||
		strings.HasPrefix(ct, "text/html") ||
		strings.HasPrefix(ct, "application/xhtml+xml")
}
