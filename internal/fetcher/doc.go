// Package fetcher retrieves the target HTML document.
//
// A Fetcher issues exactly one GET request per call with browser-like
// headers, decodes compressed bodies (gzip, deflate, brotli) and transcodes
// legacy charsets to UTF-8 so the extractor always sees UTF-8 text.
//
// Any non-2xx status or network failure is reported as a *TransportError.
// Requests are never retried.
//
// NewHTTPClient builds the shared *http.Client used for both the page and
// the image downloads. It applies the request timeout, an optional SOCKS5
// proxy and the per-site cookie and headers from the config file.
package fetcher
