// Package log provides secure logging functionality with automatic sanitization
// of sensitive information, built on top of the standard slog package.
//
// The SecureHandler masks:
//   - HTTP headers and cookies configured for the target site
//   - Values matching token patterns (JWT, Bearer, Basic)
//   - Signature and credential query parameters of signed image URLs
//
// # Usage
//
//	logger := log.NewSecureLogger(os.Stderr, true) // verbose=true
//	logger.Debug("downloading",
//	    "url", "https://cdn.example.com/a.jpg?X-Amz-Signature=abc", // signature masked
//	)
//	slog.SetDefault(logger)
package log
