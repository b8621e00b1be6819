package fetcher

import (
	"bufio"
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"fmt"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// acceptEncoding is advertised on page requests. Every listed coding is
// decoded by decompress.
const acceptEncoding = "gzip, deflate, br"

// decompress wraps body with the decoder matching the Content-Encoding
// header. Servers that compress without saying so are caught by sniffing
// the gzip magic bytes. The returned closer releases decoder resources.
func decompress(body io.Reader, contentEncoding string) (io.Reader, func() error, error) {
	noop := func() error { return nil }
	br := bufio.NewReader(body)

	switch strings.ToLower(strings.TrimSpace(contentEncoding)) {
	case "", "identity":
		magic, _ := br.Peek(2) //nolint:errcheck // short bodies are simply not gzip
		if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
			return gunzip(br)
		}
		return br, noop, nil
	case "gzip", "x-gzip":
		return gunzip(br)
	case "deflate":
		// RFC 9110 deflate is zlib-wrapped, but some servers send a raw stream.
		header, _ := br.Peek(2) //nolint:errcheck // handled by the length check
		if len(header) == 2 && isZlibHeader(header[0], header[1]) {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, noop, fmt.Errorf("failed to read zlib stream: %w", err)
			}
			return zr, zr.Close, nil
		}
		fr := flate.NewReader(br)
		return fr, fr.Close, nil
	case "br":
		return brotli.NewReader(br), noop, nil
	default:
		return nil, noop, fmt.Errorf("unsupported content encoding %q", contentEncoding)
	}
}

func gunzip(r io.Reader) (io.Reader, func() error, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, func() error { return nil }, fmt.Errorf("failed to read gzip stream: %w", err)
	}
	return gz, gz.Close, nil
}

// isZlibHeader reports whether the two bytes form a valid zlib header
// (deflate method with a correct check value).
func isZlibHeader(cmf, flg byte) bool {
	return cmf&0x0f == 8 && (uint16(cmf)<<8|uint16(flg))%31 == 0
}

// toUTF8 converts raw document bytes to a UTF-8 string. The encoding is
// taken from the BOM, the Content-Type header or a <meta> charset
// declaration in the first 1024 bytes, falling back to UTF-8 / windows-1252
// detection. It returns the decoded text and the charset name used.
func toUTF8(raw []byte, contentType string) (string, string, error) {
	enc, name, _ := charset.DetermineEncoding(raw, contentType)
	if name == "utf-8" {
		return string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))), name, nil
	}

	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(raw), enc.NewDecoder()))
	if err != nil {
		return "", name, fmt.Errorf("failed to decode %s document: %w", name, err)
	}
	return string(decoded), name, nil
}
