package fetcher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// maxRedirects bounds redirect chains followed by the client.
const maxRedirects = 10

// clientOptions collects the settings for NewHTTPClient.
type clientOptions struct {
	timeout      time.Duration
	proxyAddress string
	cookie       string
	headers      map[string]string
	siteHost     string
}

// ClientOption configures NewHTTPClient.
type ClientOption func(*clientOptions)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(o *clientOptions) {
		o.timeout = d
	}
}

// WithProxy routes all connections through the SOCKS5 proxy at address ("host:port").
func WithProxy(address string) ClientOption {
	return func(o *clientOptions) {
		o.proxyAddress = address
	}
}

// WithSiteHost names the host that cookies and extra headers belong to.
// Requests to any other host are sent without them.
func WithSiteHost(host string) ClientOption {
	return func(o *clientOptions) {
		o.siteHost = host
	}
}

// WithCookie attaches a raw cookie string to requests for the site host.
func WithCookie(cookie string) ClientOption {
	return func(o *clientOptions) {
		o.cookie = cookie
	}
}

// WithHeaders sets extra headers on requests for the site host.
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *clientOptions) {
		o.headers = headers
	}
}

// NewHTTPClient creates the HTTP client shared by the page fetch and the
// image downloads.
//
// The transport disables Go's transparent gzip handling so the Fetcher can
// advertise and decode brotli itself. Image downloads are stored exactly as
// served.
func NewHTTPClient(opts ...ClientOption) (*http.Client, error) {
	o := &clientOptions{}
	for _, opt := range opts {
		opt(o)
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport is not *http.Transport")
	}
	transport := base.Clone()
	transport.DisableCompression = true

	if o.proxyAddress != "" {
		dialer, err := proxy.SOCKS5("tcp", o.proxyAddress, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		if cd, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = cd.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
	}

	var rt http.RoundTripper = transport
	if o.siteHost != "" && (o.cookie != "" || len(o.headers) > 0) {
		rt = &headerInjectingTransport{
			base:     transport,
			siteHost: siteHostKey(o.siteHost),
			cookie:   o.cookie,
			headers:  o.headers,
		}
	}

	jar, _ := cookiejar.New(nil) //nolint:errcheck // cookiejar.New only fails with invalid options

	return &http.Client{
		Transport: rt,
		Timeout:   o.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// headerInjectingTransport wraps an http.RoundTripper to inject
// custom headers and cookies into requests for one site.
// Image hosts named by page content never see them, and neither does
// the destination of a cross-host redirect.
type headerInjectingTransport struct {
	base     http.RoundTripper
	siteHost string
	cookie   string
	headers  map[string]string
}

// siteHostKey normalizes a host name for comparison, folding a leading "www.".
func siteHostKey(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	return strings.TrimPrefix(host, "www.")
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if siteHostKey(req.URL.Hostname()) != t.siteHost {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
