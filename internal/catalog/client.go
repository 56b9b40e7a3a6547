package catalog

import (
	"net"
	"net/http"
	"time"
)

const (
	// DefaultTimeout is the total upstream request timeout.
	DefaultTimeout = 10 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// TLSHandshakeTimeout is the TLS negotiation timeout.
	TLSHandshakeTimeout = 5 * time.Second

	// maxBodyBytes bounds how much of an upstream response is read.
	maxBodyBytes = 16 << 20

	userAgent = "Launchdeck/1.0"
)

// NewHTTPClient creates an HTTP client configured for catalog requests.
// A timeout that expires surfaces as ErrUpstreamUnavailable.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   TLSHandshakeTimeout,
			ResponseHeaderTimeout: timeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   20,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// setCatalogHeaders applies the standard headers to an upstream request.
func setCatalogHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
}
