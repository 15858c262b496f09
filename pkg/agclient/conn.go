// ABOUTME: Connection handle shared by Server, Catalog and Repository facades
// ABOUTME: Owns the keep-alive HTTP client, basic-auth credentials and logger

package agclient

import (
	"log/slog"
	"net/http"
	"time"
)

// Version is sent in the User-Agent header.
var Version = "dev"

const (
	defaultTimeout   = 60 * time.Second
	defaultChunkSize = 32 * 1024
)

// Conn is the connection handle. It owns a reusable HTTP client and optional
// basic-auth credentials, and is shared by every facade derived from it.
//
// A Conn may serve many facades sequentially. SetBasicAuth must not be called
// while another goroutine is issuing requests through the same Conn.
type Conn struct {
	http      *http.Client
	user      string
	password  string
	userAgent string
	logger    *slog.Logger
	chunkSize int
	timeout   time.Duration
}

// Option configures a Conn.
type Option func(*Conn)

// WithHTTPClient replaces the default HTTP client. A nil client is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Conn) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout. Zero disables it. Buffered
// requests must finish reading their response within d; streamed requests
// must receive response headers within d, after which the cursor may stay
// open as long as the caller reads from it.
func WithTimeout(d time.Duration) Option {
	return func(c *Conn) {
		c.timeout = d
	}
}

// WithBasicAuth sets HTTP Basic credentials for every request.
func WithBasicAuth(user, password string) Option {
	return func(c *Conn) {
		c.user = user
		c.password = password
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Conn) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithChunkSize sets the read size used when streaming rows.
func WithChunkSize(n int) Option {
	return func(c *Conn) {
		if n > 0 {
			c.chunkSize = n
		}
	}
}

// NewConn creates a connection handle. A client passed with WithHTTPClient
// keeps its own Timeout, which also bounds streamed reads.
func NewConn(opts ...Option) *Conn {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	c := &Conn{
		http:      &http.Client{Transport: transport},
		userAgent: "agclient/" + Version,
		logger:    slog.Default().With("component", "agclient"),
		chunkSize: defaultChunkSize,
		timeout:   defaultTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SetBasicAuth sets or replaces the credentials used for later requests.
// Empty user clears them.
func (c *Conn) SetBasicAuth(user, password string) {
	c.user = user
	c.password = password
}

// Close releases idle keep-alive connections held by the transport.
func (c *Conn) Close() {
	c.http.CloseIdleConnections()
}
