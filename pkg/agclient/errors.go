// ABOUTME: Error taxonomy for triple-store client requests
// ABOUTME: Transport, HTTP status, malformed streamed row and unsupported format errors

package agclient

import (
	"errors"
	"fmt"
	"net"
)

// ErrRepositoryExists is returned by CreateTripleStore when the server reports
// that the repository name is already taken. It always wraps a *RequestError.
var ErrRepositoryExists = errors.New("repository already exists")

// TransportError reports a request that never produced an HTTP response:
// connection refused, DNS failure, TLS failure, timeout or cancellation.
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Timeout reports whether the failure was a timeout.
func (e *TransportError) Timeout() bool {
	var netErr net.Error
	if errors.As(e.Err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// RequestError reports a non-2xx response. Body holds the raw response text,
// which is usually the server's explanation.
type RequestError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: server returned status %d", e.Method, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: server returned status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// MalformedRowError reports a streamed fragment that could not be decoded as
// a JSON row. It terminates the stream.
type MalformedRowError struct {
	Fragment string
	Err      error
}

func (e *MalformedRowError) Error() string {
	frag := e.Fragment
	if len(frag) > 80 {
		frag = frag[:77] + "..."
	}
	return fmt.Sprintf("malformed row %q: %v", frag, e.Err)
}

func (e *MalformedRowError) Unwrap() error { return e.Err }

// UnsupportedFormatError reports a document format outside the supported set.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("'%s' file format not supported (try 'ntriples' or 'rdf/xml')", e.Format)
}
