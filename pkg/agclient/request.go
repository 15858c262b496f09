// ABOUTME: Request execution: plain, JSON-decoding and row-streaming variants
// ABOUTME: Maps transport failures and non-2xx statuses onto the error taxonomy

package agclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// errHeaderTimeout reports a streamed request whose headers did not arrive in
// time. It satisfies net.Error with Timeout() true.
var errHeaderTimeout = fmt.Errorf("awaiting response headers: %w", context.DeadlineExceeded)

const (
	mimeJSON   = "application/json"
	mimeNDJSON = "application/x-ndjson"
	mimeText   = "text/plain"

	// maxErrorBody bounds how much of a failed response is kept in RequestError.
	maxErrorBody = 64 * 1024
)

type request struct {
	method      string
	url         string
	body        io.Reader
	contentType string
	accept      string
}

// send executes r and returns the response when the status is 2xx. The caller
// owns the response body.
func (c *Conn) send(ctx context.Context, r request) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if r.accept != "" {
		req.Header.Set("Accept", r.accept)
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.user != "" {
		req.SetBasicAuth(c.user, c.password)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		c.logger.Debug("request failed", "method", r.method, "url", r.url, "error", err)
		return nil, &TransportError{Method: r.method, URL: r.url, Err: err}
	}

	c.logger.Debug("request",
		"method", r.method,
		"url", r.url,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			Method:     r.method,
			URL:        r.url,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}
	return resp, nil
}

// withTimeout bounds a buffered request, body included, by the Conn timeout.
func (c *Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// doNull issues a request whose success response carries nothing of interest.
func (c *Conn) doNull(ctx context.Context, method, rawURL string, body io.Reader, contentType string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, request{method: method, url: rawURL, body: body, contentType: contentType})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// doRaw issues a JSON request and returns the complete response body.
func (c *Conn) doRaw(ctx context.Context, method, rawURL string, body io.Reader, contentType string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.send(ctx, request{
		method:      method,
		url:         rawURL,
		body:        body,
		contentType: contentType,
		accept:      mimeJSON,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return nil, &TransportError{Method: method, URL: rawURL, Err: fmt.Errorf("reading response: %w", err)}
	}
	return data, nil
}

// doJSON issues a JSON request and decodes the body into out.
func (c *Conn) doJSON(ctx context.Context, method, rawURL string, body io.Reader, contentType string, out any) error {
	data, err := c.doRaw(ctx, method, rawURL, body, contentType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, rawURL, err)
	}
	return nil
}

// doStream issues a request for newline-delimited JSON rows and returns a
// cursor over the unbuffered body. The Conn timeout covers only the wait for
// response headers; reading rows is bounded by ctx alone.
func (c *Conn) doStream(ctx context.Context, method, rawURL string, body io.Reader, contentType string) (*Rows, error) {
	ctx, cancel := context.WithCancel(ctx)
	var timer *time.Timer
	if c.timeout > 0 {
		timer = time.AfterFunc(c.timeout, cancel)
	}

	resp, err := c.send(ctx, request{
		method:      method,
		url:         rawURL,
		body:        body,
		contentType: contentType,
		accept:      mimeNDJSON,
	})
	if timer != nil && !timer.Stop() {
		if resp != nil {
			resp.Body.Close()
		}
		cancel()
		return nil, &TransportError{Method: method, URL: rawURL, Err: errHeaderTimeout}
	}
	if err != nil {
		cancel()
		return nil, err
	}
	rows := newRows(resp.Body, c.chunkSize, method, rawURL)
	rows.cancel = cancel
	return rows, nil
}

// jsonBody encodes v as a request body. IRIs stay unescaped.
func jsonBody(v any) (io.Reader, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}
	return bytes.NewReader(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
