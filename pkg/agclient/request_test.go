// ABOUTME: Tests for request execution and the error taxonomy
// ABOUTME: Uses httptest servers to check headers, statuses and transport failures

package agclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordedRequest is what a recordingServer saw for one request.
type recordedRequest struct {
	Method      string
	Path        string
	RawQuery    string
	Body        string
	ContentType string
	Accept      string
	UserAgent   string
	User        string
	Password    string
	HasAuth     bool
}

// recordingServer answers every request with a fixed status and body and
// keeps a log of what it received.
type recordingServer struct {
	*httptest.Server

	mu       sync.Mutex
	requests []recordedRequest
	status   int
	body     string
}

func newRecordingServer(t *testing.T, status int, body string) *recordingServer {
	t.Helper()
	rs := &recordingServer{status: status, body: body}
	rs.Server = httptest.NewServer(http.HandlerFunc(rs.handle))
	t.Cleanup(rs.Close)
	return rs
}

func (rs *recordingServer) handle(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	user, pass, ok := r.BasicAuth()
	rs.mu.Lock()
	rs.requests = append(rs.requests, recordedRequest{
		Method:      r.Method,
		Path:        r.URL.Path,
		RawQuery:    r.URL.RawQuery,
		Body:        string(data),
		ContentType: r.Header.Get("Content-Type"),
		Accept:      r.Header.Get("Accept"),
		UserAgent:   r.Header.Get("User-Agent"),
		User:        user,
		Password:    pass,
		HasAuth:     ok,
	})
	status, body := rs.status, rs.body
	rs.mu.Unlock()

	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// respond changes the canned answer for later requests.
func (rs *recordingServer) respond(status int, body string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.status, rs.body = status, body
}

func (rs *recordingServer) last(t *testing.T) recordedRequest {
	t.Helper()
	rs.mu.Lock()
	defer rs.mu.Unlock()
	require.NotEmpty(t, rs.requests, "server saw no requests")
	return rs.requests[len(rs.requests)-1]
}

func (rs *recordingServer) count() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return len(rs.requests)
}

func TestSend_HeadersAndBasicAuth(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, `["a","b"]`)
	conn := NewConn(WithBasicAuth("test", "xyzzy"), WithUserAgent("tutorial/1"))

	var out []string
	require.NoError(t, conn.doJSON(context.Background(), http.MethodGet, rs.URL+"/x", nil, "", &out))
	assert.Equal(t, []string{"a", "b"}, out)

	got := rs.last(t)
	assert.Equal(t, mimeJSON, got.Accept)
	assert.Equal(t, "tutorial/1", got.UserAgent)
	assert.True(t, got.HasAuth)
	assert.Equal(t, "test", got.User)
	assert.Equal(t, "xyzzy", got.Password)
}

func TestSend_NoCredentialsNoAuthHeader(t *testing.T) {
	rs := newRecordingServer(t, http.StatusNoContent, "")
	conn := NewConn()

	require.NoError(t, conn.doNull(context.Background(), http.MethodDelete, rs.URL+"/x", nil, ""))
	got := rs.last(t)
	assert.False(t, got.HasAuth)
	assert.Equal(t, "agclient/"+Version, got.UserAgent)
}

func TestSend_SetBasicAuthAppliesToLaterRequests(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, "")
	conn := NewConn()

	conn.SetBasicAuth("u", "p")
	require.NoError(t, conn.doNull(context.Background(), http.MethodGet, rs.URL, nil, ""))
	assert.Equal(t, "u", rs.last(t).User)

	conn.SetBasicAuth("", "")
	require.NoError(t, conn.doNull(context.Background(), http.MethodGet, rs.URL, nil, ""))
	assert.False(t, rs.last(t).HasAuth)
}

func TestSend_NonSuccessStatusIsRequestError(t *testing.T) {
	rs := newRecordingServer(t, http.StatusBadRequest, "  MALFORMED QUERY: unexpected token\n")
	conn := NewConn()

	err := conn.doNull(context.Background(), http.MethodGet, rs.URL+"/repositories/test", nil, "")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusBadRequest, reqErr.StatusCode)
	assert.Equal(t, "MALFORMED QUERY: unexpected token", reqErr.Body)
	assert.Equal(t, http.MethodGet, reqErr.Method)
	assert.Contains(t, err.Error(), "status 400")
	assert.Contains(t, err.Error(), "MALFORMED QUERY")
}

func TestSend_ErrorBodyIsBounded(t *testing.T) {
	rs := newRecordingServer(t, http.StatusInternalServerError, strings.Repeat("x", maxErrorBody+100))
	conn := NewConn()

	err := conn.doNull(context.Background(), http.MethodGet, rs.URL, nil, "")
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Len(t, reqErr.Body, maxErrorBody)
}

func TestSend_ConnectionRefusedIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	err := NewConn().doNull(context.Background(), http.MethodGet, addr+"/catalogs", nil, "")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.False(t, te.Timeout())
	assert.Equal(t, addr+"/catalogs", te.URL)

	var reqErr *RequestError
	assert.False(t, errors.As(err, &reqErr))
}

func TestSend_TimeoutIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	conn := NewConn(WithTimeout(50 * time.Millisecond))
	err := conn.doNull(context.Background(), http.MethodGet, srv.URL, nil, "")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

func TestSend_CancelledContext(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewConn().doNull(ctx, http.MethodGet, rs.URL, nil, "")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, rs.count())
}

func TestDoJSON_DecodeFailure(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, "not json")
	var n int64
	err := NewConn().doJSON(context.Background(), http.MethodGet, rs.URL, nil, "", &n)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decoding")
}

func TestDoStream_AcceptsNDJSON(t *testing.T) {
	rs := newRecordingServer(t, http.StatusOK, "[\"a\"]\n[\"b\"]\n")
	rows, err := NewConn(WithChunkSize(3)).doStream(context.Background(), http.MethodGet, rs.URL, nil, "")
	require.NoError(t, err)

	got, err := rows.Collect()
	require.NoError(t, err)
	assert.Equal(t, []Row{{"a"}, {"b"}}, got)
	assert.Equal(t, mimeNDJSON, rs.last(t).Accept)
}

func TestDoStream_ErrorStatusBeforeRows(t *testing.T) {
	rs := newRecordingServer(t, http.StatusNotFound, "no such repository")
	rows, err := NewConn().doStream(context.Background(), http.MethodGet, rs.URL, nil, "")
	assert.Nil(t, rows)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, http.StatusNotFound, reqErr.StatusCode)
}

func TestWithTimeout_DoesNotMutateSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Second}
	conn := NewConn(WithHTTPClient(shared), WithTimeout(5*time.Second))

	assert.Equal(t, time.Second, shared.Timeout)
	assert.Same(t, shared, conn.http)
	assert.Equal(t, 5*time.Second, conn.timeout)
}

func TestDoStream_TimeoutBoundsHeadersOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimeNDJSON)
		flusher := w.(http.Flusher)
		for i := 0; i < 3; i++ {
			fmt.Fprintf(w, "[%d]\n", i)
			flusher.Flush()
			time.Sleep(60 * time.Millisecond)
		}
	}))
	defer srv.Close()

	conn := NewConn(WithTimeout(50 * time.Millisecond))
	rows, err := conn.doStream(context.Background(), http.MethodGet, srv.URL, nil, "")
	require.NoError(t, err)
	defer rows.Close()

	var got []Row
	for rows.Next() {
		got = append(got, rows.Row())
	}
	require.NoError(t, rows.Err())
	assert.Len(t, got, 3)
}

func TestDoStream_HeaderTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	conn := NewConn(WithTimeout(50 * time.Millisecond))
	rows, err := conn.doStream(context.Background(), http.MethodGet, srv.URL, nil, "")
	assert.Nil(t, rows)

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}

func TestDoRaw_TimeoutCoversBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", mimeJSON)
		fmt.Fprint(w, "[")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		fmt.Fprint(w, "]")
	}))
	defer srv.Close()

	conn := NewConn(WithTimeout(50 * time.Millisecond))
	_, err := conn.doRaw(context.Background(), http.MethodGet, srv.URL, nil, "")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.True(t, te.Timeout())
}
