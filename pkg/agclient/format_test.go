// ABOUTME: Tests for the document format guard
// ABOUTME: Unsupported formats must fail before any request or file access

package agclient

import (
	"context"
	"net/http"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransport counts round trips and fails every one of them.
type countingTransport struct {
	calls atomic.Int32
}

func (c *countingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	c.calls.Add(1)
	return nil, http.ErrServerClosed
}

func TestCheckFormat(t *testing.T) {
	mime, err := CheckFormat(FormatNTriples)
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mime)

	mime, err = CheckFormat(FormatRDFXML)
	require.NoError(t, err)
	assert.Equal(t, "application/rdf+xml", mime)

	for _, bad := range []string{"csv", "", "NTRIPLES", "turtle"} {
		_, err := CheckFormat(bad)
		var ufe *UnsupportedFormatError
		require.ErrorAs(t, err, &ufe, "format %q", bad)
		assert.Equal(t, bad, ufe.Format)
	}
}

func TestUnsupportedFormatError_Message(t *testing.T) {
	err := &UnsupportedFormatError{Format: "csv"}
	assert.Equal(t, "'csv' file format not supported (try 'ntriples' or 'rdf/xml')", err.Error())
}

func TestLoadData_UnsupportedFormatSendsNothing(t *testing.T) {
	rt := &countingTransport{}
	conn := NewConn(WithHTTPClient(&http.Client{Transport: rt}))
	repo := NewServer(conn, "http://localhost:10035").OpenCatalog("").Repository("test")

	err := repo.LoadData(context.Background(), "a,b,c", "csv", nil)
	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe)
	assert.Equal(t, int32(0), rt.calls.Load())
}

func TestLoadFile_UnsupportedFormatDoesNotOpenFile(t *testing.T) {
	rt := &countingTransport{}
	conn := NewConn(WithHTTPClient(&http.Client{Transport: rt}))
	repo := NewServer(conn, "http://localhost:10035").OpenCatalog("").Repository("test")

	missing := filepath.Join(t.TempDir(), "does-not-exist.csv")
	err := repo.LoadFile(context.Background(), missing, "csv", nil)

	var ufe *UnsupportedFormatError
	require.ErrorAs(t, err, &ufe, "format is checked before the file is opened")
	assert.Equal(t, int32(0), rt.calls.Load())
}

func TestLoadFile_MissingFileFailsBeforeRequest(t *testing.T) {
	rt := &countingTransport{}
	conn := NewConn(WithHTTPClient(&http.Client{Transport: rt}))
	repo := NewServer(conn, "http://localhost:10035").OpenCatalog("").Repository("test")

	err := repo.LoadFile(context.Background(), filepath.Join(t.TempDir(), "nope.nt"), FormatNTriples, nil)
	require.Error(t, err)
	assert.Equal(t, int32(0), rt.calls.Load())
}
