// ABOUTME: Streaming decoder for newline-delimited JSON rows
// ABOUTME: Carries partial fragments across read chunks and yields rows lazily

package agclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

type decodeState uint8

const (
	stateAwaitingData decodeState = iota
	stateChunkReceived
	stateStreamComplete
	stateStreamError
)

func (s decodeState) String() string {
	switch s {
	case stateAwaitingData:
		return "awaiting-data"
	case stateChunkReceived:
		return "chunk-received"
	case stateStreamComplete:
		return "stream-complete"
	case stateStreamError:
		return "stream-error"
	default:
		return "unknown"
	}
}

// rowDecoder splits a byte stream into JSON rows. Each chunk is joined to the
// retained tail; every complete line is decoded and the trailing partial line
// is kept for the next chunk.
type rowDecoder struct {
	state decodeState
	tail  []byte
}

// feed consumes one chunk and returns the rows it completed, in order. On a
// malformed row it returns the rows decoded before it together with the error.
func (d *rowDecoder) feed(chunk []byte) ([]Row, error) {
	if d.terminal() {
		return nil, nil
	}
	d.state = stateChunkReceived

	data := append(d.tail, chunk...)
	var rows []Row
	for {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			break
		}
		row, ok, err := parseRow(data[:i])
		if err != nil {
			d.state = stateStreamError
			d.tail = nil
			return rows, err
		}
		if ok {
			rows = append(rows, row)
		}
		data = data[i+1:]
	}
	// copy so the retained tail does not pin the whole joined buffer
	d.tail = append([]byte(nil), data...)
	d.state = stateAwaitingData
	return rows, nil
}

// finish flushes the retained fragment once the transport reports end of data.
func (d *rowDecoder) finish() ([]Row, error) {
	if d.terminal() {
		return nil, nil
	}
	tail := d.tail
	d.tail = nil
	row, ok, err := parseRow(tail)
	if err != nil {
		d.state = stateStreamError
		return nil, err
	}
	d.state = stateStreamComplete
	if !ok {
		return nil, nil
	}
	return []Row{row}, nil
}

func (d *rowDecoder) fail() {
	d.state = stateStreamError
	d.tail = nil
}

func (d *rowDecoder) terminal() bool {
	return d.state == stateStreamComplete || d.state == stateStreamError
}

// parseRow decodes one line. Blank lines report ok=false.
func parseRow(line []byte) (Row, bool, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil, false, nil
	}
	if line[0] != '[' {
		return nil, false, &MalformedRowError{
			Fragment: string(line),
			Err:      errors.New("row is not a JSON array"),
		}
	}
	var row Row
	if err := json.Unmarshal(line, &row); err != nil {
		return nil, false, &MalformedRowError{Fragment: string(line), Err: err}
	}
	return row, true, nil
}

// Rows is a lazy, finite cursor over a streamed result. It cannot be
// restarted. Close must be called unless Next has returned false.
type Rows struct {
	body    io.ReadCloser
	buf     []byte
	dec     rowDecoder
	pending []Row
	row     Row
	err     error
	closed  bool
	cancel  func()

	method string
	url    string
}

func newRows(body io.ReadCloser, chunkSize int, method, rawURL string) *Rows {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return &Rows{
		body:   body,
		buf:    make([]byte, chunkSize),
		method: method,
		url:    rawURL,
	}
}

// Next advances to the next row, blocking until one is available. It returns
// false at the end of the stream or on error; check Err afterwards.
func (r *Rows) Next() bool {
	for len(r.pending) == 0 {
		if r.closed || r.err != nil || r.dec.terminal() {
			r.row = nil
			r.Close()
			return false
		}
		r.fill()
	}
	r.row = r.pending[0]
	r.pending[0] = nil
	r.pending = r.pending[1:]
	return true
}

// fill reads one chunk from the body and hands it to the decoder.
func (r *Rows) fill() {
	n, err := r.body.Read(r.buf)
	if n > 0 {
		rows, derr := r.dec.feed(r.buf[:n])
		r.pending = append(r.pending, rows...)
		if derr != nil {
			r.err = derr
			return
		}
	}
	switch {
	case errors.Is(err, io.EOF):
		rows, derr := r.dec.finish()
		r.pending = append(r.pending, rows...)
		if derr != nil {
			r.err = derr
		}
	case err != nil:
		r.dec.fail()
		r.err = &TransportError{Method: r.method, URL: r.url, Err: fmt.Errorf("reading stream: %w", err)}
	}
}

// Row returns the current row. It is valid until the next call to Next.
func (r *Rows) Row() Row { return r.row }

// Err returns the error that ended the stream, if any.
func (r *Rows) Err() error { return r.err }

// Close releases the response body. It is safe to call more than once.
func (r *Rows) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	r.pending = nil
	err := r.body.Close()
	if r.cancel != nil {
		r.cancel()
	}
	return err
}

// Each calls fn for every remaining row and closes the cursor. It stops at the
// first error returned by fn or by the stream.
func (r *Rows) Each(fn func(Row) error) error {
	defer r.Close()
	for r.Next() {
		if err := fn(r.Row()); err != nil {
			return err
		}
	}
	return r.Err()
}

// Collect drains the cursor into a slice.
func (r *Rows) Collect() ([]Row, error) {
	var out []Row
	err := r.Each(func(row Row) error {
		out = append(out, row)
		return nil
	})
	return out, err
}
