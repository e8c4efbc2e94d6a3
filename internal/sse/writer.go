// Package sse writes Server-Sent Events records.
//
// Each record is an "event:" line naming the event followed by a "data:" line holding
// the JSON payload. Every record is flushed as soon as it is written so consumers
// observe events while the upstream stream is still open.
package sse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Flusher variants. http.ResponseWriter implementations flush without an error;
// buffered writers such as *bufio.Writer report one.
type (
	flusher interface {
		Flush()
	}
	errFlusher interface {
		Flush() error
	}
)

// Writer encodes named events as SSE records.
// A Writer is not safe for concurrent use.
type Writer struct {
	w       io.Writer
	compact bool
	buf     bytes.Buffer
	enc     *json.Encoder
}

// Option configures a Writer.
type Option func(*Writer)

// Compact omits the blank line that normally terminates a record.
// The line-oriented stdout consumer of the stream command reads records this way.
func Compact() Option {
	return func(w *Writer) {
		w.compact = true
	}
}

// NewWriter returns a Writer emitting records to w.
func NewWriter(w io.Writer, opts ...Option) *Writer {
	sw := &Writer{w: w}
	sw.enc = json.NewEncoder(&sw.buf)
	sw.enc.SetEscapeHTML(false)
	for _, opt := range opts {
		opt(sw)
	}
	return sw
}

// NewHTTPWriter prepares w for streaming and returns a Writer using standard framing.
// It fails if the response writer cannot flush.
func NewHTTPWriter(w http.ResponseWriter) (*Writer, error) {
	if _, ok := w.(http.Flusher); !ok {
		return nil, errors.New("response writer does not support flushing")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	return NewWriter(w), nil
}

// WriteEvent writes one record named event with data encoded as JSON, then flushes.
// Nothing is written when encoding fails.
func (sw *Writer) WriteEvent(event string, data any) error {
	sw.buf.Reset()
	sw.buf.WriteString("event: ")
	sw.buf.WriteString(event)
	sw.buf.WriteString("\ndata: ")
	// Encode appends the line terminator.
	if err := sw.enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", event, err)
	}
	if !sw.compact {
		sw.buf.WriteByte('\n')
	}

	if _, err := sw.w.Write(sw.buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write %s event: %w", event, err)
	}
	return sw.Flush()
}

// Flush pushes buffered output to the consumer if the underlying writer buffers.
func (sw *Writer) Flush() error {
	switch f := sw.w.(type) {
	case errFlusher:
		if err := f.Flush(); err != nil {
			return fmt.Errorf("failed to flush: %w", err)
		}
	case flusher:
		f.Flush()
	}
	return nil
}
