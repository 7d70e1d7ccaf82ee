// Package ioutil provides I/O helpers.
package ioutil

//go:generate go tool errtrace -w .

import (
	"fmt"
	"io"

	"braces.dev/errtrace"
)

// CountingWriter counts the bytes written to the underlying writer.
// The first write error sticks: later writes are skipped and return it.
type CountingWriter struct {
	w   io.Writer
	num int
	err error
}

// NewCountingWriter wraps w.
func NewCountingWriter(w io.Writer) *CountingWriter {
	return &CountingWriter{w: w}
}

func (cw *CountingWriter) track(n int, err error) (int, error) {
	cw.num += n
	if err != nil {
		cw.err = errtrace.Wrap(err)
	}
	return n, errtrace.Wrap(cw.err)
}

func (cw *CountingWriter) Write(p []byte) (int, error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	return errtrace.Wrap2(cw.track(cw.w.Write(p)))
}

func (cw *CountingWriter) WriteString(s string) (int, error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	return errtrace.Wrap2(cw.track(io.WriteString(cw.w, s)))
}

// Fprintf formats to the underlying writer.
func (cw *CountingWriter) Fprintf(format string, args ...any) (int, error) {
	if cw.err != nil {
		return 0, errtrace.Wrap(cw.err)
	}
	return errtrace.Wrap2(cw.track(fmt.Fprintf(cw.w, format, args...)))
}

// Err returns the first write error.
func (cw *CountingWriter) Err() error { return errtrace.Wrap(cw.err) }

// Count returns the number of bytes written.
func (cw *CountingWriter) Count() int { return cw.num }
