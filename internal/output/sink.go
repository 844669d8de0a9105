// Package output writes generated chunks to their destination.
package output

import (
	"fmt"
	"io"

	"pkg.jsn.cam/numgen/pkg/backends"
	"pkg.jsn.cam/numgen/pkg/numgen"
)

// Sink writes chunks to w as they are delivered.
//
// Fixed-width formats are written at offset index*chunkSize*bytesPerElement
// when w implements io.WriterAt, so the destination is in index order no
// matter the completion order. Otherwise chunks are appended in arrival
// order, and text chunks are joined with a single separator.
type Sink struct {
	w       io.Writer
	at      io.WriterAt
	format  numgen.FormatID
	stride  int64
	written int64
	chunks  int
}

// New creates a sink for a run of the given format and chunk size.
func New(w io.Writer, format numgen.FormatID, chunkSize int64) *Sink {
	s := &Sink{w: w, format: format}

	if bits := backends.BitWidth(format); bits > 0 {
		if at, ok := w.(io.WriterAt); ok {
			s.at = at
			s.stride = chunkSize * int64(bits/8)
		}
	}
	return s
}

// Positional reports whether chunks are placed by index.
func (s *Sink) Positional() bool {
	return s.at != nil
}

// Write stores one chunk.
func (s *Sink) Write(chunk numgen.ChunkResult) error {
	if int64(len(chunk.Buffer)) != chunk.Size {
		return fmt.Errorf("chunk %d: buffer holds %d bytes, expected %d", chunk.Index, len(chunk.Buffer), chunk.Size)
	}

	var n int
	var err error
	switch {
	case s.at != nil:
		n, err = s.at.WriteAt(chunk.Buffer, int64(chunk.Index)*s.stride)
	case s.format == numgen.FormatText && s.chunks > 0:
		if _, err = s.w.Write([]byte{backends.Separator}); err == nil {
			s.written++
			n, err = s.w.Write(chunk.Buffer)
		}
	default:
		n, err = s.w.Write(chunk.Buffer)
	}

	s.written += int64(n)
	if err != nil {
		return fmt.Errorf("write chunk %d: %w", chunk.Index, err)
	}

	s.chunks++
	return nil
}

// Written returns the number of bytes written so far.
func (s *Sink) Written() int64 {
	return s.written
}

// Chunks returns the number of chunks written so far.
func (s *Sink) Chunks() int {
	return s.chunks
}
