package resp

import (
	"bufio"
	"io"
)

// Writer buffers encoded values for a connection.
type Writer struct {
	bw      *bufio.Writer
	scratch []byte
}

// NewWriter returns a Writer on w. A *bufio.Writer is used directly.
func NewWriter(w io.Writer) *Writer {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}
	return &Writer{bw: bw}
}

// WriteValue buffers the encoding of v.
func (w *Writer) WriteValue(v Value) error {
	w.scratch = AppendValue(w.scratch[:0], v)
	_, err := w.bw.Write(w.scratch)
	if cap(w.scratch) > bulkChunk {
		w.scratch = nil
	}
	return err
}

// WriteCommand buffers args as an array of bulk strings, the form clients
// use for requests.
func (w *Writer) WriteCommand(args ...[]byte) error {
	elems := make([]Value, len(args))
	for i, a := range args {
		elems[i] = BulkString(a)
	}
	return w.WriteValue(Array(elems...))
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}
