package protocol

import (
	"bufio"
	"bytes"
	"io"
	"sync"
)

// Reader splits a byte stream into protocol lines. Partial lines are
// buffered until their newline arrives; a final unterminated line is
// returned at EOF.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, 64*1024)}
}

// ReadLine returns the next non-blank line without its terminator
func (r *Reader) ReadLine() ([]byte, error) {
	for {
		line, err := r.br.ReadBytes('\n')
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) > 0 {
			return trimmed, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// Next returns the next event. A line that is not JSON comes back as a
// Log event with source "raw" so that stray output never stops the stream.
func (r *Reader) Next() (Event, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}
	ev, decodeErr := Decode(line)
	if decodeErr != nil {
		return Log{Source: SourceRaw, Message: string(line)}, nil
	}
	return ev, nil
}

// Each calls fn for every event until the stream ends. It returns nil on a
// clean EOF.
func (r *Reader) Each(fn func(Event)) error {
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(ev)
	}
}

// Writer writes one event per line. It is safe for concurrent use.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write encodes ev and writes it followed by a newline
func (w *Writer) Write(ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	data = append(data[:len(data):len(data)], '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = w.w.Write(data)
	return err
}
