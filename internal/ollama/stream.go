package ollama

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

const readChunkSize = 4096

// LineDecoder splits a byte stream into newline-terminated lines. Bytes are
// accumulated across Write calls, so a line split over several chunks is
// emitted once it is complete; the trailing partial line stays buffered
// until more data arrives or Flush is called.
type LineDecoder struct {
	buf []byte
}

// Write appends chunk and calls emit for every complete, non-blank line.
// emit returning false stops processing; the rest of the buffer is kept.
func (d *LineDecoder) Write(chunk []byte, emit func(line []byte) bool) bool {
	d.buf = append(d.buf, chunk...)
	for {
		i := bytes.IndexByte(d.buf, '\n')
		if i < 0 {
			return true
		}
		line := bytes.TrimSpace(d.buf[:i])
		d.buf = d.buf[i+1:]
		if len(line) == 0 {
			continue
		}
		if !emit(line) {
			return false
		}
	}
}

// Flush emits whatever is left in the buffer as a final line.
func (d *LineDecoder) Flush(emit func(line []byte) bool) {
	line := bytes.TrimSpace(d.buf)
	d.buf = nil
	if len(line) > 0 {
		emit(line)
	}
}

// ReadProgress decodes pull status objects from r until a done:true status
// or EOF. Lines that are not valid JSON are skipped. It reports whether done
// was observed; read errors other than EOF are returned.
func ReadProgress(r io.Reader, fn func(PullProgress)) (bool, error) {
	var (
		dec  LineDecoder
		done bool
	)
	emit := func(line []byte) bool {
		var p PullProgress
		if err := json.Unmarshal(line, &p); err != nil {
			return true
		}
		if fn != nil {
			fn(p)
		}
		if p.Done {
			done = true
			return false
		}
		return true
	}

	chunk := make([]byte, readChunkSize)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			if !dec.Write(chunk[:n], emit) {
				return done, nil
			}
		}
		if errors.Is(err, io.EOF) {
			dec.Flush(emit)
			return done, nil
		}
		if err != nil {
			return done, err
		}
	}
}
