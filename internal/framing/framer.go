package framing

import (
	"bytes"
	"strings"
)

// Framer assembles raw byte chunks into newline-delimited text lines. It
// tolerates partial reads: bytes after the last newline are retained until a
// later write completes the line. Invalid UTF-8 sequences are replaced rather
// than rejected, a trailing carriage return and surrounding whitespace are
// trimmed, and lines that are empty after trimming are dropped.
//
// The internal buffer has no length cap. A producer that never emits a
// newline grows the buffer without bound; callers accept that in exchange for
// never truncating a legitimate long line.
type Framer struct {
	buf  bytes.Buffer
	emit func(line string)
}

// New constructs a framer that hands each completed line to emit.
func New(emit func(line string)) *Framer {
	return &Framer{emit: emit}
}

// Write appends p to the buffer and emits every completed line it contains.
// It never fails; the io.Writer signature lets a framer sit directly behind
// an io.Copy or a read loop.
func (f *Framer) Write(p []byte) (int, error) {
	f.buf.Write(p)
	for {
		b := f.buf.Bytes()
		idx := bytes.IndexByte(b, '\n')
		if idx < 0 {
			break
		}
		raw := b[:idx]
		line := strings.ToValidUTF8(string(raw), "�")
		line = strings.TrimSuffix(line, "\r")
		line = strings.TrimSpace(line)
		f.buf.Next(idx + 1)
		if line != "" && f.emit != nil {
			f.emit(line)
		}
	}
	return len(p), nil
}

// Pending reports how many buffered bytes are waiting for a newline.
func (f *Framer) Pending() int {
	return f.buf.Len()
}

// Reset discards any partially accumulated line. Called when the byte source
// is torn down so stale data never leaks into the next session.
func (f *Framer) Reset() {
	f.buf.Reset()
}
