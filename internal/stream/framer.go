// Package stream turns the backend's chunked NDJSON chat response into a
// sequence of typed events. Chunk boundaries carry no meaning: a record may
// arrive split at any byte offset, or several records may share one chunk.
package stream

import (
	"bytes"
	"strings"
)

// LineFramer reassembles newline-delimited records from arbitrarily split
// byte chunks. Partial trailing data is buffered until the next Feed (or
// Flush). Working on bytes matters: a chunk boundary may fall inside a
// multi-byte rune, so text is only materialized at record boundaries.
type LineFramer struct {
	buf bytes.Buffer
}

// NewLineFramer returns an empty framer.
func NewLineFramer() *LineFramer {
	return &LineFramer{}
}

// Feed appends a chunk and returns every complete record it closed off, in
// order. Blank and whitespace-only records are discarded. No record is ever
// emitted twice: anything returned here is removed from the buffer.
func (f *LineFramer) Feed(chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}
	f.buf.Write(chunk)

	data := f.buf.Bytes()
	idx := bytes.LastIndexByte(data, '\n')
	if idx < 0 {
		return nil
	}

	complete := string(data[:idx])
	rest := append([]byte(nil), data[idx+1:]...)
	f.buf.Reset()
	f.buf.Write(rest)

	var records []string
	for _, line := range strings.Split(complete, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		records = append(records, line)
	}
	return records
}

// Flush returns the residual buffered data as a final record if it is
// non-blank, and resets the framer. Call once when the stream ends.
func (f *LineFramer) Flush() []string {
	rest := f.buf.String()
	f.buf.Reset()
	if strings.TrimSpace(rest) == "" {
		return nil
	}
	return []string{rest}
}
