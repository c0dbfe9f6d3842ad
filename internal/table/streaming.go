package table

// streaming.go holds the reader wrappers applied before CSV tokenizing:
//
//   - bomSkippingReader drops a leading UTF-8 BOM written by spreadsheet tools
//   - utf8SanitizingReader replaces invalid UTF-8 bytes with '?'
//   - CountingReader tracks bytes read for size limits and progress

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WrapForReading strips a UTF-8 BOM from r and sanitizes invalid UTF-8.
// The BOM must be removed before sanitizing or its bytes would be kept.
func WrapForReading(r io.Reader) io.Reader {
	return newUTF8SanitizingReader(newBOMSkippingReader(r))
}

// bomSkippingReader drops a UTF-8 BOM at the start of the stream.
type bomSkippingReader struct {
	br      *bufio.Reader
	checked bool
}

func newBOMSkippingReader(r io.Reader) *bomSkippingReader {
	return &bomSkippingReader{br: bufio.NewReader(r)}
}

func (r *bomSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true
		head, err := r.br.Peek(len(utf8BOM))
		if err == nil && bytes.Equal(head, utf8BOM) {
			if _, err := r.br.Discard(len(utf8BOM)); err != nil {
				return 0, err
			}
		}
	}
	return r.br.Read(p)
}

// utf8SanitizingReader replaces invalid UTF-8 bytes with '?'. A multi-byte
// sequence split across reads is held back until the next read completes it.
type utf8SanitizingReader struct {
	r     io.Reader
	raw   []byte // unsanitized bytes awaiting the rest of a sequence
	ready []byte // sanitized bytes not yet returned
	err   error
}

func newUTF8SanitizingReader(r io.Reader) *utf8SanitizingReader {
	return &utf8SanitizingReader{r: r}
}

func (s *utf8SanitizingReader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	for len(s.ready) == 0 {
		if s.err != nil {
			if len(s.raw) == 0 {
				return 0, s.err
			}
			s.ready = sanitize(s.raw)
			s.raw = nil
			break
		}

		buf := make([]byte, 4096)
		n, err := s.r.Read(buf)
		s.raw = append(s.raw, buf[:n]...)
		s.err = err
		if err == nil {
			cut := len(s.raw) - incompleteSuffix(s.raw)
			s.ready = append([]byte(nil), sanitize(s.raw[:cut])...)
			s.raw = append([]byte(nil), s.raw[cut:]...)
		}
	}

	n := copy(p, s.ready)
	s.ready = s.ready[n:]
	return n, nil
}

// sanitize returns data with each invalid byte replaced by '?'.
func sanitize(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}
	out := make([]byte, 0, len(data))
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			out = append(out, '?')
		} else {
			out = append(out, data[:size]...)
		}
		data = data[size:]
	}
	return out
}

// incompleteSuffix returns how many trailing bytes of data start a UTF-8
// sequence that is not yet complete.
func incompleteSuffix(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < 0x80 {
			return 0
		}
		if b >= 0xC0 {
			if seqLen(b) > i {
				return i
			}
			return 0
		}
	}
	return 0
}

// seqLen returns the length of the UTF-8 sequence led by b.
func seqLen(b byte) int {
	switch {
	case b < 0x80:
		return 1
	case b < 0xE0:
		return 2
	case b < 0xF0:
		return 3
	default:
		return 4
	}
}

// CountingReader tracks bytes read from the wrapped reader.
type CountingReader struct {
	r         io.Reader
	BytesRead int64
	Total     int64 // 0 if unknown
}

// NewCountingReader wraps r. total may be 0 when the size is unknown.
func NewCountingReader(r io.Reader, total int64) *CountingReader {
	return &CountingReader{r: r, Total: total}
}

// Read implements io.Reader.
func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.BytesRead += int64(n)
	return n, err
}

// Progress returns the read progress as a percentage (0-100), or 0 when the
// total is unknown.
func (c *CountingReader) Progress() int {
	if c.Total <= 0 {
		return 0
	}
	return int(c.BytesRead * 100 / c.Total)
}
