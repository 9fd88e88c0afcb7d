package ingest

// stream.go wraps uploaded files so the CSV reader sees clean UTF-8:
// a leading byte order mark is dropped, invalid sequences become '?',
// and the number of bytes consumed is capped.

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"unicode/utf8"
)

// ErrFileTooLarge is returned once a reader passes its size limit.
var ErrFileTooLarge = errors.New("file exceeds the maximum import size")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SkipBOM returns a reader positioned after a UTF-8 byte order mark, if any.
func SkipBOM(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br
}

// UTF8Sanitizer replaces invalid UTF-8 bytes with '?' while streaming.
// A multi-byte sequence split across reads is carried to the next read.
type UTF8Sanitizer struct {
	r       io.Reader
	buf     []byte
	carry   int
	scratch []byte
	out     []byte
	err     error
}

// NewUTF8Sanitizer wraps r.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r, buf: make([]byte, 32*1024)}
}

func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	for len(s.out) == 0 {
		if s.err != nil {
			return 0, s.err
		}
		s.fill()
	}
	n := copy(p, s.out)
	s.out = s.out[n:]
	return n, nil
}

func (s *UTF8Sanitizer) fill() {
	n, err := s.r.Read(s.buf[s.carry:])
	n += s.carry
	s.carry = 0
	s.err = err

	data := s.buf[:n]
	out := s.scratch[:0]
	if utf8.Valid(data) {
		out = append(out, data...)
	} else {
		atEOF := err != nil
		for read := 0; read < len(data); {
			r, size := utf8.DecodeRune(data[read:])
			if r == utf8.RuneError && size == 1 {
				if !atEOF && !utf8.FullRune(data[read:]) {
					s.carry = copy(s.buf, data[read:])
					break
				}
				out = append(out, '?')
				read++
				continue
			}
			out = append(out, data[read:read+size]...)
			read += size
		}
	}
	s.scratch = out
	s.out = out
}

// LimitedReader counts bytes and fails with ErrFileTooLarge past Max.
// A zero Max disables the limit.
type LimitedReader struct {
	r         io.Reader
	Max       int64
	BytesRead int64
}

// NewLimitedReader wraps r with a byte limit.
func NewLimitedReader(r io.Reader, max int64) *LimitedReader {
	return &LimitedReader{r: r, Max: max}
}

func (l *LimitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.BytesRead += int64(n)
	if l.Max > 0 && l.BytesRead > l.Max {
		return n, ErrFileTooLarge
	}
	return n, err
}

// wrapText applies BOM skipping and UTF-8 sanitization, in that order.
func wrapText(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(SkipBOM(r))
}
