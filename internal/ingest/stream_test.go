package ingest

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestSkipBOM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"file with BOM", append([]byte{0xEF, 0xBB, 0xBF}, []byte("hello,world")...), "hello,world"},
		{"file without BOM", []byte("hello,world"), "hello,world"},
		{"empty file", []byte{}, ""},
		{"only BOM", []byte{0xEF, 0xBB, 0xBF}, ""},
		{"partial BOM at start", []byte{0xEF, 0xBB, 'a', 'b', 'c'}, string([]byte{0xEF, 0xBB, 'a', 'b', 'c'})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(SkipBOM(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected string
	}{
		{"valid ASCII", []byte("hello,world"), "hello,world"},
		{"valid multibyte", []byte("José,Zoë"), "José,Zoë"},
		{"invalid single byte replaced", []byte{'h', 'e', 0x80, 'l', 'o'}, "he?lo"},
		{"truncated sequence at EOF", []byte{'a', 0xE2, 0x82}, "a??"},
		{"empty input", []byte{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := io.ReadAll(NewUTF8Sanitizer(bytes.NewReader(tt.input)))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(result) != tt.expected {
				t.Errorf("got %q, want %q", string(result), tt.expected)
			}
		})
	}
}

func TestUTF8Sanitizer_SplitRune(t *testing.T) {
	// One byte per read forces every multi-byte rune across reads.
	input := "Zoë Núñez"
	result, err := io.ReadAll(NewUTF8Sanitizer(iotest.OneByteReader(strings.NewReader(input))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(result) != input {
		t.Errorf("got %q, want %q", string(result), input)
	}
}

func TestLimitedReader(t *testing.T) {
	input := strings.Repeat("x", 1000)

	r := NewLimitedReader(strings.NewReader(input), 0)
	if _, err := io.ReadAll(r); err != nil {
		t.Fatalf("unlimited read error = %v", err)
	}
	if r.BytesRead != 1000 {
		t.Errorf("BytesRead = %d, want 1000", r.BytesRead)
	}

	_, err := io.ReadAll(NewLimitedReader(strings.NewReader(input), 999))
	if !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("over-limit read error = %v, want ErrFileTooLarge", err)
	}

	if _, err := io.ReadAll(NewLimitedReader(strings.NewReader(input), 1000)); err != nil {
		t.Errorf("at-limit read error = %v, want nil", err)
	}
}
