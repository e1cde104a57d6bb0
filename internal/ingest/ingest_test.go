package ingest

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
)

func TestLinesPlain(t *testing.T) {
	got, err := Lines(strings.NewReader("a\r\nb\n\nc"))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if want := []string{"a", "b", "", "c"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesDropsInvalidBytes(t *testing.T) {
	in := []byte("ERROR caf\xe9 broken\nok \xff\xfeline\n")
	got, err := Lines(bytes.NewReader(in))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if want := []string{"ERROR caf broken", "ok line"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesKeepsValidUnicode(t *testing.T) {
	got, err := Lines(strings.NewReader("Falha na conexão\n"))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if got[0] != "Falha na conexão" {
		t.Fatalf("Lines = %q", got)
	}
}

func TestLinesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("first\nsecond\n"))
	zw.Close()

	got, err := Lines(&buf)
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if want := []string{"first", "second"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesEmpty(t *testing.T) {
	got, err := Lines(strings.NewReader(""))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no lines, got %q", got)
	}
}

func TestLinesTruncatesLongLine(t *testing.T) {
	long := strings.Repeat("x", 2*MaxLineBytes)
	in := "2025-06-03 10:18:00 - ERROR - boom\n" + long + "\n2025-06-03 10:18:01 - ERROR - second\n"

	got, err := Lines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("lines = %d, want 3", len(got))
	}
	if len(got[1]) != MaxLineBytes {
		t.Errorf("long line kept %d bytes, want %d", len(got[1]), MaxLineBytes)
	}
	if got[0] != "2025-06-03 10:18:00 - ERROR - boom" || got[2] != "2025-06-03 10:18:01 - ERROR - second" {
		t.Errorf("neighbours of the long line = %q, %q", got[0], got[2])
	}
}

func TestLinesTruncatesLongLastLine(t *testing.T) {
	got, err := Lines(strings.NewReader("ok\r\n" + strings.Repeat("y", MaxLineBytes+5)))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(got) != 2 || got[0] != "ok" || len(got[1]) != MaxLineBytes {
		t.Fatalf("got %d lines, first %q", len(got), got[0])
	}
}

func TestLinesTruncationKeepsValidUTF8(t *testing.T) {
	// "é" is two bytes; an odd prefix length would split the last one.
	long := "a" + strings.Repeat("é", MaxLineBytes)
	got, err := Lines(strings.NewReader(long + "\n"))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if !utf8.ValidString(got[0]) {
		t.Fatal("truncated line is not valid UTF-8")
	}
	if len(got[0]) != MaxLineBytes-1 {
		t.Errorf("kept %d bytes, want %d", len(got[0]), MaxLineBytes-1)
	}
}

func TestLinesKeepsTextVerbatim(t *testing.T) {
	// Literal U+FFFD is well-formed and decomposed "e" + U+0301 must not be
	// composed to "é".
	in := "msg \uFFFD kept\ncafe\u0301\n"
	got, err := Lines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if want := []string{"msg \uFFFD kept", "cafe\u0301"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Lines = %q, want %q", got, want)
	}
}

func TestLinesInvalidByteAcrossReadBoundary(t *testing.T) {
	// A truncated three-byte sequence at the very end is dropped.
	got, err := Lines(bytes.NewReader([]byte("tail \xe2\x82")))
	if err != nil {
		t.Fatalf("Lines error: %v", err)
	}
	if len(got) != 1 || got[0] != "tail " {
		t.Fatalf("Lines = %q", got)
	}
}

func TestLinesCorruptGzip(t *testing.T) {
	if _, err := Lines(bytes.NewReader([]byte{0x1f, 0x8b, 0x00})); err == nil {
		t.Fatal("expected error for truncated gzip header")
	}
}

func TestDecodeString(t *testing.T) {
	if got := DecodeString([]byte("a\xc3b")); got != "ab" {
		t.Fatalf("DecodeString = %q, want %q", got, "ab")
	}
}
