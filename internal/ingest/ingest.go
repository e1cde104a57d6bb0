// Package ingest turns raw log bytes into decoded text lines. Undecodable
// bytes are dropped instead of failing the read, and gzip-compressed
// documents (rotated logs) are decompressed transparently.
package ingest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/klauspost/compress/gzip"
	"golang.org/x/text/transform"
)

// MaxLineBytes bounds the text kept per line. Longer lines are truncated,
// the rest of the line is discarded.
const MaxLineBytes = 1024 * 1024 // 1MB

const readBufSize = 64 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// dropInvalid removes ill-formed UTF-8 byte sequences. Well-formed text,
// including an encoded U+FFFD, passes through unchanged.
type dropInvalid struct{ transform.NopResetter }

func (dropInvalid) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		if c := src[nSrc]; c < utf8.RuneSelf {
			if nDst >= len(dst) {
				return nDst, nSrc, transform.ErrShortDst
			}
			dst[nDst] = c
			nDst++
			nSrc++
			continue
		}

		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size == 1 {
			if !atEOF && !utf8.FullRune(src[nSrc:]) {
				return nDst, nSrc, transform.ErrShortSrc
			}
			nSrc++
			continue
		}
		if nDst+size > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		copy(dst[nDst:], src[nSrc:nSrc+size])
		nDst += size
		nSrc += size
	}
	return nDst, nSrc, nil
}

func decoder() transform.Transformer { return dropInvalid{} }

// Open returns a reader over the decoded text of r, decompressing it first
// when it starts with the gzip magic number.
func Open(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("ingest: peek: %w", err)
	}

	var src io.Reader = br
	if bytes.Equal(head, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("ingest: gzip: %w", err)
		}
		src = zr
	}
	return transform.NewReader(src, decoder()), nil
}

// Lines reads all of r and splits it into lines without their terminators.
// Only read and decompression failures are errors; content never is.
func Lines(r io.Reader) ([]string, error) {
	dr, err := Open(r)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(dr, readBufSize)
	var (
		lines     []string
		line      []byte
		truncated bool
	)
	for {
		frag, err := br.ReadSlice('\n')
		if room := MaxLineBytes - len(line); len(frag) > room {
			frag = frag[:room]
			truncated = true
		}
		line = append(line, frag...)

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
			lines = append(lines, finish(line, truncated))
			line, truncated = line[:0], false
		case err == io.EOF:
			if len(line) > 0 {
				lines = append(lines, finish(line, truncated))
			}
			return lines, nil
		default:
			return lines, fmt.Errorf("ingest: read line %d: %w", len(lines)+1, err)
		}
	}
}

// finish strips the line terminator. A truncated line may end inside a
// multi-byte rune; that partial rune is dropped.
func finish(line []byte, truncated bool) string {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	s := string(line)
	if truncated {
		s = strings.ToValidUTF8(s, "")
	}
	return s
}

// DecodeString decodes an in-memory document.
func DecodeString(b []byte) string {
	s, _, err := transform.Bytes(decoder(), b)
	if err != nil {
		return string(bytes.ToValidUTF8(b, nil))
	}
	return string(s)
}
