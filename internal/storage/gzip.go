package storage

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
)

// gzip magic bytes per RFC 1952
var gzipMagic = []byte{0x1f, 0x8b}

// IsGzipped reports whether content starts with the gzip magic header.
func IsGzipped(content []byte) bool {
	return len(content) >= 2 && bytes.Equal(content[:2], gzipMagic)
}

// MaybeGunzip decompresses content when it is gzip-encoded and returns it
// unchanged otherwise. Marketplaces serve result documents both ways and
// do not always set Content-Encoding.
func MaybeGunzip(content []byte) ([]byte, error) {
	if !IsGzipped(content) {
		return content, nil
	}

	reader, err := gzip.NewReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to open gzip reader: %w", err)
	}
	defer reader.Close()

	decompressed, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress content: %w", err)
	}

	return decompressed, nil
}

// Gzip compresses content with the default compression level.
func Gzip(content []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := gzip.NewWriter(&buf)
	if _, err := writer.Write(content); err != nil {
		return nil, fmt.Errorf("failed to compress content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize gzip stream: %w", err)
	}
	return buf.Bytes(), nil
}
