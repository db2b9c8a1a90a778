package ingest

import (
	"archive/zip"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"
)

// Compression identifies how an uploaded file is packed.
type Compression string

const (
	CompressionNone Compression = "none"
	CompressionGzip Compression = "gzip"
	CompressionLZ4  Compression = "lz4"
	CompressionZip  Compression = "zip"
)

// DetectCompression picks the compression from the file name extension.
func DetectCompression(name string) Compression {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".gz", ".gzip":
		return CompressionGzip
	case ".lz4":
		return CompressionLZ4
	case ".zip":
		return CompressionZip
	default:
		return CompressionNone
	}
}

// Decompress wraps r so that reading it yields the plain CSV payload.
// Zip archives are buffered in memory and their largest file is streamed;
// an entry declaring more than maxBytes is rejected with ErrTooLarge.
// A non-positive maxBytes disables that check.
func Decompress(name string, r io.Reader, maxBytes int64) (io.ReadCloser, error) {
	switch DetectCompression(name) {
	case CompressionGzip:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		return gr, nil
	case CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	case CompressionZip:
		return unpackZip(r, maxBytes)
	default:
		return io.NopCloser(r), nil
	}
}

func unpackZip(r io.Reader, maxBytes int64) (io.ReadCloser, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read zip archive: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	var largest *zip.File
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if largest == nil || f.UncompressedSize64 > largest.UncompressedSize64 {
			largest = f
		}
	}
	if largest == nil {
		return nil, fmt.Errorf("zip archive contains no files")
	}
	if maxBytes > 0 && largest.UncompressedSize64 > uint64(maxBytes) {
		return nil, fmt.Errorf("%s in zip archive is %d bytes: %w", largest.Name, largest.UncompressedSize64, ErrTooLarge)
	}

	rc, err := largest.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in zip archive: %w", largest.Name, err)
	}
	return rc, nil
}
