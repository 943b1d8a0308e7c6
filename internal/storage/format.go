package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// isoMagic is the standard identifier of an ISO9660 volume descriptor. The
// first descriptor starts at sector 16 (offset 0x8000); its identifier
// follows the one-byte descriptor type.
// Reference: ECMA-119, section 8.1
var (
	isoMagic       = []byte("CD001")
	isoMagicOffset = int64(0x8001)
)

// DetectFormat reports whether r holds an ISO9660 image or raw data.
// Returns an error only when r cannot be read at all.
func DetectFormat(r io.ReaderAt) (VolumeFormat, error) {
	magic := make([]byte, len(isoMagic))
	n, err := r.ReadAt(magic, isoMagicOffset)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read volume descriptor: %w", err)
	}

	if n == len(isoMagic) && bytes.Equal(magic, isoMagic) {
		return VolumeFormatISO, nil
	}
	return VolumeFormatRaw, nil
}

// DetectFileFormat is DetectFormat for a file on disk.
func DetectFileFormat(filePath string) (VolumeFormat, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return DetectFormat(f)
}
