package zipindex

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
)

const (
	localHeaderSignature = 0x04034b50

	// localHeaderFixedLen is the fixed portion of a local file header. The
	// variable filename and extra fields follow it, so the payload offset
	// can only be computed after reading these 30 bytes.
	localHeaderFixedLen = 30
)

// Extract reads and decompresses one entry's payload in two range reads:
// the entry's local header to compute the payload offset, then exactly
// CompressedSize bytes of payload.
//
// Central-directory offsets point at the local header, not the payload, and
// the header's filename and extra-field lengths vary per entry, so this
// second read is mandatory.
func Extract(ctx context.Context, src Source, entry Entry) ([]byte, error) {
	// Reject unsupported methods before spending any I/O.
	if entry.Method != Store && entry.Method != Deflate {
		return nil, fmt.Errorf("extract %s: compression method %d: %w", entry.Name, entry.Method, ErrUnsupported)
	}

	header, err := src.ReadRange(ctx, entry.LocalHeaderOffset, localHeaderFixedLen)
	if err != nil {
		return nil, fmt.Errorf("extract %s: read local header: %w", entry.Name, err)
	}
	if len(header) == 0 {
		return nil, fmt.Errorf("extract %s: empty local header read at %d: %w",
			entry.Name, entry.LocalHeaderOffset, ErrExtraction)
	}
	if len(header) < localHeaderFixedLen {
		return nil, fmt.Errorf("extract %s: short local header read (%d bytes): %w",
			entry.Name, len(header), ErrExtraction)
	}
	if binary.LittleEndian.Uint32(header[0:4]) != localHeaderSignature {
		return nil, fmt.Errorf("extract %s: bad local header signature: %w", entry.Name, ErrMalformed)
	}

	nameLen := int64(binary.LittleEndian.Uint16(header[26:28]))
	extraLen := int64(binary.LittleEndian.Uint16(header[28:30]))
	dataOffset := entry.LocalHeaderOffset + localHeaderFixedLen + nameLen + extraLen

	if entry.CompressedSize == 0 {
		return []byte{}, nil
	}

	compressed, err := src.ReadRange(ctx, dataOffset, entry.CompressedSize)
	if err != nil {
		return nil, fmt.Errorf("extract %s: read payload: %w", entry.Name, err)
	}
	if len(compressed) == 0 {
		return nil, fmt.Errorf("extract %s: empty payload read at %d: %w",
			entry.Name, dataOffset, ErrExtraction)
	}
	if int64(len(compressed)) < entry.CompressedSize {
		return nil, fmt.Errorf("extract %s: short payload read (%d of %d bytes): %w",
			entry.Name, len(compressed), entry.CompressedSize, ErrExtraction)
	}

	switch entry.Method {
	case Store:
		return compressed, nil
	case Deflate:
		fr := flate.NewReader(bytes.NewReader(compressed))
		defer func() { _ = fr.Close() }()

		data, err := io.ReadAll(fr)
		if err != nil {
			return nil, fmt.Errorf("extract %s: inflate: %v: %w", entry.Name, err, ErrDecompression)
		}
		return data, nil
	default:
		// Unreachable; the method was checked before any read.
		return nil, fmt.Errorf("extract %s: compression method %d: %w", entry.Name, entry.Method, ErrUnsupported)
	}
}
