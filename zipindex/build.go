package zipindex

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"
)

const (
	eocdSignature      = 0x06054b50
	eocd64Signature    = 0x06064b50
	eocd64LocSignature = 0x07064b50
	cdHeaderSignature  = 0x02014b50

	// eocdFixedLen is the fixed portion of the end-of-central-directory
	// record; the archive comment of up to 64 KiB may follow it.
	eocdFixedLen = 22
	// cdHeaderFixedLen is the fixed portion of a central directory record.
	cdHeaderFixedLen = 46

	// maxTailLen bounds the trailing read used to locate the EOCD record:
	// the fixed record plus the maximum comment length.
	maxTailLen = eocdFixedLen + 0xffff

	zip64Marker32 = 0xffffffff
	zip64Marker16 = 0xffff
)

// Build parses an archive's central directory into an Index.
//
// It obtains the source length, reads the archive tail to locate the
// end-of-central-directory record, and reads the directory region when it
// extends past the tail. Record order in the result is irrelevant; lookups
// are by normalized path.
func Build(ctx context.Context, src Source) (*Index, error) {
	size, err := src.Length(ctx)
	if err != nil {
		return nil, fmt.Errorf("build index: length: %w", err)
	}
	if size < eocdFixedLen {
		return nil, fmt.Errorf("build index: %d bytes is too small for an archive: %w", size, ErrMalformed)
	}

	tailLen := int64(maxTailLen)
	if tailLen > size {
		tailLen = size
	}
	tailStart := size - tailLen

	tail, err := src.ReadRange(ctx, tailStart, tailLen)
	if err != nil {
		return nil, fmt.Errorf("build index: read tail: %w", err)
	}

	cdOffset, cdSize, err := findDirectory(tail)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if cdOffset+cdSize > size {
		return nil, fmt.Errorf("build index: directory region [%d,%d) exceeds archive size %d: %w",
			cdOffset, cdOffset+cdSize, size, ErrMalformed)
	}

	// The directory usually sits inside the tail already; only reach back
	// to the source when it starts earlier.
	var directory []byte
	if cdOffset >= tailStart {
		directory = tail[cdOffset-tailStart:]
		if int64(len(directory)) > cdSize {
			directory = directory[:cdSize]
		}
	} else {
		directory, err = src.ReadRange(ctx, cdOffset, cdSize)
		if err != nil {
			return nil, fmt.Errorf("build index: read directory: %w", err)
		}
	}
	if int64(len(directory)) < cdSize {
		return nil, fmt.Errorf("build index: short directory read (%d of %d bytes): %w",
			len(directory), cdSize, ErrMalformed)
	}

	entries, err := parseDirectory(directory, size)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &Index{
		Entries:   entries,
		TotalSize: size,
		BuiltAt:   time.Now().UTC(),
	}, nil
}

// findDirectory scans the tail buffer backwards for the EOCD signature and
// returns the central directory's offset and size within the archive.
func findDirectory(tail []byte) (cdOffset, cdSize int64, err error) {
	for i := len(tail) - eocdFixedLen; i >= 0; i-- {
		if binary.LittleEndian.Uint32(tail[i:]) != eocdSignature {
			continue
		}

		rec := tail[i:]
		totalEntries := binary.LittleEndian.Uint16(rec[10:12])
		size := binary.LittleEndian.Uint32(rec[12:16])
		offset := binary.LittleEndian.Uint32(rec[16:20])

		if totalEntries == zip64Marker16 || size == zip64Marker32 || offset == zip64Marker32 {
			return 0, 0, fmt.Errorf("zip64 end of central directory: %w", ErrUnsupported)
		}
		if i >= 20 && binary.LittleEndian.Uint32(tail[i-20:]) == eocd64LocSignature {
			return 0, 0, fmt.Errorf("zip64 locator present: %w", ErrUnsupported)
		}

		return int64(offset), int64(size), nil
	}
	return 0, 0, fmt.Errorf("end of central directory signature not found: %w", ErrMalformed)
}

// parseDirectory walks the central directory records sequentially.
func parseDirectory(directory []byte, archiveSize int64) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	for offset := 0; offset < len(directory); {
		rec := directory[offset:]
		if len(rec) < cdHeaderFixedLen {
			return nil, fmt.Errorf("truncated directory record at %d: %w", offset, ErrMalformed)
		}
		if binary.LittleEndian.Uint32(rec[0:4]) != cdHeaderSignature {
			return nil, fmt.Errorf("bad directory record signature at %d: %w", offset, ErrMalformed)
		}

		method := Method(binary.LittleEndian.Uint16(rec[10:12]))
		crc := binary.LittleEndian.Uint32(rec[16:20])
		compressedSize := binary.LittleEndian.Uint32(rec[20:24])
		uncompressedSize := binary.LittleEndian.Uint32(rec[24:28])
		nameLen := int(binary.LittleEndian.Uint16(rec[28:30]))
		extraLen := int(binary.LittleEndian.Uint16(rec[30:32]))
		commentLen := int(binary.LittleEndian.Uint16(rec[32:34]))
		headerOffset := binary.LittleEndian.Uint32(rec[42:46])

		recordLen := cdHeaderFixedLen + nameLen + extraLen + commentLen
		if len(rec) < recordLen {
			return nil, fmt.Errorf("truncated directory record at %d: %w", offset, ErrMalformed)
		}

		name := NormalizeName(string(rec[cdHeaderFixedLen : cdHeaderFixedLen+nameLen]))
		offset += recordLen

		// Directory placeholders carry no payload.
		if name == "" || name[len(name)-1] == '/' {
			continue
		}

		if compressedSize == zip64Marker32 || uncompressedSize == zip64Marker32 || headerOffset == zip64Marker32 {
			return nil, fmt.Errorf("entry %q uses zip64 sizes: %w", name, ErrUnsupported)
		}
		if method != Store && method != Deflate {
			return nil, fmt.Errorf("entry %q uses compression method %d: %w", name, method, ErrUnsupported)
		}
		if int64(headerOffset) >= archiveSize {
			return nil, fmt.Errorf("entry %q header offset %d beyond archive size %d: %w",
				name, headerOffset, archiveSize, ErrMalformed)
		}

		entries[name] = Entry{
			Name:              name,
			UncompressedSize:  int64(uncompressedSize),
			CompressedSize:    int64(compressedSize),
			LocalHeaderOffset: int64(headerOffset),
			CRC32:             crc,
			Method:            method,
		}
	}

	return entries, nil
}
