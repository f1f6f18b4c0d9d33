package zipindex

import "context"

// Source is a remote blob supporting partial reads with the same semantics
// as HTTP range requests. Implementations live with the object store; this
// package only consumes them.
type Source interface {
	// Length returns the total byte length of the blob.
	Length(ctx context.Context) (int64, error)

	// ReadRange returns up to length bytes starting at off. A read past the
	// end of the blob is truncated; a read at or past the end returns no
	// bytes.
	ReadRange(ctx context.Context, off, length int64) ([]byte, error)
}
