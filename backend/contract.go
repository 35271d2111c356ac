// Package backend defines the uniform byte-region contract every storage
// component in this module is built on (see spec.md §4.1), plus the two
// concrete backends: an in-memory, vector-backed region ([Memory]) and a
// file-backed, memory-mapped region ([Mmap]).
package backend

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// Backend is the capability exposed by every storage region in this module:
// raw byte access, logical length, and bounds-checked read/write/insert/
// remove/push/fill/swap/flush.
//
// All indices passed to these operations are logical: they are relative to
// [Backend.FirstIndex], not to the start of the underlying region.
type Backend interface {
	// Data returns the whole underlying region, header included.
	//
	// The returned slice is only valid until the next call that may grow or
	// shrink the backend (see spec.md §5, "Growth invalidates raw pointers").
	Data() []byte

	// FirstIndex returns the index of the first live byte within [Backend.Data].
	FirstIndex() uint64

	// Len returns the logical live length.
	Len() uint64

	// SetLen sets the logical live length.
	//
	// Fails with [bserr.ErrOutOfBounds] when n > Capacity().
	SetLen(n uint64) error

	// Capacity returns len(Data()) - FirstIndex().
	Capacity() uint64

	// Get returns a view of the n bytes starting at logical offset i.
	//
	// Fails with [bserr.ErrOutOfBounds] if i+n exceeds Len().
	Get(i, n uint64) ([]byte, error)

	// Push copies bytes at the logical end of the region and extends Len by
	// len(bytes). Returns the old Len (the insertion offset).
	//
	// Fails with [bserr.ErrOutOfBounds] if there is insufficient free capacity.
	Push(bytes []byte) (uint64, error)

	// ReplaceSameLen overwrites exactly len(bytes) bytes starting at logical
	// offset i. If the write extends past the current Len, Len grows to cover
	// it.
	//
	// Fails with [bserr.ErrOutOfBounds] if the write would exceed Capacity().
	ReplaceSameLen(i uint64, bytes []byte) error

	// Replace substitutes k bytes at logical offset i with bytes. A zero-length
	// bytes argument removes; a zero-length k inserts. Bytes in
	// [i+k, Len()) are relocated to [i+len(bytes), ...); Len changes by
	// len(bytes)-k.
	//
	// Fails with [bserr.ErrOutOfBounds] if the result would exceed Capacity().
	Replace(i, k uint64, bytes []byte) error

	// SwapSameLen exchanges two equal-length, non-overlapping logical ranges.
	//
	// Fails with [bserr.ErrOutOfBounds] on overlap or a zero-length range.
	SwapSameLen(a, b, n uint64) error

	// Fill memsets the logical range [start, end) to b.
	//
	// Fails with [bserr.ErrOutOfBounds] if the range exceeds Len().
	Fill(start, end uint64, b byte) error

	// Clear sets Len to 0. Always succeeds.
	Clear() error

	// FlushRange forces durability for the logical byte window [i, i+n) on
	// persistent backends; it is a no-op on volatile backends.
	//
	// Fails with [bserr.ErrOutOfBounds] if the window exceeds Len().
	FlushRange(i, n uint64) error

	// MoveRangeTo relocates n bytes from logical offset src to logical offset
	// dst within the region. Used for moves that cannot be expressed as
	// [Backend.Replace].
	//
	// Fails with [bserr.ErrOutOfBounds] if either range exceeds Capacity().
	MoveRangeTo(src, n, dst uint64) error
}

// Free returns b.Capacity() - b.Len().
func Free(b Backend) uint64 {
	return b.Capacity() - b.Len()
}

// boundsCheck returns [bserr.ErrOutOfBounds] wrapped with context if the
// range [i, i+n) exceeds limit.
func boundsCheck(op string, i, n, limit uint64) error {
	if i > limit || n > limit-i {
		return fmt.Errorf("backend: %s: range [%d, %d) exceeds limit %d: %w", op, i, i+n, limit, bserr.ErrOutOfBounds)
	}

	return nil
}
