package backend

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// ReadOnly wraps a [Backend] and rejects every mutating call with
// [bserr.ErrUnsupportedOperation], while still serving Data/Len/Get/Capacity
// reads. Useful for opening a region for inspection without risking an
// accidental write, e.g. a crash-recovery dump tool.
type ReadOnly struct {
	inner Backend
}

// NewReadOnly wraps inner as a read-only view.
func NewReadOnly(inner Backend) *ReadOnly {
	return &ReadOnly{inner: inner}
}

func (r *ReadOnly) Data() []byte { return r.inner.Data() }

func (r *ReadOnly) FirstIndex() uint64 { return r.inner.FirstIndex() }

func (r *ReadOnly) Len() uint64 { return r.inner.Len() }

func (r *ReadOnly) Capacity() uint64 { return r.inner.Capacity() }

func (r *ReadOnly) Get(i, n uint64) ([]byte, error) { return r.inner.Get(i, n) }

func (r *ReadOnly) unsupported(op string) error {
	return fmt.Errorf("backend: %s on read-only backend: %w", op, bserr.ErrUnsupportedOperation)
}

func (r *ReadOnly) SetLen(n uint64) error { return r.unsupported("set_len") }

func (r *ReadOnly) Push(bytes []byte) (uint64, error) { return 0, r.unsupported("push") }

func (r *ReadOnly) ReplaceSameLen(i uint64, bytes []byte) error {
	return r.unsupported("replace_same_len")
}

func (r *ReadOnly) Replace(i, k uint64, bytes []byte) error { return r.unsupported("replace") }

func (r *ReadOnly) SwapSameLen(a, b, n uint64) error { return r.unsupported("swap_same_len") }

func (r *ReadOnly) Fill(start, end uint64, v byte) error { return r.unsupported("fill") }

func (r *ReadOnly) Clear() error { return r.unsupported("clear") }

func (r *ReadOnly) FlushRange(i, n uint64) error { return nil }

func (r *ReadOnly) MoveRangeTo(src, n, dst uint64) error { return r.unsupported("move_range_to") }
