package backend

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// Growable is a [Backend] that additionally supports changing its physical
// capacity.
//
// ResizeImpl is the only place where the underlying storage's physical size
// changes; every other growth/shrink helper in this file is implemented in
// terms of it. Concrete backends implement ResizeImpl; callers use the
// package-level [Grow], [Shrink], [GrowTo], [ShrinkTo], and [Resize] helpers.
type Growable interface {
	Backend

	// ResizeImpl changes the physical capacity of the region to newCapacity.
	// growing is true when the caller is growing (newCapacity > Capacity()),
	// false when shrinking; some backends use this hint to decide whether to
	// zero newly exposed bytes.
	//
	// Implementations must not change Len(); callers adjust Len() themselves
	// via [Backend.SetLen] when appropriate.
	ResizeImpl(newCapacity uint64, growing bool) error
}

// LastIndex returns b.FirstIndex() + b.Len(), the first byte past the live
// region (header included).
func LastIndex(b Backend) uint64 {
	return b.FirstIndex() + b.Len()
}

// Grow increases capacity by n bytes.
func Grow(b Growable, n uint64) error {
	return GrowTo(b, b.Capacity()+n)
}

// GrowTo grows capacity to target bytes. A target <= Capacity() is a no-op.
func GrowTo(b Growable, target uint64) error {
	if target <= b.Capacity() {
		return nil
	}

	return b.ResizeImpl(target, true)
}

// Shrink decreases capacity by n bytes.
//
// Fails with [bserr.ErrOutOfBounds] if the result would fall below Len().
func Shrink(b Growable, n uint64) error {
	cap := b.Capacity()
	if n > cap {
		return fmt.Errorf("backend: shrink by %d exceeds capacity %d: %w", n, cap, bserr.ErrOutOfBounds)
	}

	return ShrinkTo(b, cap-n)
}

// ShrinkTo shrinks capacity to target bytes. A target >= Capacity() is a
// no-op.
//
// Fails with [bserr.ErrOutOfBounds] if target is below Len(): Capacity() and
// Len() share the same baseline (FirstIndex()), so the comparison must not
// re-add FirstIndex() on either side.
func ShrinkTo(b Growable, target uint64) error {
	if target >= b.Capacity() {
		return nil
	}

	if target < b.Len() {
		return fmt.Errorf("backend: shrink to %d is below live length %d: %w", target, b.Len(), bserr.ErrOutOfBounds)
	}

	return b.ResizeImpl(target, false)
}

// ShrinkToFit shrinks capacity down to exactly Len().
func ShrinkToFit(b Growable) error {
	return ShrinkTo(b, b.Len())
}

// Resize applies a signed capacity delta: positive grows, negative shrinks.
func Resize(b Growable, delta int64) error {
	if delta >= 0 {
		return Grow(b, uint64(delta))
	}

	return Shrink(b, uint64(-delta))
}
