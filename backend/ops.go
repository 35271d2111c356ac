package backend

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// Accessor is the minimal surface a [Backend] is built on: raw byte access,
// logical length, and physical capacity. Every read/write operation on
// [Backend] is implemented once, generically, against this interface in this
// file, and reused by every composed container (headerfile, splitfile,
// indexedfile, multifile) that needs backend-shaped
// mutation semantics over its own notion of FirstIndex/Len/Capacity without
// re-deriving the bounds-checking arithmetic.
type Accessor interface {
	Data() []byte
	FirstIndex() uint64
	Len() uint64
	SetLen(n uint64) error
	Capacity() uint64
}

// Get implements [Backend.Get] generically over any [Accessor].
func Get(b Accessor, i, n uint64) ([]byte, error) {
	if err := boundsCheck("get", i, n, b.Len()); err != nil {
		return nil, err
	}

	first := b.FirstIndex()

	return b.Data()[first+i : first+i+n], nil
}

// Push implements [Backend.Push] generically over any [Accessor].
func Push(b Accessor, bytes []byte) (uint64, error) {
	oldLen := b.Len()
	n := uint64(len(bytes))

	if n > b.Capacity()-oldLen {
		return 0, fmt.Errorf("backend: push of %d bytes exceeds free capacity %d: %w", n, b.Capacity()-oldLen, bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	copy(b.Data()[first+oldLen:first+oldLen+n], bytes)

	if err := b.SetLen(oldLen + n); err != nil {
		return 0, err
	}

	return oldLen, nil
}

// ReplaceSameLen implements [Backend.ReplaceSameLen] generically over any
// [Accessor].
func ReplaceSameLen(b Accessor, i uint64, bytes []byte) error {
	n := uint64(len(bytes))
	end := i + n

	if end > b.Capacity() {
		return fmt.Errorf("backend: replace_same_len at %d len %d exceeds capacity %d: %w", i, n, b.Capacity(), bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	copy(b.Data()[first+i:first+end], bytes)

	if end > b.Len() {
		if err := b.SetLen(end); err != nil {
			return err
		}
	}

	return nil
}

// Replace implements [Backend.Replace], the size-changing replace operation,
// generically over any [Accessor]. delta = len(bytes) - k is applied
// unconditionally to Len, per the resolution of spec.md §9 open question 1
// (DESIGN.md open question 2).
func Replace(b Accessor, i, k uint64, bytes []byte) error {
	length := b.Len()

	if i > length || k > length-i {
		return fmt.Errorf("backend: replace at %d removing %d exceeds length %d: %w", i, k, length, bserr.ErrOutOfBounds)
	}

	newBytesLen := uint64(len(bytes))
	delta := int64(newBytesLen) - int64(k)
	newLen := int64(length) + delta

	if newLen < 0 || uint64(newLen) > b.Capacity() {
		return fmt.Errorf("backend: replace at %d,%d with %d bytes exceeds capacity %d: %w", i, k, newBytesLen, b.Capacity(), bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	data := b.Data()

	tailStart := i + k
	tailLen := length - tailStart
	newTailStart := i + newBytesLen

	if tailLen > 0 {
		copy(data[first+newTailStart:first+newTailStart+tailLen], data[first+tailStart:first+tailStart+tailLen])
	}

	if newBytesLen > 0 {
		copy(data[first+i:first+i+newBytesLen], bytes)
	}

	return b.SetLen(uint64(newLen))
}

// SwapSameLen implements [Backend.SwapSameLen] generically over any
// [Accessor].
func SwapSameLen(b Accessor, a, c, n uint64) error {
	length := b.Len()

	if n == 0 {
		return fmt.Errorf("backend: swap_same_len with zero length: %w", bserr.ErrOutOfBounds)
	}

	if a+n > length || c+n > length {
		return fmt.Errorf("backend: swap_same_len ranges exceed length %d: %w", length, bserr.ErrOutOfBounds)
	}

	if rangesOverlap(a, a+n, c, c+n) {
		return fmt.Errorf("backend: swap_same_len ranges [%d,%d) and [%d,%d) overlap: %w", a, a+n, c, c+n, bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	data := b.Data()
	tmp := make([]byte, n)

	copy(tmp, data[first+a:first+a+n])
	copy(data[first+a:first+a+n], data[first+c:first+c+n])
	copy(data[first+c:first+c+n], tmp)

	return nil
}

func rangesOverlap(aStart, aEnd, bStart, bEnd uint64) bool {
	return aStart < bEnd && bStart < aEnd
}

// Fill implements [Backend.Fill] generically over any [Accessor].
func Fill(b Accessor, start, end uint64, v byte) error {
	if end > b.Len() || start > end {
		return fmt.Errorf("backend: fill range [%d,%d) exceeds length %d: %w", start, end, b.Len(), bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	data := b.Data()

	for idx := first + start; idx < first+end; idx++ {
		data[idx] = v
	}

	return nil
}

// FlushRangeBounds validates a [Backend.FlushRange] window against Len; it
// performs no I/O, since flush semantics are backend-specific (no-op for
// volatile backends, msync for [Mmap]).
func FlushRangeBounds(b Accessor, i, n uint64) error {
	return boundsCheck("flush_range", i, n, b.Len())
}

// MoveRangeTo implements [Backend.MoveRangeTo] generically over any
// [Accessor].
func MoveRangeTo(b Accessor, src, n, dst uint64) error {
	cap := b.Capacity()

	if src+n > cap || dst+n > cap {
		return fmt.Errorf("backend: move_range_to [%d,%d) -> %d exceeds capacity %d: %w", src, src+n, dst, cap, bserr.ErrOutOfBounds)
	}

	first := b.FirstIndex()
	data := b.Data()
	copy(data[first+dst:first+dst+n], data[first+src:first+src+n])

	return nil
}
