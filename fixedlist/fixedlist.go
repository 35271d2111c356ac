// Package fixedlist implements the fixed-stride list (spec.md §4.6): a
// typed view over any [backend.Growable] region where every element
// occupies exactly N bytes, encoded/decoded through a [deser.SizedCodec].
package fixedlist

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
)

// List is a fixed-element-width view over a [backend.Growable] region. It
// holds no state of its own beyond the backend and codec: the element count
// is always backend.Len() / codec.Size().
type List[T any] struct {
	b     backend.Growable
	codec deser.SizedCodec[T]
}

// New wraps b as a fixed-stride list of T, encoded/decoded via codec.
//
// Panics if codec.Size() is 0: a zero-width stride makes element indexing
// meaningless, and every [deser.SizedCodec] this module ships has a nonzero
// Size(), so this only fires against a caller-supplied misbehaving codec.
func New[T any](b backend.Growable, codec deser.SizedCodec[T]) *List[T] {
	if codec.Size() == 0 {
		panic("fixedlist: codec has zero Size()")
	}

	return &List[T]{b: b, codec: codec}
}

func (l *List[T]) stride() uint64 { return l.codec.Size() }

// Len returns the number of elements currently stored.
func (l *List[T]) Len() uint64 { return l.b.Len() / l.stride() }

// Capacity returns the number of elements the backend can hold without
// growing.
func (l *List[T]) Capacity() uint64 { return l.b.Capacity() / l.stride() }

func (l *List[T]) checkIndex(i uint64) error {
	if i >= l.Len() {
		return fmt.Errorf("fixedlist: index %d >= len %d: %w", i, l.Len(), bserr.ErrOutOfBounds)
	}

	return nil
}

// Get returns element i.
func (l *List[T]) Get(i uint64) (T, error) {
	var zero T

	if err := l.checkIndex(i); err != nil {
		return zero, err
	}

	raw, err := l.b.Get(i*l.stride(), l.stride())
	if err != nil {
		return zero, err
	}

	return l.codec.Decode(raw)
}

// Set overwrites element i.
func (l *List[T]) Set(i uint64, v T) error {
	if err := l.checkIndex(i); err != nil {
		return err
	}

	return l.b.ReplaceSameLen(i*l.stride(), l.codec.Encode(v))
}

// MemSet overwrites count consecutive elements starting at i with v.
func (l *List[T]) MemSet(i, count uint64, v T) error {
	if i+count > l.Len() {
		return fmt.Errorf("fixedlist: mem_set [%d,%d) exceeds len %d: %w", i, i+count, l.Len(), bserr.ErrOutOfBounds)
	}

	encoded := l.codec.Encode(v)
	stride := l.stride()
	buf := make([]byte, count*stride)

	for c := uint64(0); c < count; c++ {
		copy(buf[c*stride:(c+1)*stride], encoded)
	}

	return l.b.ReplaceSameLen(i*stride, buf)
}

// Push grows the list by one element if needed and appends v.
func (l *List[T]) Push(v T) error {
	if err := growIfNeeded(l.b, l.stride()); err != nil {
		return err
	}

	_, err := l.b.Push(l.codec.Encode(v))

	return err
}

// Insert splices v in at index i, shifting every later element up by one.
//
// Fails with [bserr.ErrOutOfBounds] if i > [List.Len].
func (l *List[T]) Insert(i uint64, v T) error {
	if i > l.Len() {
		return fmt.Errorf("fixedlist: insert at %d > len %d: %w", i, l.Len(), bserr.ErrOutOfBounds)
	}

	if err := growIfNeeded(l.b, l.stride()); err != nil {
		return err
	}

	return l.b.Replace(i*l.stride(), 0, l.codec.Encode(v))
}

// Remove deletes element i, shifting every later element down by one, and
// returns its previous value.
func (l *List[T]) Remove(i uint64) (T, error) {
	var zero T

	if err := l.checkIndex(i); err != nil {
		return zero, err
	}

	v, err := l.Get(i)
	if err != nil {
		return zero, err
	}

	if err := l.b.Replace(i*l.stride(), l.stride(), nil); err != nil {
		return zero, err
	}

	return v, nil
}

// SetLen grows or shrinks the list to exactly n elements, zero-encoding any
// newly exposed elements on growth.
func (l *List[T]) SetLen(n uint64) error {
	current := l.Len()

	switch {
	case n == current:
		return nil
	case n > current:
		added := n - current
		if err := growIfNeeded(l.b, added*l.stride()); err != nil {
			return err
		}

		_, err := l.b.Push(make([]byte, added*l.stride()))

		return err
	default:
		return l.b.SetLen(n * l.stride())
	}
}

// Clear empties the list.
func (l *List[T]) Clear() error { return l.b.Clear() }

func growIfNeeded(b backend.Growable, needed uint64) error {
	if backend.Free(b) >= needed {
		return nil
	}

	return backend.Grow(b, needed-backend.Free(b))
}
