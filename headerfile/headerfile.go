// Package headerfile implements the custom-header wrapper (spec.md §4.2): a
// growable backend that prepends a variable-size, user-serialized header to
// a child region and re-exposes the remainder as a backend in its own right.
package headerfile

import (
	"encoding/binary"
	"fmt"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
)

// lengthPrefixSize is the width of the u32 hlen field at the start of every
// wrapped region.
const lengthPrefixSize = 4

// File is a [backend.Growable] that stores `[u32 hlen][hbytes][child region]`
// inline at the start of parent's live region, per spec.md §6.
type File[H any] struct {
	parent backend.Growable
	codec  deser.Codec[H]
	hlen   uint64
}

// Create writes a new header file atop parent, encoding header as the
// initial user header value. parent is grown to make room if needed.
func Create[H any](parent backend.Growable, codec deser.Codec[H], header H) (*File[H], error) {
	encoded := codec.Encode(header)
	hlen := uint64(lengthPrefixSize + len(encoded))

	if err := backend.GrowTo(parent, hlen); err != nil {
		return nil, err
	}

	prefix := make([]byte, hlen)
	binary.LittleEndian.PutUint32(prefix[:lengthPrefixSize], uint32(hlen))
	copy(prefix[lengthPrefixSize:], encoded)

	if err := parent.ReplaceSameLen(0, prefix); err != nil {
		return nil, err
	}

	return &File[H]{parent: parent, codec: codec, hlen: hlen}, nil
}

// Open loads a header file previously written by [Create], decoding its
// stored header.
func Open[H any](parent backend.Growable, codec deser.Codec[H]) (*File[H], error) {
	f := &File[H]{parent: parent, codec: codec}

	if err := f.reload(); err != nil {
		return nil, err
	}

	return f, nil
}

func (f *File[H]) reload() error {
	prefixLen, err := f.parent.Get(0, lengthPrefixSize)
	if err != nil {
		return err
	}

	hlen := uint64(binary.LittleEndian.Uint32(prefixLen))
	if hlen < lengthPrefixSize || hlen > f.parent.Len() {
		return fmt.Errorf("headerfile: declared header length %d does not fit region of %d live bytes: %w", hlen, f.parent.Len(), bserr.ErrInvalidHeader)
	}

	f.hlen = hlen

	return nil
}

// Header decodes and returns the current header value.
func (f *File[H]) Header() (H, error) {
	raw, err := f.parent.Get(lengthPrefixSize, f.hlen-lengthPrefixSize)
	if err != nil {
		var zero H

		return zero, err
	}

	return f.codec.Decode(raw)
}

// SetHeader replaces the current header value with v, resizing the prefix in
// place via [backend.Backend.Replace] and rewriting the hlen field; the
// child region's effective FirstIndex shifts automatically.
func (f *File[H]) SetHeader(v H) error {
	encoded := f.codec.Encode(v)
	newHlen := uint64(lengthPrefixSize + len(encoded))

	if err := f.parent.Replace(lengthPrefixSize, f.hlen-lengthPrefixSize, encoded); err != nil {
		return err
	}

	prefix := make([]byte, lengthPrefixSize)
	binary.LittleEndian.PutUint32(prefix, uint32(newHlen))

	if err := f.parent.ReplaceSameLen(0, prefix); err != nil {
		return err
	}

	f.hlen = newHlen

	if err := f.parent.FlushRange(0, f.hlen); err != nil {
		return err
	}

	return nil
}

func (f *File[H]) Data() []byte { return f.parent.Data() }

func (f *File[H]) FirstIndex() uint64 { return f.parent.FirstIndex() + f.hlen }

func (f *File[H]) Len() uint64 { return f.parent.Len() - f.hlen }

func (f *File[H]) SetLen(n uint64) error { return f.parent.SetLen(n + f.hlen) }

func (f *File[H]) Capacity() uint64 { return f.parent.Capacity() - f.hlen }

func (f *File[H]) Get(i, n uint64) ([]byte, error) { return backend.Get(f, i, n) }

func (f *File[H]) Push(bytes []byte) (uint64, error) { return backend.Push(f, bytes) }

func (f *File[H]) ReplaceSameLen(i uint64, bytes []byte) error {
	return backend.ReplaceSameLen(f, i, bytes)
}

func (f *File[H]) Replace(i, k uint64, bytes []byte) error { return backend.Replace(f, i, k, bytes) }

func (f *File[H]) SwapSameLen(a, b, n uint64) error { return backend.SwapSameLen(f, a, b, n) }

func (f *File[H]) Fill(start, end uint64, v byte) error { return backend.Fill(f, start, end, v) }

func (f *File[H]) Clear() error { return f.SetLen(0) }

// FlushRange forwards the window verbatim to the parent, shifted by hlen at
// the start offset only, per the resolution of spec.md §9 open question 2
// (DESIGN.md open question 3).
func (f *File[H]) FlushRange(i, n uint64) error {
	if err := backend.FlushRangeBounds(f, i, n); err != nil {
		return err
	}

	return f.parent.FlushRange(i+f.hlen, n)
}

func (f *File[H]) MoveRangeTo(src, n, dst uint64) error { return backend.MoveRangeTo(f, src, n, dst) }

// ResizeImpl grows/shrinks the parent by the same capacity delta; the child
// region always sits directly atop the parent's header prefix.
func (f *File[H]) ResizeImpl(newCapacity uint64, growing bool) error {
	return f.parent.ResizeImpl(newCapacity+f.hlen, growing)
}
