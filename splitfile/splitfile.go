// Package splitfile implements the split file (spec.md §4.3): two
// co-resident backends sharing one parent region, separated by a split
// position stored in a [headerfile.File] custom header. Each side grows and
// shrinks independently; growing/shrinking A shifts B, while B sits at the
// tail and resizes without moving A.
package splitfile

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
	"github.com/JojiiOfficial/Bytestore/header"
	"github.com/JojiiOfficial/Bytestore/headerfile"
)

// File is a parent region split into two independently growable
// sub-backends, "first" (A) and "second" (B), at a persisted boundary.
type File struct {
	hf *headerfile.File[uint64]
}

// Create reserves exactly (header.Size+initialCapacity)*2 bytes: an A
// sub-region and a B sub-region, each with initialCapacity bytes of zeroed
// capacity behind its own 8-byte [header.Base], per spec.md §4.3.
func Create(parent backend.Growable, initialCapacity uint64) (*File, error) {
	splitPos := header.Size + initialCapacity

	hf, err := headerfile.Create[uint64](parent, deser.Uint64{}, splitPos)
	if err != nil {
		return nil, err
	}

	total := (header.Size + initialCapacity) * 2

	if err := backend.GrowTo(hf, total); err != nil {
		return nil, err
	}

	if err := hf.SetLen(total); err != nil {
		return nil, err
	}

	return &File{hf: hf}, nil
}

// Open loads a split file previously written by [Create].
func Open(parent backend.Growable) (*File, error) {
	hf, err := headerfile.Open[uint64](parent, deser.Uint64{})
	if err != nil {
		return nil, err
	}

	return &File{hf: hf}, nil
}

// SplitPos returns the current boundary offset between A and B, measured
// from the start of the split file's child region.
func (f *File) SplitPos() (uint64, error) { return f.hf.Header() }

// First returns a read-only view over the A sub-region.
func (f *File) First() backend.Backend { return backend.NewReadOnly(&side{sf: f, isFirst: true}) }

// Second returns a read-only view over the B sub-region.
func (f *File) Second() backend.Backend { return backend.NewReadOnly(&side{sf: f, isFirst: false}) }

// FirstMut returns a mutable, growable handle to the A sub-region.
func (f *File) FirstMut() *side { return &side{sf: f, isFirst: true} }

// SecondMut returns a mutable, growable handle to the B sub-region.
func (f *File) SecondMut() *side { return &side{sf: f, isFirst: false} }

// BothMut returns mutable handles to both sub-regions simultaneously. In Go
// there is no borrow checker to enforce disjointness, but the two handles do
// address non-overlapping byte ranges by construction, mirroring the
// multi-split discipline of spec.md §5.
func (f *File) BothMut() (*side, *side) { return f.FirstMut(), f.SecondMut() }

func (f *File) growA(n uint64) error {
	if err := backend.Grow(f.hf, n); err != nil {
		return err
	}

	splitPos, err := f.SplitPos()
	if err != nil {
		return err
	}

	if err := f.hf.Replace(splitPos, 0, make([]byte, n)); err != nil {
		return err
	}

	return f.hf.SetHeader(splitPos + n)
}

func (f *File) shrinkA(n uint64) error {
	a := side{sf: f, isFirst: true}

	if n > backend.Free(&a) {
		return fmt.Errorf("splitfile: shrink A by %d exceeds free capacity %d: %w", n, backend.Free(&a), bserr.ErrOutOfBounds)
	}

	splitPos, err := f.SplitPos()
	if err != nil {
		return err
	}

	if err := f.hf.Replace(splitPos-n, n, nil); err != nil {
		return err
	}

	return f.hf.SetHeader(splitPos - n)
}

func (f *File) growB(n uint64) error {
	if err := backend.Grow(f.hf, n); err != nil {
		return err
	}

	return f.hf.SetLen(f.hf.Len() + n)
}

func (f *File) shrinkB(n uint64) error {
	b := side{sf: f, isFirst: false}

	if n > backend.Free(&b) {
		return fmt.Errorf("splitfile: shrink B by %d exceeds free capacity %d: %w", n, backend.Free(&b), bserr.ErrOutOfBounds)
	}

	return f.hf.SetLen(f.hf.Len() - n)
}

// side implements [backend.Growable] for one of the two sub-regions.
type side struct {
	sf      *File
	isFirst bool
}

// headerOffset returns this side's BaseHeader offset, relative to the split
// file's child region.
func (s *side) headerOffset() (uint64, error) {
	if s.isFirst {
		return 0, nil
	}

	return s.sf.SplitPos()
}

func (s *side) Data() []byte { return s.sf.hf.Data() }

func (s *side) FirstIndex() uint64 {
	off, err := s.headerOffset()
	if err != nil {
		panic(err)
	}

	return s.sf.hf.FirstIndex() + off + header.Size
}

func (s *side) headerWindow() []byte {
	off, err := s.headerOffset()
	if err != nil {
		panic(err)
	}

	start := s.sf.hf.FirstIndex() + off

	return s.sf.hf.Data()[start : start+header.Size]
}

func (s *side) Len() uint64 {
	n, err := header.DataLen(s.headerWindow())
	if err != nil {
		panic(err)
	}

	return n
}

func (s *side) SetLen(n uint64) error {
	if n > s.Capacity() {
		return fmt.Errorf("splitfile: set_len %d exceeds capacity %d: %w", n, s.Capacity(), bserr.ErrOutOfBounds)
	}

	return header.PutDataLen(s.headerWindow(), n)
}

func (s *side) Capacity() uint64 {
	splitPos, err := s.sf.SplitPos()
	if err != nil {
		panic(err)
	}

	if s.isFirst {
		return splitPos - header.Size
	}

	return (s.sf.hf.Len() - splitPos) - header.Size
}

func (s *side) Get(i, n uint64) ([]byte, error) { return backend.Get(s, i, n) }

func (s *side) Push(bytes []byte) (uint64, error) { return backend.Push(s, bytes) }

func (s *side) ReplaceSameLen(i uint64, bytes []byte) error {
	return backend.ReplaceSameLen(s, i, bytes)
}

func (s *side) Replace(i, k uint64, bytes []byte) error { return backend.Replace(s, i, k, bytes) }

func (s *side) SwapSameLen(a, b, n uint64) error { return backend.SwapSameLen(s, a, b, n) }

func (s *side) Fill(start, end uint64, v byte) error { return backend.Fill(s, start, end, v) }

func (s *side) Clear() error { return s.SetLen(0) }

func (s *side) FlushRange(i, n uint64) error {
	if err := backend.FlushRangeBounds(s, i, n); err != nil {
		return err
	}

	return s.sf.hf.FlushRange(s.FirstIndex()-s.sf.hf.FirstIndex()+i, n)
}

func (s *side) MoveRangeTo(src, n, dst uint64) error { return backend.MoveRangeTo(s, src, n, dst) }

// ResizeImpl routes through the split file's grow/shrink logic, which shifts
// the other side's bytes as needed; this is why side cannot simply forward to
// the parent's own ResizeImpl the way [headerfile.File] does.
func (s *side) ResizeImpl(newCapacity uint64, growing bool) error {
	current := s.Capacity()

	switch {
	case newCapacity == current:
		return nil
	case newCapacity > current:
		delta := newCapacity - current
		if s.isFirst {
			return s.sf.growA(delta)
		}

		return s.sf.growB(delta)
	default:
		delta := current - newCapacity
		if s.isFirst {
			return s.sf.shrinkA(delta)
		}

		return s.sf.shrinkB(delta)
	}
}
