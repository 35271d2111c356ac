// Package multifile implements the multi-file (spec.md §4.5): an arena of N
// independently growable backends, each stored as an [indexedfile.File]
// entry that is itself prefixed by its own 8-byte [header.Base], giving each
// arena slot spare capacity between its logical length and its physical
// entry size — the same header/capacity split every other backend in this
// module exposes.
package multifile

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/header"
	"github.com/JojiiOfficial/Bytestore/indexedfile"
)

// File is an arena of backends, each addressed by the same ID space as the
// underlying [indexedfile.File].
type File struct {
	entries *indexedfile.File
}

// Create reserves an empty arena; initialSideCapacity is forwarded to
// [indexedfile.Create] for the offset table and storage halves.
func Create(parent backend.Growable, initialSideCapacity uint64) (*File, error) {
	entries, err := indexedfile.Create(parent, initialSideCapacity)
	if err != nil {
		return nil, err
	}

	return &File{entries: entries}, nil
}

// Open loads a multi-file previously written by [Create].
func Open(parent backend.Growable) (*File, error) {
	entries, err := indexedfile.Open(parent)
	if err != nil {
		return nil, err
	}

	return &File{entries: entries}, nil
}

// Count returns the number of backends currently held in the arena.
func (f *File) Count() uint64 { return f.entries.Count() }

func rawChild(capacity uint64, initial []byte) []byte {
	raw := make([]byte, header.Size+capacity)
	_ = header.PutDataLen(raw, uint64(len(initial)))
	copy(raw[header.Size:], initial)

	return raw
}

// InsertEmpty reserves a new backend with the given physical capacity and a
// logical length of zero.
func (f *File) InsertEmpty(capacity uint64) (uint64, error) {
	return f.entries.Insert(rawChild(capacity, nil))
}

// InsertNewBackend reserves a new backend whose initial live bytes are data,
// with no spare capacity beyond len(data).
func (f *File) InsertNewBackend(data []byte) (uint64, error) {
	return f.entries.Insert(rawChild(uint64(len(data)), data))
}

// Get returns a read-only view of backend id.
func (f *File) Get(id uint64) (backend.Backend, error) {
	c, err := f.child(id)
	if err != nil {
		return nil, err
	}

	return backend.NewReadOnly(c), nil
}

// GetMut returns a mutable, growable handle to backend id.
func (f *File) GetMut(id uint64) (backend.Growable, error) {
	return f.child(id)
}

// GetNByIndexMut returns mutable handles for ids, in the order requested.
// Duplicate ids are rejected, mirroring [indexedfile.File.GetN].
func (f *File) GetNByIndexMut(ids []uint64) ([]backend.Growable, error) {
	seen := make(map[uint64]bool, len(ids))
	out := make([]backend.Growable, len(ids))

	for i, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("multifile: duplicate id %d in get_n: %w", id, bserr.ErrOutOfBounds)
		}

		seen[id] = true

		c, err := f.child(id)
		if err != nil {
			return nil, err
		}

		out[i] = c
	}

	return out, nil
}

func (f *File) child(id uint64) (*childBackend, error) {
	e, err := f.entries.Entry(id)
	if err != nil {
		return nil, err
	}

	return &childBackend{f: f, id: id, entry: e}, nil
}

// Clear empties the whole arena: every backend and the ID space itself are
// reset.
func (f *File) Clear() error { return f.entries.Clear() }

// childBackend adapts one [indexedfile.File] entry into a [backend.Growable]
// with its own 8-byte length header, the same header/capacity split
// [headerfile.File] implements for a single custom header — but fixed to
// [header.Base] rather than an arbitrary codec, matching every other
// backend's header layout exactly.
type childBackend struct {
	f     *File
	id    uint64
	entry backend.Growable
}

func (c *childBackend) headerWindow() []byte {
	start := c.entry.FirstIndex()
	data := c.entry.Data()

	return data[start : start+header.Size]
}

func (c *childBackend) Data() []byte { return c.entry.Data() }

func (c *childBackend) FirstIndex() uint64 { return c.entry.FirstIndex() + header.Size }

func (c *childBackend) Len() uint64 {
	n, err := header.DataLen(c.headerWindow())
	if err != nil {
		panic(err)
	}

	return n
}

func (c *childBackend) SetLen(n uint64) error {
	if n > c.Capacity() {
		return fmt.Errorf("multifile: set_len %d exceeds capacity %d for entry %d: %w", n, c.Capacity(), c.id, bserr.ErrOutOfBounds)
	}

	return header.PutDataLen(c.headerWindow(), n)
}

func (c *childBackend) Capacity() uint64 { return c.entry.Capacity() - header.Size }

func (c *childBackend) Get(i, n uint64) ([]byte, error) { return backend.Get(c, i, n) }

func (c *childBackend) Push(bytes []byte) (uint64, error) { return backend.Push(c, bytes) }

func (c *childBackend) ReplaceSameLen(i uint64, bytes []byte) error {
	return backend.ReplaceSameLen(c, i, bytes)
}

func (c *childBackend) Replace(i, k uint64, bytes []byte) error {
	return backend.Replace(c, i, k, bytes)
}

func (c *childBackend) SwapSameLen(a, b, n uint64) error { return backend.SwapSameLen(c, a, b, n) }

func (c *childBackend) Fill(start, end uint64, v byte) error { return backend.Fill(c, start, end, v) }

func (c *childBackend) Clear() error { return c.SetLen(0) }

func (c *childBackend) FlushRange(i, n uint64) error {
	if err := backend.FlushRangeBounds(c, i, n); err != nil {
		return err
	}

	return c.entry.FlushRange(header.Size+i, n)
}

func (c *childBackend) MoveRangeTo(src, n, dst uint64) error {
	return backend.MoveRangeTo(c, src, n, dst)
}

// ResizeImpl grows/shrinks the entry's raw capacity by the same delta,
// preserving the header window and the relationship Capacity() ==
// entry.Capacity() - header.Size.
//
// This calls entry.ResizeImpl directly rather than [backend.Grow]/
// [backend.Shrink]: the underlying [indexedfile.File.Entry] handle always
// has Capacity() == Len() (spec.md §4.4 — entries carry no spare capacity of
// their own), so the generic [backend.ShrinkTo] precondition "target must be
// >= Len()" can never hold for it once n > 0. entry.ResizeImpl already
// performs its own correct bounds check (via [indexedfile.File.ShrinkEntry]).
func (c *childBackend) ResizeImpl(newCapacity uint64, growing bool) error {
	return c.entry.ResizeImpl(newCapacity+header.Size, growing)
}
