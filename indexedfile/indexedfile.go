// Package indexedfile implements the indexed file (spec.md §4.4):
// variable-length entries identified by monotonically assigned IDs, built on
// a [splitfile.File] whose first half is an offset table and whose second
// half is the concatenated entry bytes.
package indexedfile

import (
	"fmt"
	"iter"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
	"github.com/JojiiOfficial/Bytestore/splitfile"
)

var offsetCodec deser.RawLEUint64

const offsetWidth = 8

// File is the ID-addressed variable-length-entry container.
type File struct {
	sf      *splitfile.File
	table   backend.Growable
	storage backend.Growable
}

// Create reserves a split file with the given per-half initial capacity and
// wraps it as an empty indexed file.
func Create(parent backend.Growable, initialCapacity uint64) (*File, error) {
	sf, err := splitfile.Create(parent, initialCapacity)
	if err != nil {
		return nil, err
	}

	return wrap(sf), nil
}

// Open loads an indexed file previously written by [Create].
func Open(parent backend.Growable) (*File, error) {
	sf, err := splitfile.Open(parent)
	if err != nil {
		return nil, err
	}

	return wrap(sf), nil
}

func wrap(sf *splitfile.File) *File {
	return &File{sf: sf, table: sf.FirstMut(), storage: sf.SecondMut()}
}

// Count returns the number of entries currently stored.
func (f *File) Count() uint64 { return f.table.Len() / offsetWidth }

func (f *File) offsetAt(i uint64) (uint64, error) {
	raw, err := f.table.Get(i*offsetWidth, offsetWidth)
	if err != nil {
		return 0, err
	}

	return offsetCodec.Decode(raw)
}

func (f *File) setOffsetAt(i, v uint64) error {
	return f.table.ReplaceSameLen(i*offsetWidth, offsetCodec.Encode(v))
}

// entryRange returns the [start, end) byte range of entry id within the
// storage half's live region.
func (f *File) entryRange(id uint64) (start, end uint64, err error) {
	count := f.Count()
	if id >= count {
		return 0, 0, fmt.Errorf("indexedfile: id %d >= count %d: %w", id, count, bserr.ErrOutOfBounds)
	}

	start, err = f.offsetAt(id)
	if err != nil {
		return 0, 0, err
	}

	if id+1 == count {
		end = f.storage.Len()
	} else {
		end, err = f.offsetAt(id + 1)
		if err != nil {
			return 0, 0, err
		}
	}

	return start, end, nil
}

// growIfNeeded implements spec.md §4.4's capacity growth policy for a table
// or storage half: double current capacity (at least 8 bytes), or grow to
// exactly the requested delta if that is larger.
func growIfNeeded(g backend.Growable, neededFree uint64) error {
	free := backend.Free(g)
	if free >= neededFree {
		return nil
	}

	delta := neededFree - free

	doubled := g.Capacity()
	if doubled < offsetWidth {
		doubled = offsetWidth
	}

	grow := delta
	if doubled > grow {
		grow = doubled
	}

	return backend.Grow(g, grow)
}

// Get returns entry id's bytes.
func (f *File) Get(id uint64) ([]byte, error) {
	start, end, err := f.entryRange(id)
	if err != nil {
		return nil, err
	}

	return f.storage.Get(start, end-start)
}

// GetN returns the byte ranges for ids, in the order requested. Duplicate ids
// are rejected, since the caller is expected to treat the results as
// disjoint (spec.md §4.4's multi-split discipline).
func (f *File) GetN(ids []uint64) ([][]byte, error) {
	seen := make(map[uint64]bool, len(ids))
	out := make([][]byte, len(ids))

	for i, id := range ids {
		if seen[id] {
			return nil, fmt.Errorf("indexedfile: duplicate id %d in GetN: %w", id, bserr.ErrOutOfBounds)
		}

		seen[id] = true

		b, err := f.Get(id)
		if err != nil {
			return nil, err
		}

		out[i] = b
	}

	return out, nil
}

// Insert appends bytes as a new entry and returns its assigned ID.
func (f *File) Insert(bytes []byte) (uint64, error) {
	id := f.Count()

	if err := growIfNeeded(f.table, offsetWidth); err != nil {
		return 0, err
	}

	if err := growIfNeeded(f.storage, uint64(len(bytes))); err != nil {
		return 0, err
	}

	offset := f.storage.Len()

	if _, err := f.storage.Push(bytes); err != nil {
		return 0, err
	}

	if _, err := f.table.Push(offsetCodec.Encode(offset)); err != nil {
		return 0, err
	}

	return id, nil
}

// InsertAt inserts bytes as entry pos, shifting every existing entry with
// original ID >= pos up by one and their storage offsets by len(bytes).
//
// Fails with [bserr.ErrOutOfBounds] if pos > [File.Count].
func (f *File) InsertAt(bytes []byte, pos uint64) (uint64, error) {
	count := f.Count()

	if pos > count {
		return 0, fmt.Errorf("indexedfile: insert_at pos %d > count %d: %w", pos, count, bserr.ErrOutOfBounds)
	}

	if pos == count {
		return f.Insert(bytes)
	}

	if err := growIfNeeded(f.table, offsetWidth); err != nil {
		return 0, err
	}

	if err := growIfNeeded(f.storage, uint64(len(bytes))); err != nil {
		return 0, err
	}

	insertOffset, err := f.offsetAt(pos)
	if err != nil {
		return 0, err
	}

	if err := f.storage.Replace(insertOffset, 0, bytes); err != nil {
		return 0, err
	}

	if err := f.table.Replace(pos*offsetWidth, 0, offsetCodec.Encode(insertOffset)); err != nil {
		return 0, err
	}

	if err := f.ShiftOffsets(pos, int64(len(bytes))); err != nil {
		return 0, err
	}

	return pos, nil
}

// ShiftOffsets adds delta to the stored offset of every entry with original
// ID > afterID, preserving monotonicity.
//
// Fails with [bserr.ErrInvalidShift] on underflow or a monotonicity
// violation.
func (f *File) ShiftOffsets(afterID uint64, delta int64) error {
	count := f.Count()

	if delta == 0 || afterID+1 >= count {
		return nil
	}

	base, err := f.offsetAt(afterID)
	if err != nil {
		return err
	}

	for i := afterID + 1; i < count; i++ {
		v, err := f.offsetAt(i)
		if err != nil {
			return err
		}

		nv := int64(v) + delta
		if nv < 0 {
			return fmt.Errorf("indexedfile: shift_offsets id %d by %d underflows: %w", i, delta, bserr.ErrInvalidShift)
		}

		if i == afterID+1 && base > uint64(nv) {
			return fmt.Errorf("indexedfile: shift_offsets breaks monotonicity at id %d: %w", i, bserr.ErrInvalidShift)
		}

		if err := f.setOffsetAt(i, uint64(nv)); err != nil {
			return err
		}
	}

	return nil
}

// OffsetShift is one entry of a [File.ShiftMultipleOffsets] batch: every
// offset with original ID > AfterID receives Delta.
type OffsetShift struct {
	AfterID uint64
	Delta   int64
}

// ShiftMultipleOffsets applies an ascending-AfterID batch of shifts in a
// single linear sweep, accumulating a running delta across successive
// boundaries.
func (f *File) ShiftMultipleOffsets(shifts []OffsetShift) error {
	count := f.Count()
	running := int64(0)
	next := 0

	for i := uint64(0); i < count; i++ {
		for next < len(shifts) && shifts[next].AfterID < i {
			running += shifts[next].Delta
			next++
		}

		if running == 0 {
			continue
		}

		v, err := f.offsetAt(i)
		if err != nil {
			return err
		}

		nv := int64(v) + running
		if nv < 0 {
			return fmt.Errorf("indexedfile: shift_multiple_offsets id %d underflows: %w", i, bserr.ErrInvalidShift)
		}

		if err := f.setOffsetAt(i, uint64(nv)); err != nil {
			return err
		}
	}

	return nil
}

// GrowEntry grows entry id by n bytes, splicing n copies of fill at its
// current end and shifting subsequent offsets by +n.
func (f *File) GrowEntry(id uint64, n uint64, fill byte) error {
	filler := make([]byte, n)
	for i := range filler {
		filler[i] = fill
	}

	return f.growEntryWith(id, filler)
}

// GrowEntryWithData grows entry id by splicing bytes at its current end.
func (f *File) GrowEntryWithData(id uint64, bytes []byte) error {
	return f.growEntryWith(id, bytes)
}

func (f *File) growEntryWith(id uint64, bytes []byte) error {
	_, end, err := f.entryRange(id)
	if err != nil {
		return err
	}

	if err := growIfNeeded(f.storage, uint64(len(bytes))); err != nil {
		return err
	}

	if err := f.storage.Replace(end, 0, bytes); err != nil {
		return err
	}

	return f.ShiftOffsets(id, int64(len(bytes)))
}

// ShrinkEntry removes the last n bytes of entry id.
//
// Fails with [bserr.ErrOutOfBounds] if n exceeds the entry's current length.
func (f *File) ShrinkEntry(id uint64, n uint64) error {
	start, end, err := f.entryRange(id)
	if err != nil {
		return err
	}

	length := end - start
	if n > length {
		return fmt.Errorf("indexedfile: shrink_entry %d by %d exceeds entry length %d: %w", id, n, length, bserr.ErrOutOfBounds)
	}

	if err := f.storage.Replace(end-n, n, nil); err != nil {
		return err
	}

	return f.ShiftOffsets(id, -int64(n))
}

// Set replaces entry id's bytes wholesale with newBytes, of any length.
//
// [backend.Backend.Replace] already performs the tail-move-then-write
// sequence spec.md §4.4 describes as two explicit phases ("grow first, then
// replace_same_len") for the growing case; a single [backend.Backend.Replace]
// call is behaviorally identical and used here for both signs of a nonzero
// Δ, followed by the offset shift. When Δ = 0 the bytes are overwritten with
// [backend.Backend.ReplaceSameLen] and no offset is shifted.
func (f *File) Set(id uint64, newBytes []byte) error {
	start, end, err := f.entryRange(id)
	if err != nil {
		return err
	}

	oldLen := end - start
	newLen := uint64(len(newBytes))

	if newLen == oldLen {
		return f.storage.ReplaceSameLen(start, newBytes)
	}

	delta := int64(newLen) - int64(oldLen)

	if delta > 0 {
		if err := growIfNeeded(f.storage, uint64(delta)); err != nil {
			return err
		}
	}

	if err := f.storage.Replace(start, oldLen, newBytes); err != nil {
		return err
	}

	return f.ShiftOffsets(id, delta)
}

// GrowItem is one entry of a [File.GrowMultipleFast] batch.
type GrowItem struct {
	ID    uint64
	Bytes []byte
}

// GrowMultipleFast bulk-appends data to multiple entries, ids ascending and
// distinct. Implemented as a sequential pass of [File.GrowEntryWithData]:
// behaviorally identical to spec.md §4.4's single-memmove-pass description
// (each step re-derives its entry's current offset, so later steps see
// earlier steps' shifts). Each step moves the storage tail behind its entry,
// so the data movement grows with the number of items instead of being a
// single pass; in exchange the implementation is substantially simpler and
// directly verifiable.
func (f *File) GrowMultipleFast(items []GrowItem) error {
	for _, item := range items {
		if err := f.GrowEntryWithData(item.ID, item.Bytes); err != nil {
			return err
		}
	}

	return nil
}

// Entry returns a [backend.Growable] adapter over entry id, routing growth
// through [File.GrowEntry] / [File.ShrinkEntry]. Entries reserve no spare
// capacity (Capacity() == Len() always), so the adapter's Push and
// size-increasing Replace grow the entry themselves instead of requiring a
// prior [backend.Grow].
func (f *File) Entry(id uint64) (backend.Growable, error) {
	if id >= f.Count() {
		return nil, fmt.Errorf("indexedfile: entry id %d >= count %d: %w", id, f.Count(), bserr.ErrOutOfBounds)
	}

	return &entryHandle{f: f, id: id}, nil
}

type entryHandle struct {
	f  *File
	id uint64
}

func (e *entryHandle) Data() []byte { return e.f.storage.Data() }

func (e *entryHandle) FirstIndex() uint64 {
	start, _, err := e.f.entryRange(e.id)
	if err != nil {
		panic(err)
	}

	return e.f.storage.FirstIndex() + start
}

func (e *entryHandle) Len() uint64 {
	start, end, err := e.f.entryRange(e.id)
	if err != nil {
		panic(err)
	}

	return end - start
}

func (e *entryHandle) Capacity() uint64 { return e.Len() }

func (e *entryHandle) SetLen(n uint64) error {
	current := e.Len()

	switch {
	case n > current:
		return e.f.GrowEntry(e.id, n-current, 0)
	case n < current:
		return e.f.ShrinkEntry(e.id, current-n)
	default:
		return nil
	}
}

func (e *entryHandle) Get(i, n uint64) ([]byte, error) { return backend.Get(e, i, n) }

// Push delegates to [File.GrowEntryWithData] rather than the generic
// [backend.Push]: entries have no free capacity by construction
// (Capacity() == Len()), so the generic free-capacity check would always
// fail. Pushing into an entry always grows it instead.
func (e *entryHandle) Push(bytes []byte) (uint64, error) {
	oldLen := e.Len()

	if err := e.f.GrowEntryWithData(e.id, bytes); err != nil {
		return 0, err
	}

	return oldLen, nil
}

func (e *entryHandle) ReplaceSameLen(i uint64, bytes []byte) error {
	return backend.ReplaceSameLen(e, i, bytes)
}

// Replace operates directly on the entry's storage window rather than the
// generic [backend.Replace]: a size-increasing replace needs storage capacity
// beyond the entry's own Capacity() (which always equals Len()), so it grows
// storage first and shifts subsequent offsets, the same pattern
// [File.GrowEntryWithData] and [File.ShrinkEntry] use.
func (e *entryHandle) Replace(i, k uint64, bytes []byte) error {
	start, end, err := e.f.entryRange(e.id)
	if err != nil {
		return err
	}

	length := end - start
	if i > length || k > length-i {
		return fmt.Errorf("indexedfile: entry %d replace at %d removing %d exceeds length %d: %w", e.id, i, k, length, bserr.ErrOutOfBounds)
	}

	delta := int64(len(bytes)) - int64(k)

	if delta > 0 {
		if err := growIfNeeded(e.f.storage, uint64(delta)); err != nil {
			return err
		}
	}

	if err := e.f.storage.Replace(start+i, k, bytes); err != nil {
		return err
	}

	return e.f.ShiftOffsets(e.id, delta)
}

func (e *entryHandle) SwapSameLen(a, b, n uint64) error { return backend.SwapSameLen(e, a, b, n) }

func (e *entryHandle) Fill(start, end uint64, v byte) error { return backend.Fill(e, start, end, v) }

func (e *entryHandle) Clear() error { return e.SetLen(0) }

func (e *entryHandle) FlushRange(i, n uint64) error {
	if err := backend.FlushRangeBounds(e, i, n); err != nil {
		return err
	}

	start, _, err := e.f.entryRange(e.id)
	if err != nil {
		return err
	}

	return e.f.storage.FlushRange(start+i, n)
}

func (e *entryHandle) MoveRangeTo(src, n, dst uint64) error {
	return backend.MoveRangeTo(e, src, n, dst)
}

func (e *entryHandle) ResizeImpl(newCapacity uint64, growing bool) error {
	current := e.Len()

	if growing {
		return e.f.GrowEntry(e.id, newCapacity-current, 0)
	}

	return e.f.ShrinkEntry(e.id, current-newCapacity)
}

// Iter yields every entry in ID order.
func (f *File) Iter() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		for id := uint64(0); id < f.Count(); id++ {
			b, err := f.Get(id)
			if err != nil {
				return
			}

			if !yield(id, b) {
				return
			}
		}
	}
}

// Reverse yields every entry in descending ID order.
func (f *File) Reverse() iter.Seq2[uint64, []byte] {
	return func(yield func(uint64, []byte) bool) {
		count := f.Count()

		for i := count; i > 0; i-- {
			id := i - 1

			b, err := f.Get(id)
			if err != nil {
				return
			}

			if !yield(id, b) {
				return
			}
		}
	}
}

// Nth returns entry n in ID order (0-indexed).
func (f *File) Nth(n uint64) ([]byte, error) { return f.Get(n) }

// Clear empties the indexed file: both halves are cleared and count resets
// to zero.
func (f *File) Clear() error {
	if err := f.table.Clear(); err != nil {
		return err
	}

	return f.storage.Clear()
}

// Extend makes room in the table half for len(items) offsets up front (an
// exact size hint; the half grows only if its free space is short, by the
// usual doubling policy), then inserts each encoded item in order.
func Extend[T any](f *File, codec deser.Codec[T], items []T) error {
	if err := growIfNeeded(f.table, uint64(len(items))*offsetWidth); err != nil {
		return err
	}

	for _, item := range items {
		if _, err := f.Insert(codec.Encode(item)); err != nil {
			return err
		}
	}

	return nil
}
