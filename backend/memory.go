package backend

import (
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/header"
)

// Memory is a [Growable] backend whose region lives entirely in a Go slice.
// Growth reallocates a slice of exactly the requested size and copies the old
// bytes into it; newly exposed bytes are zero, so a grown region never exposes
// stale data.
type Memory struct {
	buf []byte
}

// NewMemory allocates a [Memory] backend with the given initial capacity
// (header included). capacity must be at least [header.Size].
func NewMemory(capacity uint64) (*Memory, error) {
	if capacity < header.Size {
		return nil, fmt.Errorf("backend: memory capacity %d below header size %d: %w", capacity, header.Size, bserr.ErrInitialization)
	}

	m := &Memory{buf: make([]byte, capacity)}

	if err := header.PutDataLen(m.buf, 0); err != nil {
		return nil, err
	}

	return m, nil
}

// WrapMemory adopts an existing byte slice as a [Memory] region without
// touching its header, for reopening a region previously produced by
// [Memory.Data].
//
// Fails with [bserr.ErrInvalidHeader] if buf is shorter than [header.Size].
func WrapMemory(buf []byte) (*Memory, error) {
	if _, err := header.Decode(buf); err != nil {
		return nil, err
	}

	return &Memory{buf: buf}, nil
}

func (m *Memory) Data() []byte { return m.buf }

func (m *Memory) FirstIndex() uint64 { return header.Size }

func (m *Memory) Len() uint64 {
	n, err := header.DataLen(m.buf)
	if err != nil {
		panic(err)
	}

	return n
}

func (m *Memory) SetLen(n uint64) error {
	if n > m.Capacity() {
		return fmt.Errorf("backend: set_len %d exceeds capacity %d: %w", n, m.Capacity(), bserr.ErrOutOfBounds)
	}

	return header.PutDataLen(m.buf, n)
}

func (m *Memory) Capacity() uint64 { return uint64(len(m.buf)) - header.Size }

func (m *Memory) Get(i, n uint64) ([]byte, error) { return Get(m, i, n) }

func (m *Memory) Push(bytes []byte) (uint64, error) { return Push(m, bytes) }

func (m *Memory) ReplaceSameLen(i uint64, bytes []byte) error { return ReplaceSameLen(m, i, bytes) }

func (m *Memory) Replace(i, k uint64, bytes []byte) error { return Replace(m, i, k, bytes) }

func (m *Memory) SwapSameLen(a, b, n uint64) error { return SwapSameLen(m, a, b, n) }

func (m *Memory) Fill(start, end uint64, v byte) error { return Fill(m, start, end, v) }

func (m *Memory) Clear() error { return m.SetLen(0) }

// FlushRange is a no-op: a [Memory] region has no secondary durable copy.
func (m *Memory) FlushRange(i, n uint64) error { return FlushRangeBounds(m, i, n) }

func (m *Memory) MoveRangeTo(src, n, dst uint64) error { return MoveRangeTo(m, src, n, dst) }

// ResizeImpl reallocates the backing slice to newCapacity+header.Size bytes,
// preserving FirstIndex()+Len() live bytes and zero-filling anything newly
// exposed by a grow.
func (m *Memory) ResizeImpl(newCapacity uint64, growing bool) error {
	newSize := newCapacity + header.Size
	next := make([]byte, newSize)

	copyLen := uint64(len(m.buf))
	if copyLen > newSize {
		copyLen = newSize
	}

	copy(next, m.buf[:copyLen])
	m.buf = next

	return nil
}
