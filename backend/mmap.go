package backend

import (
	"bytes"
	"fmt"
	"os"

	atomicfile "github.com/natefinch/atomic"
	"golang.org/x/sys/unix"

	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/header"
)

// pageSize is used to align FlushRange's msync window to a page boundary, the
// same normalization sirgallo's flushRegionToDisk applies before flushing.
var pageSize = uint64(os.Getpagesize())

// Mmap is a [Growable] backend whose region is a memory-mapped file. Growth
// unmaps, truncates the file, and remaps; every live byte survives a resize
// because the file, not the mapping, is the resize target.
type Mmap struct {
	file *os.File
	data []byte
}

// CreateMmapFile atomically creates path as a zero-filled region of
// capacity+header.Size bytes with an initialized, empty [header.Base].
//
// Uses [atomicfile.WriteFile] so a process crash mid-creation never leaves a
// partially written file at path.
func CreateMmapFile(path string, capacity uint64) error {
	if capacity < header.Size {
		return fmt.Errorf("backend: mmap capacity %d below header size %d: %w", capacity, header.Size, bserr.ErrInitialization)
	}

	buf := make([]byte, capacity+header.Size)
	if err := header.PutDataLen(buf, 0); err != nil {
		return err
	}

	if err := atomicfile.WriteFile(path, bytes.NewReader(buf)); err != nil {
		return fmt.Errorf("backend: create mmap file %q: %w", path, bserr.ErrIO)
	}

	return nil
}

// OpenMmap opens and memory-maps an existing region file previously created
// by [CreateMmapFile].
func OpenMmap(path string) (*Mmap, error) {
	file, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("backend: open mmap file %q: %w", path, bserr.ErrIO)
	}

	m, err := mapFile(file)
	if err != nil {
		file.Close()

		return nil, err
	}

	if _, err := header.Decode(m.data); err != nil {
		m.Close()

		return nil, err
	}

	return m, nil
}

func mapFile(file *os.File) (*Mmap, error) {
	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("backend: stat mmap file: %w", bserr.ErrIO)
	}

	size := info.Size()
	if size == 0 {
		return &Mmap{file: file, data: nil}, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("backend: mmap: %w", bserr.ErrIO)
	}

	return &Mmap{file: file, data: data}, nil
}

// Close unmaps the region and closes the underlying file descriptor.
func (m *Mmap) Close() error {
	var firstErr error

	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			firstErr = fmt.Errorf("backend: munmap: %w", bserr.ErrIO)
		}

		m.data = nil
	}

	if err := m.file.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("backend: close mmap file: %w", bserr.ErrIO)
	}

	return firstErr
}

func (m *Mmap) Data() []byte { return m.data }

func (m *Mmap) FirstIndex() uint64 { return header.Size }

func (m *Mmap) Len() uint64 {
	n, err := header.DataLen(m.data)
	if err != nil {
		panic(err)
	}

	return n
}

func (m *Mmap) SetLen(n uint64) error {
	if n > m.Capacity() {
		return fmt.Errorf("backend: set_len %d exceeds capacity %d: %w", n, m.Capacity(), bserr.ErrOutOfBounds)
	}

	return header.PutDataLen(m.data, n)
}

func (m *Mmap) Capacity() uint64 { return uint64(len(m.data)) - header.Size }

func (m *Mmap) Get(i, n uint64) ([]byte, error) { return Get(m, i, n) }

func (m *Mmap) Push(bytes []byte) (uint64, error) { return Push(m, bytes) }

func (m *Mmap) ReplaceSameLen(i uint64, bytes []byte) error { return ReplaceSameLen(m, i, bytes) }

func (m *Mmap) Replace(i, k uint64, bytes []byte) error { return Replace(m, i, k, bytes) }

func (m *Mmap) SwapSameLen(a, b, n uint64) error { return SwapSameLen(m, a, b, n) }

func (m *Mmap) Fill(start, end uint64, v byte) error { return Fill(m, start, end, v) }

func (m *Mmap) Clear() error { return m.SetLen(0) }

// FlushRange calls msync on the page-aligned window covering [i, i+n), the
// same alignment sirgallo's flushRegionToDisk applies before flushing.
func (m *Mmap) FlushRange(i, n uint64) error {
	if err := FlushRangeBounds(m, i, n); err != nil {
		return err
	}

	start := (m.FirstIndex() + i) &^ (pageSize - 1)
	end := m.FirstIndex() + i + n

	if err := unix.Msync(m.data[start:end], unix.MS_SYNC); err != nil {
		return fmt.Errorf("backend: msync: %w", bserr.ErrIO)
	}

	return nil
}

func (m *Mmap) MoveRangeTo(src, n, dst uint64) error { return MoveRangeTo(m, src, n, dst) }

// ResizeImpl unmaps, truncates the underlying file to newCapacity+header.Size
// bytes, and remaps.
func (m *Mmap) ResizeImpl(newCapacity uint64, growing bool) error {
	if m.data != nil {
		if err := unix.Munmap(m.data); err != nil {
			return fmt.Errorf("backend: munmap for resize: %w", bserr.ErrIO)
		}

		m.data = nil
	}

	newSize := int64(newCapacity + header.Size)
	if err := m.file.Truncate(newSize); err != nil {
		return fmt.Errorf("backend: truncate mmap file to %d: %w", newSize, bserr.ErrIO)
	}

	remapped, err := mapFile(m.file)
	if err != nil {
		return err
	}

	m.data = remapped.data

	return nil
}
