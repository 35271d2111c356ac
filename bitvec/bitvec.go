// Package bitvec implements a growable bit vector: a custom-header region
// (spec.md §4.2's headerfile idiom) whose header stores the logical bit
// count and whose child region holds the packed bits, 8 per byte,
// little-endian within each byte (bit i lives in byte i/8, bit position
// i%8).
package bitvec

import (
	"fmt"
	"iter"
	"math/bits"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
	"github.com/JojiiOfficial/Bytestore/headerfile"
)

// BitVec is a growable, dynamically-lengthed bit vector.
type BitVec struct {
	hf *headerfile.File[uint64]
}

// Create reserves an empty bit vector.
func Create(parent backend.Growable) (*BitVec, error) {
	hf, err := headerfile.Create[uint64](parent, deser.Uint64{}, 0)
	if err != nil {
		return nil, err
	}

	return &BitVec{hf: hf}, nil
}

// Open loads a bit vector previously written by [Create].
func Open(parent backend.Growable) (*BitVec, error) {
	hf, err := headerfile.Open[uint64](parent, deser.Uint64{})
	if err != nil {
		return nil, err
	}

	return &BitVec{hf: hf}, nil
}

// Len returns the number of bits currently stored.
func (bv *BitVec) Len() uint64 {
	n, err := bv.hf.Header()
	if err != nil {
		panic(err)
	}

	return n
}

func (bv *BitVec) byteLen() uint64 { return (bv.Len() + 7) / 8 }

func (bv *BitVec) checkIndex(i uint64) error {
	if i >= bv.Len() {
		return fmt.Errorf("bitvec: index %d >= len %d: %w", i, bv.Len(), bserr.ErrOutOfBounds)
	}

	return nil
}

// Get returns bit i.
func (bv *BitVec) Get(i uint64) (bool, error) {
	if err := bv.checkIndex(i); err != nil {
		return false, err
	}

	b, err := bv.hf.Get(i/8, 1)
	if err != nil {
		return false, err
	}

	return b[0]&(1<<(i%8)) != 0, nil
}

// Set overwrites bit i.
func (bv *BitVec) Set(i uint64, v bool) error {
	if err := bv.checkIndex(i); err != nil {
		return err
	}

	cur, err := bv.hf.Get(i/8, 1)
	if err != nil {
		return err
	}

	next := cur[0]
	if v {
		next |= 1 << (i % 8)
	} else {
		next &^= 1 << (i % 8)
	}

	return bv.hf.ReplaceSameLen(i/8, []byte{next})
}

// Push appends one bit, growing the backing byte region when the new bit
// crosses into a fresh byte.
func (bv *BitVec) Push(v bool) error {
	bitLen := bv.Len()
	byteIdx := bitLen / 8

	if bitLen%8 == 0 {
		if err := growIfNeeded(bv.hf, 1); err != nil {
			return err
		}

		if _, err := bv.hf.Push([]byte{0}); err != nil {
			return err
		}
	}

	if v {
		cur, err := bv.hf.Get(byteIdx, 1)
		if err != nil {
			return err
		}

		if err := bv.hf.ReplaceSameLen(byteIdx, []byte{cur[0] | (1 << (bitLen % 8))}); err != nil {
			return err
		}
	}

	return bv.hf.SetHeader(bitLen + 1)
}

// PopCount returns the number of set bits.
func (bv *BitVec) PopCount() uint64 {
	var count uint64

	n := bv.byteLen()
	for i := uint64(0); i < n; i++ {
		b, err := bv.hf.Get(i, 1)
		if err != nil {
			panic(err)
		}

		count += uint64(bits.OnesCount8(b[0]))
	}

	return count
}

// Clear empties the vector: bit count resets to zero.
func (bv *BitVec) Clear() error {
	if err := bv.hf.SetLen(0); err != nil {
		return err
	}

	return bv.hf.SetHeader(0)
}

// SetBits yields the index of every set bit, ascending.
func (bv *BitVec) SetBits() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := uint64(0); i < bv.Len(); i++ {
			v, err := bv.Get(i)
			if err != nil {
				return
			}

			if v && !yield(i) {
				return
			}
		}
	}
}

func growIfNeeded(b backend.Growable, needed uint64) error {
	if backend.Free(b) >= needed {
		return nil
	}

	return backend.Grow(b, needed-backend.Free(b))
}
