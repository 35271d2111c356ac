// Package numberseq implements the number sequence (spec.md §9 bullet 3):
// a dense, uncompressed sequence of fixed-width integers built directly on
// [fixedlist.List]. The compressed variant spec.md's open questions
// describe is intentionally not implemented (DESIGN.md open question 4).
package numberseq

import (
	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/deser"
	"github.com/JojiiOfficial/Bytestore/fixedlist"
)

// Number is the set of integer element types a [Seq] can store.
type Number interface {
	~int16 | ~uint16 | ~int32 | ~uint32 | ~int64 | ~uint64
}

// Seq is a growable, dense sequence of T.
type Seq[T Number] struct {
	list *fixedlist.List[T]
}

// New wraps b as a number sequence, encoded/decoded via codec.
func New[T Number](b backend.Growable, codec deser.SizedCodec[T]) *Seq[T] {
	return &Seq[T]{list: fixedlist.New[T](b, codec)}
}

// Len returns the number of elements currently stored.
func (s *Seq[T]) Len() uint64 { return s.list.Len() }

// Get returns element i.
func (s *Seq[T]) Get(i uint64) (T, error) { return s.list.Get(i) }

// Set overwrites element i.
func (s *Seq[T]) Set(i uint64, v T) error { return s.list.Set(i, v) }

// Push appends v, growing the backend as needed.
func (s *Seq[T]) Push(v T) error { return s.list.Push(v) }

// Remove deletes element i, shifting later elements down by one.
func (s *Seq[T]) Remove(i uint64) (T, error) { return s.list.Remove(i) }

// Clear empties the sequence.
func (s *Seq[T]) Clear() error { return s.list.Clear() }

// Sum returns the sum of every element.
func (s *Seq[T]) Sum() (T, error) {
	var sum T

	n := s.Len()
	for i := uint64(0); i < n; i++ {
		v, err := s.Get(i)
		if err != nil {
			return 0, err
		}

		sum += v
	}

	return sum, nil
}

// Min returns the smallest element.
//
// Fails with [bserr.ErrOutOfBounds] (via [fixedlist.List.Get]) if the
// sequence is empty.
func (s *Seq[T]) Min() (T, error) { return s.extremum(func(a, b T) bool { return a < b }) }

// Max returns the largest element.
//
// Fails with [bserr.ErrOutOfBounds] (via [fixedlist.List.Get]) if the
// sequence is empty.
func (s *Seq[T]) Max() (T, error) { return s.extremum(func(a, b T) bool { return a > b }) }

func (s *Seq[T]) extremum(better func(a, b T) bool) (T, error) {
	var best T

	best, err := s.Get(0)
	if err != nil {
		return best, err
	}

	n := s.Len()
	for i := uint64(1); i < n; i++ {
		v, err := s.Get(i)
		if err != nil {
			return best, err
		}

		if better(v, best) {
			best = v
		}
	}

	return best, nil
}
