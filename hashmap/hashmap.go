// Package hashmap implements the open-addressed hash map (spec.md §4.7): a
// [multifile.File] of three entries — `[metadata(16B) | slot array (u32 LE
// fixed-stride list) | KV indexed file]` — probed with a pluggable [HashFn],
// defaulting to double hashing over a quadratic and a linear component.
package hashmap

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math/bits"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
	"github.com/JojiiOfficial/Bytestore/deser"
	"github.com/JojiiOfficial/Bytestore/fixedlist"
	"github.com/JojiiOfficial/Bytestore/indexedfile"
	"github.com/JojiiOfficial/Bytestore/multifile"
)

const (
	metadataEntryID = uint64(0)
	slotsEntryID    = uint64(1)
	kvEntryID       = uint64(2)

	metadataSize = 16

	// maxLoadFactorNum/maxLoadFactorDen is 0.75, kept as an integer ratio so
	// the grow check never needs floating point.
	maxLoadFactorNum = 3
	maxLoadFactorDen = 4

	fnv1aOffsetBasis uint64 = 14695981039346656037
	fnv1aPrime       uint64 = 1099511628211

	quadraticA = 65537
	quadraticB = 16411
)

// capacityTable holds, at index k>0, the smallest prime strictly greater
// than 2^k; index 0 is the special-cased initial capacity of 1 (spec.md §9:
// "capacity table is part of the wire format" — these constants must never
// change once a map using them has been persisted).
var capacityTable = [...]uint64{
	1, 3, 5, 11, 17, 37, 67, 131,
	257, 521, 1031, 2053, 4099, 8209, 16411, 32771,
	65537, 131101, 262147, 524309, 1048583, 2097169, 4194319, 8388617,
	16777259, 33554467, 67108879, 134217757, 268435459, 536870923, 1073741827, 2147483659,
	4294967311, 8589934609, 17179869209, 34359738421, 68719476767, 137438953481, 274877906951, 549755813911,
	1099511627791, 2199023255579, 4398046511119, 8796093022237, 17592186044423, 35184372088891, 70368744177679, 140737488355333,
	281474976710677, 562949953421381, 1125899906842679, 2251799813685269, 4503599627370517, 9007199254740997, 18014398509482143, 36028797018963971,
	72057594037928017, 144115188075855881, 288230376151711813, 576460752303423619, 1152921504606847009, 2305843009213693967, 4611686018427388039,
}

// HashBytes computes the FNV-1a 64-bit hash [Map] uses internally to turn an
// encoded key into a probe seed. Exported so a caller composing a custom
// [HashFn], or hashing a key type outside of a [Map], does not need to
// hand-roll FNV-1a itself.
func HashBytes(b []byte) uint64 {
	hash := fnv1aOffsetBasis
	for _, c := range b {
		hash ^= uint64(c)
		hash *= fnv1aPrime
	}

	return hash
}

// HashFn is a probe function mapping (hash, probe index, capacity) to a
// slot position in [0, cap). Any implementation must be guaranteed to
// enumerate all of [0, cap) within cap iterations.
type HashFn func(h, i, cap uint64) uint64

// Quadratic is the quadratic component of the default probe sequence:
// (h + 65537*i + 16411*i^2) mod cap.
func Quadratic(h, i, cap uint64) uint64 {
	return (h + quadraticA*i + quadraticB*i*i) % cap
}

// Linear is the linear component of the default probe sequence: (h+i) mod
// cap.
func Linear(h, i, cap uint64) uint64 {
	return (h + i) % cap
}

// DoubleHashing is the default [HashFn]: double hashing over [Quadratic]
// (fixed at i=1, a constant offset per key) and [Linear] (which supplies the
// per-probe step of 1).
func DoubleHashing(h, i, cap uint64) uint64 {
	return (Quadratic(h, 1, cap) + Linear(h, i, cap)) % cap
}

func ceilLog2(x uint64) uint64 {
	if x <= 1 {
		return 0
	}

	return uint64(bits.Len64(x - 1))
}

func ceilDiv(a, b uint64) uint64 { return (a + b - 1) / b }

// capacityOf returns the table entry at index ⌈log2(max(n,1))⌉.
func capacityOf(n uint64) uint64 {
	return capacityTable[ceilLog2(max(n, 1))]
}

// growTarget returns the prime capacity such that a map holding n pairs
// sits under [maxLoadFactorNum]/[maxLoadFactorDen].
func growTarget(n uint64) uint64 {
	return capacityOf(ceilDiv(n*maxLoadFactorDen, maxLoadFactorNum))
}

func needGrow(length, capacity uint64) bool {
	return (length+1)*maxLoadFactorDen >= capacity*maxLoadFactorNum
}

// Pair is one key/value entry, used by [Map.Extend].
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Map is an open-addressed hash map over a [multifile.File].
type Map[K comparable, V any] struct {
	mf       *multifile.File
	slots    *fixedlist.List[uint32]
	kv       *indexedfile.File
	keyCodec deser.Codec[K]
	valCodec deser.Codec[V]
	hashFn   HashFn
}

// Create reserves an empty hash map at capacity 1, the smallest entry in
// the capacity table.
func Create[K comparable, V any](parent backend.Growable, keyCodec deser.Codec[K], valCodec deser.Codec[V]) (*Map[K, V], error) {
	mf, err := multifile.Create(parent, metadataSize)
	if err != nil {
		return nil, err
	}

	if _, err := mf.InsertNewBackend(make([]byte, metadataSize)); err != nil {
		return nil, err
	}

	if _, err := mf.InsertEmpty(0); err != nil {
		return nil, err
	}

	if _, err := mf.InsertEmpty(0); err != nil {
		return nil, err
	}

	m := &Map[K, V]{mf: mf, keyCodec: keyCodec, valCodec: valCodec, hashFn: DoubleHashing}

	slotsBackend, err := mf.GetMut(slotsEntryID)
	if err != nil {
		return nil, err
	}

	m.slots = fixedlist.New[uint32](slotsBackend, deser.RawLEUint32{})

	kvBackend, err := mf.GetMut(kvEntryID)
	if err != nil {
		return nil, err
	}

	kv, err := indexedfile.Create(kvBackend, 0)
	if err != nil {
		return nil, err
	}

	m.kv = kv

	if err := m.slots.SetLen(capacityTable[0]); err != nil {
		return nil, err
	}

	if err := m.slots.MemSet(0, capacityTable[0], 0); err != nil {
		return nil, err
	}

	if err := m.writeMeta(0, capacityTable[0]); err != nil {
		return nil, err
	}

	return m, nil
}

// Open loads a hash map previously written by [Create].
func Open[K comparable, V any](parent backend.Growable, keyCodec deser.Codec[K], valCodec deser.Codec[V]) (*Map[K, V], error) {
	mf, err := multifile.Open(parent)
	if err != nil {
		return nil, err
	}

	m := &Map[K, V]{mf: mf, keyCodec: keyCodec, valCodec: valCodec, hashFn: DoubleHashing}

	slotsBackend, err := mf.GetMut(slotsEntryID)
	if err != nil {
		return nil, err
	}

	m.slots = fixedlist.New[uint32](slotsBackend, deser.RawLEUint32{})

	kvBackend, err := mf.GetMut(kvEntryID)
	if err != nil {
		return nil, err
	}

	kv, err := indexedfile.Open(kvBackend)
	if err != nil {
		return nil, err
	}

	m.kv = kv

	return m, nil
}

// SetHashFn overrides the probe sequence. Changing it on a non-empty map
// requires a [Map.Rehash] to keep existing entries reachable.
func (m *Map[K, V]) SetHashFn(fn HashFn) { m.hashFn = fn }

func (m *Map[K, V]) readMeta() (length, capacity uint64, err error) {
	b, err := m.mf.Get(metadataEntryID)
	if err != nil {
		return 0, 0, err
	}

	raw, err := b.Get(0, metadataSize)
	if err != nil {
		return 0, 0, err
	}

	return binary.BigEndian.Uint64(raw[:8]), binary.BigEndian.Uint64(raw[8:]), nil
}

func (m *Map[K, V]) writeMeta(length, capacity uint64) error {
	b, err := m.mf.GetMut(metadataEntryID)
	if err != nil {
		return err
	}

	raw := make([]byte, metadataSize)
	binary.BigEndian.PutUint64(raw[:8], length)
	binary.BigEndian.PutUint64(raw[8:], capacity)

	return b.ReplaceSameLen(0, raw)
}

// Len returns the number of live key/value pairs.
func (m *Map[K, V]) Len() uint64 {
	length, _, err := m.readMeta()
	if err != nil {
		panic(err)
	}

	return length
}

// Capacity returns the current slot array size.
func (m *Map[K, V]) Capacity() uint64 {
	_, capacity, err := m.readMeta()
	if err != nil {
		panic(err)
	}

	return capacity
}

func (m *Map[K, V]) hashKey(k K) uint64 { return HashBytes(m.keyCodec.Encode(k)) }

func (m *Map[K, V]) encodeKV(k K, v V) []byte {
	keyBytes := m.keyCodec.Encode(k)
	valBytes := m.valCodec.Encode(v)

	buf := make([]byte, 4+len(keyBytes)+len(valBytes))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(keyBytes)))
	copy(buf[4:4+len(keyBytes)], keyBytes)
	copy(buf[4+len(keyBytes):], valBytes)

	return buf
}

func (m *Map[K, V]) decodeKey(id uint64) (K, error) {
	var zero K

	raw, err := m.kv.Get(id)
	if err != nil {
		return zero, err
	}

	if len(raw) < 4 {
		return zero, fmt.Errorf("hashmap: kv record %d is shorter than its length prefix: %w", id, bserr.ErrInvalidHeader)
	}

	keyLen := binary.LittleEndian.Uint32(raw[:4])
	if uint64(4+keyLen) > uint64(len(raw)) {
		return zero, fmt.Errorf("hashmap: kv record %d declares a key longer than the record: %w", id, bserr.ErrInvalidHeader)
	}

	return m.keyCodec.Decode(raw[4 : 4+keyLen])
}

func (m *Map[K, V]) decodeKV(id uint64) (K, V, error) {
	var zeroK K

	var zeroV V

	raw, err := m.kv.Get(id)
	if err != nil {
		return zeroK, zeroV, err
	}

	if len(raw) < 4 {
		return zeroK, zeroV, fmt.Errorf("hashmap: kv record %d is shorter than its length prefix: %w", id, bserr.ErrInvalidHeader)
	}

	keyLen := binary.LittleEndian.Uint32(raw[:4])
	if uint64(4+keyLen) > uint64(len(raw)) {
		return zeroK, zeroV, fmt.Errorf("hashmap: kv record %d declares a key longer than the record: %w", id, bserr.ErrInvalidHeader)
	}

	k, err := m.keyCodec.Decode(raw[4 : 4+keyLen])
	if err != nil {
		return zeroK, zeroV, err
	}

	v, err := m.valCodec.Decode(raw[4+keyLen:])
	if err != nil {
		return zeroK, zeroV, err
	}

	return k, v, nil
}

// insertCore probes for k and either finds its existing kv_id or, when it
// lands on an empty slot, appends {k,v} to the KV indexed file and occupies
// that slot. It never touches metadata: callers persist length themselves.
//
// Probing before appending (rather than appending unconditionally per
// spec.md §4.7's step list) keeps the invariant in spec.md §8 intact — len
// equal to kv_storage.count — which an unconditional append would violate
// on every duplicate key (DESIGN.md open question 8).
func (m *Map[K, V]) insertCore(k K, v V) (kvID uint64, inserted bool, collisions, position uint64, err error) {
	_, capacity, err := m.readMeta()
	if err != nil {
		return 0, false, 0, 0, err
	}

	h := m.hashKey(k)

	for i := uint64(0); i < capacity; i++ {
		pos := m.hashFn(h, i, capacity)

		slot, serr := m.slots.Get(pos)
		if serr != nil {
			return 0, false, 0, 0, serr
		}

		if slot == 0 {
			id, ierr := m.kv.Insert(m.encodeKV(k, v))
			if ierr != nil {
				return 0, false, 0, 0, ierr
			}

			if serr := m.slots.Set(pos, uint32(id+1)); serr != nil {
				return 0, false, 0, 0, serr
			}

			return id, true, i, pos, nil
		}

		existing, derr := m.decodeKey(uint64(slot) - 1)
		if derr != nil {
			return 0, false, 0, 0, derr
		}

		if existing == k {
			return uint64(slot) - 1, false, i, pos, nil
		}
	}

	return 0, false, 0, 0, fmt.Errorf("hashmap: probe exhausted capacity %d without finding a slot: %w", capacity, bserr.ErrOutOfBounds)
}

// Insert probes for k; if absent, appends {k,v} and occupies the first
// empty slot found. If present, returns its existing kv_id and leaves the
// stored value unchanged. Grows (and rehashes) first if the pending insert
// would push the load factor to [maxLoadFactorNum]/[maxLoadFactorDen] or
// above.
func (m *Map[K, V]) Insert(k K, v V) (kvID uint64, inserted bool, collisions, position uint64, err error) {
	length, capacity, err := m.readMeta()
	if err != nil {
		return 0, false, 0, 0, err
	}

	if needGrow(length, capacity) {
		if err := m.growTo(length + 1); err != nil {
			return 0, false, 0, 0, err
		}
	}

	kvID, inserted, collisions, position, err = m.insertCore(k, v)
	if err != nil {
		return 0, false, 0, 0, err
	}

	if inserted {
		length, capacity, err = m.readMeta()
		if err != nil {
			return 0, false, 0, 0, err
		}

		if err := m.writeMeta(length+1, capacity); err != nil {
			return 0, false, 0, 0, err
		}
	}

	return kvID, inserted, collisions, position, nil
}

// Get probes for k and returns its value if present.
func (m *Map[K, V]) Get(k K) (V, bool, error) {
	var zero V

	_, capacity, err := m.readMeta()
	if err != nil {
		return zero, false, err
	}

	if capacity == 0 {
		return zero, false, nil
	}

	h := m.hashKey(k)

	for i := uint64(0); i < capacity; i++ {
		pos := m.hashFn(h, i, capacity)

		slot, err := m.slots.Get(pos)
		if err != nil {
			return zero, false, err
		}

		if slot == 0 {
			return zero, false, nil
		}

		existing, err := m.decodeKey(uint64(slot) - 1)
		if err != nil {
			return zero, false, err
		}

		if existing == k {
			_, v, err := m.decodeKV(uint64(slot) - 1)

			return v, true, err
		}
	}

	return zero, false, nil
}

// growTo grows the slot array to [growTarget](n), the capacity-table entry at
// index ⌈log2(⌈n/0.75⌉)⌉, then rehashes. That entry holds n pairs under the
// load factor threshold but is not always the smallest one that does (n=7
// gives 17, although 11 would do). A no-op if the current capacity is
// already at least that entry.
func (m *Map[K, V]) growTo(n uint64) error {
	target := growTarget(n)

	_, capacity, err := m.readMeta()
	if err != nil {
		return err
	}

	if target <= capacity {
		return nil
	}

	if err := m.slots.SetLen(target); err != nil {
		return err
	}

	length, _, err := m.readMeta()
	if err != nil {
		return err
	}

	if err := m.writeMeta(length, target); err != nil {
		return err
	}

	return m.Rehash()
}

// Rehash clears the slot array and re-probes every live KV pair under the
// current capacity. Required whenever capacity changes, since the probe
// sequence depends on it.
func (m *Map[K, V]) Rehash() error {
	length, capacity, err := m.readMeta()
	if err != nil {
		return err
	}

	if err := m.slots.MemSet(0, capacity, 0); err != nil {
		return err
	}

	for id := uint64(0); id < length; id++ {
		key, err := m.decodeKey(id)
		if err != nil {
			return err
		}

		if _, err := m.place(m.hashKey(key), capacity, id); err != nil {
			return err
		}
	}

	return nil
}

func (m *Map[K, V]) place(h, capacity, kvID uint64) (uint64, error) {
	for i := uint64(0); i < capacity; i++ {
		pos := m.hashFn(h, i, capacity)

		slot, err := m.slots.Get(pos)
		if err != nil {
			return 0, err
		}

		if slot == 0 {
			return pos, m.slots.Set(pos, uint32(kvID+1))
		}
	}

	return 0, fmt.Errorf("hashmap: rehash probe exhausted capacity %d: %w", capacity, bserr.ErrOutOfBounds)
}

// RehashWithRelevance re-probes every live KV pair like [Map.Rehash], but
// when a probe collides with an already-placed occupant, cmp(candidate,
// occupant) decides priority: a positive result displaces the occupant
// (which then continues probing for its own new home, Robin-Hood-style)
// rather than the candidate simply moving to the next probe step.
func (m *Map[K, V]) RehashWithRelevance(cmp func(candidateID, occupantID uint64) int) error {
	length, capacity, err := m.readMeta()
	if err != nil {
		return err
	}

	if err := m.slots.MemSet(0, capacity, 0); err != nil {
		return err
	}

	for id := uint64(0); id < length; id++ {
		if err := m.placeWithRelevance(capacity, id, cmp); err != nil {
			return err
		}
	}

	return nil
}

func (m *Map[K, V]) placeWithRelevance(capacity, startID uint64, cmp func(a, b uint64) int) error {
	current := startID

	for {
		key, err := m.decodeKey(current)
		if err != nil {
			return err
		}

		h := m.hashKey(key)
		displaced, found := uint64(0), false

		for i := uint64(0); i < capacity; i++ {
			pos := m.hashFn(h, i, capacity)

			slot, err := m.slots.Get(pos)
			if err != nil {
				return err
			}

			if slot == 0 {
				return m.slots.Set(pos, uint32(current+1))
			}

			occupant := uint64(slot) - 1
			if cmp(current, occupant) > 0 {
				if err := m.slots.Set(pos, uint32(current+1)); err != nil {
					return err
				}

				displaced, found = occupant, true

				break
			}
		}

		if !found {
			return fmt.Errorf("hashmap: rehash_with_relevance probe exhausted capacity %d: %w", capacity, bserr.ErrOutOfBounds)
		}

		current = displaced
	}
}

// Clear empties the map: the slot array is zeroed, the KV indexed file is
// cleared, and len resets to zero. Capacity is left unchanged.
func (m *Map[K, V]) Clear() error {
	_, capacity, err := m.readMeta()
	if err != nil {
		return err
	}

	if err := m.slots.MemSet(0, capacity, 0); err != nil {
		return err
	}

	if err := m.kv.Clear(); err != nil {
		return err
	}

	return m.writeMeta(0, capacity)
}

// Iter yields every live (key, value) pair, walking the slot array in
// order.
func (m *Map[K, V]) Iter() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		_, capacity, err := m.readMeta()
		if err != nil {
			return
		}

		for pos := uint64(0); pos < capacity; pos++ {
			slot, err := m.slots.Get(pos)
			if err != nil {
				return
			}

			if slot == 0 {
				continue
			}

			k, v, err := m.decodeKV(uint64(slot) - 1)
			if err != nil {
				return
			}

			if !yield(k, v) {
				return
			}
		}
	}
}

// Extend inserts every pair, growing (and rehashing) at most once up front
// when the combined length would require it, then batches the metadata
// update into a single write at the end instead of one per insert.
func (m *Map[K, V]) Extend(pairs []Pair[K, V]) error {
	length, _, err := m.readMeta()
	if err != nil {
		return err
	}

	if err := m.growTo(length + uint64(len(pairs))); err != nil {
		return err
	}

	added := uint64(0)

	for _, p := range pairs {
		_, inserted, _, _, err := m.insertCore(p.Key, p.Value)
		if err != nil {
			return err
		}

		if inserted {
			added++
		}
	}

	if added == 0 {
		return nil
	}

	length, capacity, err := m.readMeta()
	if err != nil {
		return err
	}

	return m.writeMeta(length+added, capacity)
}
