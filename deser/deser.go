// Package deser defines the serialization contract every composed container
// stores values through: an opaque variable-length [Codec] for general
// values, and a fixed-width [SizedCodec] for containers — [fixedlist],
// the hash map's slot array — that require every element to occupy exactly
// N bytes (spec.md §6's "canonical numeric encoding", big-endian).
package deser

import (
	"encoding/binary"
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// Codec is an opaque, variable-length serializer: decode(encode(x)) == x.
type Codec[T any] interface {
	Encode(v T) []byte
	Decode(b []byte) (T, error)
}

// SizedCodec is a [Codec] whose encoding always occupies exactly Size bytes.
// [fixedlist] and the hash map's slot array are built on this.
type SizedCodec[T any] interface {
	Codec[T]

	// Size is N, the fixed element width in bytes.
	Size() uint64
}

// Bytes is the identity [Codec] for raw byte slices; used by indexed files
// and other containers that store opaque blobs.
type Bytes struct{}

func (Bytes) Encode(v []byte) []byte { return v }

func (Bytes) Decode(b []byte) ([]byte, error) {
	out := make([]byte, len(b))
	copy(out, b)

	return out, nil
}

// String is the UTF-8 identity [Codec] for strings.
type String struct{}

func (String) Encode(v string) []byte { return []byte(v) }

func (String) Decode(b []byte) (string, error) { return string(b), nil }

func checkSize(b []byte, want uint64) error {
	if uint64(len(b)) != want {
		return fmt.Errorf("deser: got %d bytes, want %d: %w", len(b), want, bserr.ErrUnexpectedValue)
	}

	return nil
}

// Uint8 is the canonical 1-byte [SizedCodec] for uint8.
type Uint8 struct{}

func (Uint8) Size() uint64 { return 1 }

func (Uint8) Encode(v uint8) []byte { return []byte{v} }

func (Uint8) Decode(b []byte) (uint8, error) {
	if err := checkSize(b, 1); err != nil {
		return 0, err
	}

	return b[0], nil
}

// Bool is the canonical 1-byte [SizedCodec] for bool, encoded as {0,1} per
// spec.md §6.
type Bool struct{}

func (Bool) Size() uint64 { return 1 }

func (Bool) Encode(v bool) []byte {
	if v {
		return []byte{1}
	}

	return []byte{0}
}

func (Bool) Decode(b []byte) (bool, error) {
	if err := checkSize(b, 1); err != nil {
		return false, err
	}

	return b[0] != 0, nil
}

// Uint16 is the canonical big-endian 2-byte [SizedCodec] for uint16.
type Uint16 struct{}

func (Uint16) Size() uint64 { return 2 }

func (Uint16) Encode(v uint16) []byte {
	buf := make([]byte, 2)
	binary.BigEndian.PutUint16(buf, v)

	return buf
}

func (Uint16) Decode(b []byte) (uint16, error) {
	if err := checkSize(b, 2); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(b), nil
}

// Uint32 is the canonical big-endian 4-byte [SizedCodec] for uint32.
type Uint32 struct{}

func (Uint32) Size() uint64 { return 4 }

func (Uint32) Encode(v uint32) []byte {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, v)

	return buf
}

func (Uint32) Decode(b []byte) (uint32, error) {
	if err := checkSize(b, 4); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint32(b), nil
}

// Rune is the canonical big-endian 4-byte [SizedCodec] for runes (char), per
// spec.md §6 ("char as big-endian u32").
type Rune struct{}

func (Rune) Size() uint64 { return 4 }

func (Rune) Encode(v rune) []byte { return Uint32{}.Encode(uint32(v)) }

func (Rune) Decode(b []byte) (rune, error) {
	n, err := Uint32{}.Decode(b)

	return rune(n), err
}

// Uint64 is the canonical big-endian 8-byte [SizedCodec] for uint64.
type Uint64 struct{}

func (Uint64) Size() uint64 { return 8 }

func (Uint64) Encode(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)

	return buf
}

func (Uint64) Decode(b []byte) (uint64, error) {
	if err := checkSize(b, 8); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(b), nil
}

// Int64 is the canonical big-endian 8-byte [SizedCodec] for int64, stored as
// its bit-identical uint64.
type Int64 struct{}

func (Int64) Size() uint64 { return 8 }

func (Int64) Encode(v int64) []byte { return Uint64{}.Encode(uint64(v)) }

func (Int64) Decode(b []byte) (int64, error) {
	n, err := Uint64{}.Decode(b)

	return int64(n), err
}

// RawLEUint32 is a little-endian 4-byte [SizedCodec] for uint32.
//
// Used exclusively by the hash map's internal slot array (spec.md §6: "id 1:
// fixed-stride list of u32 LE"), which stores raw occupancy/KV-id bookkeeping
// rather than a user-facing value and is therefore exempt from the canonical
// big-endian rule the rest of this package follows (DESIGN.md open question
// 5).
type RawLEUint32 struct{}

func (RawLEUint32) Size() uint64 { return 4 }

func (RawLEUint32) Encode(v uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, v)

	return buf
}

func (RawLEUint32) Decode(b []byte) (uint32, error) {
	if err := checkSize(b, 4); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

// RawLEUint64 is a little-endian 8-byte [SizedCodec] for uint64.
//
// Used by [indexedfile] for its offset table (spec.md §6: "A-payload = a
// sequence of u64 LE offsets"), the other wire-format-mandated exception to
// the canonical big-endian rule (DESIGN.md open question 5).
type RawLEUint64 struct{}

func (RawLEUint64) Size() uint64 { return 8 }

func (RawLEUint64) Encode(v uint64) []byte {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, v)

	return buf
}

func (RawLEUint64) Decode(b []byte) (uint64, error) {
	if err := checkSize(b, 8); err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}
