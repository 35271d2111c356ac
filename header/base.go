// Package header implements the 8-byte length prefix shared by every backend
// region in this module.
package header

import (
	"encoding/binary"
	"fmt"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

// Size is the on-disk size of a [Base] header: a single little-endian uint64
// recording the number of live bytes that follow it.
const Size = 8

// Base is the 8-byte length prefix stored at offset 0 of every backend
// region. It records data_len, the number of live bytes following the
// header; it never records capacity.
type Base struct {
	DataLen uint64
}

// Decode reads a [Base] from the first [Size] bytes of buf.
//
// Returns [bserr.ErrInvalidHeader] if buf is shorter than [Size].
func Decode(buf []byte) (Base, error) {
	if len(buf) < Size {
		return Base{}, fmt.Errorf("header: region has %d bytes, need %d: %w", len(buf), Size, bserr.ErrInvalidHeader)
	}

	return Base{DataLen: binary.LittleEndian.Uint64(buf[:Size])}, nil
}

// Encode writes h into the first [Size] bytes of buf.
//
// Returns [bserr.ErrInvalidHeader] if buf is shorter than [Size].
func Encode(buf []byte, h Base) error {
	if len(buf) < Size {
		return fmt.Errorf("header: region has %d bytes, need %d: %w", len(buf), Size, bserr.ErrInvalidHeader)
	}

	binary.LittleEndian.PutUint64(buf[:Size], h.DataLen)

	return nil
}

// PutDataLen writes just the DataLen field into the first [Size] bytes of buf.
func PutDataLen(buf []byte, dataLen uint64) error {
	return Encode(buf, Base{DataLen: dataLen})
}

// DataLen reads just the DataLen field from the first [Size] bytes of buf.
func DataLen(buf []byte) (uint64, error) {
	h, err := Decode(buf)
	if err != nil {
		return 0, err
	}

	return h.DataLen, nil
}
