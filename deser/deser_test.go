package deser

import (
	"bytes"
	"errors"
	"testing"

	"github.com/JojiiOfficial/Bytestore/bserr"
)

func Test_Uint32_Roundtrips_BigEndian(t *testing.T) {
	t.Parallel()

	var c Uint32

	encoded := c.Encode(0x01020304)
	if want := []byte{0x01, 0x02, 0x03, 0x04}; !bytes.Equal(encoded, want) {
		t.Fatalf("Encode() = %x, want %x", encoded, want)
	}

	got, err := c.Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x01020304 {
		t.Fatalf("Decode() = %#x, want %#x", got, 0x01020304)
	}
}

func Test_Uint32_Decode_Returns_UnexpectedValue_When_Length_Wrong(t *testing.T) {
	t.Parallel()

	var c Uint32

	if _, err := c.Decode([]byte{1, 2, 3}); !errors.Is(err, bserr.ErrUnexpectedValue) {
		t.Fatalf("got %v, want ErrUnexpectedValue", err)
	}
}

func Test_RawLEUint32_Roundtrips_LittleEndian(t *testing.T) {
	t.Parallel()

	var c RawLEUint32

	encoded := c.Encode(0x01020304)
	if want := []byte{0x04, 0x03, 0x02, 0x01}; !bytes.Equal(encoded, want) {
		t.Fatalf("Encode() = %x, want %x", encoded, want)
	}

	got, err := c.Decode(encoded)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0x01020304 {
		t.Fatalf("Decode() = %#x, want %#x", got, 0x01020304)
	}
}

func Test_Bool_Roundtrips(t *testing.T) {
	t.Parallel()

	var c Bool

	for _, v := range []bool{true, false} {
		got, err := c.Decode(c.Encode(v))
		if err != nil {
			t.Fatal(err)
		}
		if got != v {
			t.Fatalf("roundtrip(%v) = %v", v, got)
		}
	}
}
