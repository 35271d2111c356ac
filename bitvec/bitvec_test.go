package bitvec

import (
	"errors"
	"testing"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
)

func newBitVec(t *testing.T) *BitVec {
	t.Helper()

	parent, err := backend.NewMemory(256)
	if err != nil {
		t.Fatal(err)
	}

	bv, err := Create(parent)
	if err != nil {
		t.Fatal(err)
	}

	return bv
}

func Test_Push_Then_Get_Roundtrips_Bits(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	bits := []bool{true, false, true, true, false, false, false, false, true}
	for _, b := range bits {
		if err := bv.Push(b); err != nil {
			t.Fatal(err)
		}
	}

	if bv.Len() != uint64(len(bits)) {
		t.Fatalf("Len() = %d, want %d", bv.Len(), len(bits))
	}

	for i, want := range bits {
		got, err := bv.Get(uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("bit %d = %v, want %v", i, got, want)
		}
	}
}

func Test_Set_Overwrites_A_Bit(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	for i := 0; i < 10; i++ {
		if err := bv.Push(false); err != nil {
			t.Fatal(err)
		}
	}

	if err := bv.Set(7, true); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		got, err := bv.Get(uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		want := i == 7
		if got != want {
			t.Fatalf("bit %d = %v, want %v", i, got, want)
		}
	}
}

func Test_PopCount_Counts_Set_Bits(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	for _, b := range []bool{true, false, true, true, false, true, false, false, true, true} {
		if err := bv.Push(b); err != nil {
			t.Fatal(err)
		}
	}

	if got := bv.PopCount(); got != 6 {
		t.Fatalf("PopCount() = %d, want 6", got)
	}
}

func Test_SetBits_Yields_Indices_Of_Set_Bits(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	for _, b := range []bool{true, false, false, true, false, true} {
		if err := bv.Push(b); err != nil {
			t.Fatal(err)
		}
	}

	var got []uint64
	for i := range bv.SetBits() {
		got = append(got, i)
	}

	want := []uint64{0, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func Test_Get_OutOfBounds_Fails(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	if _, err := bv.Get(0); !errors.Is(err, bserr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func Test_Clear_Resets_Length(t *testing.T) {
	t.Parallel()

	bv := newBitVec(t)

	for i := 0; i < 20; i++ {
		if err := bv.Push(true); err != nil {
			t.Fatal(err)
		}
	}

	if err := bv.Clear(); err != nil {
		t.Fatal(err)
	}

	if bv.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", bv.Len())
	}
}

func Test_Open_Recovers_Previously_Pushed_Bits(t *testing.T) {
	t.Parallel()

	parent, err := backend.NewMemory(256)
	if err != nil {
		t.Fatal(err)
	}

	bv, err := Create(parent)
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []bool{true, true, false} {
		if err := bv.Push(b); err != nil {
			t.Fatal(err)
		}
	}

	reopened, err := Open(parent)
	if err != nil {
		t.Fatal(err)
	}

	for i, want := range []bool{true, true, false} {
		got, err := reopened.Get(uint64(i))
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("bit %d = %v, want %v", i, got, want)
		}
	}
}
