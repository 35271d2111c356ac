package indexedfile

import (
	"bytes"
	"errors"
	"testing"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/bserr"
)

func newFile(t *testing.T, perSide uint64) *File {
	t.Helper()

	parent, err := backend.NewMemory(4096)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Create(parent, perSide)
	if err != nil {
		t.Fatal(err)
	}

	return f
}

func Test_Insert_Then_Get_Roundtrips_Bytes(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	id, err := f.Insert([]byte("hello"))
	if err != nil {
		t.Fatal(err)
	}
	if id != 0 {
		t.Fatalf("id = %d, want 0", id)
	}

	got, err := f.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("hello")) {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func Test_Insert_Grows_Beyond_Initial_Capacity(t *testing.T) {
	t.Parallel()

	f := newFile(t, 4)

	var ids []uint64
	for i := 0; i < 20; i++ {
		id, err := f.Insert(bytes.Repeat([]byte{byte('a' + i)}, 5))
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
		ids = append(ids, id)
	}

	for i, id := range ids {
		got, err := f.Get(id)
		if err != nil {
			t.Fatalf("get %d: %v", id, err)
		}
		want := bytes.Repeat([]byte{byte('a' + i)}, 5)
		if !bytes.Equal(got, want) {
			t.Fatalf("entry %d = %q, want %q", id, got, want)
		}
	}
}

func Test_Get_OutOfBounds_Id_Fails(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	if _, err := f.Get(0); !errors.Is(err, bserr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func Test_InsertAt_Shifts_Existing_Entries_And_Offsets(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	idA, err := f.Insert([]byte("AAAA"))
	if err != nil {
		t.Fatal(err)
	}
	idB, err := f.Insert([]byte("BBBB"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := f.InsertAt([]byte("mid!"), 1); err != nil {
		t.Fatal(err)
	}

	gotA, err := f.Get(idA)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotA, []byte("AAAA")) {
		t.Fatalf("entry 0 = %q, want AAAA", gotA)
	}

	gotMid, err := f.Get(1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotMid, []byte("mid!")) {
		t.Fatalf("entry 1 = %q, want mid!", gotMid)
	}

	gotB, err := f.Get(idB + 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(gotB, []byte("BBBB")) {
		t.Fatalf("entry 2 = %q, want BBBB", gotB)
	}
}

func Test_GrowEntry_Extends_Entry_And_Shifts_Later_Offsets(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	id0, err := f.Insert([]byte("1234"))
	if err != nil {
		t.Fatal(err)
	}
	id1, err := f.Insert([]byte("5678"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.GrowEntry(id0, 3, 'x'); err != nil {
		t.Fatal(err)
	}

	got0, err := f.Get(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got0, []byte("1234xxx")) {
		t.Fatalf("entry 0 = %q, want 1234xxx", got0)
	}

	got1, err := f.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got1, []byte("5678")) {
		t.Fatalf("entry 1 = %q, want 5678 (unaffected by growth of entry 0)", got1)
	}
}

func Test_ShrinkEntry_Removes_Tail_And_Shifts_Later_Offsets(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	id0, err := f.Insert([]byte("1234567"))
	if err != nil {
		t.Fatal(err)
	}
	id1, err := f.Insert([]byte("abcd"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.ShrinkEntry(id0, 3); err != nil {
		t.Fatal(err)
	}

	got0, err := f.Get(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got0, []byte("1234")) {
		t.Fatalf("entry 0 = %q, want 1234", got0)
	}

	got1, err := f.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got1, []byte("abcd")) {
		t.Fatalf("entry 1 = %q, want abcd", got1)
	}
}

func Test_ShrinkEntry_Beyond_Length_Fails(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	id, err := f.Insert([]byte("ab"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.ShrinkEntry(id, 10); !errors.Is(err, bserr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func Test_Set_Shrinks_And_Shifts_Later_Entries(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	id0, err := f.Insert([]byte("1234567890"))
	if err != nil {
		t.Fatal(err)
	}
	id1, err := f.Insert([]byte("keepme"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.Set(id0, []byte("xy")); err != nil {
		t.Fatal(err)
	}

	got0, err := f.Get(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got0, []byte("xy")) {
		t.Fatalf("entry 0 = %q, want xy", got0)
	}

	got1, err := f.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got1, []byte("keepme")) {
		t.Fatalf("entry 1 = %q, want keepme", got1)
	}
}

func Test_Set_Grows_And_Shifts_Later_Entries(t *testing.T) {
	t.Parallel()

	f := newFile(t, 8)

	id0, err := f.Insert([]byte("ab"))
	if err != nil {
		t.Fatal(err)
	}
	id1, err := f.Insert([]byte("keepme"))
	if err != nil {
		t.Fatal(err)
	}

	if err := f.Set(id0, []byte("abcdefghij")); err != nil {
		t.Fatal(err)
	}

	got0, err := f.Get(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got0, []byte("abcdefghij")) {
		t.Fatalf("entry 0 = %q, want abcdefghij", got0)
	}

	got1, err := f.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got1, []byte("keepme")) {
		t.Fatalf("entry 1 = %q, want keepme", got1)
	}
}

func Test_GrowMultipleFast_Applies_All_Growths(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	id0, err := f.Insert([]byte("aa"))
	if err != nil {
		t.Fatal(err)
	}
	id1, err := f.Insert([]byte("bb"))
	if err != nil {
		t.Fatal(err)
	}

	err = f.GrowMultipleFast([]GrowItem{
		{ID: id0, Bytes: []byte("11")},
		{ID: id1, Bytes: []byte("22")},
	})
	if err != nil {
		t.Fatal(err)
	}

	got0, err := f.Get(id0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got0, []byte("aa11")) {
		t.Fatalf("entry 0 = %q, want aa11", got0)
	}

	got1, err := f.Get(id1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got1, []byte("bb22")) {
		t.Fatalf("entry 1 = %q, want bb22", got1)
	}
}

func Test_Entry_Push_Grows_In_Place(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	id, err := f.Insert([]byte("ab"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Insert([]byte("zzzz")); err != nil {
		t.Fatal(err)
	}

	e, err := f.Entry(id)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Push([]byte("cd")); err != nil {
		t.Fatal(err)
	}

	got, err := f.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("abcd")) {
		t.Fatalf("entry 0 = %q, want abcd", got)
	}
}

func Test_Entry_OutOfBounds_Id_Fails(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	if _, err := f.Entry(0); !errors.Is(err, bserr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func Test_Iter_Yields_Entries_In_Id_Order(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	want := [][]byte{[]byte("one"), []byte("two"), []byte("three")}
	for _, w := range want {
		if _, err := f.Insert(w); err != nil {
			t.Fatal(err)
		}
	}

	var got [][]byte
	for _, b := range f.Iter() {
		cp := append([]byte(nil), b...)
		got = append(got, cp)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d entries, want %d", len(got), len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func Test_Reverse_Yields_Entries_Descending(t *testing.T) {
	t.Parallel()

	f := newFile(t, 32)

	for _, w := range [][]byte{[]byte("one"), []byte("two"), []byte("three")} {
		if _, err := f.Insert(w); err != nil {
			t.Fatal(err)
		}
	}

	var ids []uint64
	for id := range f.Reverse() {
		ids = append(ids, id)
	}

	if len(ids) != 3 || ids[0] != 2 || ids[1] != 1 || ids[2] != 0 {
		t.Fatalf("ids = %v, want [2 1 0]", ids)
	}
}

func Test_Clear_Empties_The_File(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	if _, err := f.Insert([]byte("gone")); err != nil {
		t.Fatal(err)
	}

	if err := f.Clear(); err != nil {
		t.Fatal(err)
	}

	if f.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", f.Count())
	}
}

func Test_GetN_Rejects_Duplicate_Ids(t *testing.T) {
	t.Parallel()

	f := newFile(t, 16)

	if _, err := f.Insert([]byte("a")); err != nil {
		t.Fatal(err)
	}

	if _, err := f.GetN([]uint64{0, 0}); !errors.Is(err, bserr.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds", err)
	}
}

func Test_Open_Recovers_Previously_Inserted_Entries(t *testing.T) {
	t.Parallel()

	parent, err := backend.NewMemory(4096)
	if err != nil {
		t.Fatal(err)
	}

	f, err := Create(parent, 16)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Insert([]byte("persisted")); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(parent)
	if err != nil {
		t.Fatal(err)
	}

	got, err := reopened.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("persisted")) {
		t.Fatalf("got %q, want %q", got, "persisted")
	}
}
