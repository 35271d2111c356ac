package hashmap

import (
	"fmt"
	"testing"

	"github.com/JojiiOfficial/Bytestore/backend"
	"github.com/JojiiOfficial/Bytestore/deser"
)

func newMap(t *testing.T) *Map[string, uint64] {
	t.Helper()

	parent, err := backend.NewMemory(4096)
	if err != nil {
		t.Fatal(err)
	}

	m, err := Create[string, uint64](parent, deser.String{}, deser.Uint64{})
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func Test_Insert_Then_Get_Roundtrips(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	if _, inserted, _, _, err := m.Insert("alpha", 1); err != nil || !inserted {
		t.Fatalf("Insert = (inserted=%v, err=%v), want (true, nil)", inserted, err)
	}
	if _, inserted, _, _, err := m.Insert("beta", 2); err != nil || !inserted {
		t.Fatalf("Insert = (inserted=%v, err=%v), want (true, nil)", inserted, err)
	}

	v, ok, err := m.Get("alpha")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 1 {
		t.Fatalf("Get(alpha) = (%d, %v), want (1, true)", v, ok)
	}

	v, ok, err = m.Get("beta")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 2 {
		t.Fatalf("Get(beta) = (%d, %v), want (2, true)", v, ok)
	}

	if _, ok, err := m.Get("gamma"); err != nil || ok {
		t.Fatalf("Get(gamma) = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func Test_Insert_Duplicate_Key_Does_Not_Update_Value(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	id, inserted, _, _, err := m.Insert("k", 1)
	if err != nil || !inserted {
		t.Fatalf("first insert = (inserted=%v, err=%v), want (true, nil)", inserted, err)
	}

	id2, inserted2, _, _, err := m.Insert("k", 99)
	if err != nil {
		t.Fatal(err)
	}
	if inserted2 {
		t.Fatal("second insert of same key reported inserted=true, want false")
	}
	if id2 != id {
		t.Fatalf("second insert kv_id = %d, want %d (existing)", id2, id)
	}

	v, ok, err := m.Get("k")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 1 {
		t.Fatalf("Get(k) = (%d, %v), want (1, true) — duplicate insert must not update", v, ok)
	}

	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
}

func Test_Len_Equals_Nonzero_Slot_Count_And_Kv_Storage_Count(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	keys := []string{"a", "b", "c", "d", "e"}
	for _, k := range keys {
		if _, _, _, _, err := m.Insert(k, 0); err != nil {
			t.Fatal(err)
		}
		// duplicate, must not grow kv storage or len
		if _, _, _, _, err := m.Insert(k, 0); err != nil {
			t.Fatal(err)
		}
	}

	if m.Len() != uint64(len(keys)) {
		t.Fatalf("Len() = %d, want %d", m.Len(), len(keys))
	}
	if m.kv.Count() != uint64(len(keys)) {
		t.Fatalf("kv.Count() = %d, want %d (len must equal kv_storage.count)", m.kv.Count(), len(keys))
	}

	nonZero := uint64(0)
	for pos := uint64(0); pos < m.Capacity(); pos++ {
		slot, err := m.slots.Get(pos)
		if err != nil {
			t.Fatal(err)
		}
		if slot != 0 {
			nonZero++
		}
	}
	if nonZero != uint64(len(keys)) {
		t.Fatalf("nonzero slot count = %d, want %d", nonZero, len(keys))
	}
}

func Test_Growth_Schedule_Matches_1_3_3_5_11(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	if m.Capacity() != 1 {
		t.Fatalf("initial Capacity() = %d, want 1", m.Capacity())
	}

	wantCapacities := []uint64{3, 3, 5, 11}
	for i, want := range wantCapacities {
		if _, _, _, _, err := m.Insert(fmt.Sprintf("key%d", i), uint64(i)); err != nil {
			t.Fatal(err)
		}
		if m.Capacity() != want {
			t.Fatalf("after insert %d: Capacity() = %d, want %d", i, m.Capacity(), want)
		}
	}

	for i := range wantCapacities {
		v, ok, err := m.Get(fmt.Sprintf("key%d", i))
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != uint64(i) {
			t.Fatalf("Get(key%d) = (%d, %v), want (%d, true)", i, v, ok, i)
		}
	}
}

func Test_Iter_Enumerates_Exactly_The_Inserted_Keys(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	want := map[string]uint64{"a": 1, "b": 2, "c": 3}
	for k, v := range want {
		if _, _, _, _, err := m.Insert(k, v); err != nil {
			t.Fatal(err)
		}
	}

	got := make(map[string]uint64)
	for k, v := range m.Iter() {
		got[k] = v
	}

	if len(got) != len(want) {
		t.Fatalf("Iter() yielded %d pairs, want %d", len(got), len(want))
	}
	for k, v := range want {
		if got[k] != v {
			t.Fatalf("Iter()[%q] = %d, want %d", k, got[k], v)
		}
	}
}

func Test_Clear_Empties_The_Map(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	if _, _, _, _, err := m.Insert("k", 1); err != nil {
		t.Fatal(err)
	}

	if err := m.Clear(); err != nil {
		t.Fatal(err)
	}

	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
	if _, ok, err := m.Get("k"); err != nil || ok {
		t.Fatalf("Get(k) after clear = (ok=%v, err=%v), want (false, nil)", ok, err)
	}
}

func Test_Rehash_Is_Identity_On_Key_Value_Pairs(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	want := map[string]uint64{"one": 1, "two": 2, "three": 3, "four": 4}
	for k, v := range want {
		if _, _, _, _, err := m.Insert(k, v); err != nil {
			t.Fatal(err)
		}
	}

	if err := m.Rehash(); err != nil {
		t.Fatal(err)
	}

	for k, v := range want {
		got, ok, err := m.Get(k)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != v {
			t.Fatalf("after Rehash, Get(%q) = (%d, %v), want (%d, true)", k, got, ok, v)
		}
	}
}

func Test_RehashWithRelevance_Prioritizes_Chosen_Keys(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	const n = 773

	relevant := make(map[string]bool)
	for i := 0; i < n; i++ {
		k := fmt.Sprintf("key-%d", i)
		if _, _, _, _, err := m.Insert(k, uint64(i%13)); err != nil {
			t.Fatal(err)
		}
		if i%13 == 7 {
			relevant[k] = true
		}
	}

	relevanceCmp := func(a, b uint64) int {
		_, av, err := m.decodeKV(a)
		if err != nil {
			t.Fatal(err)
		}
		_, bv, err := m.decodeKV(b)
		if err != nil {
			t.Fatal(err)
		}
		if av == 7 && bv != 7 {
			return 1
		}
		return 0
	}

	if err := m.RehashWithRelevance(relevanceCmp); err != nil {
		t.Fatal(err)
	}

	for k := range relevant {
		v, ok, err := m.Get(k)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != 7 {
			t.Fatalf("Get(%q) = (%d, %v), want (7, true)", k, v, ok)
		}

		id, _, collisions, _, err := m.Insert(k, v)
		if err != nil {
			t.Fatal(err)
		}
		if collisions != 0 {
			t.Fatalf("relevant key %q (kv_id %d) probes with %d collisions after rehash_with_relevance, want 0", k, id, collisions)
		}
	}
}

func Test_Extend_Batches_Metadata_And_Inserts_Every_Pair(t *testing.T) {
	t.Parallel()

	m := newMap(t)

	pairs := []Pair[string, uint64]{
		{Key: "a", Value: 1},
		{Key: "b", Value: 2},
		{Key: "c", Value: 3},
	}

	if err := m.Extend(pairs); err != nil {
		t.Fatal(err)
	}

	if m.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", m.Len())
	}

	for _, p := range pairs {
		v, ok, err := m.Get(p.Key)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || v != p.Value {
			t.Fatalf("Get(%q) = (%d, %v), want (%d, true)", p.Key, v, ok, p.Value)
		}
	}
}

func Test_Open_Recovers_Previously_Inserted_Pairs(t *testing.T) {
	t.Parallel()

	parent, err := backend.NewMemory(4096)
	if err != nil {
		t.Fatal(err)
	}

	m, err := Create[string, uint64](parent, deser.String{}, deser.Uint64{})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, _, _, err := m.Insert("persisted", 42); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open[string, uint64](parent, deser.String{}, deser.Uint64{})
	if err != nil {
		t.Fatal(err)
	}

	v, ok, err := reopened.Get("persisted")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 42 {
		t.Fatalf("Get(persisted) = (%d, %v), want (42, true)", v, ok)
	}
}
