package table

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/okvlab/okv/lib/assoc"
)

// checkInvariants verifies the doubly linked consistency of the table:
// head/tail are unset iff the table is empty, the head has no predecessor,
// the tail has no successor, every forward link is mirrored by a backward
// link, and the head-to-tail walk visits exactly Len keys.
func checkInvariants[K comparable, V any](t *testing.T, tbl *Table[K, V]) {
	t.Helper()

	if tbl.IsEmpty() {
		if tbl.Head().Valid() || tbl.Tail().Valid() {
			t.Fatal("empty table must have invalid head and tail cursors")
		}
		return
	}

	head, ok := tbl.Head().Get()
	if !ok {
		t.Fatal("non-empty table must have a head")
	}
	if tbl.Prev(head).Valid() {
		t.Errorf("head %v must have no predecessor", head)
	}

	tail, ok := tbl.Tail().Get()
	if !ok {
		t.Fatal("non-empty table must have a tail")
	}
	if tbl.Next(tail).Valid() {
		t.Errorf("tail %v must have no successor", tail)
	}

	// walk forward, checking the back links as we go
	steps := 0
	for c := tbl.Head(); c.Valid(); {
		key := c.Key()
		steps++
		if steps > tbl.Len() {
			t.Fatalf("walk exceeded %d live keys: cycle or orphan", tbl.Len())
		}

		next := tbl.Next(key)
		if nextKey, ok := next.Get(); ok {
			back, ok := tbl.Prev(nextKey).Get()
			if !ok || back != key {
				t.Fatalf("link %v -> %v is not mirrored", key, nextKey)
			}
		} else if key != tail {
			t.Fatalf("walk ended at %v, expected tail %v", key, tail)
		}
		c = next
	}
	if steps != tbl.Len() {
		t.Fatalf("walk visited %d keys, store holds %d", steps, tbl.Len())
	}
}

func keysOf[K comparable, V any](tbl *Table[K, V]) []K {
	return tbl.Keys()
}

func sameKeys[K comparable](got, want []K) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestEmptyTable(t *testing.T) {
	tbl := New[string, int]()

	if !tbl.IsEmpty() || tbl.Len() != 0 {
		t.Error("new table must be empty")
	}
	if tbl.Head().Valid() || tbl.Tail().Valid() {
		t.Error("new table must have invalid cursors")
	}
	if tbl.Has("a") {
		t.Error("new table must not contain keys")
	}
	checkInvariants(t, tbl)
}

func TestAddPreservesInsertionOrder(t *testing.T) {
	tbl := New[int, int]()

	for i := 0; i < 100; i++ {
		if err := tbl.Add(i, 2*i); err != nil {
			t.Fatalf("Add(%d) failed: %v", i, err)
		}
		checkInvariants(t, tbl)
	}

	if tbl.Len() != 100 {
		t.Fatalf("expected 100 entries, got %d", tbl.Len())
	}

	// forward walk
	i := 0
	for c := tbl.Head(); c.Valid(); c = tbl.Next(c.Key()) {
		if c.Key() != i {
			t.Fatalf("position %d holds key %d", i, c.Key())
		}
		v, err := tbl.Get(c.Key())
		if err != nil || v != 2*i {
			t.Fatalf("Get(%d) = %d, %v", i, v, err)
		}
		i++
	}

	// backward walk
	i = 99
	for c := tbl.Tail(); c.Valid(); c = tbl.Prev(c.Key()) {
		if c.Key() != i {
			t.Fatalf("reverse position %d holds key %d", i, c.Key())
		}
		i--
	}
}

func TestAddExistingFails(t *testing.T) {
	tbl := New[string, int]()

	if err := tbl.Add("a", 1); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	err := tbl.Add("a", 2)
	if !errors.Is(err, assoc.ErrKeyExists) {
		t.Errorf("expected ErrKeyExists, got %v", err)
	}

	// the failed Add must not have changed anything
	if v, _ := tbl.Get("a"); v != 1 {
		t.Errorf("payload changed by failed Add: %d", v)
	}
	checkInvariants(t, tbl)
}

func TestSetResetsPosition(t *testing.T) {
	tbl := New[string, string]()

	tbl.Set("k", "v1")
	tbl.Set("k2", "v2")

	old, replaced := tbl.Set("k", "v3")
	if !replaced || old != "v1" {
		t.Errorf("expected displaced value v1, got %q (replaced=%v)", old, replaced)
	}

	if !sameKeys(keysOf(tbl), []string{"k2", "k"}) {
		t.Errorf("expected order [k2 k], got %v", keysOf(tbl))
	}
	checkInvariants(t, tbl)
}

func TestTakeRoundTrip(t *testing.T) {
	tbl := New[string, int]()
	tbl.Set("a", 1)

	before := keysOf(tbl)

	if err := tbl.Add("b", 2); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	v, prev, next, err := tbl.Take("b")
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if v != 2 {
		t.Errorf("expected payload 2, got %d", v)
	}
	if k, ok := prev.Get(); !ok || k != "a" {
		t.Errorf("expected prev cursor at a, got %v (valid=%v)", k, ok)
	}
	if next.Valid() {
		t.Errorf("expected invalid next cursor, got %v", next.Key())
	}

	if !sameKeys(keysOf(tbl), before) {
		t.Errorf("add/take did not restore the table: %v vs %v", keysOf(tbl), before)
	}
	checkInvariants(t, tbl)
}

func TestTakeMiddleHeadTail(t *testing.T) {
	tbl := New[string, int]()
	for i, k := range []string{"a", "b", "c", "d"} {
		tbl.Set(k, i)
	}

	// middle
	_, prev, next, err := tbl.Take("b")
	if err != nil {
		t.Fatalf("Take(b) failed: %v", err)
	}
	if prev.Key() != "a" || next.Key() != "c" {
		t.Errorf("Take(b) neighbors = (%v, %v)", prev.Key(), next.Key())
	}
	if !sameKeys(keysOf(tbl), []string{"a", "c", "d"}) {
		t.Fatalf("unexpected order after Take(b): %v", keysOf(tbl))
	}
	checkInvariants(t, tbl)

	// head
	_, prev, next, err = tbl.Take("a")
	if err != nil {
		t.Fatalf("Take(a) failed: %v", err)
	}
	if prev.Valid() || next.Key() != "c" {
		t.Errorf("Take(a) neighbors = (%v, %v)", prev, next.Key())
	}
	if tbl.Head().Key() != "c" {
		t.Errorf("head should be c, got %v", tbl.Head().Key())
	}
	checkInvariants(t, tbl)

	// tail
	_, prev, next, err = tbl.Take("d")
	if err != nil {
		t.Fatalf("Take(d) failed: %v", err)
	}
	if prev.Key() != "c" || next.Valid() {
		t.Errorf("Take(d) neighbors = (%v, %v)", prev.Key(), next)
	}
	if tbl.Tail().Key() != "c" || tbl.Head().Key() != "c" {
		t.Errorf("single entry should be both head and tail")
	}
	checkInvariants(t, tbl)

	// last one
	if _, _, _, err := tbl.Take("c"); err != nil {
		t.Fatalf("Take(c) failed: %v", err)
	}
	if !tbl.IsEmpty() {
		t.Error("table should be empty")
	}
	checkInvariants(t, tbl)
}

func TestTakeMissingFails(t *testing.T) {
	tbl := New[string, int]()
	tbl.Set("a", 1)

	_, _, _, err := tbl.Take("missing")
	if !errors.Is(err, assoc.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if !sameKeys(keysOf(tbl), []string{"a"}) {
		t.Error("failed Take must not mutate the table")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	tbl := New[string, int]()
	tbl.Set("a", 1)
	tbl.Set("b", 2)

	before := keysOf(tbl)

	if _, ok := tbl.Remove("missing"); ok {
		t.Error("Remove of an absent key must report false")
	}
	if !sameKeys(keysOf(tbl), before) {
		t.Error("Remove of an absent key must not mutate the table")
	}
	checkInvariants(t, tbl)

	v, ok := tbl.Remove("a")
	if !ok || v != 1 {
		t.Errorf("Remove(a) = %d, %v", v, ok)
	}
	if _, ok := tbl.Remove("a"); ok {
		t.Error("second Remove of the same key must report false")
	}
	checkInvariants(t, tbl)
}

func TestGetUpdate(t *testing.T) {
	tbl := New[string, int]()

	if _, err := tbl.Get("missing"); !errors.Is(err, assoc.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}
	if err := tbl.Update("missing", func(*int) {}); !errors.Is(err, assoc.ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	tbl.Set("a", 1)
	if err := tbl.Update("a", func(v *int) { *v += 41 }); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if v, _ := tbl.Get("a"); v != 42 {
		t.Errorf("expected 42 after Update, got %d", v)
	}

	// Update must not move the entry
	tbl.Set("b", 2)
	tbl.Update("a", func(v *int) { *v = 0 })
	if !sameKeys(keysOf(tbl), []string{"a", "b"}) {
		t.Errorf("Update moved the entry: %v", keysOf(tbl))
	}
}

func TestNextPrevOnAbsentKey(t *testing.T) {
	tbl := New[string, int]()
	tbl.Set("a", 1)

	// absent key and no-neighbor both yield an invalid cursor
	if tbl.Next("missing").Valid() || tbl.Prev("missing").Valid() {
		t.Error("Next/Prev on an absent key must return an invalid cursor")
	}
	if tbl.Next("a").Valid() || tbl.Prev("a").Valid() {
		t.Error("single entry has no neighbors")
	}
}

func TestDestroy(t *testing.T) {
	tbl := New[string, int]()

	tbl.Set("a", 1)
	if err := tbl.Destroy(); !errors.Is(err, assoc.ErrNotEmpty) {
		t.Errorf("expected ErrNotEmpty, got %v", err)
	}

	tbl.Remove("a")
	if err := tbl.Destroy(); err != nil {
		t.Errorf("Destroy on empty table failed: %v", err)
	}
}

func TestAllIteration(t *testing.T) {
	tbl := New[int, string]()
	tbl.Set(3, "c")
	tbl.Set(1, "a")
	tbl.Set(2, "b")

	var ks []int
	var vs []string
	for k, v := range tbl.All() {
		ks = append(ks, k)
		vs = append(vs, v)
	}
	if !sameKeys(ks, []int{3, 1, 2}) {
		t.Errorf("unexpected iteration order: %v", ks)
	}
	if vs[0] != "c" || vs[1] != "a" || vs[2] != "b" {
		t.Errorf("unexpected values: %v", vs)
	}

	// early break must not panic or misbehave
	count := 0
	for range tbl.All() {
		count++
		break
	}
	if count != 1 {
		t.Errorf("expected a single iteration, got %d", count)
	}
}

// TestRandomizedOperations drives the table with a slice-backed model and
// checks full structural agreement after every step.
func TestRandomizedOperations(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	tbl := New[int, int]()
	var model []int // keys in expected order
	values := make(map[int]int)

	remove := func(key int) {
		for i, k := range model {
			if k == key {
				model = append(model[:i], model[i+1:]...)
				break
			}
		}
		delete(values, key)
	}

	for step := 0; step < 2000; step++ {
		key := rng.Intn(50)
		switch rng.Intn(3) {
		case 0: // Set
			if _, replaced := tbl.Set(key, step); replaced {
				remove(key)
			}
			model = append(model, key)
			values[key] = step
		case 1: // Remove
			_, ok := tbl.Remove(key)
			if _, want := values[key]; ok != want {
				t.Fatalf("step %d: Remove(%d) = %v, model says %v", step, key, ok, want)
			}
			remove(key)
		case 2: // Add
			err := tbl.Add(key, step)
			if _, present := values[key]; present {
				if !errors.Is(err, assoc.ErrKeyExists) {
					t.Fatalf("step %d: Add(%d) should have failed", step, key)
				}
			} else {
				if err != nil {
					t.Fatalf("step %d: Add(%d) failed: %v", step, key, err)
				}
				model = append(model, key)
				values[key] = step
			}
		}

		if !sameKeys(keysOf(tbl), model) {
			t.Fatalf("step %d: order diverged: got %v want %v", step, keysOf(tbl), model)
		}
	}
	checkInvariants(t, tbl)

	for _, k := range model {
		v, err := tbl.Get(k)
		if err != nil || v != values[k] {
			t.Fatalf("Get(%d) = %d, %v; want %d", k, v, err, values[k])
		}
	}
}
