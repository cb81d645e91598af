package table

import "testing"

type timed struct {
	amount   uint64
	deadline uint64
}

func sumAmounts(acc uint64, v timed) uint64 { return acc + v.amount }

func TestSweepReapsExpiredAndKeepsOrder(t *testing.T) {
	tbl := New[string, timed]()
	now := uint64(100)

	// A(expired), B(live), C(expired), D(live)
	tbl.Set("A", timed{amount: 1, deadline: 50})
	tbl.Set("B", timed{amount: 2, deadline: 200})
	tbl.Set("C", timed{amount: 4, deadline: 99})
	tbl.Set("D", timed{amount: 8, deadline: 300})

	total := Sweep(tbl,
		func(_ string, v timed) bool { return v.deadline <= now },
		sumAmounts, 0)

	if total != 5 {
		t.Errorf("expected accumulator 5 (A+C), got %d", total)
	}
	if !sameKeys(tbl.Keys(), []string{"B", "D"}) {
		t.Errorf("expected order [B D], got %v", tbl.Keys())
	}
	checkInvariants(t, tbl)
}

func TestSweepAllExpiredEmptiesTable(t *testing.T) {
	tbl := New[int, timed]()
	for i := 1; i <= 10; i++ {
		tbl.Set(i, timed{amount: uint64(i), deadline: 1})
	}

	total := Sweep(tbl,
		func(int, timed) bool { return true },
		sumAmounts, 0)

	if total != 55 {
		t.Errorf("expected accumulator 55, got %d", total)
	}
	if !tbl.IsEmpty() {
		t.Errorf("table should be empty, holds %d entries", tbl.Len())
	}
	checkInvariants(t, tbl)
}

func TestSweepAllLiveIsNoOp(t *testing.T) {
	tbl := New[string, timed]()
	tbl.Set("a", timed{amount: 1})
	tbl.Set("b", timed{amount: 2})

	total := Sweep(tbl,
		func(string, timed) bool { return false },
		sumAmounts, 0)

	if total != 0 {
		t.Errorf("expected identity accumulator, got %d", total)
	}
	if !sameKeys(tbl.Keys(), []string{"a", "b"}) {
		t.Errorf("sweep changed the table: %v", tbl.Keys())
	}
}

func TestSweepOnEmptyTable(t *testing.T) {
	tbl := New[string, timed]()

	total := Sweep(tbl,
		func(string, timed) bool { return true },
		sumAmounts, 0)

	if total != 0 {
		t.Errorf("expected identity accumulator, got %d", total)
	}
}

func TestSweepConsecutiveExpiredRuns(t *testing.T) {
	tbl := New[int, timed]()

	// expired pairs surrounding live singletons, including both ends
	deadlines := []uint64{1, 1, 500, 1, 1, 500, 1, 1}
	for i, d := range deadlines {
		tbl.Set(i, timed{amount: 1, deadline: d})
	}

	reaped := Reap(tbl, func(_ int, v timed) bool { return v.deadline < 100 })

	if reaped != 6 {
		t.Errorf("expected 6 reaped entries, got %d", reaped)
	}
	if !sameKeys(tbl.Keys(), []int{2, 5}) {
		t.Errorf("expected survivors [2 5], got %v", tbl.Keys())
	}
	checkInvariants(t, tbl)
}

func TestReapCounts(t *testing.T) {
	tbl := New[string, timed]()
	tbl.Set("x", timed{deadline: 1})
	tbl.Set("y", timed{deadline: 900})

	if n := Reap(tbl, func(_ string, v timed) bool { return v.deadline < 100 }); n != 1 {
		t.Errorf("expected 1 reaped entry, got %d", n)
	}
	if !tbl.Has("y") || tbl.Has("x") {
		t.Error("reap removed the wrong entry")
	}
}
