package table

// Sweep walks the table from head to tail, removing every entry for which
// reap returns true and folding the removed payloads into an accumulator.
// Entries for which reap returns false are left untouched and in order.
//
// The walk survives the removal of the entry it is standing on because it
// resumes from the successor cursor returned by Take, computed before the
// removal. Calling Next on the removed key instead would read from a deleted
// key, which is exactly the failure mode this protocol exists to rule out.
//
// reap and fold must not mutate the table. Sweep returns the accumulator;
// for an all-live table that is acc unchanged.
func Sweep[K comparable, V any, A any](t *Table[K, V], reap func(key K, payload V) bool, fold func(acc A, payload V) A, acc A) A {
	cursor := t.Head()
	for cursor.Valid() {
		key := cursor.Key()

		payload, err := t.Get(key)
		if err != nil {
			// cursors only ever point at live keys
			break
		}

		if !reap(key, payload) {
			cursor = t.Next(key)
			continue
		}

		removed, _, next, err := t.Take(key)
		if err != nil {
			break
		}
		acc = fold(acc, removed)

		// resume from the pre-removal successor, never from Next(key)
		cursor = next
	}
	return acc
}

// Reap is Sweep with a counting accumulator, for callers that only need to
// know how many entries were removed.
func Reap[K comparable, V any](t *Table[K, V], reap func(key K, payload V) bool) uint64 {
	return Sweep(t, reap, func(n uint64, _ V) uint64 { return n + 1 }, 0)
}
