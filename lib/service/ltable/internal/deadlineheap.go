// Package internal
//
// This file provides the deadline queue used by the table janitor.
//
// The implementation combines a binary min-heap (ordered by deadline) with a
// hash map (keyed by table key), giving O(log n) scheduling and O(1) lookup:
//
//   - Schedule: O(log n), reschedules in place if the key is already queued
//   - Cancel:   O(log n)
//   - Peek/Pop: O(1) / O(log n)
//
// Not thread-safe. The janitor goroutine is the only user; writers reach it
// through the event queue instead of touching the heap directly.
package internal

import (
	"container/heap"
	"strconv"
)

// deadline is a single queued expiry.
type deadline struct {
	Key      string // Table key the deadline belongs to
	ExpireAt uint64 // Absolute clock tick at which the key expires
	index    int    // Position in the heap slice, maintained by heap package
}

func (d *deadline) String() string {
	return "{Key: " + d.Key + ", ExpireAt: " + strconv.FormatUint(d.ExpireAt, 10) + "}"
}

// DeadlineHeap is a priority queue of expiry deadlines with key-based access.
type DeadlineHeap struct {
	items    []*deadline
	itemsMap map[string]*deadline
}

// NewDeadlineHeap creates an empty deadline queue.
func NewDeadlineHeap() *DeadlineHeap {
	return &DeadlineHeap{
		items:    make([]*deadline, 0),
		itemsMap: make(map[string]*deadline),
	}
}

// Len returns the number of queued deadlines (part of heap.Interface).
func (dh *DeadlineHeap) Len() int { return len(dh.items) }

// Less orders deadlines soonest-first (part of heap.Interface).
func (dh *DeadlineHeap) Less(i, j int) bool {
	return dh.items[i].ExpireAt < dh.items[j].ExpireAt
}

// Swap exchanges items at positions i and j (part of heap.Interface).
func (dh *DeadlineHeap) Swap(i, j int) {
	dh.items[i], dh.items[j] = dh.items[j], dh.items[i]
	dh.items[i].index = i
	dh.items[j].index = j
}

// Push adds an item to the heap (part of heap.Interface).
func (dh *DeadlineHeap) Push(x interface{}) {
	n := len(dh.items)
	d := x.(*deadline)
	d.index = n
	dh.items = append(dh.items, d)
	dh.itemsMap[d.Key] = d
}

// Pop removes and returns the soonest deadline (part of heap.Interface).
func (dh *DeadlineHeap) Pop() interface{} {
	old := dh.items
	n := len(old)
	d := old[n-1]
	old[n-1] = nil // Avoid memory leak
	d.index = -1   // For safety
	dh.items = old[:n-1]
	delete(dh.itemsMap, d.Key)
	return d
}

// Schedule queues a deadline for key, or moves an already queued one.
func (dh *DeadlineHeap) Schedule(key string, expireAt uint64) {
	if d, exists := dh.itemsMap[key]; exists {
		d.ExpireAt = expireAt
		heap.Fix(dh, d.index)
		return
	}

	heap.Push(dh, &deadline{
		Key:      key,
		ExpireAt: expireAt,
	})
}

// Cancel removes the queued deadline for key, if any.
func (dh *DeadlineHeap) Cancel(key string) (uint64, bool) {
	d, exists := dh.itemsMap[key]
	if !exists {
		return 0, false
	}

	heap.Remove(dh, d.index)
	return d.ExpireAt, true
}

// Peek returns the key and tick of the soonest deadline without removing it.
func (dh *DeadlineHeap) Peek() (key string, expireAt uint64, ok bool) {
	if len(dh.items) == 0 {
		return "", 0, false
	}
	return dh.items[0].Key, dh.items[0].ExpireAt, true
}

// PopDue removes and returns the soonest deadline if it is due at now.
func (dh *DeadlineHeap) PopDue(now uint64) (key string, ok bool) {
	if len(dh.items) == 0 || dh.items[0].ExpireAt > now {
		return "", false
	}
	d := heap.Pop(dh).(*deadline)
	return d.Key, true
}

// Contains checks if a deadline is queued for key.
func (dh *DeadlineHeap) Contains(key string) bool {
	_, exists := dh.itemsMap[key]
	return exists
}
