// Package internal holds the building blocks of the local table service:
// the stored entry type, the janitor event queue, and the deadline heap the
// janitor uses to find due entries without scanning.
package internal

// --------------------------------------------------------------------------
// Entry
// --------------------------------------------------------------------------

// Entry is the payload stored per key in the local table.
type Entry struct {
	Value    []byte // The stored value
	ExpireAt uint64 // Absolute clock tick at which the entry expires (0 = never)
}

// Expired reports whether the entry is expired at the given clock tick.
func (e Entry) Expired(now uint64) bool {
	return e.ExpireAt != 0 && e.ExpireAt <= now
}

// --------------------------------------------------------------------------
// Janitor Events
// --------------------------------------------------------------------------

// EventType describes what a writer wants the janitor to do with a key.
type EventType uint8

const (
	// EventTSchedule registers (or reschedules) a deadline for a key.
	EventTSchedule EventType = iota
	// EventTCancel drops any pending deadline for a key.
	EventTCancel
)

// Event is pushed by writers into the janitor's queue. The janitor owns the
// deadline heap exclusively, so writers never touch it directly.
type Event struct {
	Type     EventType
	Key      string
	ExpireAt uint64 // Only meaningful for EventTSchedule
}
