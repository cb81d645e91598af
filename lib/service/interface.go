package service

import (
	"fmt"
	"io"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplLocal      Implementation = "ltable"
	ImplReplicated Implementation = "rtable"
)

// Feature represents table service features as bit flags
type Feature uint64

const (
	FeatureInsert         Feature = 1 << iota // Support for Insert operations
	FeatureInsertTTL                          // Support for InsertTTL operations
	FeatureInsertIfAbsent                     // Support for InsertIfAbsent operations
	FeatureRemove                             // Support for Remove operations
	FeatureTake                               // Support for Take operations
	FeatureGet                                // Support for Get operations
	FeatureHas                                // Support for Has operations
	FeatureCursor                             // Support for Head/Tail/Next/Prev operations
	FeatureScan                               // Support for Scan operations
	FeatureReap                               // Support for Reap operations
)

func (f Feature) String() string {
	switch f {
	case FeatureInsert:
		return "Insert"
	case FeatureInsertTTL:
		return "InsertTTL"
	case FeatureInsertIfAbsent:
		return "InsertIfAbsent"
	case FeatureRemove:
		return "Remove"
	case FeatureTake:
		return "Take"
	case FeatureGet:
		return "Get"
	case FeatureHas:
		return "Has"
	case FeatureCursor:
		return "Cursor"
	case FeatureScan:
		return "Scan"
	case FeatureReap:
		return "Reap"
	default:
		return "Unknown"
	}
}

// Removed reports the outcome of a Take: the removed value plus the keys of
// both pre-removal neighbors. Next is the only safe key to resume a forward
// traversal from after the removal.
type Removed struct {
	Value   []byte `json:"value"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
	HasPrev bool   `json:"has_prev,omitempty"`
	HasNext bool   `json:"has_next,omitempty"`
}

// ServiceInfo describes a table service instance.
type ServiceInfo struct {
	Entries           uint64         `json:"entries"`
	HeadKey           string         `json:"head_key,omitempty"`
	TailKey           string         `json:"tail_key,omitempty"`
	ClockNow          uint64         `json:"clock_now"`
	ReapBacklog       uint64         `json:"reap_backlog"`
	Impl              Implementation `json:"impl"`
	SupportedFeatures []Feature      `json:"supported_features"`
	Metadata          interface{}    `json:"metadata,omitempty"`
}

// --------------------------------------------------------------------------
// Table Service Interface
// --------------------------------------------------------------------------

// ITable is the generic interface for interacting with an insertion-ordered
// key-value table service. All write operations return only an error (nil on
// success), while read operations return the requested data along with an
// error. Implementations can vary in their feature support, which can be
// queried with SupportsFeature.
type ITable interface {

	// --------------------------------------------------------------------------
	// Write Operations
	// --------------------------------------------------------------------------

	// Insert inserts or replaces a key-value pair. Either way the entry ends
	// up at the tail of the insertion order (insert resets position).
	Insert(key string, value []byte) (err error)

	// InsertTTL behaves like Insert and additionally sets a lifetime in clock
	// ticks; once the lifetime elapses the entry is no longer readable and is
	// removed by the next reap. ttl=0 means no expiry.
	InsertTTL(key string, value []byte, ttl uint64) (err error)

	// InsertIfAbsent inserts a key-value pair with an optional lifetime only
	// if the key is not present. If the key is already present the call is a
	// no-op and no error is returned.
	InsertIfAbsent(key string, value []byte, ttl uint64) (err error)

	// Remove removes a key-value pair. Removing an absent key is a no-op.
	Remove(key string) (err error)

	// Take removes a key-value pair and reports the removed value plus both
	// pre-removal neighbor keys. ok is false if the key was absent.
	Take(key string) (removed Removed, ok bool, err error)

	// --------------------------------------------------------------------------
	// Query Operations
	// --------------------------------------------------------------------------

	// Get returns the value for a key. The boolean indicates whether a live
	// (not expired) value was found.
	Get(key string) (value []byte, loaded bool, err error)

	// Has reports whether a key is present. Unlike Get this also reports
	// expired entries that have not been reaped yet.
	Has(key string) (loaded bool, err error)

	// Head returns the oldest present key; ok is false if the table is
	// empty. Expired entries that have not been reaped yet are still present.
	Head() (key string, ok bool, err error)

	// Tail returns the newest present key; ok is false if the table is empty.
	Tail() (key string, ok bool, err error)

	// Next returns the successor of key in insertion order. ok is false both
	// when key is the tail and when key is absent (check Has to distinguish).
	Next(key string) (next string, ok bool, err error)

	// Prev returns the predecessor of key in insertion order. ok is false
	// both when key is the head and when key is absent.
	Prev(key string) (prev string, ok bool, err error)

	// Len returns the number of present entries, including expired entries
	// that have not been reaped yet.
	Len() (n uint64, err error)

	// Scan returns up to limit keys in insertion order, starting after the
	// given key (empty string = start at the head). more reports whether
	// further keys follow.
	Scan(after string, limit int) (keys []string, more bool, err error)

	// --------------------------------------------------------------------------
	// Maintenance Operations
	// --------------------------------------------------------------------------

	// Reap removes all expired entries in a single head-to-tail sweep and
	// returns how many entries were removed.
	Reap() (reaped uint64, err error)

	// GetServiceInfo returns metadata about the table service.
	// It is not guaranteed that all fields are filled in.
	GetServiceInfo() (info ServiceInfo, err error)

	// --------------------------------------------------------------------------
	// Feature Support
	// --------------------------------------------------------------------------

	// SupportsFeature checks if the implementation supports the specified
	// feature. Multiple features can be checked at once using bitwise OR.
	SupportsFeature(feature Feature) (ok bool)

	// Close shuts the service down.
	Close() (err error)
}

// ISnapshotter is implemented by table services that can persist their full
// state, including insertion order and pending TTLs. The replicated table
// uses it for raft snapshots.
type ISnapshotter interface {
	// SaveSnapshot writes the complete table state to w.
	SaveSnapshot(w io.Writer) (err error)

	// LoadSnapshot replaces the complete table state with the one read
	// from r.
	LoadSnapshot(r io.Reader) (err error)
}

// TableFactory is a function that creates a new ITable instance. It is used
// where the caller decides which implementation backs a component, for
// example the replicated state machine.
type TableFactory func() ITable

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("TableServiceError (code %s): %s", e.Code, e.Msg)
}

// NewError creates a new Error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess              RetCode = iota // 0: Command executed successfully.
	RetCInternalError                       // 1: Command failed due to an internal error.
	RetCUnsupportedOperation                // 2: Operation is not supported by the implementation.
	RetCInvalidOperation                    // 3: Invalid operation.
	RetCKeyNotFound                         // 4: The key is absent.
	RetCKeyExists                           // 5: The key is already present.
	RetCNotEmpty                            // 6: The table still holds live entries.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCUnsupportedOperation:
		return "UnsupportedOperation"
	case RetCInvalidOperation:
		return "InvalidOperation"
	case RetCKeyNotFound:
		return "KeyNotFound"
	case RetCKeyExists:
		return "KeyExists"
	case RetCNotEmpty:
		return "NotEmpty"
	default:
		return "Unknown"
	}
}
