package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single message used for both requests and responses.
// Which fields are used depends on the type of message.
type Message struct {
	// Type of message
	MsgType MessageType `json:"msg_type"`

	// General fields
	Key   string `json:"key,omitempty"`   // Used for: Insert, Get, Has, Remove, Take, Next, Prev, Scan, Acquire, Release
	TTL   uint64 `json:"ttl,omitempty"`   // Used for: InsertTTL, InsertIfAbsent, Acquire requests
	Value []byte `json:"value,omitempty"` // Used for: Insert (request), Get/Take (response), Acquire (response)

	// Cursor fields (Take, Next and Prev responses)
	PrevKey string `json:"prev_key,omitempty"` // Key of the predecessor
	NextKey string `json:"next_key,omitempty"` // Key of the successor
	HasPrev bool   `json:"has_prev,omitempty"` // Whether PrevKey is set (distinguishes "" from absent)
	HasNext bool   `json:"has_next,omitempty"` // Whether NextKey is set

	// List fields (Scan responses)
	Keys []string `json:"keys,omitempty"` // Page of keys in table order
	More bool     `json:"more,omitempty"` // Whether further pages exist

	// Count is used for Len and Reap responses and carries the limit in Scan requests
	Count uint64 `json:"count,omitempty"`

	// Response only fields
	Ok  bool   `json:"ok,omitempty"`  // Used for: Get, Has, Take, Head, Tail, Next, Prev, Acquire, Release responses
	Err string `json:"err,omitempty"` // Empty if no error, otherwise contains the error message

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewInsertRequest creates a new Insert request
func NewInsertRequest(key string, value []byte) *Message {
	return &Message{
		MsgType: MsgTTblInsert,
		Key:     key,
		Value:   value,
	}
}

// NewInsertResponse creates a new Insert response
func NewInsertResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTTblInsert,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewInsertTTLRequest creates a new InsertTTL request
func NewInsertTTLRequest(key string, value []byte, ttl uint64) *Message {
	return &Message{
		MsgType: MsgTTblInsertTTL,
		Key:     key,
		Value:   value,
		TTL:     ttl,
	}
}

// NewInsertTTLResponse creates a new InsertTTL response
func NewInsertTTLResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTTblInsertTTL,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewInsertIfAbsentRequest creates a new InsertIfAbsent request
func NewInsertIfAbsentRequest(key string, value []byte, ttl uint64) *Message {
	return &Message{
		MsgType: MsgTTblInsertIfAbsent,
		Key:     key,
		Value:   value,
		TTL:     ttl,
	}
}

// NewInsertIfAbsentResponse creates a new InsertIfAbsent response
func NewInsertIfAbsentResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTTblInsertIfAbsent,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblRemove,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response
func NewRemoveResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTTblRemove,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewTakeRequest creates a new Take request
func NewTakeRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblTake,
		Key:     key,
	}
}

// NewTakeResponse creates a new Take response. The prev/next cursors
// identify the removed entry's neighbors so that a traversal interrupted
// by the removal can resume.
func NewTakeResponse(value []byte, prev, next string, hasPrev, hasNext, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblTake,
		Ok:      ok,
		Value:   value,
		PrevKey: prev,
		NextKey: next,
		HasPrev: hasPrev,
		HasNext: hasNext,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value []byte, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblGet,
		Ok:      ok,
		Value:   value,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewHasRequest creates a new Has request
func NewHasRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblHas,
		Key:     key,
	}
}

// NewHasResponse creates a new Has response
func NewHasResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblHas,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewHeadRequest creates a new Head request
func NewHeadRequest() *Message {
	return &Message{
		MsgType: MsgTTblHead,
	}
}

// NewHeadResponse creates a new Head response
func NewHeadResponse(key string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblHead,
		Key:     key,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewTailRequest creates a new Tail request
func NewTailRequest() *Message {
	return &Message{
		MsgType: MsgTTblTail,
	}
}

// NewTailResponse creates a new Tail response
func NewTailResponse(key string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblTail,
		Key:     key,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewNextRequest creates a new Next request
func NewNextRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblNext,
		Key:     key,
	}
}

// NewNextResponse creates a new Next response. The successor key travels
// in NextKey so the request key in Key is not clobbered.
func NewNextResponse(next string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblNext,
		NextKey: next,
		HasNext: ok,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewPrevRequest creates a new Prev request
func NewPrevRequest(key string) *Message {
	return &Message{
		MsgType: MsgTTblPrev,
		Key:     key,
	}
}

// NewPrevResponse creates a new Prev response
func NewPrevResponse(prev string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblPrev,
		PrevKey: prev,
		HasPrev: ok,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewLenRequest creates a new Len request
func NewLenRequest() *Message {
	return &Message{
		MsgType: MsgTTblLen,
	}
}

// NewLenResponse creates a new Len response
func NewLenResponse(count uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblLen,
		Count:   count,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewScanRequest creates a new Scan request. The page starts after the
// given key ("" for the head) and holds at most limit keys.
func NewScanRequest(after string, limit int) *Message {
	return &Message{
		MsgType: MsgTTblScan,
		Key:     after,
		Count:   uint64(limit),
	}
}

// NewScanResponse creates a new Scan response
func NewScanResponse(keys []string, more bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblScan,
		Keys:    keys,
		More:    more,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewReapRequest creates a new Reap request
func NewReapRequest() *Message {
	return &Message{
		MsgType: MsgTTblReap,
	}
}

// NewReapResponse creates a new Reap response
func NewReapResponse(count uint64, err error) *Message {
	msg := &Message{
		MsgType: MsgTTblReap,
		Count:   count,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewAcquireRequest creates a new Acquire request
func NewAcquireRequest(key string, ttl uint64) *Message {
	return &Message{
		MsgType: MsgTLeaseAcquire,
		Key:     key,
		TTL:     ttl,
	}
}

// NewAcquireResponse creates a new Acquire response
func NewAcquireResponse(ok bool, ownerToken []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTLeaseAcquire,
		Ok:      ok,
		Value:   ownerToken,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewReleaseRequest creates a new Release request
func NewReleaseRequest(key string, ownerToken []byte) *Message {
	return &Message{
		MsgType: MsgTLeaseRelease,
		Key:     key,
		Value:   ownerToken,
	}
}

// NewReleaseResponse creates a new Release response
func NewReleaseResponse(ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTLeaseRelease,
		Ok:      ok,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewCustomRequest creates a new Custom request
func NewCustomRequest(meta []byte) *Message {
	return &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
}

// NewCustomResponse creates a new Custom response
func NewCustomResponse(meta []byte, err error) *Message {
	msg := &Message{
		MsgType: MsgTCustom,
		Meta:    meta,
	}
	if err != nil {
		msg.Err = err.Error()
	}
	return msg
}

// NewErrorResponse creates a new Error response
func NewErrorResponse(err string) *Message {
	return &Message{
		MsgType: MsgTError,
		Err:     err,
	}
}

// --------------------------------------------------------------------------
// Message Type Definition
// --------------------------------------------------------------------------

// MessageType defines the type of message used in RPC communication.
type MessageType uint8

// String returns the string representation of a MessageType.
func (t MessageType) String() string {
	switch t {
	case MsgTTblInsert:
		return "insert"
	case MsgTTblInsertTTL:
		return "insertTTL"
	case MsgTTblInsertIfAbsent:
		return "insertIfAbsent"
	case MsgTTblRemove:
		return "remove"
	case MsgTTblTake:
		return "take"
	case MsgTTblGet:
		return "get"
	case MsgTTblHas:
		return "has"
	case MsgTTblHead:
		return "head"
	case MsgTTblTail:
		return "tail"
	case MsgTTblNext:
		return "next"
	case MsgTTblPrev:
		return "prev"
	case MsgTTblLen:
		return "len"
	case MsgTTblScan:
		return "scan"
	case MsgTTblReap:
		return "reap"
	case MsgTLeaseAcquire:
		return "acquire"
	case MsgTLeaseRelease:
		return "release"
	case MsgTCustom:
		return "custom"
	case MsgTError:
		return "error"
	case MsgTSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for MessageType.
// This allows MessageType to be serialized as a string in JSON.
func (t MessageType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for MessageType.
// This allows MessageType to be deserialized from a string in JSON.
func (t *MessageType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	// Convert string back to MessageType
	switch s {
	case "insert":
		*t = MsgTTblInsert
	case "insertTTL":
		*t = MsgTTblInsertTTL
	case "insertIfAbsent":
		*t = MsgTTblInsertIfAbsent
	case "remove":
		*t = MsgTTblRemove
	case "take":
		*t = MsgTTblTake
	case "get":
		*t = MsgTTblGet
	case "has":
		*t = MsgTTblHas
	case "head":
		*t = MsgTTblHead
	case "tail":
		*t = MsgTTblTail
	case "next":
		*t = MsgTTblNext
	case "prev":
		*t = MsgTTblPrev
	case "len":
		*t = MsgTTblLen
	case "scan":
		*t = MsgTTblScan
	case "reap":
		*t = MsgTTblReap
	case "acquire":
		*t = MsgTLeaseAcquire
	case "release":
		*t = MsgTLeaseRelease
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	default:
		return fmt.Errorf("unknown message type: %s", s)
	}

	return nil
}

// --------------------------------------------------------------------------
// Message Type Constants
// --------------------------------------------------------------------------

const (
	// General message types

	MsgTUnknown MessageType = iota
	MsgTSuccess             // Indicates a successful operation
	MsgTError               // Indicates an error occurred

	// ITable operations

	MsgTTblInsert         // Insert a key-value pair at the tail
	MsgTTblInsertTTL      // Insert a key-value pair with a time-to-live
	MsgTTblInsertIfAbsent // Insert only if the key is not present
	MsgTTblRemove         // Remove a key-value pair
	MsgTTblTake           // Remove a key and return its value plus neighbor cursors
	MsgTTblGet            // Get a value by key
	MsgTTblHas            // Check if a key is present
	MsgTTblHead           // First key in table order
	MsgTTblTail           // Last key in table order
	MsgTTblNext           // Successor of a key
	MsgTTblPrev           // Predecessor of a key
	MsgTTblLen            // Number of entries
	MsgTTblScan           // Page of keys in table order
	MsgTTblReap           // Remove all expired entries

	// ILeaseManager operations

	MsgTLeaseAcquire // Acquire a lease
	MsgTLeaseRelease // Release a lease

	// Custom operations

	MsgTCustom // Custom operation type
)
