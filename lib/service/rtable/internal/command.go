package internal

import (
	"encoding/binary"
	"fmt"

	"github.com/okvlab/okv/lib/service"
)

// CommandType defines the possible write operations for the state machine.
type CommandType uint8

const (
	CommandTInsert         CommandType = iota // Insert or replace an entry (resets position).
	CommandTInsertTTL                         // Insert or replace an entry with a lifetime.
	CommandTInsertIfAbsent                    // Insert an entry only if the key is absent.
	CommandTRemove                            // Remove an entry.
	CommandTTake                              // Remove an entry and report value plus neighbors.
	CommandTReap                              // Sweep out all expired entries.
)

func (ct CommandType) String() string {
	switch ct {
	case CommandTInsert:
		return "Insert"
	case CommandTInsertTTL:
		return "InsertTTL"
	case CommandTInsertIfAbsent:
		return "InsertIfAbsent"
	case CommandTRemove:
		return "Remove"
	case CommandTTake:
		return "Take"
	case CommandTReap:
		return "Reap"
	default:
		return fmt.Sprintf("Unknown(%d)", ct)
	}
}

// ToFeature converts a CommandType to the corresponding service.Feature.
// This can be used for checking if the table supports a certain operation.
func (ct CommandType) ToFeature() (service.Feature, error) {
	switch ct {
	case CommandTInsert:
		return service.FeatureInsert, nil
	case CommandTInsertTTL:
		return service.FeatureInsertTTL, nil
	case CommandTInsertIfAbsent:
		return service.FeatureInsertIfAbsent, nil
	case CommandTRemove:
		return service.FeatureRemove, nil
	case CommandTTake:
		return service.FeatureTake, nil
	case CommandTReap:
		return service.FeatureReap, nil
	default:
		return 0, fmt.Errorf("unknown command type %d", ct)
	}
}

// Command represents a write to be applied by the state machine (a single
// entry in the raft log).
type Command struct {
	Type  CommandType
	Key   string
	TTL   uint64
	Value []byte
}

// SizeBytes returns the exact number of bytes needed to serialize this command
func (command *Command) SizeBytes() int {
	return 1 + 8 + 4 + len(command.Key) + len(command.Value) // Type + TTL + KeyLen + Key + Value
}

// Serialize serializes a command into a byte array with the format:
// 1 byte for operation type,
// 8 bytes for ttl,
// 4 bytes for key length (big endian),
// N bytes for key data,
// N bytes for value data (optional)
func (command *Command) Serialize() []byte {
	result := make([]byte, command.SizeBytes())

	result[0] = byte(command.Type)
	binary.BigEndian.PutUint64(result[1:9], command.TTL)
	binary.BigEndian.PutUint32(result[9:13], uint32(len(command.Key)))

	copy(result[13:13+len(command.Key)], command.Key)

	if command.Value != nil {
		copy(result[13+len(command.Key):], command.Value)
	}

	return result
}

// Deserialize extracts all Command fields from a byte array.
func (command *Command) Deserialize(data []byte) error {
	// Minimum size: 1 (Type) + 8 (TTL) + 4 (KeyLen) = 13 bytes
	if len(data) < 13 {
		return fmt.Errorf("data too short for command")
	}

	command.Type = CommandType(data[0])
	command.TTL = binary.BigEndian.Uint64(data[1:9])

	keyLen := binary.BigEndian.Uint32(data[9:13])
	if len(data) < 13+int(keyLen) {
		return fmt.Errorf("data too short for key of length %d", keyLen)
	}
	command.Key = string(data[13 : 13+keyLen])

	// Extract value if present
	if len(data) > 13+int(keyLen) {
		valueLen := len(data) - (13 + int(keyLen))
		// Reuse existing buffer if possible to reduce allocations
		if command.Value == nil || cap(command.Value) < valueLen {
			command.Value = make([]byte, valueLen)
		} else {
			command.Value = command.Value[:valueLen]
		}
		copy(command.Value, data[13+int(keyLen):])
	} else {
		command.Value = nil
	}

	return nil
}

// --------------------------------------------------------------------------
// Command Results
// --------------------------------------------------------------------------

// Flag bits used by the TakeResult wire format
const (
	takeFlagOk      = 1 << 0
	takeFlagHasPrev = 1 << 1
	takeFlagHasNext = 1 << 2
)

// TakeResult carries the outcome of a Take command through the raft result
// payload.
type TakeResult struct {
	Ok      bool
	Removed service.Removed
}

// Serialize encodes a TakeResult with the format:
// 1 byte for flags (ok, hasPrev, hasNext),
// 4 bytes for prev key length + N bytes prev key,
// 4 bytes for next key length + N bytes next key,
// N bytes for the removed value
func (tr *TakeResult) Serialize() []byte {
	size := 1 + 4 + len(tr.Removed.Prev) + 4 + len(tr.Removed.Next) + len(tr.Removed.Value)
	result := make([]byte, size)

	var flags byte
	if tr.Ok {
		flags |= takeFlagOk
	}
	if tr.Removed.HasPrev {
		flags |= takeFlagHasPrev
	}
	if tr.Removed.HasNext {
		flags |= takeFlagHasNext
	}
	result[0] = flags

	offset := 1
	binary.BigEndian.PutUint32(result[offset:offset+4], uint32(len(tr.Removed.Prev)))
	offset += 4
	copy(result[offset:], tr.Removed.Prev)
	offset += len(tr.Removed.Prev)

	binary.BigEndian.PutUint32(result[offset:offset+4], uint32(len(tr.Removed.Next)))
	offset += 4
	copy(result[offset:], tr.Removed.Next)
	offset += len(tr.Removed.Next)

	copy(result[offset:], tr.Removed.Value)

	return result
}

// Deserialize extracts all TakeResult fields from a byte array.
func (tr *TakeResult) Deserialize(data []byte) error {
	if len(data) < 9 {
		return fmt.Errorf("data too short for take result")
	}

	flags := data[0]
	tr.Ok = flags&takeFlagOk != 0
	tr.Removed.HasPrev = flags&takeFlagHasPrev != 0
	tr.Removed.HasNext = flags&takeFlagHasNext != 0

	offset := 1
	prevLen := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	if len(data) < offset+int(prevLen)+4 {
		return fmt.Errorf("data too short for prev key of length %d", prevLen)
	}
	tr.Removed.Prev = string(data[offset : offset+int(prevLen)])
	offset += int(prevLen)

	nextLen := binary.BigEndian.Uint32(data[offset : offset+4])
	offset += 4
	if len(data) < offset+int(nextLen) {
		return fmt.Errorf("data too short for next key of length %d", nextLen)
	}
	tr.Removed.Next = string(data[offset : offset+int(nextLen)])
	offset += int(nextLen)

	if len(data) > offset {
		tr.Removed.Value = make([]byte, len(data)-offset)
		copy(tr.Removed.Value, data[offset:])
	} else {
		tr.Removed.Value = nil
	}

	return nil
}
