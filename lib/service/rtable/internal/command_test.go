package internal

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/okvlab/okv/lib/service"
)

// TestSerializeDeserialize tests both Serialize and Deserialize methods
func TestSerializeDeserialize(t *testing.T) {
	tests := []struct {
		name    string
		command Command
	}{
		{
			name: "Standard command with value",
			command: Command{
				Type:  CommandTInsertTTL,
				Key:   "testkey",
				TTL:   100,
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Command without value",
			command: Command{
				Type:  CommandTRemove,
				Key:   "testkey",
				Value: nil,
			},
		},
		{
			name: "Command with empty key",
			command: Command{
				Type:  CommandTInsert,
				Key:   "",
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Command with max TTL",
			command: Command{
				Type:  CommandTInsertTTL,
				Key:   "testkey",
				TTL:   18446744073709551615, // Max uint64
				Value: []byte("testvalue"),
			},
		},
		{
			name: "Command with binary value",
			command: Command{
				Type:  CommandTInsert,
				Key:   "binary",
				Value: []byte{0, 1, 2, 3, 254, 255},
			},
		},
		{
			name: "Command with Unicode key",
			command: Command{
				Type:  CommandTInsert,
				Key:   "你好世界",
				Value: []byte("unicode test"),
			},
		},
		{
			name: "Reap command without key or value",
			command: Command{
				Type: CommandTReap,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.command.Serialize()

			var newCommand Command
			err := newCommand.Deserialize(data)
			if err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if newCommand.Type != tt.command.Type {
				t.Errorf("Type mismatch: got %v, want %v", newCommand.Type, tt.command.Type)
			}
			if newCommand.Key != tt.command.Key {
				t.Errorf("Key mismatch: got %q, want %q", newCommand.Key, tt.command.Key)
			}
			if newCommand.TTL != tt.command.TTL {
				t.Errorf("TTL mismatch: got %v, want %v", newCommand.TTL, tt.command.TTL)
			}

			// Value comparison handling nil case
			if tt.command.Value == nil {
				if newCommand.Value != nil && len(newCommand.Value) != 0 {
					t.Errorf("Value should be nil or empty, got %v", newCommand.Value)
				}
			} else if !bytes.Equal(newCommand.Value, tt.command.Value) {
				t.Errorf("Value mismatch: got %v, want %v", newCommand.Value, tt.command.Value)
			}

			// SizeBytes must match the serialized data length
			if tt.command.SizeBytes() != len(data) {
				t.Errorf("SizeBytes() = %d, but serialized data length = %d",
					tt.command.SizeBytes(), len(data))
			}
		})
	}
}

// TestDeserializeErrors tests error cases in Deserialize
func TestDeserializeErrors(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		expectedErr string
	}{
		{
			name:        "Empty data",
			data:        []byte{},
			expectedErr: "data too short for command",
		},
		{
			name:        "Data too short (less than header)",
			data:        []byte{1, 2, 3, 4, 5},
			expectedErr: "data too short for command",
		},
		{
			name: "Invalid key length",
			data: func() []byte {
				data := make([]byte, 13) // Just the header
				data[0] = byte(CommandTInsert)
				// Set key length to a large value that exceeds the data
				binary.BigEndian.PutUint32(data[9:13], 1000)
				return data
			}(),
			expectedErr: "data too short for key of length 1000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd Command
			err := cmd.Deserialize(tt.data)

			if err == nil {
				t.Fatalf("Expected error but got nil")
			}
			if err.Error() != tt.expectedErr {
				t.Errorf("Expected error %q, got %q", tt.expectedErr, err.Error())
			}
		})
	}
}

// TestBinaryFormat tests the exact binary format of serialized commands
func TestBinaryFormat(t *testing.T) {
	cmd := Command{
		Type:  CommandTInsertTTL,
		Key:   "testkey",
		TTL:   12345,
		Value: []byte("testvalue"),
	}

	expected := make([]byte, cmd.SizeBytes())
	// Type
	expected[0] = byte(CommandTInsertTTL)
	// TTL
	binary.BigEndian.PutUint64(expected[1:9], 12345)
	// Key length
	binary.BigEndian.PutUint32(expected[9:13], 7) // "testkey" length
	// Key
	copy(expected[13:20], "testkey")
	// Value
	copy(expected[20:], "testvalue")

	serialized := cmd.Serialize()
	if !bytes.Equal(serialized, expected) {
		t.Errorf("Binary format does not match:\nGot:      %v\nExpected: %v", serialized, expected)
	}
}

// TestTakeResultRoundTrip tests the TakeResult wire format
func TestTakeResultRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		result TakeResult
	}{
		{
			name: "Middle entry with both neighbors",
			result: TakeResult{
				Ok: true,
				Removed: service.Removed{
					Value:   []byte("taken-value"),
					Prev:    "prev-key",
					Next:    "next-key",
					HasPrev: true,
					HasNext: true,
				},
			},
		},
		{
			name: "Head entry without prev neighbor",
			result: TakeResult{
				Ok: true,
				Removed: service.Removed{
					Value:   []byte("v"),
					Next:    "next-key",
					HasNext: true,
				},
			},
		},
		{
			name: "Lone entry without neighbors",
			result: TakeResult{
				Ok: true,
				Removed: service.Removed{
					Value: []byte("v"),
				},
			},
		},
		{
			name:   "Absent key",
			result: TakeResult{Ok: false},
		},
		{
			name: "Expired entry with hidden value",
			result: TakeResult{
				Ok: true,
				Removed: service.Removed{
					Prev:    "prev-key",
					HasPrev: true,
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.result.Serialize()

			var decoded TakeResult
			if err := decoded.Deserialize(data); err != nil {
				t.Fatalf("Deserialize() error = %v", err)
			}

			if decoded.Ok != tt.result.Ok {
				t.Errorf("Ok mismatch: got %v, want %v", decoded.Ok, tt.result.Ok)
			}
			if decoded.Removed.Prev != tt.result.Removed.Prev ||
				decoded.Removed.HasPrev != tt.result.Removed.HasPrev {
				t.Errorf("Prev mismatch: got (%q,%v), want (%q,%v)",
					decoded.Removed.Prev, decoded.Removed.HasPrev,
					tt.result.Removed.Prev, tt.result.Removed.HasPrev)
			}
			if decoded.Removed.Next != tt.result.Removed.Next ||
				decoded.Removed.HasNext != tt.result.Removed.HasNext {
				t.Errorf("Next mismatch: got (%q,%v), want (%q,%v)",
					decoded.Removed.Next, decoded.Removed.HasNext,
					tt.result.Removed.Next, tt.result.Removed.HasNext)
			}
			if !bytes.Equal(decoded.Removed.Value, tt.result.Removed.Value) &&
				!(len(decoded.Removed.Value) == 0 && len(tt.result.Removed.Value) == 0) {
				t.Errorf("Value mismatch: got %v, want %v", decoded.Removed.Value, tt.result.Removed.Value)
			}
		})
	}
}
