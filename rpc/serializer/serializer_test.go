package serializer

import (
	"github.com/okvlab/okv/rpc/common"
	"reflect"
	"testing"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() IRPCSerializer{
	"JSON":   NewJSONSerializer,
	"GOB":    NewGOBSerializer,
	"Binary": NewBinarySerializer,
}

// testMessages creates a set of test messages with different fields filled
func testMessages() []common.Message {
	return []common.Message{
		// Basic message with just a type
		{MsgType: common.MsgTSuccess},

		// Insert request
		{
			MsgType: common.MsgTTblInsert,
			Key:     "test-key",
			Value:   []byte("test-value"),
		},

		// InsertTTL request
		{
			MsgType: common.MsgTTblInsertTTL,
			Key:     "test-key",
			Value:   []byte("test-value"),
			TTL:     60,
		},

		// Get response
		{
			MsgType: common.MsgTTblGet,
			Key:     "test-key",
			Value:   []byte("test-value"),
			Ok:      true,
		},

		// Take response with both neighbor cursors
		{
			MsgType: common.MsgTTblTake,
			Value:   []byte("taken-value"),
			PrevKey: "pred-key",
			NextKey: "succ-key",
			HasPrev: true,
			HasNext: true,
			Ok:      true,
		},

		// Take response of a lone entry (cursors absent)
		{
			MsgType: common.MsgTTblTake,
			Value:   []byte("taken-value"),
			Ok:      true,
		},

		// Scan response with a key page
		{
			MsgType: common.MsgTTblScan,
			Keys:    []string{"alpha", "beta", "gamma"},
			More:    true,
		},

		// Len response
		{
			MsgType: common.MsgTTblLen,
			Count:   42,
		},

		// Error response
		{
			MsgType: common.MsgTError,
			Err:     "test error message",
		},

		// Message with all fields filled
		{
			MsgType: common.MsgTLeaseAcquire,
			Key:     "test-lease-key",
			TTL:     300,
			Value:   []byte("test-lease-value"),
			PrevKey: "prev",
			NextKey: "next",
			HasPrev: true,
			HasNext: true,
			Keys:    []string{"a", "b"},
			More:    true,
			Count:   7,
			Ok:      true,
			Err:     "",
			Meta:    []byte("test-meta-data"),
		},
	}
}

// TestSerializerRoundTrip tests that messages can be serialized and deserialized correctly
func TestSerializerRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			for i, msg := range messages {
				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message %d: %v", i, err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestMessageTypes tests each message type with each serializer
func TestMessageTypes(t *testing.T) {
	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			serializer := factory()

			// Test each message type (don't test for MsgTUnknown since this should raise an error)
			for msgType := common.MsgTSuccess; msgType <= common.MsgTCustom; msgType++ {
				msg := common.Message{MsgType: msgType}

				// Serialize
				data, err := serializer.Serialize(msg)
				if err != nil {
					t.Errorf("Failed to serialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Deserialize
				var result common.Message
				err = serializer.Deserialize(data, &result)
				if err != nil {
					t.Errorf("Failed to deserialize message type %s: %v", msgType.String(), err)
					continue
				}

				// Check type
				if result.MsgType != msgType {
					t.Errorf("Message type doesn't match after round trip: Expected %s, got %s",
						msgType.String(), result.MsgType.String())
				}
			}
		})
	}
}

// TestBinarySerializerSpecific tests specific edge cases for the binary serializer
func TestBinarySerializerSpecific(t *testing.T) {
	serializer := NewBinarySerializer()

	// Test cases for empty or zero values
	testCases := []struct {
		name string
		msg  common.Message
	}{
		{
			name: "Empty message",
			msg:  common.Message{},
		},
		{
			name: "Message with empty strings and zero values",
			msg: common.Message{
				MsgType: common.MsgTTblInsert,
				Key:     "",
				TTL:     0,
				Value:   []byte{},
				Ok:      false,
				Err:     "",
				Meta:    []byte{},
			},
		},
		{
			name: "Message with empty strings but Ok=true",
			msg: common.Message{
				MsgType: common.MsgTTblGet,
				Key:     "",
				Ok:      true,
				Value:   nil,
			},
		},
		{
			name: "Message with empty value slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTTblInsert,
				Key:     "test",
				Value:   []byte{},
			},
		},
		{
			name: "Take response with empty-string cursor keys",
			msg: common.Message{
				MsgType: common.MsgTTblTake,
				PrevKey: "",
				NextKey: "",
				HasPrev: true,
				HasNext: true,
				Ok:      true,
			},
		},
		{
			name: "Scan response with empty but non-nil key page",
			msg: common.Message{
				MsgType: common.MsgTTblScan,
				Keys:    []string{},
				More:    true,
			},
		},
		{
			name: "Message with empty meta slice but not nil",
			msg: common.Message{
				MsgType: common.MsgTCustom,
				Meta:    []byte{},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Serialize
			data, err := serializer.Serialize(tc.msg)
			if err != nil {
				t.Fatalf("Failed to serialize: %v", err)
			}

			// Deserialize
			var result common.Message
			err = serializer.Deserialize(data, &result)
			if err != nil {
				t.Fatalf("Failed to deserialize: %v", err)
			}

			// Verify key
			if tc.msg.Key != result.Key {
				t.Errorf("Key mismatch: expected '%s', got '%s'", tc.msg.Key, result.Key)
			}

			// Verify TTL
			if tc.msg.TTL != result.TTL {
				t.Errorf("TTL mismatch: expected %d, got %d", tc.msg.TTL, result.TTL)
			}

			// Verify cursor fields
			if tc.msg.PrevKey != result.PrevKey {
				t.Errorf("PrevKey mismatch: expected '%s', got '%s'", tc.msg.PrevKey, result.PrevKey)
			}
			if tc.msg.NextKey != result.NextKey {
				t.Errorf("NextKey mismatch: expected '%s', got '%s'", tc.msg.NextKey, result.NextKey)
			}
			if tc.msg.HasPrev != result.HasPrev {
				t.Errorf("HasPrev mismatch: expected %v, got %v", tc.msg.HasPrev, result.HasPrev)
			}
			if tc.msg.HasNext != result.HasNext {
				t.Errorf("HasNext mismatch: expected %v, got %v", tc.msg.HasNext, result.HasNext)
			}

			// Verify Ok and More
			if tc.msg.Ok != result.Ok {
				t.Errorf("Ok mismatch: expected %v, got %v", tc.msg.Ok, result.Ok)
			}
			if tc.msg.More != result.More {
				t.Errorf("More mismatch: expected %v, got %v", tc.msg.More, result.More)
			}

			// Verify Count
			if tc.msg.Count != result.Count {
				t.Errorf("Count mismatch: expected %d, got %d", tc.msg.Count, result.Count)
			}

			// Verify Err
			if tc.msg.Err != result.Err {
				t.Errorf("Err mismatch: expected '%s', got '%s'", tc.msg.Err, result.Err)
			}

			// Verify MsgType
			if tc.msg.MsgType != result.MsgType {
				t.Errorf("MsgType mismatch: expected %v, got %v", tc.msg.MsgType, result.MsgType)
			}
		})
	}
}

// TestBinaryDeserializeErrors tests that truncated input is rejected
func TestBinaryDeserializeErrors(t *testing.T) {
	serializer := NewBinarySerializer()

	// Serialize a message with several fields present
	msg := common.Message{
		MsgType: common.MsgTTblTake,
		Key:     "some-key",
		Value:   []byte("some-value"),
		NextKey: "succ",
		HasNext: true,
		Ok:      true,
	}
	data, err := serializer.Serialize(msg)
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	// Every truncation of the payload must fail, never panic
	for i := 0; i < len(data); i++ {
		var result common.Message
		if err := serializer.Deserialize(data[:i], &result); err == nil {
			t.Errorf("Expected error for truncated data of length %d, got none", i)
		}
	}
}
