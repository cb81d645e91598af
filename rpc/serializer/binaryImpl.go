package serializer

import (
	"encoding/binary"
	"fmt"
	"github.com/okvlab/okv/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present. Boolean message
// fields (Ok, More, HasPrev, HasNext) are stored directly in the flags word
// and carry no payload.
const (
	hasKey     uint16 = 1 << 0
	hasTTL     uint16 = 1 << 1
	hasValue   uint16 = 1 << 2
	hasPrevKey uint16 = 1 << 3
	hasNextKey uint16 = 1 << 4
	hasKeys    uint16 = 1 << 5
	hasCount   uint16 = 1 << 6
	hasErr     uint16 = 1 << 7
	hasMeta    uint16 = 1 << 8
	flagOk     uint16 = 1 << 9
	flagMore   uint16 = 1 << 10
	flagPrev   uint16 = 1 << 11
	flagNext   uint16 = 1 << 12
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	// Calculate total size needed
	totalSize := b.sizeBytes(msg)
	result := make([]byte, totalSize)

	// Write message type
	result[0] = byte(msg.MsgType)

	// Initialize flags word
	var flags uint16 = 0

	// Set position for writing
	pos := 3 // Start after MsgType and flags

	// Handle Key
	if msg.Key != "" {
		flags |= hasKey
		keyBytes := []byte(msg.Key)
		keyLen := len(keyBytes)

		// Write key length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(keyLen))
		pos += 4

		// Write key data
		copy(result[pos:pos+keyLen], keyBytes)
		pos += keyLen
	}

	// Handle TTL
	if msg.TTL > 0 {
		flags |= hasTTL
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.TTL)
		pos += 8
	}

	// Handle Value
	if msg.Value != nil {
		flags |= hasValue
		valueLen := len(msg.Value)

		// Write value length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(valueLen))
		pos += 4

		// Write value data
		if valueLen > 0 {
			copy(result[pos:pos+valueLen], msg.Value)
			pos += valueLen
		}
	}

	// Handle PrevKey
	if msg.PrevKey != "" {
		flags |= hasPrevKey
		prevBytes := []byte(msg.PrevKey)
		prevLen := len(prevBytes)

		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(prevLen))
		pos += 4

		copy(result[pos:pos+prevLen], prevBytes)
		pos += prevLen
	}

	// Handle NextKey
	if msg.NextKey != "" {
		flags |= hasNextKey
		nextBytes := []byte(msg.NextKey)
		nextLen := len(nextBytes)

		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(nextLen))
		pos += 4

		copy(result[pos:pos+nextLen], nextBytes)
		pos += nextLen
	}

	// Handle Keys
	if msg.Keys != nil {
		flags |= hasKeys

		// Write number of keys
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Keys)))
		pos += 4

		// Write each key with its length
		for _, key := range msg.Keys {
			keyBytes := []byte(key)
			keyLen := len(keyBytes)

			binary.BigEndian.PutUint32(result[pos:pos+4], uint32(keyLen))
			pos += 4

			copy(result[pos:pos+keyLen], keyBytes)
			pos += keyLen
		}
	}

	// Handle Count
	if msg.Count > 0 {
		flags |= hasCount
		binary.BigEndian.PutUint64(result[pos:pos+8], msg.Count)
		pos += 8
	}

	// Handle Err
	if msg.Err != "" {
		flags |= hasErr
		errBytes := []byte(msg.Err)
		errLen := len(errBytes)

		// Write error length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(errLen))
		pos += 4

		// Write error data
		copy(result[pos:pos+errLen], errBytes)
		pos += errLen
	}

	// Handle Meta
	if msg.Meta != nil {
		flags |= hasMeta
		metaLen := len(msg.Meta)

		// Write meta length
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(metaLen))
		pos += 4

		// Write meta data
		if metaLen > 0 {
			copy(result[pos:pos+metaLen], msg.Meta)
			pos += metaLen
		}
	}

	// Handle boolean fields (no payload, flag bits only)
	if msg.Ok {
		flags |= flagOk
	}
	if msg.More {
		flags |= flagMore
	}
	if msg.HasPrev {
		flags |= flagPrev
	}
	if msg.HasNext {
		flags |= flagNext
	}

	// Set flags word after knowing which fields are present
	binary.BigEndian.PutUint16(result[1:3], flags)

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 3 {
		return fmt.Errorf("data too short for message header")
	}

	// Read message type
	msg.MsgType = common.MessageType(data[0])

	// Read flags
	flags := binary.BigEndian.Uint16(data[1:3])

	// Initialize read position
	pos := 3

	// readString reads a length-prefixed string at the current position
	readString := func(field string) (string, error) {
		if pos+4 > len(data) {
			return "", fmt.Errorf("data too short for %s length", field)
		}
		strLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(strLen) > len(data) {
			return "", fmt.Errorf("data too short for %s data", field)
		}
		s := string(data[pos : pos+int(strLen)])
		pos += int(strLen)
		return s, nil
	}

	// Read Key if present
	if flags&hasKey != 0 {
		key, err := readString("key")
		if err != nil {
			return err
		}
		msg.Key = key
	} else {
		msg.Key = ""
	}

	// Read TTL if present
	if flags&hasTTL != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for TTL")
		}

		msg.TTL = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.TTL = 0
	}

	// Read Value if present
	if flags&hasValue != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for value length")
		}

		// Read value length
		valueLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(valueLen) > len(data) {
			return fmt.Errorf("data too short for value data")
		}

		// Read value data - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if msg.Value == nil || cap(msg.Value) < int(valueLen) {
			msg.Value = make([]byte, valueLen)
		} else {
			msg.Value = msg.Value[:valueLen]
		}

		if valueLen > 0 {
			copy(msg.Value, data[pos:pos+int(valueLen)])
		}
		pos += int(valueLen)
	} else {
		msg.Value = nil
	}

	// Read PrevKey if present
	if flags&hasPrevKey != 0 {
		prev, err := readString("prev key")
		if err != nil {
			return err
		}
		msg.PrevKey = prev
	} else {
		msg.PrevKey = ""
	}

	// Read NextKey if present
	if flags&hasNextKey != 0 {
		next, err := readString("next key")
		if err != nil {
			return err
		}
		msg.NextKey = next
	} else {
		msg.NextKey = ""
	}

	// Read Keys if present
	if flags&hasKeys != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for keys count")
		}
		keyCount := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		msg.Keys = make([]string, 0, keyCount)
		for i := uint32(0); i < keyCount; i++ {
			key, err := readString("keys entry")
			if err != nil {
				return err
			}
			msg.Keys = append(msg.Keys, key)
		}
	} else {
		msg.Keys = nil
	}

	// Read Count if present
	if flags&hasCount != 0 {
		if pos+8 > len(data) {
			return fmt.Errorf("data too short for count")
		}

		msg.Count = binary.BigEndian.Uint64(data[pos : pos+8])
		pos += 8
	} else {
		msg.Count = 0
	}

	// Read Err if present
	if flags&hasErr != 0 {
		errStr, err := readString("error")
		if err != nil {
			return err
		}
		msg.Err = errStr
	} else {
		msg.Err = ""
	}

	// Read Meta if present
	if flags&hasMeta != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for meta length")
		}

		// Read meta length
		metaLen := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		if pos+int(metaLen) > len(data) {
			return fmt.Errorf("data too short for meta data")
		}

		// Read metadata - create an empty slice (not nil) if length is 0
		// Allocate only if needed
		if msg.Meta == nil || cap(msg.Meta) < int(metaLen) {
			msg.Meta = make([]byte, metaLen)
		} else {
			msg.Meta = msg.Meta[:metaLen]
		}

		if metaLen > 0 {
			copy(msg.Meta, data[pos:pos+int(metaLen)])
		}
		pos += int(metaLen)
	} else {
		msg.Meta = nil
	}

	// Read boolean fields from the flags word
	msg.Ok = flags&flagOk != 0
	msg.More = flags&flagMore != 0
	msg.HasPrev = flags&flagPrev != 0
	msg.HasNext = flags&flagNext != 0

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 2 bytes for flags
	size := 3

	// Add sizes for fields that require length encoding
	if msg.Key != "" {
		size += 4 + len(msg.Key) // 4 bytes for length + key string
	}
	if msg.TTL > 0 {
		size += 8 // uint64
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value) // 4 bytes for length + value bytes
	}
	if msg.PrevKey != "" {
		size += 4 + len(msg.PrevKey)
	}
	if msg.NextKey != "" {
		size += 4 + len(msg.NextKey)
	}
	if msg.Keys != nil {
		size += 4 // 4 bytes for number of keys
		for _, key := range msg.Keys {
			size += 4 + len(key)
		}
	}
	if msg.Count > 0 {
		size += 8 // uint64
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err) // 4 bytes for length + error string
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta) // 4 bytes for length + meta bytes
	}

	return size
}
