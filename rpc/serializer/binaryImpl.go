package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/maxstore/lib/medium"
	"github.com/ValentinKolb/maxstore/rpc/common"
)

// NewBinarySerializer creates a new serializer using a custom binary format
// optimized for speed and efficiency
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer using a custom binary format
type binarySerializerImpl struct {
}

// Bit flags to indicate which optional fields are present
const (
	hasKey     byte = 1 << 0
	hasValue   byte = 1 << 1
	hasKeys    byte = 1 << 2
	hasOk      byte = 1 << 3
	hasErr     byte = 1 << 4
	hasErrCode byte = 1 << 5
	hasMeta    byte = 1 << 6
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) Serialize(msg common.Message) ([]byte, error) {
	result := make([]byte, b.sizeBytes(msg))

	// Write message type, the flags byte follows once all fields are known
	result[0] = byte(msg.MsgType)
	var flags byte = 0
	pos := 2

	if msg.Key != "" {
		flags |= hasKey
		pos = putBytes(result, pos, []byte(msg.Key))
	}

	if msg.Value != nil {
		flags |= hasValue
		pos = putBytes(result, pos, msg.Value)
	}

	// Keys: count followed by length prefixed entries
	if msg.Keys != nil {
		flags |= hasKeys
		binary.BigEndian.PutUint32(result[pos:pos+4], uint32(len(msg.Keys)))
		pos += 4
		for _, k := range msg.Keys {
			pos = putBytes(result, pos, []byte(k))
		}
	}

	if msg.Ok {
		flags |= hasOk
		result[pos] = 1
		pos += 1
	}

	if msg.Err != "" {
		flags |= hasErr
		pos = putBytes(result, pos, []byte(msg.Err))
	}

	if msg.ErrCode != 0 {
		flags |= hasErrCode
		result[pos] = byte(msg.ErrCode)
		pos += 1
	}

	if msg.Meta != nil {
		flags |= hasMeta
		pos = putBytes(result, pos, msg.Meta)
	}

	result[1] = flags

	return result, nil
}

func (b binarySerializerImpl) Deserialize(data []byte, msg *common.Message) error {
	// Check minimum size (MsgType + flags)
	if len(data) < 2 {
		return fmt.Errorf("data too short for message header")
	}

	msg.MsgType = common.MessageType(data[0])
	flags := data[1]
	pos := 2

	var (
		raw []byte
		err error
	)

	// Key
	msg.Key = ""
	if flags&hasKey != 0 {
		if raw, pos, err = readBytes(data, pos, "key"); err != nil {
			return err
		}
		msg.Key = string(raw)
	}

	// Value, an empty slice (not nil) if the length is 0
	msg.Value = nil
	if flags&hasValue != 0 {
		if raw, pos, err = readBytes(data, pos, "value"); err != nil {
			return err
		}
		msg.Value = make([]byte, len(raw))
		copy(msg.Value, raw)
	}

	// Keys
	msg.Keys = nil
	if flags&hasKeys != 0 {
		if pos+4 > len(data) {
			return fmt.Errorf("data too short for keys count")
		}
		count := binary.BigEndian.Uint32(data[pos : pos+4])
		pos += 4

		// every key needs at least its 4 byte length prefix
		if uint64(count)*4 > uint64(len(data)-pos) {
			return fmt.Errorf("data too short for %d keys", count)
		}

		msg.Keys = make([]string, 0, count)
		for i := uint32(0); i < count; i++ {
			if raw, pos, err = readBytes(data, pos, "keys"); err != nil {
				return err
			}
			msg.Keys = append(msg.Keys, string(raw))
		}
	}

	// Ok
	msg.Ok = false
	if flags&hasOk != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for Ok flag")
		}
		msg.Ok = data[pos] != 0
		pos += 1
	}

	// Err
	msg.Err = ""
	if flags&hasErr != 0 {
		if raw, pos, err = readBytes(data, pos, "error"); err != nil {
			return err
		}
		msg.Err = string(raw)
	}

	// ErrCode
	msg.ErrCode = 0
	if flags&hasErrCode != 0 {
		if pos+1 > len(data) {
			return fmt.Errorf("data too short for error code")
		}
		msg.ErrCode = medium.RetCode(data[pos])
		pos += 1
	}

	// Meta
	msg.Meta = nil
	if flags&hasMeta != 0 {
		if raw, pos, err = readBytes(data, pos, "meta"); err != nil {
			return err
		}
		msg.Meta = make([]byte, len(raw))
		copy(msg.Meta, raw)
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// sizeBytes calculates the total size needed for serialization
func (b binarySerializerImpl) sizeBytes(msg common.Message) int {
	// 1 byte for MsgType + 1 byte for flags
	size := 2

	if msg.Key != "" {
		size += 4 + len(msg.Key)
	}
	if msg.Value != nil {
		size += 4 + len(msg.Value)
	}
	if msg.Keys != nil {
		size += 4
		for _, k := range msg.Keys {
			size += 4 + len(k)
		}
	}
	if msg.Ok {
		size += 1
	}
	if msg.Err != "" {
		size += 4 + len(msg.Err)
	}
	if msg.ErrCode != 0 {
		size += 1
	}
	if msg.Meta != nil {
		size += 4 + len(msg.Meta)
	}

	return size
}

// putBytes writes a 4 byte big endian length followed by p and returns the new position
func putBytes(dst []byte, pos int, p []byte) int {
	binary.BigEndian.PutUint32(dst[pos:pos+4], uint32(len(p)))
	pos += 4
	copy(dst[pos:pos+len(p)], p)
	return pos + len(p)
}

// readBytes reads a length prefixed field starting at pos. The returned slice aliases data.
func readBytes(data []byte, pos int, field string) ([]byte, int, error) {
	if pos+4 > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s length", field)
	}
	n := int(binary.BigEndian.Uint32(data[pos : pos+4]))
	pos += 4
	if n < 0 || pos+n > len(data) {
		return nil, pos, fmt.Errorf("data too short for %s data", field)
	}
	return data[pos : pos+n], pos + n, nil
}
