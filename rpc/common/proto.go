package common

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ValentinKolb/maxstore/lib/medium"
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
	Key   string   `json:"key,omitempty"`   // Used for: Get, Set, Remove
	Value []byte   `json:"value,omitempty"` // Used for: Set (request), Get (response)
	Keys  []string `json:"keys,omitempty"`  // Used for: Keys (response)

	// Response only fields
	Ok      bool           `json:"ok,omitempty"`       // Used for: Get responses
	Err     string         `json:"err,omitempty"`      // Empty if no error, otherwise contains the error message
	ErrCode medium.RetCode `json:"err_code,omitempty"` // Return code of a medium error, zero otherwise

	// Meta information
	Meta []byte `json:"meta,omitempty"` // Unused, can be used for additional Adapters
}

// withError sets the error fields of msg. Medium errors keep their return code so the
// client can rebuild them.
func (msg *Message) withError(err error) *Message {
	if err == nil {
		return msg
	}
	msg.Err = err.Error()
	var mErr *medium.Error
	if errors.As(err, &mErr) {
		msg.ErrCode = mErr.Code
		msg.Err = mErr.Msg
	}
	return msg
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewGetRequest creates a new Get request
func NewGetRequest(key string) *Message {
	return &Message{
		MsgType: MsgTMDGet,
		Key:     key,
	}
}

// NewGetResponse creates a new Get response
func NewGetResponse(value string, ok bool, err error) *Message {
	msg := &Message{
		MsgType: MsgTMDGet,
		Ok:      ok,
	}
	if ok {
		msg.Value = []byte(value)
	}
	return msg.withError(err)
}

// NewSetRequest creates a new Set request
func NewSetRequest(key, value string) *Message {
	return &Message{
		MsgType: MsgTMDSet,
		Key:     key,
		Value:   []byte(value),
	}
}

// NewSetResponse creates a new Set response
func NewSetResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTMDSet,
	}
	return msg.withError(err)
}

// NewRemoveRequest creates a new Remove request
func NewRemoveRequest(key string) *Message {
	return &Message{
		MsgType: MsgTMDRemove,
		Key:     key,
	}
}

// NewRemoveResponse creates a new Remove response
func NewRemoveResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTMDRemove,
	}
	return msg.withError(err)
}

// NewClearRequest creates a new Clear request
func NewClearRequest() *Message {
	return &Message{
		MsgType: MsgTMDClear,
	}
}

// NewClearResponse creates a new Clear response
func NewClearResponse(err error) *Message {
	msg := &Message{
		MsgType: MsgTMDClear,
	}
	return msg.withError(err)
}

// NewKeysRequest creates a new Keys request
func NewKeysRequest() *Message {
	return &Message{
		MsgType: MsgTMDKeys,
	}
}

// NewKeysResponse creates a new Keys response
func NewKeysResponse(keys []string, err error) *Message {
	msg := &Message{
		MsgType: MsgTMDKeys,
		Keys:    keys,
	}
	return msg.withError(err)
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
	return msg.withError(err)
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
	case MsgTMDGet:
		return "get"
	case MsgTMDSet:
		return "set"
	case MsgTMDRemove:
		return "remove"
	case MsgTMDClear:
		return "clear"
	case MsgTMDKeys:
		return "keys"
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

	switch s {
	case "get":
		*t = MsgTMDGet
	case "set":
		*t = MsgTMDSet
	case "remove":
		*t = MsgTMDRemove
	case "clear":
		*t = MsgTMDClear
	case "keys":
		*t = MsgTMDKeys
	case "custom":
		*t = MsgTCustom
	case "error":
		*t = MsgTError
	case "success":
		*t = MsgTSuccess
	case "unknown":
		*t = MsgTUnknown
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

	// IMedium operations

	MsgTMDGet    // Get the value of a key
	MsgTMDSet    // Set a key-value pair
	MsgTMDRemove // Remove a key
	MsgTMDClear  // Remove every key
	MsgTMDKeys   // List all keys

	// Custom operations

	MsgTCustom // Custom operation type
)
