package entry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Clock returns the current time as Unix milliseconds.
type Clock func() int64

// SystemClock is the default Clock backed by the wall clock.
func SystemClock() int64 {
	return time.Now().UnixMilli()
}

// Entry is the decoded form of a stored record.
type Entry struct {
	// Value is the raw JSON of the stored value. It is never nil after Decode.
	Value json.RawMessage `json:"value"`
	// Expire is the absolute deadline in Unix milliseconds, nil for permanent entries.
	Expire *int64 `json:"expire,omitempty"`
}

// Expired reports whether the entry is past its deadline at now.
// Entries without a deadline (or with a non-positive one) never expire.
func (e Entry) Expired(now int64) bool {
	return e.Expire != nil && *e.Expire > 0 && now >= *e.Expire
}

// Unmarshal decodes the stored value into out.
func (e Entry) Unmarshal(out any) error {
	if err := json.Unmarshal(e.valueOrNull(), out); err != nil {
		return &DecodeError{Msg: fmt.Sprintf("value does not fit %T", out), Err: err}
	}
	return nil
}

func (e Entry) valueOrNull() json.RawMessage {
	if len(e.Value) == 0 {
		return nullValue
	}
	return e.Value
}

var nullValue = json.RawMessage("null")

// --------------------------------------------------------------------------
// Encoding
// --------------------------------------------------------------------------

// Encode serializes value into the stored string form. A positive ttl sets the
// deadline to now() plus ttl, rounded up to whole milliseconds; ttl <= 0 writes a
// permanent entry without an expire field.
func Encode(value any, ttl time.Duration, now Clock) (string, error) {
	raw, err := marshalValue(value)
	if err != nil {
		return "", err
	}

	e := Entry{Value: raw}
	if ttl > 0 {
		if now == nil {
			now = SystemClock
		}
		deadline := now() + durationToMillis(ttl)
		e.Expire = &deadline
	}

	out, err := json.Marshal(e)
	if err != nil {
		return "", &EncodeError{Msg: "failed to encode entry", Err: err}
	}
	return string(out), nil
}

// marshalValue turns value into JSON. json.RawMessage values are validated and
// passed through unchanged.
func marshalValue(value any) (json.RawMessage, error) {
	if raw, ok := value.(json.RawMessage); ok {
		if len(raw) == 0 {
			return nullValue, nil
		}
		if !json.Valid(raw) {
			return nil, &EncodeError{Msg: "raw value is not valid JSON"}
		}
		return raw, nil
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &EncodeError{Msg: fmt.Sprintf("cannot encode value of type %T", value), Err: err}
	}
	return raw, nil
}

func durationToMillis(d time.Duration) int64 {
	ms := int64(d / time.Millisecond)
	if d%time.Millisecond != 0 {
		ms++
	}
	return ms
}

// --------------------------------------------------------------------------
// Decoding
// --------------------------------------------------------------------------

// Decode parses a stored string. The input must be a JSON object; a missing value
// field decodes as JSON null and expire, when present, must be an integer.
func Decode(raw string) (Entry, error) {
	var fields map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	if err := dec.Decode(&fields); err != nil {
		return Entry{}, &DecodeError{Msg: "stored data is not a JSON object", Err: err}
	}
	if fields == nil {
		return Entry{}, &DecodeError{Msg: "stored data is null"}
	}
	if dec.More() {
		return Entry{}, &DecodeError{Msg: "trailing data after entry"}
	}

	e := Entry{Value: fields["value"]}
	if len(e.Value) == 0 {
		e.Value = nullValue
	}

	if expRaw, ok := fields["expire"]; ok && !bytes.Equal(expRaw, nullValue) {
		var n json.Number
		if expRaw[0] == '"' {
			return Entry{}, &DecodeError{Msg: "expire must be an integer, got a string"}
		}
		if err := json.Unmarshal(expRaw, &n); err != nil {
			return Entry{}, &DecodeError{Msg: "expire is not a number", Err: err}
		}
		deadline, err := n.Int64()
		if err != nil {
			return Entry{}, &DecodeError{Msg: fmt.Sprintf("expire %s is not an integer", n), Err: err}
		}
		e.Expire = &deadline
	}

	return e, nil
}
