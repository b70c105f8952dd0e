package ir

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClassMismatch is returned when a payload holds a different class than
// the caller asked for.
var ErrClassMismatch = errors.New("element class mismatch")

// envelope frames every persisted element: the class id first, then the
// element's own fields. Field order is the declaration order of the
// element's wire struct.
type envelope struct {
	Class   ClassID         `json:"class"`
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// Encode serializes v as an element of class.
func Encode(class ClassID, v any) ([]byte, error) {
	data, err := marshalNoEscape(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", class, err)
	}
	out, err := marshalNoEscape(envelope{Class: class, Version: SerialVersion, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", class, err)
	}
	return out, nil
}

// Decode deserializes a payload of class want into v.
func Decode(payload []byte, want ClassID, v any) error {
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return fmt.Errorf("decode %s: %w", want, err)
	}
	if env.Class != want {
		return fmt.Errorf("decode %s: got %s: %w", want, env.Class, ErrClassMismatch)
	}
	if env.Version != SerialVersion {
		return fmt.Errorf("decode %s: unsupported version %d", want, env.Version)
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return fmt.Errorf("decode %s: %w", want, err)
	}
	return nil
}

// PeekClass returns the class id of a payload without decoding its data.
func PeekClass(payload []byte) (ClassID, error) {
	var env struct {
		Class ClassID `json:"class"`
	}
	if err := json.Unmarshal(payload, &env); err != nil {
		return 0, fmt.Errorf("peek class: %w", err)
	}
	return env.Class, nil
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
