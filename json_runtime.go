package proton

import (
	stdjson "encoding/json"
	"fmt"
)

// Marshal encodes a Go value into a ProtoN message using JSON semantics.
// The value must marshal to a JSON array or object.
func Marshal(v any) ([]byte, error) {
	data, err := stdjson.Marshal(v)
	if err != nil {
		return nil, err
	}
	val, err := FromJSON(data)
	if err != nil {
		return nil, err
	}
	return Encode(val)
}

// Unmarshal decodes a ProtoN message into a Go value using JSON semantics.
func Unmarshal(msg []byte, out any) error {
	if out == nil {
		return fmt.Errorf("nil target")
	}
	val, err := Decode(msg)
	if err != nil {
		return err
	}
	return UnmarshalValue(val, out)
}

// UnmarshalValue stores v into out using JSON semantics.
func UnmarshalValue(v Value, out any) error {
	if out == nil {
		return fmt.Errorf("nil target")
	}
	data, err := AppendJSON(nil, v)
	if err != nil {
		return err
	}
	return stdjson.Unmarshal(data, out)
}
