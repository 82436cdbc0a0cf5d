package proton

import (
	"fmt"
	"math/big"
	"reflect"
	"unicode/utf8"

	"github.com/fxamacker/cbor/v2"
)

var (
	cborDecMode cbor.DecMode
	cborEncMode cbor.EncMode
)

func init() {
	dm, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any{}),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	cborDecMode = dm
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	cborEncMode = em
}

// FromCBOR converts a CBOR data item into a Value. Text strings, numbers,
// booleans, null, arrays and maps with text keys are supported; byte strings
// holding valid UTF-8 become strings.
func FromCBOR(data []byte) (Value, error) {
	var v any
	if err := cborDecMode.Unmarshal(data, &v); err != nil {
		return Value{}, err
	}
	return fromCBORItem(v)
}

func fromCBORItem(v any) (Value, error) {
	switch t := v.(type) {
	case []byte:
		if !utf8.Valid(t) {
			return Value{}, fmt.Errorf("%w: cbor byte string", ErrUnsupportedType)
		}
		return String(string(t)), nil
	case []any:
		elems := make([]Value, len(t))
		for i, elem := range t {
			val, err := fromCBORItem(elem)
			if err != nil {
				return Value{}, err
			}
			elems[i] = val
		}
		return List(elems...), nil
	case map[string]any:
		obj := make(map[string]Value, len(t))
		for k, elem := range t {
			val, err := fromCBORItem(elem)
			if err != nil {
				return Value{}, err
			}
			obj[k] = val
		}
		return FromGo(obj)
	case big.Int:
		if !t.IsInt64() {
			return Value{}, fmt.Errorf("%w: %s", ErrIntegerOverflow, t.String())
		}
		return Int(t.Int64()), nil
	case cbor.Tag, cbor.RawTag, cbor.SimpleValue:
		return Value{}, fmt.Errorf("%w: cbor %T", ErrUnsupportedType, v)
	default:
		return FromGo(v)
	}
}

// ToCBOR renders v as a deterministic CBOR data item.
func ToCBOR(v Value) ([]byte, error) {
	return cborEncMode.Marshal(v.Interface())
}
