package proton

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
)

// FromGo converts plain Go data into a Value. It accepts nil, booleans,
// integers, floats, strings, json.Number, Value, and slices, arrays, maps
// with string keys and pointers built from those. Map members are sorted by
// key so the encoding is deterministic.
func FromGo(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case json.Number:
		return numberValue(t)
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(rv reflect.Value) (Value, error) {
	switch rv.Kind() {
	case reflect.Invalid:
		return Null(), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrIntegerOverflow, u)
		}
		return Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return Float(rv.Float()), nil
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return Null(), nil
		}
		return FromGo(rv.Elem().Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return Null(), nil
		}
		elems := make([]Value, rv.Len())
		for i := range elems {
			elem, err := FromGo(rv.Index(i).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			elems[i] = elem
		}
		return List(elems...), nil
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return Value{}, fmt.Errorf("%w: map key %s", ErrUnsupportedType, rv.Type().Key())
		}
		if rv.IsNil() {
			return Null(), nil
		}
		keys := rv.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		members := make([]Member, len(keys))
		for i, k := range keys {
			val, err := FromGo(rv.MapIndex(k).Interface())
			if err != nil {
				return Value{}, fmt.Errorf("%q: %w", k.String(), err)
			}
			members[i] = Member{Key: k.String(), Value: val}
		}
		return Object(members...), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedType, rv.Type())
	}
}
