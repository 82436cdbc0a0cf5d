package proton

import (
	"fmt"
	"math"
)

// ValueType identifies the variant held by a Value.
type ValueType uint8

const (
	TypeNull ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeString
	TypeList
	TypeObject
)

var typeTags = [...]Tag{
	TypeNull:   TagNull,
	TypeBool:   TagBool,
	TypeInt:    TagInt,
	TypeFloat:  TagFloat,
	TypeString: TagString,
	TypeList:   TagList,
	TypeObject: TagObject,
}

// Tag returns the wire tag for t. The second result is false for unknown types.
func (t ValueType) Tag() (Tag, bool) {
	if int(t) >= len(typeTags) {
		return 0, false
	}
	return typeTags[t], true
}

func (t ValueType) String() string {
	tag, ok := t.Tag()
	if !ok {
		return fmt.Sprintf("ValueType(%d)", uint8(t))
	}
	return tag.String()
}

// Value is a JSON-like value: null, bool, int, float, string, list or object.
// Only the fields matching Type are meaningful.
type Value struct {
	Type    ValueType
	Bool    bool
	I64     int64
	F64     float64
	Str     string
	List    []Value
	Members []Member
}

// Member is a keyed object entry.
type Member struct {
	Key   string
	Value Value
}

func Null() Value { return Value{Type: TypeNull} }

func Bool(b bool) Value { return Value{Type: TypeBool, Bool: b} }

func Int(i int64) Value { return Value{Type: TypeInt, I64: i} }

func Float(f float64) Value { return Value{Type: TypeFloat, F64: f} }

func String(s string) Value { return Value{Type: TypeString, Str: s} }

// List returns a list value holding elems.
func List(elems ...Value) Value {
	if elems == nil {
		elems = []Value{}
	}
	return Value{Type: TypeList, List: elems}
}

// Object returns an object value holding members in order.
func Object(members ...Member) Value {
	if members == nil {
		members = []Member{}
	}
	return Value{Type: TypeObject, Members: members}
}

// Pair returns an object member.
func Pair(key string, v Value) Member {
	return Member{Key: key, Value: v}
}

// IsContainer reports whether v is a list or object.
func (v Value) IsContainer() bool {
	return v.Type == TypeList || v.Type == TypeObject
}

// Len returns the element count of a list, the member count of an object,
// the byte length of a string and zero otherwise.
func (v Value) Len() int {
	switch v.Type {
	case TypeList:
		return len(v.List)
	case TypeObject:
		return len(v.Members)
	case TypeString:
		return len(v.Str)
	default:
		return 0
	}
}

// Equal reports whether v and o are structurally equal. Object member order
// is ignored; NaN floats compare equal to each other.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case TypeNull:
		return true
	case TypeBool:
		return v.Bool == o.Bool
	case TypeInt:
		return v.I64 == o.I64
	case TypeFloat:
		return v.F64 == o.F64 || (math.IsNaN(v.F64) && math.IsNaN(o.F64))
	case TypeString:
		return v.Str == o.Str
	case TypeList:
		if len(v.List) != len(o.List) {
			return false
		}
		for i := range v.List {
			if !v.List[i].Equal(o.List[i]) {
				return false
			}
		}
		return true
	case TypeObject:
		if len(v.Members) != len(o.Members) {
			return false
		}
		for _, m := range v.Members {
			other, ok := o.Get(m.Key)
			if !ok || !m.Value.Equal(other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v as compact JSON for debugging.
func (v Value) String() string {
	s, err := ToJSON(v)
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.Type, err)
	}
	return s
}
