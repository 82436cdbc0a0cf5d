package proton

import (
	"math"
	"strconv"
	"strings"
)

// Get returns the value of the member named key. It returns false when v is
// not an object or has no such member.
func (v Value) Get(key string) (Value, bool) {
	if v.Type != TypeObject {
		return Value{}, false
	}
	for _, m := range v.Members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// Index returns the i-th list element.
func (v Value) Index(i int) (Value, bool) {
	if v.Type != TypeList || i < 0 || i >= len(v.List) {
		return Value{}, false
	}
	return v.List[i], true
}

// Keys returns the object member keys in encoding order.
func (v Value) Keys() []string {
	if v.Type != TypeObject {
		return nil
	}
	keys := make([]string, len(v.Members))
	for i, m := range v.Members {
		keys[i] = m.Key
	}
	return keys
}

// AsInt64 returns the value as int64 when it can be reasonably converted.
// Numeric and text values are converted using best-effort parsing.
func (v Value) AsInt64() (int64, bool) {
	switch v.Type {
	case TypeInt:
		return v.I64, true
	case TypeFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return 0, false
		}
		if v.F64 < math.MinInt64 || v.F64 >= math.MaxInt64 {
			return 0, false
		}
		return int64(v.F64), true
	case TypeString:
		return parseInt64(v.Str)
	case TypeBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsFloat64 returns the value as float64 when it can be reasonably converted.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Type {
	case TypeFloat:
		return v.F64, true
	case TypeInt:
		return float64(v.I64), true
	case TypeString:
		return parseFloat64(v.Str)
	case TypeBool:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// AsString returns the value as string when it can be reasonably converted.
// Numeric and boolean values are formatted as their scalar representations.
func (v Value) AsString() (string, bool) {
	switch v.Type {
	case TypeString:
		return v.Str, true
	case TypeInt:
		return strconv.FormatInt(v.I64, 10), true
	case TypeFloat:
		return formatFloat(v.F64), true
	case TypeBool:
		return strconv.FormatBool(v.Bool), true
	default:
		return "", false
	}
}

// Interface converts v into plain Go values: nil, bool, int64, float64,
// string, []any and map[string]any.
func (v Value) Interface() any {
	switch v.Type {
	case TypeBool:
		return v.Bool
	case TypeInt:
		return v.I64
	case TypeFloat:
		return v.F64
	case TypeString:
		return v.Str
	case TypeList:
		out := make([]any, len(v.List))
		for i, elem := range v.List {
			out[i] = elem.Interface()
		}
		return out
	case TypeObject:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	default:
		return nil
	}
}

func parseInt64(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

func parseFloat64(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// formatFloat is the canonical decimal form used by the short float encoding.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
