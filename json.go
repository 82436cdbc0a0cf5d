package proton

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/delaneyj/toolbelt/bytebufferpool"
	"github.com/minio/simdjson-go"
)

// FromJSON parses a JSON document into a Value. Member order is preserved.
// Integers that do not fit int64 fail with ErrIntegerOverflow.
func FromJSON(data []byte) (Value, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Value{}, fmt.Errorf("json input is empty")
	}
	if (trimmed[0] != '{' && trimmed[0] != '[') || !simdjson.SupportedCPU() {
		return fromJSONStream(trimmed)
	}
	parsed, err := simdjson.Parse(trimmed, nil)
	if err != nil {
		return Value{}, err
	}
	it := parsed.Iter()
	if it.Advance() != simdjson.TypeRoot {
		return Value{}, fmt.Errorf("json root not found")
	}
	typ, root, err := it.Root(nil)
	if err != nil {
		return Value{}, err
	}
	return valueFromJSONIter(typ, root)
}

func valueFromJSONIter(typ simdjson.Type, it *simdjson.Iter) (Value, error) {
	switch typ {
	case simdjson.TypeNull:
		return Null(), nil
	case simdjson.TypeBool:
		v, err := it.Bool()
		if err != nil {
			return Value{}, err
		}
		return Bool(v), nil
	case simdjson.TypeInt:
		v, err := it.Int()
		if err != nil {
			return Value{}, err
		}
		return Int(v), nil
	case simdjson.TypeUint:
		v, err := it.Uint()
		if err != nil {
			return Value{}, err
		}
		if v > math.MaxInt64 {
			return Value{}, fmt.Errorf("%w: %d", ErrIntegerOverflow, v)
		}
		return Int(int64(v)), nil
	case simdjson.TypeFloat:
		v, flags, err := it.FloatFlags()
		if err != nil {
			return Value{}, err
		}
		if flags.Contains(simdjson.FloatOverflowedInteger) {
			return Value{}, fmt.Errorf("%w: %g", ErrIntegerOverflow, v)
		}
		if math.IsInf(v, 0) || math.IsNaN(v) {
			return Value{}, fmt.Errorf("json number out of range")
		}
		return Float(v), nil
	case simdjson.TypeString:
		b, err := it.StringBytes()
		if err != nil {
			return Value{}, err
		}
		return String(string(b)), nil
	case simdjson.TypeObject:
		obj, err := it.Object(nil)
		if err != nil {
			return Value{}, err
		}
		var members memberSet
		var parseErr error
		err = obj.ForEach(func(key []byte, elem simdjson.Iter) {
			if parseErr != nil {
				return
			}
			val, err := valueFromJSONIter(elem.Type(), &elem)
			if err != nil {
				parseErr = err
				return
			}
			members.set(string(key), val)
		}, nil)
		if err != nil {
			return Value{}, err
		}
		if parseErr != nil {
			return Value{}, parseErr
		}
		return Object(members.members...), nil
	case simdjson.TypeArray:
		arr, err := it.Array(nil)
		if err != nil {
			return Value{}, err
		}
		elems := []Value{}
		iter := arr.Iter()
		for {
			t := iter.Advance()
			if t == simdjson.TypeNone {
				break
			}
			elem := iter
			val, err := valueFromJSONIter(t, &elem)
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, val)
		}
		return List(elems...), nil
	default:
		return Value{}, fmt.Errorf("unsupported json type: %v", typ)
	}
}

// memberSet collects object members in document order. JSON allows repeated
// keys; the last value wins in the position of the first, as in encoding/json.
type memberSet struct {
	members []Member
	index   map[string]int
}

func (m *memberSet) set(key string, v Value) {
	if i, ok := m.index[key]; ok {
		m.members[i].Value = v
		return
	}
	if m.index == nil {
		m.index = make(map[string]int)
	}
	m.index[key] = len(m.members)
	m.members = append(m.members, Member{Key: key, Value: v})
}

// fromJSONStream is the order-preserving encoding/json path used for scalar
// documents and on CPUs simdjson-go does not support.
func fromJSONStream(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeJSONToken(dec)
	if err != nil {
		return Value{}, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("invalid character after top-level value")
	}
	return v, nil
}

func decodeJSONToken(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		return numberValue(t)
	case string:
		return String(t), nil
	case json.Delim:
		switch t {
		case '[':
			elems := []Value{}
			for dec.More() {
				elem, err := decodeJSONToken(dec)
				if err != nil {
					return Value{}, err
				}
				elems = append(elems, elem)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return List(elems...), nil
		case '{':
			var members memberSet
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return Value{}, fmt.Errorf("invalid object key %v", keyTok)
				}
				val, err := decodeJSONToken(dec)
				if err != nil {
					return Value{}, err
				}
				members.set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Object(members.members...), nil
		}
	}
	return Value{}, fmt.Errorf("unexpected json token %v", tok)
}

func numberValue(n json.Number) (Value, error) {
	s := n.String()
	if !strings.ContainsAny(s, ".eE") {
		i, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return Int(i), nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return Value{}, fmt.Errorf("%w: %s", ErrIntegerOverflow, s)
		}
		return Value{}, fmt.Errorf("invalid json number: %s", s)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Value{}, fmt.Errorf("invalid json number: %s", s)
	}
	return Float(f), nil
}

// ToJSON renders v as compact JSON. Floats without a fraction keep a ".0"
// suffix so they parse back as floats.
func ToJSON(v Value) (string, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	out, err := AppendJSON(buf.Bytes()[:0], v)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// AppendJSON appends the compact JSON form of v to dst.
func AppendJSON(dst []byte, v Value) ([]byte, error) {
	switch v.Type {
	case TypeNull:
		return append(dst, "null"...), nil
	case TypeBool:
		return strconv.AppendBool(dst, v.Bool), nil
	case TypeInt:
		return strconv.AppendInt(dst, v.I64, 10), nil
	case TypeFloat:
		if math.IsNaN(v.F64) || math.IsInf(v.F64, 0) {
			return dst, fmt.Errorf("%w: %v has no json form", ErrUnsupportedType, v.F64)
		}
		start := len(dst)
		dst = strconv.AppendFloat(dst, v.F64, 'g', -1, 64)
		if !bytes.ContainsAny(dst[start:], ".eE") {
			dst = append(dst, ".0"...)
		}
		return dst, nil
	case TypeString:
		return appendJSONString(dst, v.Str), nil
	case TypeList:
		dst = append(dst, '[')
		for i, elem := range v.List {
			if i > 0 {
				dst = append(dst, ',')
			}
			var err error
			if dst, err = AppendJSON(dst, elem); err != nil {
				return dst, err
			}
		}
		return append(dst, ']'), nil
	case TypeObject:
		dst = append(dst, '{')
		for i, m := range v.Members {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendJSONString(dst, m.Key)
			dst = append(dst, ':')
			var err error
			if dst, err = AppendJSON(dst, m.Value); err != nil {
				return dst, err
			}
		}
		return append(dst, '}'), nil
	default:
		return dst, fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type)
	}
}

func appendJSONString(dst []byte, s string) []byte {
	dst = append(dst, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"', '\\':
			dst = append(dst, '\\', c)
		case '\b':
			dst = append(dst, `\b`...)
		case '\f':
			dst = append(dst, `\f`...)
		case '\n':
			dst = append(dst, `\n`...)
		case '\r':
			dst = append(dst, `\r`...)
		case '\t':
			dst = append(dst, `\t`...)
		default:
			if c < 0x20 {
				dst = append(dst, `\u00`...)
				dst = append(dst, hexDigit(c>>4), hexDigit(c&0xF))
			} else {
				dst = append(dst, c)
			}
		}
	}
	return append(dst, '"')
}

func hexDigit(n byte) byte {
	if n < 10 {
		return '0' + n
	}
	return 'A' + (n - 10)
}
