package proton

import (
	"fmt"
	"math"
	"unicode/utf8"
)

// DefaultMaxDepth bounds container nesting when Codec.MaxDepth is unset.
const DefaultMaxDepth = 256

// Codec encodes and decodes ProtoN messages. The zero value is ready to use.
type Codec struct {
	// MaxDepth is the deepest container nesting accepted by Encode and
	// Decode. The root container is at depth 1.
	MaxDepth int
}

var defaultCodec Codec

// Encode encodes v with the default codec.
func Encode(v Value) ([]byte, error) {
	return defaultCodec.Encode(v)
}

// Decode decodes b with the default codec.
func Decode(b []byte) (Value, error) {
	return defaultCodec.Decode(b)
}

func (c Codec) maxDepth() int {
	if c.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return c.MaxDepth
}

// Encode encodes v into a ProtoN message. The root must be a list or object.
// The whole tree is validated before any bits are written.
func (c Codec) Encode(v Value) ([]byte, error) {
	if !v.IsContainer() {
		return nil, fmt.Errorf("%w: got %s", ErrInvalidRoot, v.Type)
	}
	if err := validateValue(v, 1, c.maxDepth()); err != nil {
		return nil, err
	}
	s := getWriter()
	defer putWriter(s)
	s.WriteBits(Version, VersionBits)
	writeValue(s, v)
	return s.Bytes(), nil
}

func validateValue(v Value, depth, maxDepth int) error {
	switch v.Type {
	case TypeNull, TypeBool, TypeInt, TypeFloat:
		return nil
	case TypeString:
		return validateString(v.Str)
	case TypeList:
		if depth > maxDepth {
			return fmt.Errorf("%w: limit %d", ErrDepthExceeded, maxDepth)
		}
		if len(v.List) > MaxLength {
			return fmt.Errorf("%w: list has %d elements", ErrTooLong, len(v.List))
		}
		for i, elem := range v.List {
			if err := validateValue(elem, depth+1, maxDepth); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		return nil
	case TypeObject:
		if depth > maxDepth {
			return fmt.Errorf("%w: limit %d", ErrDepthExceeded, maxDepth)
		}
		if len(v.Members) > MaxLength {
			return fmt.Errorf("%w: object has %d members", ErrTooLong, len(v.Members))
		}
		seen := make(map[string]struct{}, len(v.Members))
		for _, m := range v.Members {
			if _, dup := seen[m.Key]; dup {
				return fmt.Errorf("%w: %q", ErrDuplicateKey, m.Key)
			}
			seen[m.Key] = struct{}{}
			if err := validateString(m.Key); err != nil {
				return fmt.Errorf("key %q: %w", m.Key, err)
			}
			if err := validateValue(m.Value, depth+1, maxDepth); err != nil {
				return fmt.Errorf("%q: %w", m.Key, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, v.Type)
	}
}

func validateString(s string) error {
	if len(s) > MaxLength {
		return fmt.Errorf("%w: string is %d bytes", ErrTooLong, len(s))
	}
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	return nil
}

// writeValue emits a validated value depth-first.
func writeValue(s *BitStream, v Value) {
	switch v.Type {
	case TypeNull:
		writeTag(s, TagNull)
	case TypeBool:
		writeTag(s, TagBool)
		if v.Bool {
			s.WriteBits(1, 1)
		} else {
			s.WriteBits(0, 1)
		}
	case TypeInt:
		writeTag(s, TagInt)
		writeInt(s, v.I64)
	case TypeFloat:
		writeTag(s, TagFloat)
		writeFloat(s, v.F64)
	case TypeString:
		writeTag(s, TagString)
		writeString(s, v.Str)
	case TypeList:
		writeTag(s, TagList)
		s.WriteBits(uint64(len(v.List)), LengthBits)
		for _, elem := range v.List {
			writeValue(s, elem)
		}
	case TypeObject:
		writeTag(s, TagObject)
		s.WriteBits(uint64(len(v.Members)), LengthBits)
		for _, m := range v.Members {
			writeTag(s, TagPair)
			writeString(s, m.Key)
			writeValue(s, m.Value)
		}
	}
}

func writeTag(s *BitStream, t Tag) {
	s.WriteBits(uint64(t), TagBits)
}

func writeString(s *BitStream, str string) {
	s.WriteBits(uint64(len(str)), LengthBits)
	s.WriteBytes([]byte(str))
}

// intWidthSelector returns the selector of the narrowest width whose signed
// range covers the magnitude of i.
func intWidthSelector(i int64) uint64 {
	mag := uint64(i)
	if i < 0 {
		mag = -mag
	}
	switch {
	case mag <= math.MaxInt8:
		return 0
	case mag <= math.MaxInt16:
		return 1
	case mag <= math.MaxInt32:
		return 2
	default:
		return 3
	}
}

func writeInt(s *BitStream, i int64) {
	sel := intWidthSelector(i)
	width := intWidths[sel]
	s.WriteBits(sel, IntWidthBits)
	s.WriteBits(uint64(i), width)
}

func writeFloat(s *BitStream, f float64) {
	if short := formatFloat(f); len(short) < shortFloatMax {
		s.WriteBits(floatModeShort, FloatModeBits)
		s.WriteBits(uint64(len(short)), ShortFloatBits)
		s.WriteBytes([]byte(short))
		return
	}
	s.WriteBits(floatModeIEEE, FloatModeBits)
	s.WriteBits(math.Float64bits(f), 64)
}
