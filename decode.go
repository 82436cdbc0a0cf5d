package proton

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"unicode/utf8"
)

// Smallest encodings of a list element (a bare tag) and of an object member
// (pair tag, empty key, bare value tag). Declared counts are checked against
// them before anything is allocated.
const (
	minElementBits = TagBits
	minMemberBits  = TagBits + LengthBits + TagBits
)

// Decode decodes a ProtoN message. On failure no partial value is returned.
func (c Codec) Decode(b []byte) (Value, error) {
	d := decoder{s: NewBitReader(b), maxDepth: c.maxDepth()}
	v, err := d.decodeMessage()
	if err != nil {
		return Value{}, err
	}
	return v, nil
}

type decoder struct {
	s        *BitStream
	maxDepth int
}

func (d *decoder) decodeMessage() (Value, error) {
	version, err := d.read(VersionBits)
	if err != nil {
		return Value{}, err
	}
	if version != Version {
		return Value{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}
	v, err := d.decodeContainer(1)
	if err != nil {
		return Value{}, err
	}
	if err := d.checkPadding(); err != nil {
		return Value{}, err
	}
	return v, nil
}

// checkPadding accepts only the zero fill written by BitStream.Flush.
func (d *decoder) checkPadding() error {
	rest := d.s.Remaining()
	if rest >= 8 {
		return fmt.Errorf("%w: %d trailing bits", ErrMalformedMessage, rest)
	}
	pad, err := d.read(uint(rest))
	if err != nil {
		return err
	}
	if pad != 0 {
		return fmt.Errorf("%w: non-zero padding", ErrMalformedMessage)
	}
	return nil
}

// read wraps exhaustion as a malformed message.
func (d *decoder) read(width uint) (uint64, error) {
	v, err := d.s.ReadBits(width)
	if err != nil {
		return 0, malformed(err)
	}
	return v, nil
}

func malformed(err error) error {
	if errors.Is(err, ErrMalformedMessage) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrMalformedMessage, err)
}

func (d *decoder) readTag() (Tag, error) {
	t, err := d.read(TagBits)
	return Tag(t), err
}

// peekContainer reports whether the next tag opens a container without consuming it.
func (d *decoder) peekContainer() (bool, error) {
	t, err := d.s.Peek(TagBits)
	if err != nil {
		return false, malformed(err)
	}
	return Tag(t).IsContainer(), nil
}

// decodeElement dispatches on the next tag to container or primitive decoding.
func (d *decoder) decodeElement(depth int) (Value, error) {
	container, err := d.peekContainer()
	if err != nil {
		return Value{}, err
	}
	if container {
		return d.decodeContainer(depth)
	}
	return d.decodePrimitive()
}

func (d *decoder) readCount(minBits int) (int, error) {
	n, err := d.read(LengthBits)
	if err != nil {
		return 0, err
	}
	if int(n)*minBits > d.s.Remaining() {
		return 0, fmt.Errorf("%w: count %d exceeds remaining %d bits", ErrMalformedMessage, n, d.s.Remaining())
	}
	return int(n), nil
}

func (d *decoder) decodeContainer(depth int) (Value, error) {
	if depth > d.maxDepth {
		return Value{}, fmt.Errorf("%w: %w: limit %d", ErrMalformedMessage, ErrDepthExceeded, d.maxDepth)
	}
	tag, err := d.readTag()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case TagList:
		n, err := d.readCount(minElementBits)
		if err != nil {
			return Value{}, err
		}
		elems := make([]Value, n)
		for i := range elems {
			elem, err := d.decodeElement(depth + 1)
			if err != nil {
				return Value{}, err
			}
			elems[i] = elem
		}
		return Value{Type: TypeList, List: elems}, nil
	case TagObject:
		n, err := d.readCount(minMemberBits)
		if err != nil {
			return Value{}, err
		}
		members := make([]Member, n)
		seen := make(map[string]struct{}, n)
		for i := range members {
			pair, err := d.readTag()
			if err != nil {
				return Value{}, err
			}
			if pair != TagPair {
				return Value{}, fmt.Errorf("%w: expected pair, got %s", ErrMalformedMessage, pair)
			}
			key, err := d.readString()
			if err != nil {
				return Value{}, err
			}
			if _, dup := seen[key]; dup {
				return Value{}, fmt.Errorf("%w: duplicate key %q", ErrMalformedMessage, key)
			}
			seen[key] = struct{}{}
			val, err := d.decodeElement(depth + 1)
			if err != nil {
				return Value{}, err
			}
			members[i] = Member{Key: key, Value: val}
		}
		return Value{Type: TypeObject, Members: members}, nil
	default:
		return Value{}, fmt.Errorf("%w: expected container, got %s", ErrMalformedMessage, tag)
	}
}

func (d *decoder) decodePrimitive() (Value, error) {
	tag, err := d.readTag()
	if err != nil {
		return Value{}, err
	}
	switch tag {
	case TagNull:
		return Null(), nil
	case TagBool:
		b, err := d.read(1)
		if err != nil {
			return Value{}, err
		}
		return Bool(b == 1), nil
	case TagInt:
		i, err := d.readInt()
		if err != nil {
			return Value{}, err
		}
		return Int(i), nil
	case TagFloat:
		f, err := d.readFloat()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case TagString:
		s, err := d.readString()
		if err != nil {
			return Value{}, err
		}
		return String(s), nil
	default:
		return Value{}, fmt.Errorf("%w: unexpected %s tag", ErrMalformedMessage, tag)
	}
}

func (d *decoder) readString() (string, error) {
	n, err := d.read(LengthBits)
	if err != nil {
		return "", err
	}
	b, err := d.s.ReadBytes(int(n))
	if err != nil {
		return "", malformed(err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %w", ErrMalformedMessage, ErrInvalidUTF8)
	}
	return string(b), nil
}

func (d *decoder) readInt() (int64, error) {
	sel, err := d.read(IntWidthBits)
	if err != nil {
		return 0, err
	}
	width := intWidths[sel]
	raw, err := d.read(width)
	if err != nil {
		return 0, err
	}
	// sign-extend from width bits
	shift := 64 - width
	return int64(raw<<shift) >> shift, nil
}

func (d *decoder) readFloat() (float64, error) {
	mode, err := d.read(FloatModeBits)
	if err != nil {
		return 0, err
	}
	if mode == floatModeIEEE {
		bits, err := d.read(64)
		if err != nil {
			return 0, err
		}
		return math.Float64frombits(bits), nil
	}
	n, err := d.read(ShortFloatBits)
	if err != nil {
		return 0, err
	}
	b, err := d.s.ReadBytes(int(n))
	if err != nil {
		return 0, malformed(err)
	}
	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: short float %q", ErrMalformedMessage, b)
	}
	return f, nil
}
