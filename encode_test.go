package proton

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// wireVectors are hand-assembled messages shared by the encode and decode tests.
var wireVectors = []struct {
	name string
	val  Value
	msg  []byte
}{
	{"empty list", List(), []byte{0x70, 0x00, 0x00}},
	{"int and null", List(Int(5), Null()), []byte{0x70, 0x00, 0x12, 0x01, 0x40}},
	{"object bool", Object(Pair("a", Bool(true))), []byte{0x78, 0x00, 0x0D, 0x00, 0x01, 0x61, 0x90}},
	{"short float", List(Float(1.5)), []byte{0x70, 0x00, 0x0B, 0x33, 0x12, 0xE3, 0x50}},
	{"nested empty object", List(Object()), []byte{0x70, 0x00, 0x0F, 0x00, 0x00}},
}

func TestEncodeWireVectors(t *testing.T) {
	for _, tc := range wireVectors {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Encode(tc.val)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			if diff := cmp.Diff(tc.msg, got); diff != "" {
				t.Fatalf("message mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

// firstElement positions a reader past the version, list tag and count of a
// single-element list message and returns the element's tag.
func firstElement(t *testing.T, msg []byte) (*BitStream, Tag) {
	t.Helper()
	r := NewBitReader(msg)
	if _, err := r.ReadBits(VersionBits + TagBits + LengthBits); err != nil {
		t.Fatalf("header: %v", err)
	}
	tag, err := r.ReadBits(TagBits)
	if err != nil {
		t.Fatalf("element tag: %v", err)
	}
	return r, Tag(tag)
}

func TestEncodeIntWidthSelection(t *testing.T) {
	cases := []struct {
		in    int64
		sel   uint64
		width uint
	}{
		{0, 0, 8},
		{127, 0, 8},
		{-127, 0, 8},
		{128, 1, 16},
		{-128, 1, 16},
		{32767, 1, 16},
		{32768, 2, 32},
		{-32768, 2, 32},
		{2147483647, 2, 32},
		{2147483648, 3, 64},
		{math.MaxInt64, 3, 64},
		{math.MinInt64, 3, 64},
	}
	for _, tc := range cases {
		msg, err := Encode(List(Int(tc.in)))
		if err != nil {
			t.Fatalf("encode %d: %v", tc.in, err)
		}
		r, tag := firstElement(t, msg)
		if tag != TagInt {
			t.Fatalf("%d: tag = %s", tc.in, tag)
		}
		sel, err := r.ReadBits(IntWidthBits)
		if err != nil {
			t.Fatal(err)
		}
		if sel != tc.sel {
			t.Fatalf("%d: selector = %d, want %d", tc.in, sel, tc.sel)
		}
		raw, err := r.ReadBits(tc.width)
		if err != nil {
			t.Fatal(err)
		}
		shift := 64 - tc.width
		if got := int64(raw<<shift) >> shift; got != tc.in {
			t.Fatalf("%d: payload decodes to %d", tc.in, got)
		}
		if r.Remaining() >= 8 {
			t.Fatalf("%d: %d bits left after payload", tc.in, r.Remaining())
		}
	}
}

func TestEncodeFloatForms(t *testing.T) {
	cases := []struct {
		in    float64
		short string
	}{
		{1.5, "1.5"},
		{0.1, "0.1"},
		{-2, "-2"},
		{1e21, "1e+21"},
		{1e6, "1e+06"},
		{math.Inf(1), "+Inf"},
		{123456789.123456, ""},
		{math.Pi, ""},
		{math.SmallestNonzeroFloat64, ""},
	}
	for _, tc := range cases {
		msg, err := Encode(List(Float(tc.in)))
		if err != nil {
			t.Fatalf("encode %v: %v", tc.in, err)
		}
		r, tag := firstElement(t, msg)
		if tag != TagFloat {
			t.Fatalf("%v: tag = %s", tc.in, tag)
		}
		mode, _ := r.ReadBits(FloatModeBits)
		if tc.short == "" {
			if mode != floatModeIEEE {
				t.Fatalf("%v: mode = %d, want full precision", tc.in, mode)
			}
			bits, err := r.ReadBits(64)
			if err != nil {
				t.Fatal(err)
			}
			if math.Float64frombits(bits) != tc.in {
				t.Fatalf("%v: payload = %v", tc.in, math.Float64frombits(bits))
			}
			continue
		}
		if mode != floatModeShort {
			t.Fatalf("%v: mode = %d, want short", tc.in, mode)
		}
		n, _ := r.ReadBits(ShortFloatBits)
		text, err := r.ReadBytes(int(n))
		if err != nil {
			t.Fatal(err)
		}
		if string(text) != tc.short {
			t.Fatalf("%v: short text = %q, want %q", tc.in, text, tc.short)
		}
	}
}

func TestEncodeStringLengthIsBytes(t *testing.T) {
	msg, err := Encode(List(String("héllo→")))
	if err != nil {
		t.Fatal(err)
	}
	r, tag := firstElement(t, msg)
	if tag != TagString {
		t.Fatalf("tag = %s", tag)
	}
	n, _ := r.ReadBits(LengthBits)
	if n != uint64(len("héllo→")) {
		t.Fatalf("length = %d, want %d", n, len("héllo→"))
	}
}

func TestEncodeRootMustBeContainer(t *testing.T) {
	for _, v := range []Value{Null(), Bool(true), Int(1), Float(1), String("x"), {}} {
		msg, err := Encode(v)
		if !errors.Is(err, ErrInvalidRoot) {
			t.Fatalf("Encode(%s) err = %v, want ErrInvalidRoot", v.Type, err)
		}
		if msg != nil {
			t.Fatalf("Encode(%s) returned output on failure", v.Type)
		}
	}
}

func TestEncodeLengthLimits(t *testing.T) {
	ok := []Value{
		List(String(strings.Repeat("a", MaxLength))),
		Object(Pair(strings.Repeat("k", MaxLength), Null())),
		List(make([]Value, MaxLength)...),
	}
	for i, v := range ok {
		if _, err := Encode(v); err != nil {
			t.Fatalf("case %d at limit: %v", i, err)
		}
	}
	tooLong := []Value{
		List(String(strings.Repeat("a", MaxLength+1))),
		Object(Pair(strings.Repeat("k", MaxLength+1), Null())),
		List(make([]Value, MaxLength+1)...),
		List(List(make([]Value, MaxLength+1)...)),
	}
	for i, v := range tooLong {
		if _, err := Encode(v); !errors.Is(err, ErrTooLong) {
			t.Fatalf("case %d err = %v, want ErrTooLong", i, err)
		}
	}
}

func TestEncodeRejectsInvalidTrees(t *testing.T) {
	cases := []struct {
		name string
		val  Value
		want error
	}{
		{"duplicate key", Object(Pair("a", Int(1)), Pair("a", Int(2))), ErrDuplicateKey},
		{"nested duplicate", List(Object(Pair("x", Null()), Pair("x", Null()))), ErrDuplicateKey},
		{"invalid utf8 string", List(String("ok"), String("\xff")), ErrInvalidUTF8},
		{"invalid utf8 key", Object(Pair("\xc3", Null())), ErrInvalidUTF8},
		{"unknown type", List(Value{Type: ValueType(42)}), ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			msg, err := Encode(tc.val)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			if msg != nil {
				t.Fatalf("partial output returned")
			}
		})
	}
}

func nestedLists(depth int) Value {
	v := List()
	for i := 1; i < depth; i++ {
		v = List(v)
	}
	return v
}

func TestEncodeDepthLimit(t *testing.T) {
	if _, err := Encode(nestedLists(DefaultMaxDepth)); err != nil {
		t.Fatalf("depth %d: %v", DefaultMaxDepth, err)
	}
	if _, err := Encode(nestedLists(DefaultMaxDepth + 1)); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("depth %d err = %v", DefaultMaxDepth+1, err)
	}
	shallow := Codec{MaxDepth: 2}
	if _, err := shallow.Encode(List(List(Int(1)))); err != nil {
		t.Fatalf("depth 2: %v", err)
	}
	if _, err := shallow.Encode(List(Object(Pair("a", List())))); !errors.Is(err, ErrDepthExceeded) {
		t.Fatalf("depth 3 err = %v", err)
	}
}

func TestEncodeDoesNotRetainPooledBuffer(t *testing.T) {
	first, err := Encode(List(String("first")))
	if err != nil {
		t.Fatal(err)
	}
	snapshot := append([]byte(nil), first...)
	for i := 0; i < 8; i++ {
		if _, err := Encode(List(String("second"), Int(int64(i)))); err != nil {
			t.Fatal(err)
		}
	}
	if diff := cmp.Diff(snapshot, first); diff != "" {
		t.Fatalf("earlier output changed (-want +got):\n%s", diff)
	}
}
