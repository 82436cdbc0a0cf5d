package proton

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/go-cmp/cmp"
)

func TestFromGo(t *testing.T) {
	n := 7
	var nilPtr *int
	got, err := FromGo(map[string]any{
		"b":      []any{uint8(2), int16(-3), float32(1.5), "s", true, nil},
		"a":      [2]string{"x", "y"},
		"ptr":    &n,
		"nilptr": nilPtr,
		"num":    json.Number("12"),
		"frac":   json.Number("1.25"),
		"val":    Object(Pair("inner", Null())),
		"nested": map[string]int{"z": 1, "y": 2},
		"empty":  []int(nil),
	})
	if err != nil {
		t.Fatal(err)
	}
	want := Object(
		Pair("a", List(String("x"), String("y"))),
		Pair("b", List(Int(2), Int(-3), Float(1.5), String("s"), Bool(true), Null())),
		Pair("empty", Null()),
		Pair("frac", Float(1.25)),
		Pair("nested", Object(Pair("y", Int(2)), Pair("z", Int(1)))),
		Pair("nilptr", Null()),
		Pair("num", Int(12)),
		Pair("ptr", Int(7)),
		Pair("val", Object(Pair("inner", Null()))),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFromGoErrors(t *testing.T) {
	cases := []struct {
		in   any
		want error
	}{
		{uint64(math.MaxUint64), ErrIntegerOverflow},
		{[]any{uint(math.MaxInt64) + 1}, ErrIntegerOverflow},
		{map[int]string{1: "x"}, ErrUnsupportedType},
		{make(chan int), ErrUnsupportedType},
		{struct{ A int }{1}, ErrUnsupportedType},
		{json.Number("99999999999999999999"), ErrIntegerOverflow},
	}
	for _, tc := range cases {
		if _, err := FromGo(tc.in); !errors.Is(err, tc.want) {
			t.Fatalf("FromGo(%T) err = %v, want %v", tc.in, err, tc.want)
		}
	}
}

func TestFromCBOR(t *testing.T) {
	data, err := cbor.Marshal(map[string]any{
		"list":  []any{1, -2, 1.5, "x", true, nil},
		"bytes": []byte("hi"),
		"max":   uint64(math.MaxInt64),
		"min":   int64(math.MinInt64),
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := FromCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	want := Object(
		Pair("bytes", String("hi")),
		Pair("list", List(Int(1), Int(-2), Float(1.5), String("x"), Bool(true), Null())),
		Pair("max", Int(math.MaxInt64)),
		Pair("min", Int(math.MinInt64)),
	)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFromCBORErrors(t *testing.T) {
	cases := []struct {
		name string
		item any
		want error
	}{
		{"uint64 overflow", []any{uint64(math.MaxUint64)}, ErrIntegerOverflow},
		{"binary bytes", []any{[]byte{0xff, 0xfe}}, ErrUnsupportedType},
		{"tag", []any{cbor.Tag{Number: 100, Content: "x"}}, ErrUnsupportedType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			data, err := cbor.Marshal(tc.item)
			if err != nil {
				t.Fatal(err)
			}
			if _, err := FromCBOR(data); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
	if _, err := FromCBOR([]byte{0xff}); err == nil {
		t.Fatalf("invalid cbor accepted")
	}
}

func TestCBORRoundTrip(t *testing.T) {
	in := Object(
		Pair("a", List(Int(1), Int(-5), Int(math.MinInt64), Int(math.MaxInt64))),
		Pair("b", List(Float(2), Float(0.1), Float(-1e300))),
		Pair("c", Object(Pair("s", String("snow ☃")), Pair("t", Bool(false)), Pair("u", Null()))),
	)
	data, err := ToCBOR(in)
	if err != nil {
		t.Fatal(err)
	}
	got, err := FromCBOR(data)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	again, err := ToCBOR(got)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(data, again); diff != "" {
		t.Fatalf("deterministic encoding changed (-first +second):\n%s", diff)
	}
}
