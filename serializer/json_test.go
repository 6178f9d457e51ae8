package serializer

import (
	"errors"
	"math"
	"testing"
)

func TestJSONRoundTrip(t *testing.T) {
	s := JSON{}
	in := map[string]any{"id": "42", "n": float64(7)}
	data, err := s.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var out any
	if err := s.Deserialize(data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	m, ok := out.(map[string]any)
	if !ok || m["id"] != "42" || m["n"] != float64(7) {
		t.Fatalf("round trip = %#v", out)
	}
}

func TestJSONStringDoubleEncoding(t *testing.T) {
	s := JSON{}
	data, err := s.Serialize("123")
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if data != `"123"` {
		t.Fatalf("Serialize(\"123\") = %q, want %q", data, `"123"`)
	}
}

func TestJSONAbsentValue(t *testing.T) {
	s := JSON{}
	data, err := s.Serialize(nil)
	if err != nil || data != "" {
		t.Fatalf("Serialize(nil) = %q, %v; want empty, nil", data, err)
	}
}

// TestJSONNonFiniteFloats: NaN and the infinities encode to null instead of
// failing the write.
func TestJSONNonFiniteFloats(t *testing.T) {
	s := JSON{}
	cases := []struct {
		name string
		in   any
		want string
	}{
		{name: "nan", in: math.NaN(), want: "null"},
		{name: "plus_inf", in: math.Inf(1), want: "null"},
		{name: "minus_inf", in: math.Inf(-1), want: "null"},
		{name: "nested_slice", in: []any{1.5, math.NaN()}, want: "[1.5,null]"},
		{name: "nested_map", in: map[string]any{"v": math.Inf(1)}, want: `{"v":null}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.Serialize(tc.in)
			if err != nil {
				t.Fatalf("Serialize: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Serialize = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestJSONNonFiniteStructFields(t *testing.T) {
	s := JSON{}
	in := struct {
		Rate float64 `json:"rate"`
		Name string  `json:"name"`
	}{Rate: math.NaN(), Name: "n"}
	got, err := s.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var out map[string]any
	if err := s.Deserialize(got, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out["rate"] != nil || out["name"] != "n" {
		t.Fatalf("sanitized struct = %#v", out)
	}
}

func TestJSONParseError(t *testing.T) {
	s := JSON{}
	var out any
	err := s.Deserialize("{{{", &out)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ParseError", err)
	}
	if pe.Unwrap() == nil {
		t.Fatalf("ParseError must carry the parser's error")
	}
}

func TestLimitRejectsOversized(t *testing.T) {
	s := Limit{Inner: JSON{}, MaxDecode: 4}
	var out any
	if err := s.Deserialize(`"way too long"`, &out); err == nil {
		t.Fatalf("oversized payload must fail")
	}
	if err := s.Deserialize(`"ok"`, &out); err != nil {
		t.Fatalf("small payload: %v", err)
	}
	if data, err := s.Serialize("anything at all"); err != nil || data == "" {
		t.Fatalf("Serialize must pass through: %q, %v", data, err)
	}
}

func TestMsgpackRoundTrip(t *testing.T) {
	s := Msgpack{}
	data, err := s.Serialize(map[string]any{"id": "42"})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var out map[string]any
	if err := s.Deserialize(data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if out["id"] != "42" {
		t.Fatalf("round trip = %#v", out)
	}

	var broken any
	err = s.Deserialize("\xc1", &broken) // 0xc1 is never valid msgpack
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want ParseError", err)
	}
}

func TestCBORRoundTrip(t *testing.T) {
	s := MustCBOR(true)
	data, err := s.Serialize([]any{"a", "b"})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var out []any
	if err := s.Deserialize(data, &out); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if len(out) != 2 || out[0] != "a" {
		t.Fatalf("round trip = %#v", out)
	}
}
