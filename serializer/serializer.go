// Package serializer defines the text (de)serialization port used by
// cachalot for caller values and for the record envelope itself.
//
// Implementations MUST be symmetric: Deserialize must accept exactly the
// text produced by Serialize. The JSON serializer is the default and the
// only one whose output is wire-compatible with pre-populated stores; the
// Msgpack and CBOR serializers trade that compatibility for density.
package serializer

// Serializer encodes values to a text payload and back.
//
// Serialize of a nil value is a no-op and yields the empty string: absent
// in, absent out. Deserialize failures are reported as *ParseError.
type Serializer interface {
	Serialize(v any) (string, error)
	Deserialize(data string, out any) error
}

// ParseError wraps the underlying parser failure from Deserialize.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "cachalot: parse error: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error { return e.Err }
