package serializer

import "github.com/vmihailenco/msgpack/v5"

// Msgpack serializes with vmihailenco/msgpack/v5. The zero value is ready
// to use.
//
// Compact and fast, but NOT wire-compatible with JSON-populated stores: a
// cache and the deployment that pre-populated its store must agree on the
// serializer. Use `msgpack:"fieldName"` tags for explicit field control.
type Msgpack struct{}

var _ Serializer = Msgpack{}

func (Msgpack) Serialize(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := msgpack.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (Msgpack) Deserialize(data string, out any) error {
	if err := msgpack.Unmarshal([]byte(data), out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
