package serializer

import "fmt"

// Limit wraps another serializer to enforce a maximum allowed payload size
// at Deserialize time. Serialize is forwarded to Inner unchanged.
// If MaxDecode <= 0, size limiting is disabled.
//
// Typical use: protect against oversized/malicious entries coming from a
// shared store.
type Limit struct {
	// Inner is the underlying serializer being wrapped. It must be set.
	Inner Serializer
	// MaxDecode is the maximum permitted length (in bytes) of the incoming
	// payload. Longer payloads fail without invoking Inner.
	MaxDecode int
}

var _ Serializer = Limit{}

func (l Limit) Serialize(v any) (string, error) { return l.Inner.Serialize(v) }

func (l Limit) Deserialize(data string, out any) error {
	if l.MaxDecode > 0 && len(data) > l.MaxDecode {
		return &ParseError{Err: fmt.Errorf("payload too large: %d > %d", len(data), l.MaxDecode)}
	}
	return l.Inner.Deserialize(data, out)
}
