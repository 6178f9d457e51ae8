package serializer

import "github.com/fxamacker/cbor/v2"

// CBOR serializes with fxamacker/cbor. The zero value is NOT ready to use;
// construct with NewCBOR.
//
// Deterministic=true uses RFC 8949 Core Deterministic encoding for
// byte-for-byte stable outputs; otherwise the preferred unsorted options
// are used (smaller/faster defaults). Time values are encoded as
// RFC3339Nano. Like Msgpack, this is not wire-compatible with
// JSON-populated stores.
type CBOR struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

var _ Serializer = CBOR{}

func NewCBOR(deterministic bool) (CBOR, error) {
	var eo cbor.EncOptions
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	} else {
		eo = cbor.PreferredUnsortedEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR{}, err
	}
	dm, err := (cbor.DecOptions{}).DecMode()
	if err != nil {
		return CBOR{}, err
	}
	return CBOR{enc: em, dec: dm}, nil
}

// MustCBOR is NewCBOR that panics on configuration error.
func MustCBOR(deterministic bool) CBOR {
	c, err := NewCBOR(deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR) Serialize(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := c.enc.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c CBOR) Deserialize(data string, out any) error {
	if err := c.dec.Unmarshal([]byte(data), out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}
