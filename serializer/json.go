package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// JSON is the default serializer and the canonical wire format: the record
// envelope written by a JSON-configured cache round-trips byte-for-byte
// with existing deployed stores.
//
// NaN and the infinities have no JSON representation; they encode to the
// neutral null form instead of failing the write.
type JSON struct{}

var _ Serializer = JSON{}

func (JSON) Serialize(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		var uve *json.UnsupportedValueError
		if errors.As(err, &uve) {
			b, err = json.Marshal(sanitize(reflect.ValueOf(v)))
			if err != nil {
				return "", err
			}
			return string(b), nil
		}
		return "", err
	}
	return string(b), nil
}

func (JSON) Deserialize(data string, out any) error {
	if err := json.Unmarshal([]byte(data), out); err != nil {
		return &ParseError{Err: err}
	}
	return nil
}

var jsonMarshaler = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// sanitize rebuilds v as a plain value tree with NaN/±Inf floats replaced
// by nil. Only reached when the stdlib encoder rejected the original value,
// so the extra reflection cost is paid on the rare path.
func sanitize(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	if v.Type().Implements(jsonMarshaler) && !(v.Kind() == reflect.Pointer && v.IsNil()) {
		if b, err := v.Interface().(json.Marshaler).MarshalJSON(); err == nil {
			return json.RawMessage(b)
		}
	}

	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return f
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return sanitize(v.Elem())
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		fallthrough
	case reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = sanitize(v.Index(i))
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value())
		}
		return out
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, v.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			name := f.Name
			omitempty := false
			if tag != "" {
				parts := strings.Split(tag, ",")
				if parts[0] != "" {
					name = parts[0]
				}
				for _, opt := range parts[1:] {
					if opt == "omitempty" {
						omitempty = true
					}
				}
			}
			fv := sanitize(v.Field(i))
			if omitempty && isEmptyValue(fv) {
				continue
			}
			out[name] = fv
		}
		return out
	default:
		return v.Interface()
	}
}

func isEmptyValue(v any) bool {
	switch vv := v.(type) {
	case nil:
		return true
	case string:
		return vv == ""
	case bool:
		return !vv
	case float64:
		return vv == 0
	case []any:
		return len(vv) == 0
	case map[string]any:
		return len(vv) == 0
	default:
		rv := reflect.ValueOf(v)
		return rv.IsValid() && rv.IsZero()
	}
}
