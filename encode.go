package confstruct

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"
)

// Encode renders a loaded configuration as a JSON-representable map. Values
// implementing Encodable are rendered through their own hook, nested
// configurations recurse, and secrets always encode as the mask.
func Encode(cfg any) (map[string]any, error) {
	v := reflect.ValueOf(cfg)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("%w: nil configuration", ErrSchema)
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrSchema, cfg)
	}
	return encodeStruct(v), nil
}

// EncodeJSON renders a loaded configuration as JSON, with the same hook and
// secret handling as Encode.
func EncodeJSON(cfg any) ([]byte, error) {
	m, err := Encode(cfg)
	if err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

func encodeStruct(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := defaultMapper.Field(f.Name)
		out[key] = encodeValue(v.Field(i), f.Tag.Get("secret") == "true")
	}
	return out
}

func encodeValue(fv reflect.Value, secret bool) any {
	if enc, ok := encodableFor(fv); ok {
		return enc.EncodeValue()
	}

	switch fv.Kind() {
	case reflect.Struct:
		if fv.Type() == timeType {
			return fv.Interface().(time.Time).Format(time.RFC3339)
		}
		return encodeStruct(fv)
	case reflect.Int64:
		if fv.Type() == reflect.TypeOf(time.Duration(0)) {
			return fv.Interface().(time.Duration).String()
		}
	case reflect.Slice:
		items := make([]any, fv.Len())
		for i := range items {
			items[i] = encodeValue(fv.Index(i), secret)
		}
		return items
	}

	if secret {
		return secretMask
	}
	return fv.Interface()
}

func encodableFor(fv reflect.Value) (Encodable, bool) {
	if fv.Type().Implements(encodableType) {
		return fv.Interface().(Encodable), true
	}
	if fv.CanAddr() && reflect.PointerTo(fv.Type()).Implements(encodableType) {
		return fv.Addr().Interface().(Encodable), true
	}
	return nil, false
}
