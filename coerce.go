package confstruct

import (
	"encoding/csv"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// coerceRaw converts a raw provider value into the declared type t and
// assigns it to fv. Hook types go through their ValidateValue capability
// first; everything else uses the built-in primitive rules.
func coerceRaw(fv reflect.Value, t reflect.Type, raw any) error {
	if hook, ok := validatableFor(t); ok {
		res, err := hook.ValidateValue(raw)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}
		if res.instance {
			return assignInstance(fv, t, res.value)
		}
		// Hook handed back a primitive; built-in coercion wraps it into
		// the declared type below.
		raw = res.value
	}
	return setValue(fv, raw)
}

// validatableFor returns the ValidateValue hook for t when the type (or its
// pointer) declares one.
func validatableFor(t reflect.Type) (Validatable, bool) {
	if t.Implements(validatableType) {
		return reflect.Zero(t).Interface().(Validatable), true
	}
	if reflect.PointerTo(t).Implements(validatableType) {
		return reflect.New(t).Interface().(Validatable), true
	}
	return nil, false
}

// assignInstance stores a hook-constructed instance into fv, accepting
// either the declared type or a pointer to it.
func assignInstance(fv reflect.Value, t reflect.Type, v any) error {
	rv := reflect.ValueOf(v)
	switch {
	case rv.Type() == t:
		fv.Set(rv)
	case rv.Kind() == reflect.Pointer && rv.Type().Elem() == t && !rv.IsNil():
		fv.Set(rv.Elem())
	case rv.Type().AssignableTo(t):
		fv.Set(rv)
	default:
		return fmt.Errorf("%w: hook returned %T, declared type is %s", ErrValidation, v, t)
	}
	return nil
}

// setValue applies the built-in coercion rules for primitives, durations,
// timestamps, and slices. Raw values that already carry the target type pass
// through unchanged, so coercion is idempotent on typed input.
func setValue(fv reflect.Value, raw any) error {
	switch fv.Kind() {
	case reflect.String:
		if s, ok := raw.(string); ok {
			fv.SetString(s)
		} else {
			fv.SetString(fmt.Sprintf("%v", raw))
		}

	case reflect.Bool:
		// Deliberately lenient: "true", "1", "yes", "on" (any case) are
		// true, everything else is false. Never an error.
		fv.SetBool(lenientBool(raw))

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if fv.Type() == reflect.TypeOf(time.Duration(0)) {
			return setDuration(fv, raw)
		}
		switch v := raw.(type) {
		case int, int8, int16, int32, int64:
			n := reflect.ValueOf(v).Int()
			if fv.OverflowInt(n) {
				return fmt.Errorf("%w: %v does not fit %s", ErrCoercion, v, fv.Type())
			}
			fv.SetInt(n)
		case float64:
			if v != math.Trunc(v) || v < float64(math.MinInt64) || v >= float64(math.MaxInt64) {
				return fmt.Errorf("%w: %v is not a valid %s", ErrCoercion, v, fv.Type())
			}
			n := int64(v)
			if fv.OverflowInt(n) {
				return fmt.Errorf("%w: %v does not fit %s", ErrCoercion, v, fv.Type())
			}
			fv.SetInt(n)
		case string:
			n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
			if err != nil || fv.OverflowInt(n) {
				return fmt.Errorf("%w: %q is not a valid %s", ErrCoercion, v, fv.Type())
			}
			fv.SetInt(n)
		default:
			return fmt.Errorf("%w: %T into %s", ErrCoercion, raw, fv.Type())
		}

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		switch v := raw.(type) {
		case uint, uint8, uint16, uint32, uint64:
			n := reflect.ValueOf(v).Uint()
			if fv.OverflowUint(n) {
				return fmt.Errorf("%w: %v does not fit %s", ErrCoercion, v, fv.Type())
			}
			fv.SetUint(n)
		case float64:
			if v < 0 || v != math.Trunc(v) || v >= float64(math.MaxUint64) {
				return fmt.Errorf("%w: %v is not a valid %s", ErrCoercion, v, fv.Type())
			}
			n := uint64(v)
			if fv.OverflowUint(n) {
				return fmt.Errorf("%w: %v does not fit %s", ErrCoercion, v, fv.Type())
			}
			fv.SetUint(n)
		case string:
			n, err := strconv.ParseUint(strings.TrimSpace(v), 10, 64)
			if err != nil || fv.OverflowUint(n) {
				return fmt.Errorf("%w: %q is not a valid %s", ErrCoercion, v, fv.Type())
			}
			fv.SetUint(n)
		default:
			return fmt.Errorf("%w: %T into %s", ErrCoercion, raw, fv.Type())
		}

	case reflect.Float32, reflect.Float64:
		switch v := raw.(type) {
		case float32:
			fv.SetFloat(float64(v))
		case float64:
			fv.SetFloat(v)
		case int, int64:
			fv.SetFloat(float64(reflect.ValueOf(v).Int()))
		case string:
			n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return fmt.Errorf("%w: %q is not a number", ErrCoercion, v)
			}
			fv.SetFloat(n)
		default:
			return fmt.Errorf("%w: %T into %s", ErrCoercion, raw, fv.Type())
		}

	case reflect.Struct:
		if fv.Type() == timeType {
			return setTime(fv, raw)
		}
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Type())

	case reflect.Slice:
		return setSlice(fv, raw)

	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedType, fv.Type())
	}
	return nil
}

// lenientBool maps "true", "1", "yes", "on" case-insensitively to true and
// everything else, including empty, to false.
func lenientBool(raw any) bool {
	if b, ok := raw.(bool); ok {
		return b
	}
	switch strings.ToLower(strings.TrimSpace(fmt.Sprintf("%v", raw))) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

func setDuration(fv reflect.Value, raw any) error {
	switch v := raw.(type) {
	case time.Duration:
		fv.SetInt(int64(v))
	case string:
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %q is not a duration", ErrCoercion, v)
		}
		fv.SetInt(int64(d))
	case int64:
		fv.SetInt(v)
	case float64:
		fv.SetInt(int64(v))
	default:
		return fmt.Errorf("%w: %T into time.Duration", ErrCoercion, raw)
	}
	return nil
}

func setTime(fv reflect.Value, raw any) error {
	switch v := raw.(type) {
	case time.Time:
		fv.Set(reflect.ValueOf(v))
	case string:
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %q is not an RFC 3339 timestamp", ErrCoercion, v)
		}
		fv.Set(reflect.ValueOf(ts))
	default:
		return fmt.Errorf("%w: %T into time.Time", ErrCoercion, raw)
	}
	return nil
}

// setSlice fills a slice field from either a structured []any (JSON, YAML,
// TOML providers) or a CSV string (environment and dotenv providers).
func setSlice(fv reflect.Value, raw any) error {
	switch v := raw.(type) {
	case []any:
		slice := reflect.MakeSlice(fv.Type(), len(v), len(v))
		for i, item := range v {
			if err := coerceRaw(slice.Index(i), fv.Type().Elem(), item); err != nil {
				return err
			}
		}
		fv.Set(slice)
		return nil
	case string:
		r := csv.NewReader(strings.NewReader(v))
		parts, err := r.Read()
		if err != nil {
			parts = strings.Split(v, ",")
		}
		slice := reflect.MakeSlice(fv.Type(), 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			elem := reflect.New(fv.Type().Elem()).Elem()
			if err := coerceRaw(elem, fv.Type().Elem(), p); err != nil {
				return err
			}
			slice = reflect.Append(slice, elem)
		}
		fv.Set(slice)
		return nil
	default:
		return fmt.Errorf("%w: %T into %s", ErrCoercion, raw, fv.Type())
	}
}
