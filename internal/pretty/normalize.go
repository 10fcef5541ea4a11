// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package pretty

import (
	"bytes"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// maxDepth bounds the recursion of normalize; cyclic values hit it instead of
// exhausting the stack.
const maxDepth = 1000

var (
	// ErrUnsupportedValue is returned for values that have no JSON representation.
	ErrUnsupportedValue = errors.New("unsupported value")
	// ErrTooDeep is returned when a value nests deeper than the supported limit,
	// typically because it contains a reference cycle.
	ErrTooDeep = errors.New("value nested too deeply")
)

// normalize deep-copies value into a tree made only of JSON primitives:
// map[string]any, []any, string, bool, nil, float64 and Go integers.
// Arbitrary-precision integers become their exact decimal string wherever
// they appear, struct fields included.
func normalize(value any) (any, error) {
	return normalizeValue(value, 0)
}

func normalizeValue(value any, depth int) (any, error) {
	if depth > maxDepth {
		return nil, ErrTooDeep
	}

	switch v := value.(type) {
	case nil:
		return nil, nil
	case *big.Int:
		if v == nil {
			return nil, nil
		}
		return v.String(), nil
	case big.Int:
		return v.String(), nil
	case string, bool:
		return v, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return v, nil
	case float64:
		return finite(v), nil
	case float32:
		return finite(float64(v)), nil
	case json.Number:
		return numberValue(v), nil
	case map[string]any:
		if v == nil {
			return nil, nil
		}
		normalized := make(map[string]any, len(v))
		for key, item := range v {
			converted, err := normalizeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			normalized[key] = converted
		}
		return normalized, nil
	case []any:
		if v == nil {
			return nil, nil
		}
		normalized := make([]any, len(v))
		for idx, item := range v {
			converted, err := normalizeValue(item, depth+1)
			if err != nil {
				return nil, err
			}
			normalized[idx] = converted
		}
		return normalized, nil
	case json.Marshaler:
		return marshalled(v, depth)
	}

	return normalizeReflect(reflect.ValueOf(value), depth)
}

func normalizeReflect(rv reflect.Value, depth int) (any, error) {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		return normalizeValue(rv.Elem().Interface(), depth+1)
	case reflect.Map:
		if rv.IsNil() {
			return nil, nil
		}
		normalized := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			key, err := mapKey(iter.Key())
			if err != nil {
				return nil, err
			}
			converted, err := normalizeValue(iter.Value().Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			normalized[key] = converted
		}
		return normalized, nil
	case reflect.Struct:
		normalized := make(map[string]any, rv.NumField())
		if err := collectFields(rv, normalized, depth+1); err != nil {
			return nil, err
		}
		return normalized, nil
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return nil, nil
		}
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return marshalled(rv.Interface(), depth)
		}
		normalized := make([]any, rv.Len())
		for idx := range rv.Len() {
			converted, err := normalizeValue(rv.Index(idx).Interface(), depth+1)
			if err != nil {
				return nil, err
			}
			normalized[idx] = converted
		}
		return normalized, nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		return rv.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint(), nil
	case reflect.Float32, reflect.Float64:
		return finite(rv.Float()), nil
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedValue, rv.Type())
	default:
		return marshalled(rv.Interface(), depth)
	}
}

// collectFields copies the exported fields of the struct rv into fields, named
// and omitted as encoding/json does. Fields of embedded structs are promoted
// unless a shallower field already holds the same name.
func collectFields(rv reflect.Value, fields map[string]any, depth int) error {
	if depth > maxDepth {
		return ErrTooDeep
	}

	rt := rv.Type()
	embedded := make([]reflect.Value, 0)
	for idx := range rt.NumField() {
		field := rt.Field(idx)
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}

		name, options, _ := strings.Cut(tag, ",")
		value := rv.Field(idx)
		if field.Anonymous && name == "" {
			inner := value
			if inner.Kind() == reflect.Pointer {
				if inner.IsNil() {
					continue
				}
				inner = inner.Elem()
			}
			if inner.Kind() == reflect.Struct {
				embedded = append(embedded, inner)
				continue
			}
		}

		if !field.IsExported() || omitted(value, options) {
			continue
		}
		if name == "" {
			name = field.Name
		}
		if _, taken := fields[name]; taken {
			continue
		}

		converted, err := fieldValue(value, options, depth)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fields[name] = converted
	}

	for _, inner := range embedded {
		if err := collectFields(inner, fields, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func fieldValue(value reflect.Value, options string, depth int) (any, error) {
	if hasOption(options, "string") {
		switch value.Kind() {
		case reflect.Bool, reflect.String,
			reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
			reflect.Float32, reflect.Float64:
			raw, err := json.Marshal(value.Interface())
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
			}
			return string(raw), nil
		}
	}

	return normalizeValue(value.Interface(), depth+1)
}

func omitted(value reflect.Value, options string) bool {
	if hasOption(options, "omitzero") && value.IsZero() {
		return true
	}
	if !hasOption(options, "omitempty") {
		return false
	}

	switch value.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return value.Len() == 0
	case reflect.Bool:
		return !value.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return value.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return value.IsNil()
	default:
		return false
	}
}

func hasOption(options, option string) bool {
	for candidate := range strings.SplitSeq(options, ",") {
		if candidate == option {
			return true
		}
	}
	return false
}

// mapKey names a map entry the way encoding/json does: string keys as they
// are, then text marshalers, then integers in base 10.
func mapKey(key reflect.Value) (string, error) {
	if key.Kind() == reflect.String {
		return key.String(), nil
	}

	if marshaler, ok := key.Interface().(encoding.TextMarshaler); ok {
		if key.Kind() == reflect.Pointer && key.IsNil() {
			return "", nil
		}
		text, err := marshaler.MarshalText()
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
		}
		return string(text), nil
	}

	switch key.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(key.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(key.Uint(), 10), nil
	default:
		return "", fmt.Errorf("%w: map key %s", ErrUnsupportedValue, key.Type())
	}
}

// marshalled normalizes values that only encoding/json knows how to shape,
// such as types with a custom MarshalJSON.
func marshalled(value any, depth int) (any, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedValue, err)
	}

	return normalizeValue(decoded, depth+1)
}

// numberValue keeps integers exact: int64 or uint64 when they fit, the decimal
// string otherwise. Everything else is a float64.
func numberValue(number json.Number) any {
	literal := number.String()
	if integer, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return integer
	}
	if integer, err := strconv.ParseUint(literal, 10, 64); err == nil {
		return integer
	}
	if integer, ok := new(big.Int).SetString(literal, 10); ok {
		return integer.String()
	}

	float, err := number.Float64()
	if err != nil {
		return literal
	}
	return finite(float)
}

// finite maps NaN and infinities to null, as JSON has no representation for
// them. Negative zero prints as 0.
func finite(float float64) any {
	if math.IsNaN(float) || math.IsInf(float, 0) {
		return nil
	}
	if float == 0 {
		return 0.0
	}
	return float
}
