// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package record

import (
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/valyala/fastjson"
)

var (
	// ErrInvalidRecord reports input that cannot be decoded as a log record.
	ErrInvalidRecord = errors.New("invalid log record")

	parserPool fastjson.ParserPool
)

// Parse decodes a single JSON object into a Record.
func Parse(data []byte) (*Record, error) {
	parser := parserPool.Get()
	defer parserPool.Put(parser)

	value, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	return fromValue(value)
}

// ParseMany decodes either a single JSON object or an array of objects.
func ParseMany(data []byte) ([]*Record, error) {
	parser := parserPool.Get()
	defer parserPool.Put(parser)

	value, err := parser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if value.Type() != fastjson.TypeArray {
		record, err := fromValue(value)
		if err != nil {
			return nil, err
		}
		return []*Record{record}, nil
	}

	items, _ := value.Array()
	records := make([]*Record, 0, len(items))
	for idx, item := range items {
		record, err := fromValue(item)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", idx, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func fromValue(value *fastjson.Value) (*Record, error) {
	if value.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: expected object, found %s", ErrInvalidRecord, value.Type())
	}

	event, err := objectField(value, "event")
	if err != nil {
		return nil, err
	}
	context, err := objectField(value, "context")
	if err != nil {
		return nil, err
	}

	return &Record{
		Level:   string(value.GetStringBytes("level")),
		Dt:      string(value.GetStringBytes("dt")),
		Message: string(value.GetStringBytes("message")),
		Event:   event,
		Context: context,
	}, nil
}

// objectField returns the named field as a map; a missing or null field is an empty map.
func objectField(value *fastjson.Value, key string) (map[string]any, error) {
	field := value.Get(key)
	if field == nil || field.Type() == fastjson.TypeNull {
		return map[string]any{}, nil
	}

	if field.Type() != fastjson.TypeObject {
		return nil, fmt.Errorf("%w: field %q must be an object, found %s", ErrInvalidRecord, key, field.Type())
	}

	converted, ok := toAny(field).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: field %q", ErrInvalidRecord, key)
	}
	return converted, nil
}

func toAny(value *fastjson.Value) any {
	switch value.Type() {
	case fastjson.TypeObject:
		object, _ := value.Object()
		converted := make(map[string]any, object.Len())
		object.Visit(func(key []byte, v *fastjson.Value) {
			converted[string(key)] = toAny(v)
		})
		return converted
	case fastjson.TypeArray:
		items, _ := value.Array()
		converted := make([]any, len(items))
		for idx, item := range items {
			converted[idx] = toAny(item)
		}
		return converted
	case fastjson.TypeString:
		return string(value.GetStringBytes())
	case fastjson.TypeNumber:
		return number(value.String())
	case fastjson.TypeTrue:
		return true
	case fastjson.TypeFalse:
		return false
	default:
		return nil
	}
}

// number keeps integer literals exact: int64 when they fit, *big.Int otherwise.
func number(literal string) any {
	if integer, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return integer
	}

	if bigInteger, ok := new(big.Int).SetString(literal, 10); ok {
		return bigInteger
	}

	float, _ := strconv.ParseFloat(literal, 64)
	return float
}

func stringify(value any) string {
	switch v := value.(type) {
	case *big.Int:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
