package entity

import (
	"bytes"
	"encoding/json"
	"reflect"
	"time"
)

// Date - дата из тела запроса: RFC 3339 или YYYY-MM-DD (полночь UTC)
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: reflect.TypeOf(Date{})}
	}

	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		day, dayErr := time.Parse(time.DateOnly, s)
		if dayErr != nil {
			return err
		}
		t = day
	}
	d.Time = t
	return nil
}

// Ptr возвращает nil для nil-даты
func (d *Date) Ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// Bool принимает true/false, 1/0 и строки "true", "false", "1", "0", "yes", "no"
type Bool bool

func (b *Bool) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}

	switch v {
	case true, "true", float64(1), "1", "yes":
		*b = true
	case false, "false", float64(0), "0", "no":
		*b = false
	default:
		return &json.UnmarshalTypeError{Value: jsonKind(data), Type: reflect.TypeOf(false)}
	}
	return nil
}

// jsonKind - тип JSON значения в терминах encoding/json
func jsonKind(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return "value"
	}
	switch data[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "number"
	}
}
