package reepay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// MetadataKind is the scalar type held by a MetadataValue.
type MetadataKind int

const (
	MetadataNull MetadataKind = iota
	MetadataString
	MetadataNumber
	MetadataBool
)

// MetadataValue is one scalar value of a Reepay metadata map.
type MetadataValue struct {
	kind MetadataKind
	str  string
	num  json.Number
	b    bool
}

// Metadata is Reepay's open-ended key/value metadata.
type Metadata map[string]MetadataValue

func StringValue(s string) MetadataValue { return MetadataValue{kind: MetadataString, str: s} }

func NumberValue(n int64) MetadataValue {
	return MetadataValue{kind: MetadataNumber, num: json.Number(strconv.FormatInt(n, 10))}
}

func BoolValue(b bool) MetadataValue { return MetadataValue{kind: MetadataBool, b: b} }

func (v MetadataValue) Kind() MetadataKind { return v.kind }

// String renders the value as text regardless of kind.
func (v MetadataValue) String() string {
	switch v.kind {
	case MetadataString:
		return v.str
	case MetadataNumber:
		return v.num.String()
	case MetadataBool:
		return strconv.FormatBool(v.b)
	}
	return ""
}

// Int64 returns the numeric value when the value is an integral number.
func (v MetadataValue) Int64() (int64, bool) {
	if v.kind != MetadataNumber {
		return 0, false
	}
	n, err := v.num.Int64()
	return n, err == nil
}

// Bool returns the value when it is a boolean.
func (v MetadataValue) Bool() (bool, bool) {
	return v.b, v.kind == MetadataBool
}

func (v MetadataValue) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case MetadataString:
		return json.Marshal(v.str)
	case MetadataNumber:
		return []byte(v.num.String()), nil
	case MetadataBool:
		return json.Marshal(v.b)
	}
	return []byte("null"), nil
}

func (v *MetadataValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return fmt.Errorf("reepay: empty metadata value")
	}
	switch data[0] {
	case 'n':
		*v = MetadataValue{}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
		return nil
	case '{', '[':
		// Nested structures are flattened to their JSON text.
		*v = StringValue(string(data))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*v = MetadataValue{kind: MetadataNumber, num: n}
	return nil
}
