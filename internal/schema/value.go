package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates the small union of answer value shapes accepted at
// the boundary. Anything else is rejected before the data is trusted.
type Kind int

const (
	KindAbsent Kind = iota
	KindString
	KindNumber
	KindBool
	KindStringList
)

// Value is one answer in a step's answer map: a string, a number, a
// boolean, or a list of strings.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
	list []string
}

func String(s string) Value  { return Value{kind: KindString, str: s} }
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }
func Bool(b bool) Value      { return Value{kind: KindBool, b: b} }

func StringList(items ...string) Value {
	return Value{kind: KindStringList, list: items}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) Str() string    { return v.str }
func (v Value) Num() float64   { return v.num }
func (v Value) Bool() bool     { return v.kind == KindBool && v.b }
func (v Value) List() []string { return v.list }

// IsBlank reports whether the value carries no usable answer: absent,
// a whitespace-only string, or an empty list. Booleans and numbers are
// never blank.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindString:
		return strings.TrimSpace(v.str) == ""
	case KindStringList:
		return len(v.list) == 0
	default:
		return false
	}
}

// Contains reports whether a list value contains item. Non-list values
// never contain anything.
func (v Value) Contains(item string) bool {
	if v.kind != KindStringList {
		return false
	}
	for _, s := range v.list {
		if s == item {
			return true
		}
	}
	return false
}

// matches compares a value against the string form used by visibility
// conditions. List values match by containment.
func (v Value) matches(expected string) bool {
	switch v.kind {
	case KindString:
		return strings.TrimSpace(v.str) == expected
	case KindBool:
		return strconv.FormatBool(v.b) == expected
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64) == expected
	case KindStringList:
		return v.Contains(expected)
	default:
		return false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.str)
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.b)
	case KindStringList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = Value{}
	case string:
		*v = String(t)
	case float64:
		*v = Number(t)
	case bool:
		*v = Bool(t)
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return fmt.Errorf("answer list items must be strings, got %T", item)
			}
			items = append(items, s)
		}
		*v = StringList(items...)
	default:
		return fmt.Errorf("unsupported answer value type %T", raw)
	}
	return nil
}

// AnswerMap is a flat mapping from field name to answer value, stored as
// a JSONB column.
type AnswerMap map[string]Value

// Merge returns a shallow merge of m with incoming: incoming values win
// per field, everything else in m is retained. Neither input is mutated.
func (m AnswerMap) Merge(incoming AnswerMap) AnswerMap {
	out := make(AnswerMap, len(m)+len(incoming))
	for k, v := range m {
		out[k] = v
	}
	for k, v := range incoming {
		out[k] = v
	}
	return out
}

func (m AnswerMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func (m *AnswerMap) Scan(src any) error {
	if src == nil {
		*m = AnswerMap{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("unsupported AnswerMap source type %T", src)
	}
}
