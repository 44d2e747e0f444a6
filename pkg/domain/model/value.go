package model

import "strings"

// ValueKind discriminates the parsed output of a generative operation
type ValueKind string

const (
	ValueKindText     ValueKind = "text"
	ValueKindBool     ValueKind = "bool"
	ValueKindObject   ValueKind = "object"
	ValueKindForecast ValueKind = "forecast"
)

// Value is the typed result of sanitizing raw model output. Exactly one
// of the payload fields is meaningful, selected by Kind. Raw output is
// kept on the GenerativeResult, never here.
type Value struct {
	Kind     ValueKind
	Text     string
	Bool     bool
	Object   map[string]FieldValue
	Forecast *Forecast
}

// TextValue wraps plain text output
func TextValue(s string) *Value {
	return &Value{Kind: ValueKindText, Text: s}
}

// BoolValue wraps a coerced boolean classification
func BoolValue(b bool) *Value {
	return &Value{Kind: ValueKindBool, Bool: b}
}

// ObjectValue wraps an allow-listed extraction result
func ObjectValue(obj map[string]FieldValue) *Value {
	return &Value{Kind: ValueKindObject, Object: obj}
}

// ForecastValue wraps a time-series forecast
func ForecastValue(f *Forecast) *Value {
	return &Value{Kind: ValueKindForecast, Forecast: f}
}

// FieldKind declares the expected shape of an extracted field
type FieldKind string

const (
	FieldKindString     FieldKind = "string"
	FieldKindStringList FieldKind = "string_list"
)

// IsValid checks if the field kind is valid
func (k FieldKind) IsValid() bool {
	return k == FieldKindString || k == FieldKindStringList
}

// FieldValue is a single extracted field, either a scalar string or a
// list of strings depending on the declared field kind.
type FieldValue struct {
	Kind FieldKind
	Text string
	List []string
}

// StringField wraps a scalar extracted value
func StringField(s string) FieldValue {
	return FieldValue{Kind: FieldKindString, Text: s}
}

// ListField wraps a list extracted value
func ListField(items []string) FieldValue {
	return FieldValue{Kind: FieldKindStringList, List: items}
}

// AsString renders the field as a single string for display
func (v FieldValue) AsString() string {
	if v.Kind == FieldKindStringList {
		return strings.Join(v.List, "; ")
	}
	return v.Text
}
