package model

import (
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// ExtractionField declares one allow-listed field of the structured
// extraction operation, with its expected shape. The model output is
// coerced to the declared kind rather than guessed from phrasing.
type ExtractionField struct {
	Name        string
	Kind        FieldKind
	Description string
}

// Validate checks if the field declaration is valid
func (f *ExtractionField) Validate() error {
	if f.Name == "" {
		return goerr.New("extraction field name is required")
	}
	if !f.Kind.IsValid() {
		return goerr.New("invalid extraction field kind",
			goerr.V("name", f.Name), goerr.V("kind", f.Kind))
	}
	return nil
}

// ExtractionSchema is the declared allow-list of extraction fields.
// Keys outside the schema are dropped; missing keys are simply absent,
// never defaulted to placeholder values.
type ExtractionSchema struct {
	Fields []ExtractionField
}

// DefaultExtractionSchema covers the common legal extraction fields
func DefaultExtractionSchema() *ExtractionSchema {
	return &ExtractionSchema{
		Fields: []ExtractionField{
			{Name: "parties", Kind: FieldKindStringList, Description: "Named parties of the document"},
			{Name: "legal_issues", Kind: FieldKindStringList, Description: "Legal issues addressed"},
			{Name: "jurisdiction", Kind: FieldKindString, Description: "Governing jurisdiction"},
			{Name: "effective_date", Kind: FieldKindString, Description: "Effective date if stated"},
			{Name: "monetary_amounts", Kind: FieldKindStringList, Description: "Monetary amounts stated, with currency"},
		},
	}
}

// Validate checks the schema for duplicates and invalid declarations
func (s *ExtractionSchema) Validate() error {
	seen := make(map[string]bool, len(s.Fields))
	for _, f := range s.Fields {
		if err := f.Validate(); err != nil {
			return goerr.Wrap(err, "invalid extraction field")
		}
		if seen[f.Name] {
			return goerr.New("duplicate extraction field", goerr.V("name", f.Name))
		}
		seen[f.Name] = true
	}
	return nil
}

// AllowList returns the declared field names in declaration order
func (s *ExtractionSchema) AllowList() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Lookup returns the declaration of a field, if present
func (s *ExtractionSchema) Lookup(name string) (ExtractionField, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return ExtractionField{}, false
}

// Coerce restricts a parsed object to the allow-list and coerces each
// value to its declared kind: a scalar where a list is expected becomes a
// one-element list, a list where a scalar is expected is joined with
// "; ". Unrecognized keys are dropped, missing keys stay absent.
func (s *ExtractionSchema) Coerce(raw map[string]any) map[string]FieldValue {
	out := make(map[string]FieldValue, len(s.Fields))

	for _, f := range s.Fields {
		v, ok := raw[f.Name]
		if !ok || v == nil {
			continue
		}

		switch f.Kind {
		case FieldKindStringList:
			out[f.Name] = ListField(toStringList(v))
		default:
			out[f.Name] = StringField(toString(v))
		}
	}

	return out
}

func toString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, toString(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", t)
	}
}

func toStringList(v any) []string {
	switch t := v.(type) {
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, toString(item))
		}
		return items
	case string:
		return []string{t}
	default:
		return []string{fmt.Sprintf("%v", t)}
	}
}
