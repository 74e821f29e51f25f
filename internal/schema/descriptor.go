// Package schema describes the expected shape of an extracted record and
// coerces/validates records against it.
package schema

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind tags the variant of a Field.
type Kind string

const (
	KindScalar Kind = "scalar"
	KindList   Kind = "list"
	KindObject Kind = "object"
)

// ScalarType is the JSON type of a scalar field or of a scalar list's items.
type ScalarType string

const (
	TypeString  ScalarType = "string"
	TypeNumber  ScalarType = "number"
	TypeInteger ScalarType = "integer"
	TypeBoolean ScalarType = "boolean"
)

// Field is one node of a descriptor. Scalars use Type, lists use Items,
// objects use Fields. Fields are optional unless Required is set.
type Field struct {
	Name        string     `yaml:"name"`
	Kind        Kind       `yaml:"kind,omitempty"`
	Type        ScalarType `yaml:"type,omitempty"`
	Required    bool       `yaml:"required,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Items       *Field     `yaml:"items,omitempty"`
	Fields      []Field    `yaml:"fields,omitempty"`
}

func (f Field) Optional() bool { return !f.Required }

// Descriptor is the root of a record's shape; the root itself is an object.
type Descriptor struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Fields      []Field `yaml:"fields"`
}

// Root returns the descriptor as a required object field.
func (d *Descriptor) Root() Field {
	return Field{Name: d.Name, Kind: KindObject, Required: true, Description: d.Description, Fields: d.Fields}
}

// Lookup finds a top-level field by name.
func (d *Descriptor) Lookup(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Parse reads a YAML descriptor, fills implied kinds and types, and checks it.
func Parse(b []byte) (*Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse schema yaml: %w", err)
	}
	for i := range d.Fields {
		normalize(&d.Fields[i])
	}
	if err := d.Check(); err != nil {
		return nil, err
	}
	return &d, nil
}

// LoadFile parses the YAML descriptor at path.
func LoadFile(path string) (*Descriptor, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema %s: %w", path, err)
	}
	return Parse(b)
}

func normalize(f *Field) {
	if f.Kind == "" {
		switch {
		case len(f.Fields) > 0:
			f.Kind = KindObject
		case f.Items != nil:
			f.Kind = KindList
		default:
			f.Kind = KindScalar
		}
	}
	f.Kind = Kind(strings.ToLower(string(f.Kind)))
	if f.Kind == KindScalar && f.Type == "" {
		f.Type = TypeString
	}
	if f.Kind == KindList && f.Items == nil {
		// "type: string" on a list is shorthand for a scalar item
		typ := f.Type
		if typ == "" {
			typ = TypeString
		}
		f.Items = &Field{Kind: KindScalar, Type: typ}
		f.Type = ""
	}
	if f.Items != nil {
		normalize(f.Items)
	}
	for i := range f.Fields {
		normalize(&f.Fields[i])
	}
}

// Check verifies that the descriptor is well formed.
func (d *Descriptor) Check() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("schema: name is required")
	}
	if len(d.Fields) == 0 {
		return fmt.Errorf("schema %s: no fields", d.Name)
	}
	return checkFields(d.Name, d.Fields)
}

func checkFields(path string, fields []Field) error {
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("schema %s: field without name", path)
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("schema %s: duplicate field %q", path, f.Name)
		}
		seen[f.Name] = struct{}{}
		if err := checkField(path+"."+f.Name, f); err != nil {
			return err
		}
	}
	return nil
}

func checkField(path string, f Field) error {
	switch f.Kind {
	case KindScalar:
		switch f.Type {
		case TypeString, TypeNumber, TypeInteger, TypeBoolean:
			return nil
		default:
			return fmt.Errorf("schema %s: unknown scalar type %q", path, f.Type)
		}
	case KindList:
		if f.Items == nil {
			return fmt.Errorf("schema %s: list without items", path)
		}
		if f.Items.Kind == KindList {
			return fmt.Errorf("schema %s: nested lists are not supported", path)
		}
		return checkField(path+"[]", *f.Items)
	case KindObject:
		if len(f.Fields) == 0 {
			return fmt.Errorf("schema %s: object without fields", path)
		}
		return checkFields(path, f.Fields)
	default:
		return fmt.Errorf("schema %s: unknown kind %q", path, f.Kind)
	}
}

// Scalar builds an optional scalar field.
func Scalar(name string, t ScalarType) Field {
	return Field{Name: name, Kind: KindScalar, Type: t}
}

// String builds an optional string field.
func String(name string) Field { return Scalar(name, TypeString) }

// ListOf builds an optional list whose elements follow item.
func ListOf(name string, item Field) Field {
	item.Name = ""
	return Field{Name: name, Kind: KindList, Items: &item}
}

// ObjectOf builds an optional nested object.
func ObjectOf(name string, fields ...Field) Field {
	return Field{Name: name, Kind: KindObject, Fields: fields}
}

// AsRequired returns a copy of f marked as required.
func (f Field) AsRequired() Field {
	f.Required = true
	return f
}

// New builds a descriptor from fields, mostly for callers assembling schemas in code.
func New(name string, fields ...Field) *Descriptor {
	return &Descriptor{Name: name, Fields: fields}
}
