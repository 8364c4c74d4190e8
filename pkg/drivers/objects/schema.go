package objects

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// TagName is the struct tag read when deriving a schema.
const TagName = "dbbridge"

// ImplicitID names the column added to schemas without a primary key. It
// holds the 1-based position of the object in its collection snapshot.
const ImplicitID = "id"

// Property describes one persisted field.
type Property struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ObjectType string `json:"objectType,omitempty"`
	Default    any    `json:"default,omitempty"`
	Indexed    bool   `json:"indexed"`
	Optional   bool   `json:"optional"`
	Primary    bool   `json:"primary,omitempty"`
	MapTo      string `json:"mapTo,omitempty"`

	index    []int
	implicit bool
}

// Schema describes one object type.
type Schema struct {
	Name       string      `json:"name"`
	Embedded   bool        `json:"embedded,omitempty"`
	PrimaryKey string      `json:"primaryKey,omitempty"`
	Properties []*Property `json:"properties"`

	goType reflect.Type
}

// Columns returns the property names in declaration order.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.Properties))
	for i, p := range s.Properties {
		out[i] = p.Name
	}
	return out
}

var timeType = reflect.TypeOf(time.Time{})

// deriveSchema builds the schema of a struct type. Structs reached through
// fields tagged embedded are reported through the embedded callback.
func deriveSchema(name string, t reflect.Type, embedded func(*Schema)) (*Schema, error) {
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("objects: %s must be a struct, got %s", name, t.Kind())
	}

	s := &Schema{Name: name, goType: t}
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get(TagName)
		if tag == "-" {
			continue
		}

		p, isEmbedded, err := parseProperty(f, tag)
		if err != nil {
			return nil, fmt.Errorf("objects: %s.%s: %w", name, f.Name, err)
		}
		if isEmbedded {
			inner, err := deriveSchema(structName(f.Type), f.Type, embedded)
			if err != nil {
				return nil, err
			}
			inner.Embedded = true
			p.ObjectType = inner.Name
			if embedded != nil {
				embedded(inner)
			}
		}
		if p.Primary {
			if s.PrimaryKey != "" {
				return nil, fmt.Errorf("objects: %s declares more than one primary key", name)
			}
			s.PrimaryKey = p.Name
			p.Indexed = true
		}
		s.Properties = append(s.Properties, p)
	}

	if s.PrimaryKey == "" {
		s.Properties = append([]*Property{{
			Name:     ImplicitID,
			Type:     "int",
			Indexed:  true,
			implicit: true,
		}}, s.Properties...)
	}
	return s, nil
}

func parseProperty(f reflect.StructField, tag string) (*Property, bool, error) {
	p := &Property{Name: f.Name, index: f.Index}
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		p.Name = parts[0]
	}

	var embedded bool
	for _, opt := range parts[1:] {
		key, value, hasValue := strings.Cut(opt, "=")
		switch key {
		case "indexed":
			p.Indexed = true
		case "optional":
			p.Optional = true
		case "primary":
			p.Primary = true
		case "embedded":
			embedded = true
		case "default":
			p.Default = value
		case "mapto":
			p.MapTo = value
		case "":
		default:
			return nil, false, fmt.Errorf("unknown tag option %q", key)
		}
		if (key == "default" || key == "mapto") && !hasValue {
			return nil, false, fmt.Errorf("tag option %q requires a value", key)
		}
	}

	t := f.Type
	if t.Kind() == reflect.Ptr {
		p.Optional = true
		t = t.Elem()
	}
	p.Type = typeName(t)
	if p.Type == "object" {
		p.ObjectType = structName(t)
	}
	return p, embedded, nil
}

func structName(t reflect.Type) string {
	for t.Kind() == reflect.Ptr || t.Kind() == reflect.Slice {
		t = t.Elem()
	}
	return t.Name()
}

func typeName(t reflect.Type) string {
	if t == timeType {
		return "date"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "bool"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "int"
	case reflect.Float32:
		return "float"
	case reflect.Float64:
		return "double"
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return "data"
		}
		return "list<" + typeName(t.Elem()) + ">"
	case reflect.Map:
		return "dictionary<" + typeName(t.Elem()) + ">"
	case reflect.Ptr:
		return typeName(t.Elem())
	case reflect.Struct:
		return "object"
	default:
		return "mixed"
	}
}
