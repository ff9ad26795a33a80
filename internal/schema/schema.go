// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package schema generates documentation of a YAML document from the Go struct it decodes into.
// Field names come from the yaml tags, descriptions from the docdesc tags.
// A field whose yaml tag has no omitempty option is required.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"
)

const (
	draft      = "https://json-schema.org/draft/2020-12/schema"
	defsPrefix = "#/$defs/"
)

// ErrNotAStruct is returned when the root is not a struct or a pointer to one.
var ErrNotAStruct = errors.New("expected struct type")

// Field represents a field of an object in the schema.
type Field struct {
	Name        string
	Type        string
	Description string
	Required    bool
	// Ref is the name of the definition of an object, or of the items of an array of objects.
	Ref string
	// Items is the type of the items of an array of scalars.
	Items string
}

// Object is the schema of one struct type.
type Object struct {
	Name   string
	Fields []Field
}

// Document is the schema of a root struct and of every struct type reachable from it.
type Document struct {
	Title       string
	Description string
	Root        *Object
	// Defs holds the nested struct types by name.
	Defs map[string]*Object
}

// Generator provides methods to generate schemas from struct definitions.
type Generator struct {
	defs map[string]*Object
}

// NewGenerator creates a new Generator.
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the Document of root, which must be a struct or a pointer to one.
func (g *Generator) Generate(root any, title, description string) (*Document, error) {
	t := deref(reflect.TypeOf(root))
	if t == nil || t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w, got %v", ErrNotAStruct, reflect.TypeOf(root))
	}

	g.defs = make(map[string]*Object)

	obj := g.object(t)
	delete(g.defs, t.Name())

	return &Document{
		Title:       title,
		Description: description,
		Root:        obj,
		Defs:        g.defs,
	}, nil
}

// object returns the schema of struct type t, registering it and every nested struct type in defs.
func (g *Generator) object(t reflect.Type) *Object {
	if obj, ok := g.defs[t.Name()]; ok {
		return obj
	}

	obj := &Object{Name: t.Name()}
	// registered before the fields so a recursive type refers to itself
	g.defs[t.Name()] = obj
	obj.Fields = g.fields(t)

	return obj
}

// fields lists the fields of struct type t, flattening embedded structs.
func (g *Generator) fields(t reflect.Type) []Field {
	var fields []Field

	for i := range t.NumField() {
		sf := t.Field(i)

		if sf.Anonymous {
			if et := deref(sf.Type); et.Kind() == reflect.Struct {
				fields = append(fields, g.fields(et)...)
				continue
			}
		}

		if !sf.IsExported() {
			continue
		}

		if f, ok := g.field(sf); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

func (g *Generator) field(sf reflect.StructField) (Field, bool) {
	tag := sf.Tag.Get("yaml")
	if tag == "-" {
		return Field{}, false
	}

	name, opts, _ := strings.Cut(tag, ",")
	if name == "" {
		name = strings.ToLower(sf.Name)
	}

	f := Field{
		Name:        name,
		Description: sf.Tag.Get("docdesc"),
		Required:    !slices.Contains(strings.Split(opts, ","), "omitempty"),
	}

	t := deref(sf.Type)
	f.Type = jsonType(t)

	switch t.Kind() {
	case reflect.Struct:
		f.Ref = g.object(t).Name
	case reflect.Slice, reflect.Array:
		if et := deref(t.Elem()); et.Kind() == reflect.Struct {
			f.Ref = g.object(et).Name
		} else {
			f.Items = jsonType(et)
		}
	case reflect.Map:
		f.Items = jsonType(deref(t.Elem()))
	}

	return f, true
}

// JSONSchema renders the document as a JSON schema object.
func (d *Document) JSONSchema() map[string]any {
	root := objectSchema(d.Root)
	root["$schema"] = draft
	root["title"] = d.Title
	root["description"] = d.Description

	if len(d.Defs) > 0 {
		defs := make(map[string]any, len(d.Defs))
		for name, obj := range d.Defs {
			defs[name] = objectSchema(obj)
		}

		root["$defs"] = defs
	}

	return root
}

func objectSchema(obj *Object) map[string]any {
	props := make(map[string]any, len(obj.Fields))
	required := []string{}

	for _, f := range obj.Fields {
		props[f.Name] = fieldSchema(f)

		if f.Required {
			required = append(required, f.Name)
		}
	}

	s := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}

	if len(required) > 0 {
		s["required"] = required
	}

	return s
}

func fieldSchema(f Field) map[string]any {
	var s map[string]any

	switch {
	case f.Type == "object" && f.Ref != "":
		s = map[string]any{"$ref": defsPrefix + f.Ref}
	case f.Type == "array" && f.Ref != "":
		s = map[string]any{"type": "array", "items": map[string]any{"$ref": defsPrefix + f.Ref}}
	case f.Type == "array":
		s = map[string]any{"type": "array", "items": map[string]any{"type": f.Items}}
	case f.Type == "object" && f.Items != "":
		s = map[string]any{"type": "object", "additionalProperties": map[string]any{"type": f.Items}}
	default:
		s = map[string]any{"type": f.Type}
	}

	if f.Description != "" {
		s["description"] = f.Description
	}

	return s
}

// WriteJSONSchema writes the JSON schema of the document to w.
func (d *Document) WriteJSONSchema(w io.Writer) error {
	b, err := json.MarshalIndent(d.JSONSchema(), "", "  ")
	if err != nil {
		return err //nolint:wrapcheck
	}

	_, err = fmt.Fprintln(w, string(b))

	return err //nolint:wrapcheck
}

// WriteMarkdownDoc writes the document as Markdown, one section per object.
func (d *Document) WriteMarkdownDoc(w io.Writer) error {
	var sb strings.Builder

	fmt.Fprintf(&sb, "# %s\n\n", d.Title)

	if d.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", d.Description)
	}

	sb.WriteString("## Root\n\n")
	writeMarkdownFields(&sb, d.Root)

	names := make([]string, 0, len(d.Defs))
	for name := range d.Defs {
		names = append(names, name)
	}

	slices.Sort(names)

	for _, name := range names {
		fmt.Fprintf(&sb, "\n## %s\n\n", name)
		writeMarkdownFields(&sb, d.Defs[name])
	}

	_, err := io.WriteString(w, sb.String())

	return err //nolint:wrapcheck
}

func writeMarkdownFields(sb *strings.Builder, obj *Object) {
	for _, f := range obj.Fields {
		typ := f.Type

		switch {
		case f.Type == "array" && f.Ref != "":
			typ = "array of " + f.Ref
		case f.Type == "array":
			typ = "array of " + f.Items
		case f.Type == "object" && f.Ref != "":
			typ = f.Ref
		case f.Type == "object" && f.Items != "":
			typ = "map of " + f.Items
		}

		if !f.Required {
			typ += ", optional"
		}

		fmt.Fprintf(sb, "- **%s** (%s)", f.Name, typ)

		if f.Description != "" {
			fmt.Fprintf(sb, ": %s", f.Description)
		}

		sb.WriteString("\n")
	}
}

func deref(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	return t
}

// jsonType converts a Go type to a JSON schema type.
func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "string"
	}
}
