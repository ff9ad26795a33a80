// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

package schema

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/matt-FFFFFF/logpipe/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type embedded struct {
	Shared string `yaml:"shared,omitempty" docdesc:"From the embedded struct"`
}

type leaf struct {
	Value string `yaml:"value"`
}

type sample struct {
	embedded `yaml:",inline"`

	Name    string            `yaml:"name" docdesc:"The name"`
	Count   int               `yaml:"count,omitempty"`
	Tags    []string          `yaml:"tags,omitempty"`
	Labels  map[string]string `yaml:"labels,omitempty"`
	Leaf    *leaf             `yaml:"leaf,omitempty"`
	Leaves  []leaf            `yaml:"leaves,omitempty"`
	Ignored string            `yaml:"-"`
	NoTag   bool
	hidden  string //nolint:unused
}

func TestGenerate(t *testing.T) {
	doc, err := NewGenerator().Generate(&sample{}, "Sample", "A sample")
	require.NoError(t, err)

	names := make([]string, 0, len(doc.Root.Fields))
	for _, f := range doc.Root.Fields {
		names = append(names, f.Name)
	}

	assert.Equal(t, []string{"shared", "name", "count", "tags", "labels", "leaf", "leaves", "notag"}, names)

	byName := func(name string) Field {
		for _, f := range doc.Root.Fields {
			if f.Name == name {
				return f
			}
		}

		t.Fatalf("no field %q", name)

		return Field{}
	}

	assert.Equal(t, Field{Name: "name", Type: "string", Description: "The name", Required: true}, byName("name"))
	assert.Equal(t, Field{Name: "count", Type: "integer"}, byName("count"))
	assert.Equal(t, Field{Name: "tags", Type: "array", Items: "string"}, byName("tags"))
	assert.Equal(t, Field{Name: "labels", Type: "object", Items: "string"}, byName("labels"))
	assert.Equal(t, Field{Name: "leaf", Type: "object", Ref: "leaf"}, byName("leaf"))
	assert.Equal(t, Field{Name: "leaves", Type: "array", Ref: "leaf"}, byName("leaves"))
	assert.Equal(t, "From the embedded struct", byName("shared").Description)

	require.Contains(t, doc.Defs, "leaf")
	assert.NotContains(t, doc.Defs, "sample")
	assert.NotContains(t, doc.Defs, "embedded")
}

func TestGenerate_NotAStruct(t *testing.T) {
	_, err := NewGenerator().Generate("nope", "", "")
	require.ErrorIs(t, err, ErrNotAStruct)

	_, err = NewGenerator().Generate(nil, "", "")
	require.ErrorIs(t, err, ErrNotAStruct)
}

func TestWriteJSONSchema_JobFile(t *testing.T) {
	doc, err := NewGenerator().Generate(&config.Definition{}, "Job", "A job file")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.WriteJSONSchema(&buf))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, draft, got["$schema"])
	assert.Equal(t, "Job", got["title"])
	assert.Equal(t, "object", got["type"])
	assert.Equal(t, false, got["additionalProperties"])
	assert.ElementsMatch(t, []any{"name", "commands"}, got["required"])

	props := got["properties"].(map[string]any)
	commands := props["commands"].(map[string]any)
	assert.Equal(t, "array", commands["type"])
	assert.Equal(t, map[string]any{"$ref": "#/$defs/CommandDefinition"}, commands["items"])

	env := props["env"].(map[string]any)
	assert.Equal(t, map[string]any{"type": "string"}, env["additionalProperties"])

	defs := got["$defs"].(map[string]any)
	require.Contains(t, defs, "CommandDefinition")
	require.Contains(t, defs, "RuleDefinition")

	cmdDef := defs["CommandDefinition"].(map[string]any)
	assert.NotContains(t, cmdDef, "required", "every command field is optional")

	cmdProps := cmdDef["properties"].(map[string]any)
	nested := cmdProps["commands"].(map[string]any)
	assert.Equal(t, map[string]any{"$ref": "#/$defs/CommandDefinition"}, nested["items"])
	assert.Equal(t, "integer", cmdProps["success_exit_codes"].(map[string]any)["items"].(map[string]any)["type"])

	rule := defs["RuleDefinition"].(map[string]any)
	assert.ElementsMatch(t, []any{"match", "level"}, rule["required"])
}

func TestWriteMarkdownDoc(t *testing.T) {
	doc, err := NewGenerator().Generate(sample{}, "Sample", "A sample")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, doc.WriteMarkdownDoc(&buf))

	out := buf.String()
	assert.Contains(t, out, "# Sample\n\nA sample\n\n## Root\n\n")
	assert.Contains(t, out, "- **name** (string): The name\n")
	assert.Contains(t, out, "- **count** (integer, optional)\n")
	assert.Contains(t, out, "- **tags** (array of string, optional)\n")
	assert.Contains(t, out, "- **labels** (map of string, optional)\n")
	assert.Contains(t, out, "- **leaves** (array of leaf, optional)\n")
	assert.Contains(t, out, "\n## leaf\n\n- **value** (string)\n")
}
