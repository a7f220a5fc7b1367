package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_YAML(t *testing.T) {
	content := `
digest: EXAMPLE_SAID
name: person
capture_base:
  type: spec/capture_base/1.0
  attributes:
    first_name: Text
    address: refs:ESAID_ADDR
    pet: refn:pet
    tags: [Text]
    scores: Array[Numeric]
    nothing: null
overlays:
  - type: spec/overlays/label/1.0
    language: eng
    attribute_labels:
      first_name: First Name
      address: Home Address
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	b := doc.Bundle
	assert.Equal(t, "EXAMPLE_SAID", b.SAID)
	assert.Equal(t, "person", b.Name)

	require.Len(t, b.Attributes, 6)
	assert.Equal(t, core.Attribute{Name: "first_name", Type: core.ValueType{Name: "Text"}}, b.Attributes[0])
	assert.Equal(t, core.Attribute{Name: "address", Type: core.ReferenceType{Target: core.SAIDRef("ESAID_ADDR")}}, b.Attributes[1])
	assert.Equal(t, core.Attribute{Name: "pet", Type: core.ReferenceType{Target: core.NameRef("pet")}}, b.Attributes[2])
	assert.Equal(t, core.Attribute{Name: "tags", Type: core.ArrayType{Elem: core.ValueType{Name: "Text"}}}, b.Attributes[3])
	assert.Equal(t, core.Attribute{Name: "scores", Type: core.ArrayType{Elem: core.ValueType{Name: "Numeric"}}}, b.Attributes[4])
	assert.Equal(t, core.Attribute{Name: "nothing", Type: core.NullType{}}, b.Attributes[5])

	require.Len(t, b.Overlays, 1)
	assert.Equal(t, "spec/overlays/label/1.0", b.Overlays[0].Kind)
	assert.Equal(t, "eng", b.Overlays[0].Properties["language"])
	assert.Equal(t, map[string]any{"first_name": "First Name", "address": "Home Address"},
		b.Overlays[0].Properties["attribute_labels"])
}

func TestParse_JSONKeepsAttributeOrder(t *testing.T) {
	content := `{
  "d": "EORDER",
  "capture_base": {
    "attributes": {"zulu": "Text", "alpha": "Numeric", "mike": ["refs:EX"], "bravo": "Boolean"}
  },
  "overlays": {
    "label": [
      {"language": "eng", "attribute_labels": {"zulu": "Z"}},
      {"language": "fra", "attribute_labels": {"zulu": "Zz"}}
    ],
    "meta": {"language": "eng", "name": "Ordered"}
  }
}`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	b := doc.Bundle
	assert.Equal(t, "EORDER", b.SAID)

	names := make([]string, len(b.Attributes))
	for i, a := range b.Attributes {
		names[i] = a.Name
	}
	assert.Equal(t, []string{"zulu", "alpha", "mike", "bravo"}, names)
	assert.Equal(t, core.ArrayType{Elem: core.ReferenceType{Target: core.SAIDRef("EX")}}, b.Attributes[2].Type)

	require.Len(t, b.Overlays, 3)
	assert.Equal(t, "label", b.Overlays[0].Kind)
	assert.Equal(t, "fra", b.Overlays[1].Properties["language"])
	assert.Equal(t, "meta", b.Overlays[2].Kind)
}

func TestParse_MalformedOverlayIsKept(t *testing.T) {
	content := `
digest: E1
capture_base:
  attributes:
    a: Text
overlays:
  - just a string
  - type: label
    attribute_labels: {a: A}
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Bundle.Overlays, 2)
	assert.Nil(t, doc.Bundle.Overlays[0].Properties)
	assert.Equal(t, "label", doc.Bundle.Overlays[1].Kind)
}

func TestParse_Dependencies(t *testing.T) {
	content := `
digest: EROOT
capture_base:
  attributes:
    address: refs:EADDR
dependencies:
  - digest: EADDR
    capture_base:
      attributes:
        street: Text
        geo: refs:EGEO
    dependencies:
      - digest: EGEO
        capture_base:
          attributes:
            lat: Numeric
`
	doc, err := Parse([]byte(content))
	require.NoError(t, err)

	require.Len(t, doc.Dependencies, 2)
	assert.Equal(t, "EADDR", doc.Dependencies[0].SAID)
	assert.Equal(t, "EGEO", doc.Dependencies[1].SAID)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{"empty", "", "empty bundle document"},
		{"not a mapping", "- a\n- b\n", "must be a mapping"},
		{"invalid yaml", "digest: [unclosed", "invalid YAML"},
		{"unknown field", "digest: E1\nschema: x\n", `unknown field "schema"`},
		{"attributes not a mapping", "capture_base:\n  attributes: [a, b]\n", "attributes must be a mapping"},
		{"array with two element types", "capture_base:\n  attributes:\n    a: [Text, Numeric]\n", "exactly one element type"},
		{"object attribute type", "capture_base:\n  attributes:\n    a: {x: y}\n", "unsupported attribute type"},
		{"empty reference", "capture_base:\n  attributes:\n    a: 'refs:'\n", "has no target"},
		{"unterminated array", "capture_base:\n  attributes:\n    a: 'Array[Text'\n", "unterminated array"},
		{"duplicate attribute", "capture_base:\n  attributes:\n    a: Text\n    a: Numeric\n", "duplicate attribute"},
		{"overlays scalar", "overlays: nope\n", "overlays must be a list or a mapping"},
		{"digest not scalar", "digest: [a]\n", "digest must be a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParse_UnknownFieldErrorType(t *testing.T) {
	_, err := Parse([]byte("digest: E1\nextra: 1\n"))

	var ufe *UnknownFieldError
	require.True(t, errors.As(err, &ufe))
	assert.Equal(t, "extra", ufe.Field)
	assert.Equal(t, 2, ufe.Line)
}

func TestParseAttrType(t *testing.T) {
	tests := []struct {
		in   string
		want core.AttrType
	}{
		{"Text", core.ValueType{Name: "Text"}},
		{" DateTime ", core.ValueType{Name: "DateTime"}},
		{"refs:EABC", core.ReferenceType{Target: core.SAIDRef("EABC")}},
		{"refn:addr", core.ReferenceType{Target: core.NameRef("addr")}},
		{"Array[Text]", core.ArrayType{Elem: core.ValueType{Name: "Text"}}},
		{"Array[Array[refs:E1]]", core.ArrayType{Elem: core.ArrayType{Elem: core.ReferenceType{Target: core.SAIDRef("E1")}}}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAttrType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "person.yaml")
	require.NoError(t, os.WriteFile(path, []byte("digest: E1\ncapture_base:\n  attributes:\n    a: Text\n"), 0600))

	doc, err := ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Bundle.Source)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("digest: E1\nbogus: true\n"), 0600))
	_, err = ParseFile(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad+":2:")

	_, err = ParseFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read bundle")
}
