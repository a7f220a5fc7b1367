package format

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func ptr(s string) *string { return &s }

func testSchema() *core.EntrySchema {
	return &core.EntrySchema{
		SAID: "EXAMPLE_SAID",
		Name: "Person",
		Attributes: []core.AttributeSpec{
			{Name: "first_name", Label: ptr("First Name"), AttrType: "Text"},
			{Name: "address.street", Label: ptr("Home Address, Street"), AttrType: "Text"},
			{Name: "address.zip", AttrType: "Numeric"},
		},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", CSV, false},
		{"XLSX", XLSX, false},
		{" json ", JSON, false},
		{"xml", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, ".xlsx", XLSX.Extension())
	assert.True(t, XLSX.Binary())
	assert.False(t, CSV.Binary())
}

func TestWriteCSV(t *testing.T) {
	t.Run("names", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, testSchema(), Options{}))

		assert.Equal(t,
			"# oca_bundle_said=EXAMPLE_SAID\n"+
				"first_name,address.street,address.zip\n",
			buf.String())
	})

	t.Run("labels fall back to names and are quoted", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, testSchema(), Options{UseLabels: true}))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, `First Name,"Home Address, Street",address.zip`, lines[1])
	})

	t.Run("metadata row", func(t *testing.T) {
		schema := testSchema()
		schema.Attributes[0].Required = true
		schema.Attributes[0].EntryValues = []string{"a", "b"}
		schema.Attributes[2].Unit = ptr("kg")

		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, schema, Options{IncludeMetadata: true}))

		lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "required; type=Text; values=a|b,type=Text,type=Numeric; unit=kg", lines[2])
	})

	t.Run("empty schema", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, WriteCSV(&buf, &core.EntrySchema{SAID: "E"}, Options{}))
		assert.True(t, strings.HasPrefix(buf.String(), "# oca_bundle_said=E\n"))
	})
}

func TestWriteXLSX(t *testing.T) {
	open := func(t *testing.T, opts Options) *excelize.File {
		t.Helper()
		var buf bytes.Buffer
		require.NoError(t, WriteXLSX(&buf, testSchema(), opts))

		f, err := excelize.OpenReader(&buf)
		require.NoError(t, err)
		t.Cleanup(func() { _ = f.Close() })
		return f
	}

	cell := func(t *testing.T, f *excelize.File, sheet, ref string) string {
		t.Helper()
		v, err := f.GetCellValue(sheet, ref)
		require.NoError(t, err)
		return v
	}

	t.Run("header row only", func(t *testing.T) {
		f := open(t, Options{})
		assert.Equal(t, []string{EntrySheet}, f.GetSheetList())
		assert.Equal(t, "first_name", cell(t, f, EntrySheet, "A1"))
		assert.Equal(t, "address.street", cell(t, f, EntrySheet, "B1"))
		assert.Equal(t, "address.zip", cell(t, f, EntrySheet, "C1"))
		assert.Empty(t, cell(t, f, EntrySheet, "A2"))
	})

	t.Run("labels and meta sheet", func(t *testing.T) {
		f := open(t, Options{UseLabels: true, IncludeMetadata: true})
		assert.Equal(t, []string{EntrySheet, MetaSheet}, f.GetSheetList())
		assert.Equal(t, "First Name", cell(t, f, EntrySheet, "A1"))
		assert.Equal(t, "address.zip", cell(t, f, EntrySheet, "C1"))

		assert.Equal(t, "oca_bundle_said", cell(t, f, MetaSheet, "A1"))
		assert.Equal(t, "EXAMPLE_SAID", cell(t, f, MetaSheet, "B1"))
		assert.Equal(t, "attribute", cell(t, f, MetaSheet, "A3"))
		assert.Equal(t, "type", cell(t, f, MetaSheet, "C3"))
		assert.Equal(t, "first_name", cell(t, f, MetaSheet, "A4"))
		assert.Equal(t, "First Name", cell(t, f, MetaSheet, "B4"))
		assert.Equal(t, "Text", cell(t, f, MetaSheet, "C4"))
		assert.Equal(t, "address.zip", cell(t, f, MetaSheet, "A6"))
		assert.Empty(t, cell(t, f, MetaSheet, "B6"))
		assert.Equal(t, "Numeric", cell(t, f, MetaSheet, "C6"))
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, JSON, testSchema(), Options{}))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "EXAMPLE_SAID", decoded["said"])

	attrs, ok := decoded["attributes"].([]any)
	require.True(t, ok)
	require.Len(t, attrs, 3)
	first := attrs[0].(map[string]any)
	assert.Equal(t, "first_name", first["name"])
	assert.Equal(t, false, first["required"])
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write(&bytes.Buffer{}, Format("xml"), testSchema(), Options{})
	require.Error(t, err)
}

func TestRenderTable(t *testing.T) {
	var buf bytes.Buffer
	RenderTable(&buf, testSchema())

	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "ATTRIBUTE")
	assert.Contains(t, out, "address.street")
	assert.Contains(t, out, "Home Address, Street")
	assert.Contains(t, out, "(3 columns)")

	buf.Reset()
	RenderTable(&buf, &core.EntrySchema{SAID: "E"})
	assert.Equal(t, "(0 columns)\n", buf.String())
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	RenderMarkdown(&buf, testSchema())

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "|"))
	assert.Contains(t, strings.ToLower(lines[0]), "attribute")
	assert.Contains(t, lines[2], "first_name")
	assert.Contains(t, lines[2], "First Name")
}
