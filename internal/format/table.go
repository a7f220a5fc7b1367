package format

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/ocaentry/pkg/core"
)

var schemaHeader = table.Row{"#", "Attribute", "Label", "Type"}

func schemaTable(w io.Writer, schema *core.EntrySchema) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(schemaHeader)
	for i, a := range schema.Attributes {
		t.AppendRow(table.Row{i + 1, a.Name, a.LabelOrEmpty(), a.AttrType})
	}
	return t
}

// RenderTable writes the attributes of schema as a box-drawn table followed
// by a column count.
func RenderTable(w io.Writer, schema *core.EntrySchema) {
	if len(schema.Attributes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 columns)")
		return
	}

	t := schemaTable(w, schema)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d columns)\n", len(schema.Attributes))
}

// RenderMarkdown writes the attributes of schema as a Markdown table.
func RenderMarkdown(w io.Writer, schema *core.EntrySchema) {
	if len(schema.Attributes) == 0 {
		_, _ = fmt.Fprintln(w, "(0 columns)")
		return
	}
	schemaTable(w, schema).RenderMarkdown()
}
