// Package format encodes entry schemas as empty data-entry files and as
// human-readable tables.
package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// Format is an entry file encoding.
type Format string

// Supported entry file formats.
const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	JSON Format = "json"
)

// Formats lists the supported formats in display order.
var Formats = []Format{CSV, XLSX, JSON}

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case CSV, XLSX, JSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (expected csv, xlsx or json)", s)
}

// Extension returns the file extension for f, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Binary reports whether f should not be written to a terminal.
func (f Format) Binary() bool {
	return f == XLSX
}

// Options controls how entry files are written.
type Options struct {
	// IncludeMetadata adds a metadata row (CSV) or a meta sheet (XLSX).
	IncludeMetadata bool
	// UseLabels puts labels instead of attribute names in the header,
	// falling back to the name where no label exists.
	UseLabels bool
}

// Write encodes schema in format f.
func Write(w io.Writer, f Format, schema *core.EntrySchema, opts Options) error {
	switch f {
	case CSV:
		return WriteCSV(w, schema, opts)
	case XLSX:
		return WriteXLSX(w, schema, opts)
	case JSON:
		return WriteJSON(w, schema)
	}
	return fmt.Errorf("unknown format %q", f)
}

// headers returns the header row for schema.
func headers(schema *core.EntrySchema, useLabels bool) []string {
	out := make([]string, len(schema.Attributes))
	for i, a := range schema.Attributes {
		out[i] = a.Header(useLabels)
	}
	return out
}

// metadataCell describes one attribute for the metadata row,
// e.g. "required; type=Text; values=a|b".
func metadataCell(a core.AttributeSpec) string {
	var parts []string
	if a.Required {
		parts = append(parts, "required")
	}
	if a.AttrType != "" {
		parts = append(parts, "type="+a.AttrType)
	}
	if a.Format != nil {
		parts = append(parts, "format="+*a.Format)
	}
	if a.Unit != nil {
		parts = append(parts, "unit="+*a.Unit)
	}
	if a.Cardinality != nil {
		parts = append(parts, "cardinality="+*a.Cardinality)
	}
	if a.EntryValues != nil {
		parts = append(parts, "values="+strings.Join(a.EntryValues, "|"))
	}
	return strings.Join(parts, "; ")
}
