package format

import (
	"fmt"
	"io"

	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/xuri/excelize/v2"
)

// Sheet names used in XLSX entry files.
const (
	EntrySheet = "Sheet1"
	MetaSheet  = "meta"
)

// WriteXLSX writes an XLSX workbook for schema.
func WriteXLSX(w io.Writer, schema *core.EntrySchema, opts Options) error {
	f, err := NewWorkbook(schema, opts)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// NewWorkbook builds the workbook WriteXLSX writes. The entry sheet holds
// the header row; the meta sheet, when requested, holds the bundle SAID and
// one attribute/label/type row per column.
func NewWorkbook(schema *core.EntrySchema, opts Options) (*excelize.File, error) {
	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeEntrySheet(f, schema, opts, bold); err != nil {
		_ = f.Close()
		return nil, err
	}
	if opts.IncludeMetadata {
		if err := writeMetaSheet(f, schema, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	return f, nil
}

func writeEntrySheet(f *excelize.File, schema *core.EntrySchema, opts Options, style int) error {
	if len(schema.Attributes) == 0 {
		return nil
	}

	row := make([]any, len(schema.Attributes))
	for i, h := range headers(schema, opts.UseLabels) {
		row[i] = h
	}
	if err := f.SetSheetRow(EntrySheet, "A1", &row); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	last, err := excelize.CoordinatesToCellName(len(row), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(EntrySheet, "A1", last, style)
}

func writeMetaSheet(f *excelize.File, schema *core.EntrySchema, style int) error {
	if _, err := f.NewSheet(MetaSheet); err != nil {
		return fmt.Errorf("failed to add %s sheet: %w", MetaSheet, err)
	}

	cells := []struct {
		cell  string
		value string
	}{
		{"A1", "oca_bundle_said"},
		{"B1", schema.SAID},
		{"A3", "attribute"},
		{"B3", "label"},
		{"C3", "type"},
	}
	for _, c := range cells {
		if err := f.SetCellValue(MetaSheet, c.cell, c.value); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(MetaSheet, "A3", "C3", style); err != nil {
		return err
	}

	for i, a := range schema.Attributes {
		row := []any{a.Name, a.LabelOrEmpty(), a.AttrType}
		cell, err := excelize.CoordinatesToCellName(1, i+4)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(MetaSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write meta row for %s: %w", a.Name, err)
		}
	}
	return nil
}
