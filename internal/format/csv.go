package format

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// SAIDCommentPrefix starts the first line of every CSV entry file.
const SAIDCommentPrefix = "# oca_bundle_said="

// WriteCSV writes the SAID comment line, the header row and, when requested,
// the metadata row.
func WriteCSV(w io.Writer, schema *core.EntrySchema, opts Options) error {
	if _, err := fmt.Fprintf(w, "%s%s\n", SAIDCommentPrefix, schema.SAID); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(headers(schema, opts.UseLabels)); err != nil {
		return err
	}

	if opts.IncludeMetadata {
		meta := make([]string, len(schema.Attributes))
		for i, a := range schema.Attributes {
			meta[i] = metadataCell(a)
		}
		if err := cw.Write(meta); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
