package format

import (
	"encoding/json"
	"io"

	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// WriteJSON writes schema as indented JSON.
func WriteJSON(w io.Writer, schema *core.EntrySchema) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(schema)
}
