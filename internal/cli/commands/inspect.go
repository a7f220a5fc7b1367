package commands

import (
	"fmt"

	"github.com/leapstack-labs/ocaentry/internal/cli/output"
	"github.com/leapstack-labs/ocaentry/internal/extract"
	"github.com/leapstack-labs/ocaentry/internal/format"
	"github.com/leapstack-labs/ocaentry/pkg/core"
	"github.com/spf13/cobra"
)

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect <bundle>",
		Short: "Show the entry schema of a bundle",
		Long: `Show the flattened entry schema of a bundle: one row per column with
its dotted name, composed label and formatted type.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output json for the raw entry schema.`,
		Example: `  # Inspect a bundle by name
  ocaentry inspect person

  # With French labels
  ocaentry inspect person --label-lang fra

  # Entry schema as JSON
  ocaentry inspect EXAMPLE_SAID --output json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}

	return cmd
}

func runInspect(cmd *cobra.Command, arg string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	root, err := cmdCtx.ResolveBundle(arg)
	if err != nil {
		return err
	}

	opts := cmdCtx.Cfg.ExtractOptions()
	opts.Logger = cmdCtx.Logger
	schema, err := extract.Extract(root, cmdCtx.Catalog.IndexFor(root), opts)
	if err != nil {
		return fmt.Errorf("failed to extract %s: %w", displayName(root), err)
	}
	unresolved := cmdCtx.Catalog.Unresolved(root)

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return format.WriteJSON(r.Writer(), schema)
	case output.ModeMarkdown:
		inspectMarkdown(r, root, schema, unresolved)
	default:
		inspectText(r, root, schema, unresolved)
	}
	return nil
}

func schemaTitle(root *core.Bundle, schema *core.EntrySchema) string {
	if schema.Name != "" {
		return schema.Name
	}
	return displayName(root)
}

// inspectText outputs the schema as a styled table.
func inspectText(r *output.Renderer, root *core.Bundle, schema *core.EntrySchema, unresolved []core.RefTarget) {
	styles := r.Styles()

	r.Header(1, schemaTitle(root, schema))
	r.Println(styles.Said.Render(schema.SAID))
	if schema.Description != "" {
		r.Println(schema.Description)
	}
	r.Println("")

	format.RenderTable(r.Writer(), schema)

	if len(unresolved) > 0 {
		r.Println("")
		r.Println(styles.Warning.Render("Unresolved references (kept as columns):"))
		for _, ref := range unresolved {
			r.Printf("  %s\n", styles.Muted.Render(ref.String()))
		}
	}
}

// inspectMarkdown outputs the schema in markdown format.
func inspectMarkdown(r *output.Renderer, root *core.Bundle, schema *core.EntrySchema, unresolved []core.RefTarget) {
	r.Println(output.FormatHeader(1, schemaTitle(root, schema)))
	r.Println("")
	r.Println(output.FormatKeyValue("SAID", schema.SAID))
	if schema.Description != "" {
		r.Println(output.FormatKeyValue("Description", schema.Description))
	}
	r.Println(output.FormatKeyValue("Columns", fmt.Sprintf("%d", len(schema.Attributes))))
	r.Println("")

	r.Println(output.FormatHeader(2, "Columns"))
	r.Println("")
	format.RenderMarkdown(r.Writer(), schema)

	if len(unresolved) > 0 {
		r.Println("")
		r.Println(output.FormatHeader(2, "Unresolved References"))
		for _, ref := range unresolved {
			r.Printf("- %s\n", ref.String())
		}
	}
}
