package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/leapstack-labs/ocaentry/internal/cli/output"
	"github.com/leapstack-labs/ocaentry/internal/dag"
	"github.com/spf13/cobra"
)

// NewDepsCommand creates the deps command.
func NewDepsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deps [bundle]",
		Short: "Show the bundle reference graph",
		Long: `Display how bundles in the bundles directory reference each other.

Bundles are grouped into levels: a bundle only references bundles on
earlier levels. Given a bundle, only the bundles it reaches are shown.
Reference cycles and references no bundle satisfies are reported.`,
		Example: `  # Whole bundles directory
  ocaentry deps

  # What person depends on, as JSON
  ocaentry deps person --output json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDeps(cmd, args)
		},
	}

	return cmd
}

func runDeps(cmd *cobra.Command, args []string) error {
	cmdCtx, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}

	catalog := cmdCtx.Catalog
	graph := catalog.Graph()
	out := &output.DepsOutput{
		TotalBundles:    graph.NodeCount(),
		TotalReferences: graph.EdgeCount(),
	}

	// keep is nil for the whole catalog
	var keep map[string]bool
	unresolved := make(map[string]bool)

	if len(args) == 1 {
		root, err := cmdCtx.ResolveBundle(args[0])
		if err != nil {
			return err
		}
		out.Root = displayName(root)

		keep = make(map[string]bool)
		if key, ok := catalog.Key(root); ok {
			keep[key] = true
			out.Roots = []string{key}
		}
		idx := catalog.IndexFor(root)
		for _, b := range idx.BySAID {
			if key, ok := catalog.Key(b); ok {
				keep[key] = true
			}
		}
		for _, b := range idx.ByName {
			if key, ok := catalog.Key(b); ok {
				keep[key] = true
			}
		}
		for _, ref := range catalog.Unresolved(root) {
			unresolved[ref.String()] = true
		}
	} else {
		out.Roots = graph.Roots()
		for _, b := range catalog.Bundles() {
			for _, ref := range catalog.Unresolved(b) {
				unresolved[ref.String()] = true
			}
		}
	}

	if out.Roots == nil {
		out.Roots = []string{}
	}
	for ref := range unresolved {
		out.Unresolved = append(out.Unresolved, ref)
	}
	sort.Strings(out.Unresolved)

	if hasCycle, cycle := graph.FindCycle(); hasCycle {
		out.Cycle = cycle
	}
	out.Levels = depsLevels(graph, keep)
	if keep != nil {
		out.TotalBundles, out.TotalReferences = 0, 0
		for _, level := range out.Levels {
			out.TotalBundles += len(level.Bundles)
			for _, n := range level.Bundles {
				out.TotalReferences += len(n.References)
			}
		}
	}

	r := cmdCtx.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		depsMarkdown(r, out)
	default:
		depsText(r, out)
	}
	return nil
}

// depsLevels groups the kept nodes by level. A cyclic graph has no levels;
// its nodes are listed together on level 0.
func depsLevels(graph *dag.Graph, keep map[string]bool) []output.DepsLevel {
	levels, err := graph.Levels()
	if err != nil {
		var all []string
		for _, n := range graph.Nodes() {
			all = append(all, n.ID)
		}
		levels = [][]string{all}
	}

	result := make([]output.DepsLevel, 0, len(levels))
	for _, ids := range levels {
		level := output.DepsLevel{Level: len(result)}
		for _, id := range ids {
			if keep != nil && !keep[id] {
				continue
			}
			level.Bundles = append(level.Bundles, depsNode(graph, id))
		}
		if len(level.Bundles) > 0 {
			result = append(result, level)
		}
	}
	return result
}

func depsNode(graph *dag.Graph, id string) output.DepsNode {
	node := output.DepsNode{
		ID:           id,
		References:   graph.Dependencies(id),
		ReferencedBy: graph.Dependents(id),
	}
	if n, ok := graph.Node(id); ok && n.Bundle != nil {
		node.Name = n.Bundle.Name
		node.Source = n.Bundle.Source
	}
	if node.References == nil {
		node.References = []string{}
	}
	if node.ReferencedBy == nil {
		node.ReferencedBy = []string{}
	}
	return node
}

func nodeLabel(n output.DepsNode) string {
	if n.Name != "" && n.Name != n.ID {
		return fmt.Sprintf("%s (%s)", n.Name, n.ID)
	}
	return n.ID
}

// depsText outputs the graph in styled text format.
func depsText(r *output.Renderer, out *output.DepsOutput) {
	styles := r.Styles()

	r.Header(1, "Bundle References")

	for _, level := range out.Levels {
		r.Println(styles.Header2.Render(fmt.Sprintf("Level %d:", level.Level)))
		for _, n := range level.Bundles {
			r.Printf("  %s\n", styles.Attribute.Render(nodeLabel(n)))
			if len(n.References) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("references:"), strings.Join(n.References, ", "))
			}
			if len(n.ReferencedBy) > 0 {
				r.Printf("    %s %s\n", styles.Muted.Render("referenced by:"), strings.Join(n.ReferencedBy, ", "))
			}
		}
		r.Println("")
	}

	if len(out.Roots) > 0 {
		r.Println(styles.Header2.Render("Roots: ") + strings.Join(out.Roots, ", "))
	}
	if len(out.Cycle) > 0 {
		r.Println(styles.Error.Render("Cycle: " + strings.Join(out.Cycle, " -> ")))
	}
	if len(out.Unresolved) > 0 {
		r.Println(styles.Warning.Render("Unresolved: " + strings.Join(out.Unresolved, ", ")))
	}
	r.Println(styles.Muted.Render(fmt.Sprintf("Total: %d bundles, %d references", out.TotalBundles, out.TotalReferences)))
}

// depsMarkdown outputs the graph in markdown format.
func depsMarkdown(r *output.Renderer, out *output.DepsOutput) {
	title := "Bundle References"
	if out.Root != "" {
		title += ": " + out.Root
	}
	r.Println(output.FormatHeader(1, title))
	r.Println("")

	for _, level := range out.Levels {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Level %d", level.Level)))
		for _, n := range level.Bundles {
			r.Printf("- %s\n", nodeLabel(n))
			if len(n.References) > 0 {
				r.Printf("  - references: %s\n", strings.Join(n.References, ", "))
			}
			if len(n.ReferencedBy) > 0 {
				r.Printf("  - referenced by: %s\n", strings.Join(n.ReferencedBy, ", "))
			}
		}
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Summary"))
	r.Println(output.FormatKeyValue("Total Bundles", fmt.Sprintf("%d", out.TotalBundles)))
	r.Println(output.FormatKeyValue("Total References", fmt.Sprintf("%d", out.TotalReferences)))
	if len(out.Roots) > 0 {
		r.Println(output.FormatKeyValue("Roots", strings.Join(out.Roots, ", ")))
	}
	if len(out.Cycle) > 0 {
		r.Println(output.FormatKeyValue("Cycle", strings.Join(out.Cycle, " -> ")))
	}
	if len(out.Unresolved) > 0 {
		r.Println(output.FormatKeyValue("Unresolved", strings.Join(out.Unresolved, ", ")))
	}
}
