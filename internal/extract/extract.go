package extract

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// Options controls an extraction.
type Options struct {
	// LabelLanguage filters the root bundle's label overlays by language.
	// Empty means no filtering. Referenced bundles are never filtered.
	LabelLanguage string
	// MetadataLanguage filters the root bundle's meta overlays by language.
	MetadataLanguage string
	// MaxDepth bounds how many references deep the walk may go (0 = unlimited).
	MaxDepth int
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Extract flattens root into an EntrySchema, expanding references through deps.
//
// It fails with core.ErrMissingIdentifier when root has no SAID, with a
// *core.CyclicReferenceError when a bundle is re-entered on the same branch,
// and with core.ErrMaxDepthExceeded when Options.MaxDepth is exceeded.
// Unresolved references, malformed overlays and missing labels only degrade
// the output.
func Extract(root *core.Bundle, deps *core.DependencyIndex, opts Options) (*core.EntrySchema, error) {
	if root == nil || root.SAID == "" {
		return nil, core.ErrMissingIdentifier
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &walker{
		deps:     deps,
		maxDepth: opts.MaxDepth,
		logger:   logger,
		emitted:  make(map[string]struct{}),
		stack:    []*core.Bundle{root},
	}

	labels := BuildLabelTable(root, opts.LabelLanguage)
	if err := w.walk(root, "", nil, labels); err != nil {
		return nil, err
	}

	name, description := bundleMeta(root, opts.MetadataLanguage)

	logger.Debug("extracted entry schema",
		"said", root.SAID,
		"attributes", len(w.out),
		"dropped_duplicates", w.dropped)

	return &core.EntrySchema{
		SAID:        root.SAID,
		Name:        name,
		Description: description,
		Attributes:  w.out,
	}, nil
}

// walker carries the traversal state shared by every level of the recursion.
type walker struct {
	deps     *core.DependencyIndex
	maxDepth int
	logger   *slog.Logger

	out     []core.AttributeSpec
	emitted map[string]struct{}
	dropped int

	// stack holds the bundles being expanded on the current branch, root first.
	stack []*core.Bundle
}

func (w *walker) walk(b *core.Bundle, pathPrefix string, labelPrefix *string, labels map[string]string) error {
	for _, attr := range b.Attributes {
		fullPath := attr.Name
		if pathPrefix != "" {
			fullPath = pathPrefix + "." + attr.Name
		}

		var ownLabel *string
		if l, ok := labels[attr.Name]; ok {
			ownLabel = &l
		}
		label := composeLabel(labelPrefix, ownLabel, attr.Name)

		if ref, ok := core.ReferenceOf(attr.Type); ok {
			target, found := w.deps.Resolve(ref)
			if found {
				if err := w.enter(target, fullPath); err != nil {
					return err
				}
				err := w.walk(target, fullPath, ownLabel, BuildLabelTable(target, ""))
				w.stack = w.stack[:len(w.stack)-1]
				if err != nil {
					return err
				}
				continue
			}
			w.logger.Debug("reference not resolved, keeping as leaf",
				"attribute", fullPath, "reference", ref.String())
		}

		w.emit(core.AttributeSpec{
			Name:     fullPath,
			Label:    label,
			AttrType: core.FormatAttrType(attr.Type),
		})
	}
	return nil
}

// enter pushes target on the branch stack, rejecting cycles and excess depth.
func (w *walker) enter(target *core.Bundle, fullPath string) error {
	if i := slices.Index(w.stack, target); i >= 0 {
		cycle := make([]string, 0, len(w.stack)-i+1)
		for _, b := range w.stack[i:] {
			cycle = append(cycle, bundleID(b))
		}
		cycle = append(cycle, bundleID(target))
		return &core.CyclicReferenceError{Attribute: fullPath, Bundles: cycle}
	}

	// the root occupies the first slot
	if w.maxDepth > 0 && len(w.stack) > w.maxDepth {
		return fmt.Errorf("%w: %s (limit %d)", core.ErrMaxDepthExceeded, fullPath, w.maxDepth)
	}

	w.stack = append(w.stack, target)
	return nil
}

// emit appends attr unless its name was already emitted. First writer wins.
func (w *walker) emit(attr core.AttributeSpec) {
	if _, dup := w.emitted[attr.Name]; dup {
		w.dropped++
		w.logger.Debug("dropping duplicate attribute", "attribute", attr.Name)
		return
	}
	w.emitted[attr.Name] = struct{}{}
	w.out = append(w.out, attr)
}

// composeLabel joins the inherited label prefix with an attribute's own label.
//
//	prefix, own   -> prefix.own
//	prefix, none  -> prefix.name
//	none,   own   -> own
//	none,   none  -> none
func composeLabel(prefix, own *string, name string) *string {
	var s string
	switch {
	case prefix != nil && own != nil:
		s = *prefix + "." + *own
	case prefix != nil:
		s = *prefix + "." + name
	case own != nil:
		s = *own
	default:
		return nil
	}
	return &s
}

// bundleID names a bundle in error messages.
func bundleID(b *core.Bundle) string {
	switch {
	case b.SAID != "":
		return b.SAID
	case b.Name != "":
		return core.NameRef(b.Name).String()
	case b.Source != "":
		return b.Source
	default:
		return "<unnamed bundle>"
	}
}
