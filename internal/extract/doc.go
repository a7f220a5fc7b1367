// Package extract flattens a bundle and the bundles it references into a
// single ordered list of data-entry columns.
//
// The walk visits capture base attributes in declaration order. An attribute
// whose type is a reference (or an array of references) that resolves in the
// dependency index is replaced by the referenced bundle's attributes, nested
// under the attribute's dotted path. Every other attribute becomes a leaf.
//
// Labels come from label overlays. The root bundle's labels may be filtered by
// language; referenced bundles always use their unfiltered labels. Labels are
// joined across reference boundaries with ".", falling back to the bare
// attribute name when a nested attribute has no label of its own.
package extract
