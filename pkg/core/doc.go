// Package core defines the shared language of the ocaentry system.
//
// This package contains:
//   - Bundle entities (Bundle, Attribute, Overlay)
//   - Attribute type descriptors (ValueType, ReferenceType, ArrayType, NullType)
//   - The dependency lookup table (DependencyIndex)
//   - The flattened output model (EntrySchema, AttributeSpec)
//
// The Golden Rule: pkg/core imports ONLY stdlib.
// All other packages depend on core, not the reverse.
package core
