package core

import "strings"

// =============================================================================
// Attribute type descriptors
// =============================================================================

// AttrType describes the declared type of a capture base attribute.
// The variant set is closed: ValueType, ReferenceType, ArrayType and NullType.
type AttrType interface {
	attrType()
}

// ValueType is a terminal scalar type such as Text, Numeric or DateTime.
type ValueType struct {
	Name string
}

func (ValueType) attrType() {}

// ReferenceType points at another bundle.
type ReferenceType struct {
	Target RefTarget
}

func (ReferenceType) attrType() {}

// ArrayType is a homogeneous sequence of Elem.
type ArrayType struct {
	Elem AttrType
}

func (ArrayType) attrType() {}

// NullType is an attribute without a declared type.
type NullType struct{}

func (NullType) attrType() {}

// RefKind tells how a reference addresses its target bundle.
type RefKind int

const (
	// RefSAID addresses the target by its canonical identifier.
	RefSAID RefKind = iota
	// RefName addresses the target by its short reference name.
	RefName
)

// Reference prefixes used in capture base documents.
const (
	RefSAIDPrefix = "refs:"
	RefNamePrefix = "refn:"
)

// RefTarget is the target of a ReferenceType.
type RefTarget struct {
	Kind  RefKind
	Value string
}

// SAIDRef returns a reference target addressing a bundle by identifier.
func SAIDRef(said string) RefTarget {
	return RefTarget{Kind: RefSAID, Value: said}
}

// NameRef returns a reference target addressing a bundle by name.
func NameRef(name string) RefTarget {
	return RefTarget{Kind: RefName, Value: name}
}

// String returns the document form of the target ("refs:<said>" or "refn:<name>").
func (r RefTarget) String() string {
	if r.Kind == RefName {
		return RefNamePrefix + r.Value
	}
	return RefSAIDPrefix + r.Value
}

// ParseRefTarget parses "refs:<said>" or "refn:<name>".
// The second return value is false when s carries neither prefix.
func ParseRefTarget(s string) (RefTarget, bool) {
	switch {
	case strings.HasPrefix(s, RefSAIDPrefix):
		return SAIDRef(strings.TrimPrefix(s, RefSAIDPrefix)), true
	case strings.HasPrefix(s, RefNamePrefix):
		return NameRef(strings.TrimPrefix(s, RefNamePrefix)), true
	default:
		return RefTarget{}, false
	}
}

// FormatAttrType renders a descriptor for display.
//
//	Value(t)     -> t
//	Reference(r) -> reference(r)
//	Array(inner) -> array<inner>
//	Null         -> null
//
// A nil descriptor renders as "null".
func FormatAttrType(t AttrType) string {
	switch v := t.(type) {
	case ValueType:
		return v.Name
	case ReferenceType:
		return "reference(" + v.Target.String() + ")"
	case ArrayType:
		return "array<" + FormatAttrType(v.Elem) + ">"
	default:
		return "null"
	}
}

// ReferenceOf returns the reference target carried by t: either t itself is
// a reference, or t is an array whose direct element is a reference.
// Deeper nesting (array of array of reference) is not considered.
func ReferenceOf(t AttrType) (RefTarget, bool) {
	switch v := t.(type) {
	case ReferenceType:
		return v.Target, true
	case ArrayType:
		if ref, ok := v.Elem.(ReferenceType); ok {
			return ref.Target, true
		}
	}
	return RefTarget{}, false
}
