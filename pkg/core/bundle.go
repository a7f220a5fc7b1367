package core

// Attribute is one entry of a capture base.
type Attribute struct {
	Name string
	Type AttrType
}

// Overlay is an auxiliary document layered on a capture base.
// Properties holds the overlay payload as generic structured data
// (nil, bool, numbers, string, []any, map[string]any).
type Overlay struct {
	Kind       string
	Properties map[string]any
}

// Bundle is a capture base plus its overlays.
type Bundle struct {
	// SAID is the canonical content identifier. Empty means not finalized.
	SAID string
	// Name is the short reference name, if the document declares one.
	Name string
	// Attributes in declaration order. Order is preserved in extracted output.
	Attributes []Attribute
	// Overlays in declaration order.
	Overlays []Overlay
	// Source is the file the bundle was loaded from, if any.
	Source string
}

// References returns the reference targets of the bundle's attributes, in
// declaration order. Array-of-reference attributes are included.
func (b *Bundle) References() []RefTarget {
	var refs []RefTarget
	for _, a := range b.Attributes {
		if ref, ok := ReferenceOf(a.Type); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

// DependencyIndex resolves references to bundles.
// It is populated before extraction and only read during it.
type DependencyIndex struct {
	BySAID map[string]*Bundle
	ByName map[string]*Bundle
}

// NewDependencyIndex creates an empty index.
func NewDependencyIndex() *DependencyIndex {
	return &DependencyIndex{
		BySAID: make(map[string]*Bundle),
		ByName: make(map[string]*Bundle),
	}
}

// Add registers b under its SAID and, if set, its name.
func (d *DependencyIndex) Add(b *Bundle) {
	if b.SAID != "" {
		d.BySAID[b.SAID] = b
	}
	if b.Name != "" {
		d.ByName[b.Name] = b
	}
}

// Resolve looks up the bundle a reference points at.
// A nil index resolves nothing.
func (d *DependencyIndex) Resolve(ref RefTarget) (*Bundle, bool) {
	if d == nil {
		return nil, false
	}
	var b *Bundle
	switch ref.Kind {
	case RefSAID:
		b = d.BySAID[ref.Value]
	case RefName:
		b = d.ByName[ref.Value]
	}
	return b, b != nil
}

// Len returns the number of distinct bundles in the index.
func (d *DependencyIndex) Len() int {
	if d == nil {
		return 0
	}
	seen := make(map[*Bundle]struct{}, len(d.BySAID)+len(d.ByName))
	for _, b := range d.BySAID {
		seen[b] = struct{}{}
	}
	for _, b := range d.ByName {
		seen[b] = struct{}{}
	}
	return len(seen)
}
