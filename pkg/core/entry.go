package core

// EntrySchema is the flattened, leaf-only attribute list of a bundle.
type EntrySchema struct {
	// SAID is the canonical identifier of the root bundle.
	SAID string `json:"said"`
	// Name and Description come from the root bundle's meta overlay.
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
	// Attributes in first-discovery order, unique by Name.
	Attributes []AttributeSpec `json:"attributes"`
}

// AttributeSpec is one data-entry column.
type AttributeSpec struct {
	// Name is the dotted path, e.g. "address.street".
	Name  string  `json:"name"`
	Label *string `json:"label"`
	// AttrType is the formatted type descriptor.
	AttrType    string   `json:"attr_type"`
	Required    bool     `json:"required"`
	Format      *string  `json:"format"`
	Unit        *string  `json:"unit"`
	Cardinality *string  `json:"cardinality"`
	EntryValues []string `json:"entry_values"`
}

// Header returns the column header: the label when useLabel is set and a
// label exists, otherwise the dotted name.
func (a AttributeSpec) Header(useLabel bool) string {
	if useLabel && a.Label != nil {
		return *a.Label
	}
	return a.Name
}

// LabelOrEmpty returns the label, or "" when there is none.
func (a AttributeSpec) LabelOrEmpty() string {
	if a.Label == nil {
		return ""
	}
	return *a.Label
}

// Names returns the dotted attribute names in order.
func (s *EntrySchema) Names() []string {
	names := make([]string, len(s.Attributes))
	for i, a := range s.Attributes {
		names[i] = a.Name
	}
	return names
}
