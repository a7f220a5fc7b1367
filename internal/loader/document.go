// Package loader parses bundle documents into core.Bundle values.
//
// Documents are YAML or JSON (JSON is read through the YAML parser). The
// yaml.Node tree is walked directly so that the declared attribute order of
// the capture base survives parsing.
package loader

import (
	"fmt"
	"os"
	"strings"

	"github.com/leapstack-labs/ocaentry/pkg/core"
	"gopkg.in/yaml.v3"
)

// knownFields are the top-level keys a bundle document may carry.
var knownFields = map[string]bool{
	"v":            true,
	"digest":       true,
	"d":            true,
	"name":         true,
	"capture_base": true,
	"overlays":     true,
	"dependencies": true,
}

// Document is a parsed bundle file: the bundle itself plus any bundles
// embedded under "dependencies".
type Document struct {
	Bundle       *core.Bundle
	Dependencies []*core.Bundle
}

// ParseFile reads and parses the bundle document at path.
func ParseFile(path string) (*Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bundle %s: %w", path, err)
	}

	doc, err := Parse(content)
	if err != nil {
		return nil, withFile(err, path)
	}

	doc.Bundle.Source = path
	for _, dep := range doc.Dependencies {
		dep.Source = path
	}
	return doc, nil
}

// Parse parses a bundle document.
func Parse(content []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, &ParseError{Message: fmt.Sprintf("invalid YAML: %v", err)}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{Message: "empty bundle document"}
	}

	return parseDocument(root.Content[0])
}

func parseDocument(node *yaml.Node) (*Document, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: node.Line, Message: "bundle document must be a mapping"}
	}

	b := &core.Bundle{}
	doc := &Document{Bundle: b}

	var err error
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if !knownFields[key.Value] {
			return nil, &UnknownFieldError{Field: key.Value, Line: key.Line}
		}

		switch key.Value {
		case "digest", "d":
			b.SAID, err = scalar(value, key.Value)
		case "name":
			b.Name, err = scalar(value, key.Value)
		case "capture_base":
			b.Attributes, err = parseCaptureBase(value)
		case "overlays":
			b.Overlays, err = parseOverlays(value)
		case "dependencies":
			doc.Dependencies, err = parseDependencies(value)
		}
		if err != nil {
			return nil, err
		}
	}

	return doc, nil
}

func parseCaptureBase(node *yaml.Node) ([]core.Attribute, error) {
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: node.Line, Message: "capture_base must be a mapping"}
	}

	// other capture base keys (d, type, classification, flagged_attributes)
	// carry nothing the extraction needs
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == "attributes" {
			return parseAttributes(node.Content[i+1])
		}
	}
	return nil, nil
}

func parseAttributes(node *yaml.Node) ([]core.Attribute, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{Line: node.Line, Message: "capture_base.attributes must be a mapping"}
	}

	attrs := make([]core.Attribute, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if seen[key.Value] {
			return nil, &ParseError{Line: key.Line, Message: fmt.Sprintf("duplicate attribute %q", key.Value)}
		}
		seen[key.Value] = true

		t, err := parseAttrTypeNode(value)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, core.Attribute{Name: key.Value, Type: t})
	}
	return attrs, nil
}

// ParseAttrType parses the string form of an attribute type:
// "Text", "refs:<said>", "refn:<name>", "Array[<type>]".
func ParseAttrType(s string) (core.AttrType, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, &ParseError{Message: "empty attribute type"}
	}
	if ref, ok := core.ParseRefTarget(s); ok {
		if ref.Value == "" {
			return nil, &ParseError{Message: fmt.Sprintf("reference %q has no target", s)}
		}
		return core.ReferenceType{Target: ref}, nil
	}
	if strings.HasPrefix(s, "Array[") {
		if !strings.HasSuffix(s, "]") {
			return nil, &ParseError{Message: fmt.Sprintf("unterminated array type %q", s)}
		}
		elem, err := ParseAttrType(s[len("Array[") : len(s)-1])
		if err != nil {
			return nil, err
		}
		return core.ArrayType{Elem: elem}, nil
	}
	return core.ValueType{Name: s}, nil
}

func parseAttrTypeNode(node *yaml.Node) (core.AttrType, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if isNull(node) {
			return core.NullType{}, nil
		}
		t, err := ParseAttrType(node.Value)
		if err != nil {
			return nil, withLine(err, node.Line)
		}
		return t, nil
	case yaml.SequenceNode:
		if len(node.Content) != 1 {
			return nil, &ParseError{Line: node.Line, Message: "array attribute type must have exactly one element type"}
		}
		elem, err := parseAttrTypeNode(node.Content[0])
		if err != nil {
			return nil, err
		}
		return core.ArrayType{Elem: elem}, nil
	case yaml.AliasNode:
		return parseAttrTypeNode(node.Alias)
	default:
		return nil, &ParseError{Line: node.Line, Message: "unsupported attribute type"}
	}
}

// parseOverlays accepts a list of overlays, each naming its kind in "type",
// or a mapping from kind to one overlay or a list of overlays.
func parseOverlays(node *yaml.Node) ([]core.Overlay, error) {
	switch {
	case isNull(node):
		return nil, nil
	case node.Kind == yaml.SequenceNode:
		overlays := make([]core.Overlay, 0, len(node.Content))
		for _, item := range node.Content {
			overlays = append(overlays, overlayFromNode(item, ""))
		}
		return overlays, nil
	case node.Kind == yaml.MappingNode:
		var overlays []core.Overlay
		for i := 0; i+1 < len(node.Content); i += 2 {
			kind, value := node.Content[i].Value, node.Content[i+1]
			if value.Kind == yaml.SequenceNode {
				for _, item := range value.Content {
					overlays = append(overlays, overlayFromNode(item, kind))
				}
				continue
			}
			overlays = append(overlays, overlayFromNode(value, kind))
		}
		return overlays, nil
	default:
		return nil, &ParseError{Line: node.Line, Message: "overlays must be a list or a mapping"}
	}
}

// overlayFromNode never fails: an overlay whose payload is not a mapping is
// kept with nil properties and contributes nothing downstream.
func overlayFromNode(node *yaml.Node, kind string) core.Overlay {
	ov := core.Overlay{Kind: kind}

	var props map[string]any
	if node.Kind != yaml.MappingNode || node.Decode(&props) != nil {
		return ov
	}
	ov.Properties = props

	if ov.Kind == "" {
		if t, ok := props["type"].(string); ok {
			ov.Kind = t
		}
	}
	return ov
}

func parseDependencies(node *yaml.Node) ([]*core.Bundle, error) {
	if isNull(node) {
		return nil, nil
	}
	if node.Kind != yaml.SequenceNode {
		return nil, &ParseError{Line: node.Line, Message: "dependencies must be a list of bundles"}
	}

	var deps []*core.Bundle
	for _, item := range node.Content {
		doc, err := parseDocument(item)
		if err != nil {
			return nil, err
		}
		deps = append(deps, doc.Bundle)
		deps = append(deps, doc.Dependencies...)
	}
	return deps, nil
}

func scalar(node *yaml.Node, field string) (string, error) {
	if isNull(node) {
		return "", nil
	}
	if node.Kind != yaml.ScalarNode {
		return "", &ParseError{Line: node.Line, Message: fmt.Sprintf("%s must be a string", field)}
	}
	return node.Value, nil
}

func isNull(node *yaml.Node) bool {
	return node.Kind == yaml.ScalarNode && node.Tag == "!!null"
}
