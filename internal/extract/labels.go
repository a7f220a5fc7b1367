package extract

import (
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/leapstack-labs/ocaentry/pkg/core"
)

// Overlay kinds are matched by substring, so "label", "spec/overlays/label/1.0"
// and "overlay/label" all qualify.
const (
	labelKind = "label"
	metaKind  = "meta"
)

// labelOverlay is the part of a label overlay the engine reads. Fields are
// left untyped and checked one by one so a single malformed value does not
// discard its siblings.
type labelOverlay struct {
	Language        any            `mapstructure:"language"`
	AttributeLabels map[string]any `mapstructure:"attribute_labels"`
}

// metaOverlay is the part of a meta overlay the engine reads.
type metaOverlay struct {
	Language    any `mapstructure:"language"`
	Name        any `mapstructure:"name"`
	Description any `mapstructure:"description"`
}

// BuildLabelTable maps bare attribute names of b to their labels.
//
// Overlays are scanned in order. Only overlays whose kind contains "label"
// are considered; when lang is non-empty the overlay's language must equal it
// exactly. Later overlays overwrite earlier ones key by key. Overlays whose
// properties do not decode are skipped, as are individual labels that are
// not strings.
func BuildLabelTable(b *core.Bundle, lang string) map[string]string {
	labels := make(map[string]string)
	if b == nil {
		return labels
	}

	for _, ov := range b.Overlays {
		if !strings.Contains(ov.Kind, labelKind) {
			continue
		}

		var lo labelOverlay
		if !decodeOverlay(ov, &lo) {
			continue
		}
		if !languageMatches(lo.Language, lang) {
			continue
		}

		for name, v := range lo.AttributeLabels {
			if label, ok := v.(string); ok {
				labels[name] = label
			}
		}
	}

	return labels
}

// bundleMeta returns the name and description from b's meta overlays,
// filtered by lang when non-empty. Last match wins; an overlay with neither
// field readable as a string does not count as a match.
func bundleMeta(b *core.Bundle, lang string) (name, description string) {
	for _, ov := range b.Overlays {
		if !strings.Contains(ov.Kind, metaKind) {
			continue
		}

		var mo metaOverlay
		if !decodeOverlay(ov, &mo) {
			continue
		}
		if !languageMatches(mo.Language, lang) {
			continue
		}

		n, nameOK := mo.Name.(string)
		d, descOK := mo.Description.(string)
		if nameOK || descOK {
			name, description = n, d
		}
	}
	return name, description
}

// languageMatches reports whether an overlay language v satisfies lang.
// Any overlay matches an empty lang; otherwise v must be the same string.
func languageMatches(v any, lang string) bool {
	if lang == "" {
		return true
	}
	s, ok := v.(string)
	return ok && s == lang
}

// decodeOverlay decodes the overlay properties into out.
// It reports false when the properties are missing or do not fit.
func decodeOverlay(ov core.Overlay, out any) bool {
	if ov.Properties == nil {
		return false
	}
	return mapstructure.Decode(ov.Properties, out) == nil
}
